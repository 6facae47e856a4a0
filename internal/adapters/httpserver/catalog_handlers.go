package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/phenrril/storefront/internal/domain"
)

func productFilter(r *http.Request) (domain.ProductFilter, error) {
	q := r.URL.Query()
	f := domain.ProductFilter{
		CategorySlug: q.Get("category"),
		Query:        q.Get("q"),
		Status:       domain.ProductStatus(q.Get("status")),
		Sort:         domain.ProductSort(q.Get("sort")),
	}
	var err error
	if f.Page, f.PageSize, err = paging(r); err != nil {
		return f, err
	}
	if v := q.Get("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, domain.Invalid("min_price must be a number")
		}
		f.MinPrice = &d
	}
	if v := q.Get("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, domain.Invalid("max_price must be a number")
		}
		f.MaxPrice = &d
	}
	if v := q.Get("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, domain.Invalid("in_stock must be true or false")
		}
		f.InStock = b
	}
	return f, nil
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	f, err := productFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.products.List(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) featuredProducts(w http.ResponseWriter, r *http.Request) {
	list, err := s.products.FeaturedProducts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.products.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	tree, err := s.categories.Tree(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.categories.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type applyCouponRequest struct {
	Code     string            `json:"code"`
	Subtotal *decimal.Decimal  `json:"subtotal"`
	Items    []domain.CartItem `json:"items"`
}

// applyCoupon previews a code against the server priced cart, taken from
// the body items or the cart cookie. A bare subtotal is accepted when
// there is no cart at all.
func (s *Server) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	items := req.Items
	if len(items) == 0 {
		var err error
		if items, err = s.liveCart(w, r); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	subtotal := decimal.Zero
	switch {
	case len(items) > 0:
		cart, err := s.cart.Price(r.Context(), items)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		subtotal = cart.Subtotal
	case req.Subtotal != nil:
		subtotal = *req.Subtotal
	default:
		s.fail(w, r, domain.Invalid("cart is empty"))
		return
	}
	d, err := s.coupons.Preview(r.Context(), req.Code, subtotal)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	fromCookie := false
	if len(req.Items) == 0 {
		req.Items = s.readCart(r)
		fromCookie = true
	}
	o, err := s.orders.Place(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if fromCookie {
		s.clearCartCookie(w)
	}
	writeJSON(w, http.StatusCreated, o)
}
