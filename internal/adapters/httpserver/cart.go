package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/phenrril/storefront/internal/domain"
)

const cartCookie = "cart"

// readCart returns the items of a signed cart cookie. A missing, tampered
// or unreadable cookie is an empty cart.
func (s *Server) readCart(r *http.Request) []domain.CartItem {
	c, err := r.Cookie(cartCookie)
	if err != nil {
		return nil
	}
	sigPart, payloadPart, ok := strings.Cut(c.Value, ".")
	if !ok {
		return nil
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return nil
	}
	h := hmac.New(sha256.New, s.cartKey)
	h.Write(payload)
	if !hmac.Equal(sig, h.Sum(nil)) {
		return nil
	}
	var items []domain.CartItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil
	}
	return domain.MergeCartItems(items)
}

// liveCart reads the cookie cart, drops lines that can no longer be bought
// and rewrites the cookie when it shrank.
func (s *Server) liveCart(w http.ResponseWriter, r *http.Request) ([]domain.CartItem, error) {
	items, changed, err := s.cart.Prune(r.Context(), s.readCart(r))
	if err != nil {
		return nil, err
	}
	if changed {
		s.writeCart(w, items)
	}
	return items, nil
}

func (s *Server) writeCart(w http.ResponseWriter, items []domain.CartItem) {
	if len(items) == 0 {
		s.clearCartCookie(w)
		return
	}
	b, _ := json.Marshal(items)
	h := hmac.New(sha256.New, s.cartKey)
	h.Write(b)
	val := base64.RawURLEncoding.EncodeToString(h.Sum(nil)) + "." + base64.RawURLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookie,
		Value:    val,
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 7,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCartCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: cartCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: s.secureCookie})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	items, err := s.liveCart(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cart, err := s.cart.Price(r.Context(), items)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var it domain.CartItem
	if err := decodeJSON(r, &it); err != nil {
		s.fail(w, r, err)
		return
	}
	current, err := s.liveCart(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, cart, err := s.cart.Add(r.Context(), current, it)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeCart(w, items)
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) setCartItem(w http.ResponseWriter, r *http.Request) {
	var it domain.CartItem
	if err := decodeJSON(r, &it); err != nil {
		s.fail(w, r, err)
		return
	}
	current, err := s.liveCart(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, cart, err := s.cart.SetQuantity(r.Context(), current, it)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeCart(w, items)
	writeJSON(w, http.StatusOK, cart)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.clearCartCookie(w)
	cart, _ := s.cart.Price(r.Context(), nil)
	writeJSON(w, http.StatusOK, cart)
}
