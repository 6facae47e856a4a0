package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/domain"
)

type productRepo struct{ s *Store }

func (r productRepo) Save(_ context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, other := range r.s.data.products {
		if id != p.ID && other.Slug == p.Slug {
			return domain.Conflict("product already exists")
		}
	}
	touch(&p.CreatedAt, &p.UpdatedAt, r.s.now())
	r.s.data.products[p.ID] = cloneProduct(*p)
	return nil
}

// withCategory returns a detached copy with Category filled. Callers hold mu.
func (r productRepo) withCategory(p domain.Product) *domain.Product {
	out := cloneProduct(p)
	if c, ok := r.s.data.categories[p.CategoryID]; ok {
		c.Children = nil
		out.Category = &c
	}
	return &out
}

func (r productRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.products[id]
	if !ok {
		return nil, domain.NotFound("product not found")
	}
	return r.withCategory(p), nil
}

func (r productRepo) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.data.products {
		if p.Slug == slug {
			return r.withCategory(p), nil
		}
	}
	return nil, domain.NotFound("product not found")
}

func (r productRepo) SlugExists(_ context.Context, slug string, exceptID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, p := range r.s.data.products {
		if id != exceptID && p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r productRepo) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int64, error) {
	f.Normalize()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var cats map[uuid.UUID]bool
	if f.CategorySlug != "" {
		cats = map[uuid.UUID]bool{}
		for _, c := range r.s.data.categories {
			if c.Slug == f.CategorySlug {
				cats[c.ID] = true
			}
		}
		for _, c := range r.s.data.categories {
			if c.ParentID != nil && cats[*c.ParentID] {
				cats[c.ID] = true
			}
		}
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))

	matched := []domain.Product{}
	for _, p := range r.s.data.products {
		price := p.UnitPrice()
		switch {
		case cats != nil && !cats[p.CategoryID]:
			continue
		case f.Status != "" && p.Status != f.Status:
			continue
		case query != "" && !strings.Contains(strings.ToLower(p.Name), query) && !strings.Contains(strings.ToLower(p.Description), query):
			continue
		case f.MinPrice != nil && price.LessThan(*f.MinPrice):
			continue
		case f.MaxPrice != nil && price.GreaterThan(*f.MaxPrice):
			continue
		case f.InStock && p.Stock <= 0:
			continue
		}
		matched = append(matched, *r.withCategory(p))
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch f.Sort {
		case domain.SortPriceAsc:
			return a.UnitPrice().LessThan(b.UnitPrice())
		case domain.SortPriceDesc:
			return a.UnitPrice().GreaterThan(b.UnitPrice())
		case domain.SortName:
			return a.Name < b.Name
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return window(matched, f.Page, f.PageSize), int64(len(matched)), nil
}

func (r productRepo) LockByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Product{}
	for _, id := range ids {
		if p, ok := r.s.data.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (r productRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.data.products[id]
	if !ok {
		if delta < 0 {
			return domain.ErrOutOfStock
		}
		return domain.NotFound("product not found")
	}
	if p.Stock+delta < 0 {
		return domain.ErrOutOfStock
	}
	p.Stock += delta
	p.UpdatedAt = r.s.now()
	r.s.data.products[id] = p
	return nil
}

func (r productRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.products[id]; !ok {
		return domain.NotFound("product not found")
	}
	for oid, o := range r.s.data.orders {
		changed := false
		for i, it := range o.Items {
			if it.ProductID != nil && *it.ProductID == id {
				o.Items[i].ProductID = nil
				changed = true
			}
		}
		if changed {
			r.s.data.orders[oid] = o
		}
	}
	delete(r.s.data.featured, id)
	delete(r.s.data.products, id)
	return nil
}

func (r productRepo) CountByCategory(_ context.Context, categoryID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.data.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

type featuredRepo struct{ s *Store }

func (r featuredRepo) sorted() []domain.FeaturedProduct {
	list := make([]domain.FeaturedProduct, 0, len(r.s.data.featured))
	for _, fp := range r.s.data.featured {
		list = append(list, fp)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].DisplayOrder != list[j].DisplayOrder {
			return list[i].DisplayOrder < list[j].DisplayOrder
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (r featuredRepo) List(_ context.Context) ([]domain.FeaturedProduct, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(), nil
}

func (r featuredRepo) Save(_ context.Context, productID uuid.UUID, order int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.products[productID]; !ok {
		return domain.NotFound("product not found")
	}
	fp, ok := r.s.data.featured[productID]
	if !ok {
		fp = domain.FeaturedProduct{ID: uuid.New(), ProductID: productID, CreatedAt: r.s.now()}
	}
	fp.DisplayOrder = order
	r.s.data.featured[productID] = fp
	return nil
}

func (r featuredRepo) Remove(_ context.Context, productID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.featured[productID]; !ok {
		return domain.NotFound("featured product not found")
	}
	delete(r.s.data.featured, productID)
	return nil
}

func (r featuredRepo) Products(_ context.Context) ([]domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	pr := productRepo(r)
	out := []domain.Product{}
	for _, fp := range r.sorted() {
		p, ok := r.s.data.products[fp.ProductID]
		if !ok || !p.Purchasable() {
			continue
		}
		out = append(out, *pr.withCategory(p))
	}
	return out, nil
}

type categoryRepo struct{ s *Store }

// withChildren returns c with its direct children sorted by name. Callers hold mu.
func (r categoryRepo) withChildren(c domain.Category) *domain.Category {
	c.Children = []domain.Category{}
	for _, ch := range r.s.data.categories {
		if ch.ParentID != nil && *ch.ParentID == c.ID {
			ch.Children = nil
			c.Children = append(c.Children, ch)
		}
	}
	sort.Slice(c.Children, func(i, j int) bool { return c.Children[i].Name < c.Children[j].Name })
	return &c
}

func (r categoryRepo) Save(_ context.Context, c *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, other := range r.s.data.categories {
		if id != c.ID && other.Slug == c.Slug {
			return domain.Conflict("category already exists")
		}
	}
	touch(&c.CreatedAt, &c.UpdatedAt, r.s.now())
	stored := *c
	stored.Children = nil
	r.s.data.categories[c.ID] = stored
	return nil
}

func (r categoryRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.data.categories[id]
	if !ok {
		return nil, domain.NotFound("category not found")
	}
	return r.withChildren(c), nil
}

func (r categoryRepo) FindBySlug(_ context.Context, slug string) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.data.categories {
		if c.Slug == slug {
			return r.withChildren(c), nil
		}
	}
	return nil, domain.NotFound("category not found")
}

func (r categoryRepo) SlugExists(_ context.Context, slug string, exceptID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.data.categories {
		if id != exceptID && c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r categoryRepo) Roots(_ context.Context) ([]domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Category{}
	for _, c := range r.s.data.categories {
		if c.ParentID == nil {
			out = append(out, *r.withChildren(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r categoryRepo) CountChildren(_ context.Context, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, c := range r.s.data.categories {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (r categoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.categories[id]; !ok {
		return domain.NotFound("category not found")
	}
	for _, p := range r.s.data.products {
		if p.CategoryID == id {
			return domain.Conflict("category is still referenced")
		}
	}
	delete(r.s.data.categories, id)
	return nil
}
