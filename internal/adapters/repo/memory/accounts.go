package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/domain"
)

type userRepo struct{ s *Store }

func (r userRepo) Save(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.Email = domain.NormalizeEmail(u.Email)
	for id, other := range r.s.data.users {
		if id != u.ID && other.Email == u.Email {
			return domain.Conflict("user already exists")
		}
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	touch(&u.CreatedAt, &u.UpdatedAt, r.s.now())
	r.s.data.users[u.ID] = *u
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, domain.NotFound("user not found")
	}
	return &u, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	e := domain.NormalizeEmail(email)
	if e == "" {
		return nil, domain.Invalid("email is required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if u.Email == e {
			return &u, nil
		}
	}
	return nil, domain.NotFound("user not found")
}

func (r userRepo) FindByResetToken(_ context.Context, tokenHash string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tokenHash == "" {
		return nil, domain.NotFound("user not found")
	}
	for _, u := range r.s.data.users {
		if u.ResetTokenHash == tokenHash {
			return &u, nil
		}
	}
	return nil, domain.NotFound("user not found")
}

type addressRepo struct{ s *Store }

func (r addressRepo) Save(_ context.Context, a *domain.Address) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.IsDefault {
		for id, other := range r.s.data.addresses {
			if id != a.ID && other.UserID == a.UserID && other.IsDefault {
				return domain.Conflict("address already exists")
			}
		}
	}
	touch(&a.CreatedAt, &a.UpdatedAt, r.s.now())
	r.s.data.addresses[a.ID] = *a
	return nil
}

func (r addressRepo) FindForUser(_ context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.addresses[id]
	if !ok || a.UserID != userID {
		return nil, domain.NotFound("address not found")
	}
	return &a, nil
}

func (r addressRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]domain.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := []domain.Address{}
	for _, a := range r.s.data.addresses {
		if a.UserID == userID {
			list = append(list, a)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (r addressRepo) CountForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, a := range r.s.data.addresses {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r addressRepo) ClearDefault(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, a := range r.s.data.addresses {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			a.UpdatedAt = r.s.now()
			r.s.data.addresses[id] = a
		}
	}
	return nil
}

func (r addressRepo) SetDefault(_ context.Context, userID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.addresses[id]
	if !ok || a.UserID != userID {
		return domain.NotFound("address not found")
	}
	for oid, other := range r.s.data.addresses {
		if oid != id && other.UserID == userID && other.IsDefault {
			return domain.Conflict("address already exists")
		}
	}
	a.IsDefault = true
	a.UpdatedAt = r.s.now()
	r.s.data.addresses[id] = a
	return nil
}

func (r addressRepo) Delete(_ context.Context, userID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.addresses[id]
	if !ok || a.UserID != userID {
		return domain.NotFound("address not found")
	}
	delete(r.s.data.addresses, id)
	return nil
}
