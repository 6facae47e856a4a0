package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/domain"
)

// AddressUC keeps exactly one default address per user once the user has
// any address at all.
type AddressUC struct {
	Store domain.Store
}

// List returns the user's addresses, oldest first.
func (uc *AddressUC) List(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	return uc.Store.Addresses().ListForUser(ctx, userID)
}

// Create stores a new address for the user. The first address becomes the
// default, and asking for default moves it from the previous one.
func (uc *AddressUC) Create(ctx context.Context, userID uuid.UUID, a *domain.Address) error {
	a.ID = uuid.New()
	a.UserID = userID
	if err := a.Validate(); err != nil {
		return err
	}
	return uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		n, err := r.Addresses().CountForUser(ctx, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			a.IsDefault = true
		}
		if a.IsDefault {
			if err := r.Addresses().ClearDefault(ctx, userID); err != nil {
				return err
			}
		}
		return r.Addresses().Save(ctx, a)
	})
}

// Update replaces the address fields. Asking for default moves the default
// here; clearing the flag on the current default is ignored.
func (uc *AddressUC) Update(ctx context.Context, userID, id uuid.UUID, in *domain.Address) (*domain.Address, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out *domain.Address
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		a, err := r.Addresses().FindForUser(ctx, userID, id)
		if err != nil {
			return err
		}
		a.Label = in.Label
		a.RecipientName = in.RecipientName
		a.RecipientPhone = in.RecipientPhone
		a.Address = in.Address
		a.City = in.City
		a.District = in.District
		a.Area = in.Area
		a.Zip = in.Zip
		if in.IsDefault && !a.IsDefault {
			if err := r.Addresses().ClearDefault(ctx, userID); err != nil {
				return err
			}
			a.IsDefault = true
		}
		if err := r.Addresses().Save(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	return out, err
}

// SetDefault makes id the user's only default address.
func (uc *AddressUC) SetDefault(ctx context.Context, userID, id uuid.UUID) (*domain.Address, error) {
	var out *domain.Address
	err := uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		a, err := r.Addresses().FindForUser(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := r.Addresses().ClearDefault(ctx, userID); err != nil {
			return err
		}
		if err := r.Addresses().SetDefault(ctx, userID, id); err != nil {
			return err
		}
		a.IsDefault = true
		out = a
		return nil
	})
	return out, err
}

// Delete removes the address; when it was the default the oldest remaining
// address takes over.
func (uc *AddressUC) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return uc.Store.WithinTx(ctx, func(r domain.Repos) error {
		a, err := r.Addresses().FindForUser(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := r.Addresses().Delete(ctx, userID, id); err != nil {
			return err
		}
		if !a.IsDefault {
			return nil
		}
		rest, err := r.Addresses().ListForUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(rest) == 0 {
			return nil
		}
		return r.Addresses().SetDefault(ctx, userID, rest[0].ID)
	})
}
