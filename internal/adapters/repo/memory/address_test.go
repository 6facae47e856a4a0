package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

// Rows written before the one-default index existed can leave a user with
// several defaults. Save refuses to create that state, so it is seeded
// directly.
func TestSetDefaultLeavesExactlyOneDefault(t *testing.T) {
	ctx := context.Background()
	user := uuid.New()
	cases := map[string]int{"no prior default": 0, "one prior default": 1, "several prior defaults": 3}
	for name, priorDefaults := range cases {
		t.Run(name, func(t *testing.T) {
			s := New()
			var ids []uuid.UUID
			for i := 0; i < 4; i++ {
				a := domain.Address{
					ID: uuid.New(), UserID: user, RecipientName: "R", RecipientPhone: "1",
					Address: "Street", City: "Dhaka", IsDefault: i < priorDefaults,
				}
				touch(&a.CreatedAt, &a.UpdatedAt, s.now())
				s.data.addresses[a.ID] = a
				ids = append(ids, a.ID)
			}

			uc := &usecase.AddressUC{Store: s}
			got, err := uc.SetDefault(ctx, user, ids[3])
			require.NoError(t, err)
			require.True(t, got.IsDefault)

			list, err := uc.List(ctx, user)
			require.NoError(t, err)
			var defaults []uuid.UUID
			for _, a := range list {
				if a.IsDefault {
					defaults = append(defaults, a.ID)
				}
			}
			require.Equal(t, []uuid.UUID{ids[3]}, defaults)
		})
	}
}
