package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phenrril/storefront/internal/config"
	"github.com/phenrril/storefront/internal/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:             "development",
		JWTSecret:          "secret",
		JWTTTL:             time.Hour,
		SessionKey:         "session",
		ShippingInsideFee:  "80",
		ShippingOutsideFee: "150",
		PublicBaseURL:      "http://localhost:8080",
	}
}

func TestInMemoryAppSeedsOnce(t *testing.T) {
	ctx := context.Background()
	a, err := NewApp(ctx, testConfig(), true)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Migrate(ctx))
	require.NoError(t, a.Seed(ctx))
	require.NoError(t, a.Seed(ctx))

	page, err := a.ProductUC.List(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 4, page.Total)

	featured, err := a.ProductUC.FeaturedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 2)
	require.Equal(t, "classic-logo-tee", featured[0].Slug)

	coupons, err := a.CouponUC.List(ctx, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, coupons.Total)

	rec := httptest.NewRecorder()
	a.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/featured", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNewAppRejectsBadShippingFee(t *testing.T) {
	cfg := testConfig()
	cfg.ShippingInsideFee = "abc"
	_, err := NewApp(context.Background(), cfg, true)
	require.Error(t, err)
}
