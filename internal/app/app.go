package app

import (
	"context"
	"errors"
	"net/http"
	"net/netip"
	"time"

	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/phenrril/storefront/internal/adapters/auth"
	"github.com/phenrril/storefront/internal/adapters/httpserver"
	"github.com/phenrril/storefront/internal/adapters/mailer"
	"github.com/phenrril/storefront/internal/adapters/ratelimit"
	"github.com/phenrril/storefront/internal/adapters/repo/memory"
	"github.com/phenrril/storefront/internal/adapters/repo/postgres"
	"github.com/phenrril/storefront/internal/adapters/report"
	"github.com/phenrril/storefront/internal/config"
	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

type App struct {
	Config *config.Config
	DB     *gorm.DB
	Store  domain.Store
	Redis  *redis.Client

	ProductUC  *usecase.ProductUC
	CategoryUC *usecase.CategoryUC
	CartUC     *usecase.CartUC
	CouponUC   *usecase.CouponUC
	OrderUC    *usecase.OrderUC
	AddressUC  *usecase.AddressUC
	UserUC     *usecase.UserUC

	tokens  *auth.JWT
	limiter *ratelimit.Limiter
	proxies []netip.Prefix
}

// NewApp connects to Postgres, or uses the in-process store when inMemory is
// set, and builds every use case on top of it.
func NewApp(ctx context.Context, cfg *config.Config, inMemory bool) (*App, error) {
	a := &App{Config: cfg}
	if inMemory {
		a.Store = memory.New()
		zlog.Warn().Msg("using in-memory store, data is lost on exit")
	} else {
		db, err := postgres.Open(cfg.DSN())
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.Store = postgres.NewStore(db)
	}

	shipping, err := cfg.Shipping()
	if err != nil {
		return nil, err
	}
	if a.proxies, err = cfg.Proxies(); err != nil {
		return nil, err
	}
	a.tokens = auth.NewJWT(cfg.JWTSecret, cfg.JWTTTL)
	mail := mailer.New(mailer.Config{
		Host: cfg.SmtpHost,
		Port: cfg.SmtpPort,
		User: cfg.SmtpUser,
		Pass: cfg.SmtpPass,
		From: cfg.MailFrom,
	})

	a.ProductUC = &usecase.ProductUC{Products: a.Store.Products(), Categories: a.Store.Categories(), Featured: a.Store.Featured()}
	a.CategoryUC = &usecase.CategoryUC{Categories: a.Store.Categories(), Products: a.Store.Products()}
	a.CartUC = &usecase.CartUC{Products: a.Store.Products()}
	a.CouponUC = &usecase.CouponUC{Coupons: a.Store.Coupons()}
	a.OrderUC = &usecase.OrderUC{Store: a.Store, Shipping: shipping, Report: report.XLSX{}}
	a.AddressUC = &usecase.AddressUC{Store: a.Store}
	a.UserUC = &usecase.UserUC{Users: a.Store.Users(), Mailer: mail, Tokens: a.tokens, PublicBaseURL: cfg.PublicBaseURL}

	if cfg.RedisAddr != "" {
		l, client, err := ratelimit.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RateLimitPerMinute)
		if err != nil {
			zlog.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, rate limiting disabled")
		} else {
			a.limiter, a.Redis = l, client
		}
	} else {
		zlog.Warn().Msg("REDIS_ADDR not set, rate limiting disabled")
	}
	return a, nil
}

func (a *App) HTTPHandler() http.Handler {
	d := httpserver.Deps{
		Products:     a.ProductUC,
		Categories:   a.CategoryUC,
		Cart:         a.CartUC,
		Coupons:      a.CouponUC,
		Orders:       a.OrderUC,
		Addresses:    a.AddressUC,
		Users:        a.UserUC,
		Tokens:       a.tokens,
		SessionKey:   a.Config.SessionKey,
		SecureCookie: a.Config.Production(),

		TrustedProxies: a.proxies,
	}
	if a.limiter != nil {
		d.Limiter = a.limiter
	}
	return httpserver.New(d)
}

// Migrate is a no-op for the in-memory store.
func (a *App) Migrate(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return postgres.Migrate(ctx, a.DB)
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// Seed loads a small demo catalog. It does nothing when the catalog already
// has the demo root category.
func (a *App) Seed(ctx context.Context) error {
	_, err := a.Store.Categories().FindBySlug(ctx, "apparel")
	if err == nil {
		zlog.Info().Msg("seed data already present")
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	apparel := &domain.Category{Name: "Apparel"}
	if err := a.CategoryUC.Create(ctx, apparel); err != nil {
		return err
	}
	tees := &domain.Category{Name: "T-Shirts", ParentID: &apparel.ID}
	if err := a.CategoryUC.Create(ctx, tees); err != nil {
		return err
	}
	home := &domain.Category{Name: "Home"}
	if err := a.CategoryUC.Create(ctx, home); err != nil {
		return err
	}

	products := []*domain.Product{
		{
			Name: "Classic Logo Tee", Price: decimal.NewFromInt(650), Stock: 40, CategoryID: tees.ID,
			Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"Black", "White"},
			Description: "Heavyweight cotton tee with the shop logo.",
		},
		{
			Name: "Striped Polo", Price: decimal.NewFromInt(1200), SalePrice: decimal.NewNullDecimal(decimal.NewFromInt(990)),
			Stock: 15, CategoryID: apparel.ID, Sizes: []string{"M", "L"},
		},
		{
			Name: "Ceramic Mug", Price: decimal.NewFromInt(350), DiscountPct: decimal.NewFromInt(10),
			Stock: 60, CategoryID: home.ID,
		},
		{Name: "Canvas Tote", Price: decimal.NewFromInt(480), Stock: 25, CategoryID: home.ID},
	}
	for i, p := range products {
		p.Available = true
		p.Status = domain.ProductPublished
		if err := a.ProductUC.Create(ctx, p); err != nil {
			return err
		}
		if i < 2 {
			if err := a.ProductUC.Feature(ctx, p.ID, i); err != nil {
				return err
			}
		}
	}

	limit := 100
	expires := time.Now().AddDate(1, 0, 0)
	coupons := []*domain.Coupon{
		{Code: "SAVE10", Type: domain.CouponPercentage, Amount: decimal.NewFromInt(10), Active: true},
		{
			Code: "FIXED100", Type: domain.CouponFixed, Amount: decimal.NewFromInt(100), Active: true,
			MinOrderAmount: decimal.NewNullDecimal(decimal.NewFromInt(500)), UsageLimit: &limit, ExpiresAt: &expires,
		},
	}
	for _, c := range coupons {
		if err := a.CouponUC.Create(ctx, c); err != nil {
			return err
		}
	}
	zlog.Info().Int("products", len(products)).Int("coupons", len(coupons)).Msg("seed data loaded")
	return nil
}
