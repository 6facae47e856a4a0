package domain

import "context"

// Repos groups the repositories bound to one unit of work.
type Repos interface {
	Products() ProductRepo
	Featured() FeaturedProductRepo
	Categories() CategoryRepo
	Coupons() CouponRepo
	Orders() OrderRepo
	Addresses() AddressRepo
	Users() UserRepo
}

// Store hands out repositories. WithinTx runs fn inside a single database
// transaction; fn's error rolls back every write made through r.
type Store interface {
	Repos
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}
