package service

import (
	"github.com/nexvent/nexvent/internal/auth"
	postgresrepo "github.com/nexvent/nexvent/internal/repository/postgres"
	redisrepo "github.com/nexvent/nexvent/internal/repository/redis"
	"github.com/nexvent/nexvent/internal/service/billing"
	"github.com/nexvent/nexvent/internal/service/booking"
	"github.com/nexvent/nexvent/internal/service/catalog"
	"github.com/nexvent/nexvent/internal/service/identity"
	"github.com/nexvent/nexvent/internal/service/payment"
)

type Services struct {
	Identity *identity.Service
	Catalog  *catalog.Service
	Booking  *booking.Service
	Payment  *payment.Service
	Billing  *billing.Service
}

type Config struct {
	Catalog catalog.Config
	Payment payment.Config
}

func NewServices(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	queue *redisrepo.SettlementQueue,
	tokens *auth.Manager,
	cfg Config,
) *Services {
	return &Services{
		Identity: identity.New(store.Users(), tokens),
		Catalog:  catalog.New(store.Events(), cache, cfg.Catalog),
		Booking:  booking.New(store.Bookings(), store.Events()),
		Payment:  payment.New(store.Payments(), store.Bookings(), queue, cfg.Payment),
		Billing:  billing.New(store.Payments()),
	}
}
