//go:build wireinject
// +build wireinject

package di

import (
	"dineease/config"
	"dineease/infras/jwt"
	"dineease/infras/kafka"
	"dineease/infras/otel"
	"dineease/infras/postgres"
	"dineease/infras/razorpay"
	"dineease/infras/redis"
	"dineease/internal/events"
	paymentHandler "dineease/internal/handlers/payment"
	reservationHandler "dineease/internal/handlers/reservation"
	restaurantHandler "dineease/internal/handlers/restaurant"
	"dineease/internal/worker"
	"dineease/permissions"
	"dineease/shared/cache"
	"dineease/transport/http"
	"dineease/transport/http/middleware"
	"dineease/transport/http/router"

	reservationRepository "dineease/internal/domains/reservation/repository"
	reservationService "dineease/internal/domains/reservation/service"
	restaurantRepository "dineease/internal/domains/restaurant/repository"
	restaurantService "dineease/internal/domains/restaurant/service"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var payments = wire.NewSet(
	razorpay.New,
	provideVerifier,
)

var restaurantDomain = wire.NewSet(
	restaurantRepository.New,
	restaurantService.New,
)

var reservationDomain = wire.NewSet(
	reservationRepository.New,
	reservationService.New,
)

var domains = wire.NewSet(
	restaurantDomain,
	reservationDomain,
)

var workers = wire.NewSet(
	events.New,
	worker.NewReaper,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	restaurantHandler.New,
	reservationHandler.New,
	paymentHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		payments,
		domains,
		workers,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
