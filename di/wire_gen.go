// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"dineease/config"
	"dineease/infras/jwt"
	"dineease/infras/kafka"
	"dineease/infras/otel"
	"dineease/infras/postgres"
	"dineease/infras/razorpay"
	"dineease/infras/redis"
	repository2 "dineease/internal/domains/reservation/repository"
	service2 "dineease/internal/domains/reservation/service"
	"dineease/internal/domains/restaurant/repository"
	"dineease/internal/domains/restaurant/service"
	"dineease/internal/events"
	"dineease/internal/handlers/payment"
	"dineease/internal/handlers/reservation"
	"dineease/internal/handlers/restaurant"
	"dineease/internal/worker"
	"dineease/permissions"
	"dineease/shared/cache"
	"dineease/transport/http"
	"dineease/transport/http/middleware"
	"dineease/transport/http/router"
	"github.com/google/wire"
)

// Injectors from wire.go:

func InitializeService() *http.HTTP {
	configConfig := config.Get()
	connection := postgres.New(configConfig)
	otelOtel := otel.New(configConfig)
	repositoryRestaurant := repository.New(connection, otelOtel)
	client := redis.New(configConfig)
	redisCache := cache.NewRedisCache(client, otelOtel)
	serviceRestaurant := service.New(repositoryRestaurant, configConfig, redisCache, otelOtel)
	handler := restaurant.New(serviceRestaurant, otelOtel)
	repositoryReservation := repository2.New(connection, otelOtel)
	gateway := razorpay.New(configConfig, otelOtel)
	verifier := provideVerifier(configConfig)
	kafkaClient := kafka.New(configConfig)
	publisher := events.New(kafkaClient, configConfig, otelOtel)
	serviceReservation := service2.New(repositoryReservation, repositoryRestaurant, gateway, verifier, publisher, configConfig, redisCache, otelOtel)
	reservationHandler := reservation.New(serviceReservation, otelOtel)
	paymentHandler := payment.New(serviceReservation, otelOtel)
	domainHandlers := router.DomainHandlers{
		Restaurant:  handler,
		Reservation: reservationHandler,
		Payment:     paymentHandler,
	}
	appMiddleware := middleware.NewAppMiddleware(otelOtel, configConfig, redisCache)
	jwtJWT := jwt.New(configConfig)
	permissionData := permissions.Get()
	authRole := middleware.NewAuthRoleMiddleware(jwtJWT, otelOtel, permissionData, configConfig)
	routerRouter := router.New(domainHandlers, appMiddleware, authRole, configConfig)
	reaper := worker.NewReaper(repositoryReservation, configConfig, otelOtel)
	httpHTTP := http.New(configConfig, routerRouter, reaper)
	return httpHTTP
}

// wire.go:

var configurations = wire.NewSet(config.Get, permissions.Get)

var infrastructures = wire.NewSet(postgres.New, otel.New, redis.New, jwt.New, kafka.New)

var middlewares = wire.NewSet(middleware.NewAppMiddleware, middleware.NewAuthRoleMiddleware)

var sharedHelpers = wire.NewSet(cache.NewRedisCache)

var payments = wire.NewSet(razorpay.New, provideVerifier)

var restaurantDomain = wire.NewSet(repository.New, service.New)

var reservationDomain = wire.NewSet(repository2.New, service2.New)

var domains = wire.NewSet(
	restaurantDomain,
	reservationDomain,
)

var workers = wire.NewSet(events.New, worker.NewReaper)

var routing = wire.NewSet(wire.Struct(new(router.DomainHandlers), "*"), restaurant.New, reservation.New, payment.New, router.New)
