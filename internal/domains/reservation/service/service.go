package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"dineease/config"
	"dineease/infras/otel"
	"dineease/infras/razorpay"
	"dineease/internal/domains/payment/signature"
	"dineease/internal/domains/reservation/model"
	"dineease/internal/domains/reservation/model/dto"
	"dineease/internal/domains/reservation/repository"
	restaurantModel "dineease/internal/domains/restaurant/model"
	restaurantRepository "dineease/internal/domains/restaurant/repository"
	"dineease/internal/events"
	"dineease/shared"
	"dineease/shared/cache"
	"dineease/shared/constant"
	gDto "dineease/shared/dto"
	"dineease/shared/failure"
	"dineease/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetReservation    = "reservation:get"
	cacheGetAllReservation = "reservation:gets"
	cacheCountReservation  = "reservation:count"
)

// Reservation is the single authority over reservation status. Every
// transition funnels through it; nothing else writes status.
type Reservation interface {
	Create(ctx context.Context, req dto.CreateReservationRequest) (dto.ReservationResponse, error)
	InitiatePayment(ctx context.Context, id string, req dto.InitiatePaymentRequest) (dto.InitiatePaymentResponse, error)
	ConfirmPayment(ctx context.Context, req dto.ConfirmPaymentRequest) (dto.ReservationResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelReservationRequest) (dto.ReservationResponse, error)
	Get(ctx context.Context, id string) (dto.ReservationResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetReservationsResponse, error)
	Count(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (int, error)
}

type serviceImpl struct {
	repo           repository.Reservation
	restaurantRepo restaurantRepository.Restaurant
	gateway        razorpay.Gateway
	verifier       signature.Verifier
	publisher      events.Publisher
	cfg            *config.Config
	cache          cache.RedisCache
	otel           otel.Otel
}

func New(
	repo repository.Reservation,
	restaurantRepo restaurantRepository.Restaurant,
	gateway razorpay.Gateway,
	verifier signature.Verifier,
	publisher events.Publisher,
	cfg *config.Config,
	redisCache cache.RedisCache,
	otl otel.Otel,
) Reservation {
	return &serviceImpl{
		repo:           repo,
		restaurantRepo: restaurantRepo,
		gateway:        gateway,
		verifier:       verifier,
		publisher:      publisher,
		cfg:            cfg,
		cache:          redisCache,
		otel:           otl,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateReservationRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if !req.StartsAt().After(timezone.Now()) {
		return res, failure.BadRequestFromString("reservation slot must be in the future") // nolint:wrapcheck
	}

	restaurant, err := s.restaurantRepo.Get(ctx, shared.FilterByID(req.RestaurantID, restaurantModel.FieldID, restaurantModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get restaurant")

		return res, fmt.Errorf("failed to get restaurant: %w", err)
	}

	if restaurant.ID == constant.Empty {
		return res, failure.NotFound("restaurant not found") // nolint:wrapcheck
	}

	if !restaurant.Active {
		return res, failure.Conflict("restaurant is not accepting reservations") // nolint:wrapcheck
	}

	reservation := req.ToModel(user)

	if err = s.repo.Insert(ctx, reservation); err != nil {
		log.Error().Err(err).Msg("failed to insert reservation")

		return res, fmt.Errorf("failed to insert reservation: %w", err)
	}

	s.invalidateListCaches(ctx)

	res.FromModel(reservation)

	return res, nil
}

func (s *serviceImpl) InitiatePayment(ctx context.Context, id string, req dto.InitiatePaymentRequest) (res dto.InitiatePaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".InitiatePayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	reservation, err := s.getOwned(ctx, id, user)
	if err != nil {
		return res, err
	}

	// Retry after a half-applied initiate returns the stored order instead
	// of opening a second one with the gateway.
	if reservation.Status == model.StatusAwaitingConfirmation && reservation.PaymentOrderID != constant.Empty {
		return dto.InitiatePaymentResponse{
			OrderID:  reservation.PaymentOrderID,
			Amount:   reservation.PaymentAmount,
			Currency: s.cfg.Payment.Currency,
		}, nil
	}

	if reservation.Status != model.StatusPending {
		return res, failure.InvalidStateTransition("payment can only be initiated for a pending reservation") // nolint:wrapcheck
	}

	order, err := s.gateway.OpenOrder(ctx, req.Amount, s.cfg.Payment.Currency, reservation.ID, map[string]string{
		"reservation_id": reservation.ID,
	})
	if err != nil {
		log.Error().Err(err).Str("reservationID", id).Msg("failed to open payment order")

		return res, err // nolint:wrapcheck
	}

	ok, err := s.repo.TransitionStatus(ctx, id, []string{model.StatusPending}, map[string]any{
		model.FieldStatus:         model.StatusAwaitingConfirmation,
		model.FieldPaymentStatus:  model.PaymentStatusAwaitingConfirmation,
		model.FieldPaymentOrderID: order.ID,
		model.FieldPaymentAmount:  order.Amount,
		constant.FieldModifiedAt:  timezone.Now(),
		constant.FieldModifiedBy:  user,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to store payment order")

		return res, fmt.Errorf("failed to store payment order: %w", err)
	}

	if !ok {
		return res, failure.InvalidStateTransition("reservation is no longer pending") // nolint:wrapcheck
	}

	s.invalidateReservationCaches(ctx, id)

	return dto.InitiatePaymentResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
	}, nil
}

func (s *serviceImpl) ConfirmPayment(ctx context.Context, req dto.ConfirmPaymentRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ConfirmPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == constant.Empty {
		user = "gateway"
	}

	reservation, err := s.repo.Get(ctx, shared.FilterByID(req.ReservationID, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return res, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return res, failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	// The stored order must tie the callback to this reservation before the
	// signature verdict matters. An empty stored order means the callback
	// outran the initiate write and must not be accepted.
	if reservation.PaymentOrderID == constant.Empty || reservation.PaymentOrderID != req.OrderID {
		return res, failure.OrderMismatchError // nolint:wrapcheck
	}

	if reservation.Status == model.StatusConfirmed && reservation.PaymentID == req.PaymentID {
		res.FromModel(reservation)

		return res, nil
	}

	if reservation.Status != model.StatusAwaitingConfirmation {
		return res, failure.InvalidStateTransition("reservation is no longer awaiting payment confirmation") // nolint:wrapcheck
	}

	if err = s.verifier.Verify(req.OrderID, req.PaymentID, req.Signature); err != nil {
		log.Warn().
			Str("reservationID", req.ReservationID).
			Str("orderID", req.OrderID).
			Str("paymentID", req.PaymentID).
			Msg("payment callback signature did not verify")

		return res, err // nolint:wrapcheck
	}

	settled, err := s.repo.ConfirmPaid(ctx, req.ReservationID, req.PaymentID, user)

	switch {
	case err == nil:
		if settled.Status == model.StatusConfirmed && settled.PaymentID == req.PaymentID {
			s.publishAsync(ctx, func(c context.Context) error {
				return s.publisher.ReservationConfirmed(c, settled)
			})
		}
	case errors.Is(err, failure.CapacityExceededError):
		s.publishAsync(ctx, func(c context.Context) error {
			return s.publisher.ReservationFailed(c, settled, events.ReasonCapacityExceeded)
		})
	default:
		log.Error().Err(err).Msg("failed to settle payment")

		return res, err // nolint:wrapcheck
	}

	s.invalidateReservationCaches(ctx, req.ReservationID)

	res.FromModel(settled)

	return res, err // nolint:wrapcheck
}

func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.CancelReservationRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	reservation, err := s.getOwned(ctx, id, user)
	if err != nil {
		return res, err
	}

	if !reservation.Cancellable() {
		return res, failure.InvalidStateTransition("reservation can no longer be cancelled") // nolint:wrapcheck
	}

	now := timezone.Now()

	ok, err := s.repo.TransitionStatus(ctx, id, model.CancellableStatuses(), map[string]any{
		model.FieldStatus:        model.StatusCancelled,
		model.FieldCancelReason:  req.Reason,
		model.FieldCancelledBy:   user,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: user,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to cancel reservation")

		return res, fmt.Errorf("failed to cancel reservation: %w", err)
	}

	if !ok {
		return res, failure.InvalidStateTransition("reservation can no longer be cancelled") // nolint:wrapcheck
	}

	reservation.Status = model.StatusCancelled
	reservation.CancelReason = req.Reason
	reservation.CancelledBy = user
	reservation.ModifiedAt = now
	reservation.ModifiedBy = user

	s.publishAsync(ctx, func(c context.Context) error {
		return s.publisher.ReservationCancelled(c, reservation)
	})

	s.invalidateReservationCaches(ctx, id)

	res.FromModel(reservation)

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	cacheKey := shared.BuildCacheKey(cacheGetReservation, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservation")

		if role != constant.RoleAdmin && res.UserID != user {
			return dto.ReservationResponse{}, failure.NotFound("reservation not found") // nolint:wrapcheck
		}

		return res, nil
	}

	reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return res, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return res, failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	res.FromModel(reservation)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservation to cache")
		}
	}()

	if role != constant.RoleAdmin && !reservation.OwnedBy(user) {
		return dto.ReservationResponse{}, failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllReservation, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservations")

		return res, nil
	}

	total, err := s.Count(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations")

		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservations")

		return res, fmt.Errorf("failed to get reservations: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservations to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountReservation, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservation count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations")

		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservation count to cache")
		}
	}()

	return res, nil
}

// getOwned fetches a reservation and checks the actor may operate on it.
// Admins may operate on any reservation; everyone else only on their own.
func (s *serviceImpl) getOwned(ctx context.Context, id, user string) (model.Reservation, error) {
	reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return reservation, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return reservation, failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	if role != constant.RoleAdmin && !reservation.OwnedBy(user) {
		return reservation, failure.ResourceRestrictedError // nolint:wrapcheck
	}

	return reservation, nil
}

func (s *serviceImpl) publishAsync(ctx context.Context, publish func(context.Context) error) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := publish(c); err != nil {
			log.Error().Err(err).Msg("failed to publish reservation event")
		}
	}()
}

func (s *serviceImpl) invalidateReservationCaches(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetReservation, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete reservation cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
		shared.InvalidateCaches(c, s.cache, cacheCountReservation)
	}()
}

func (s *serviceImpl) invalidateListCaches(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
		shared.InvalidateCaches(c, s.cache, cacheCountReservation)
	}()
}
