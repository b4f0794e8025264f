package service_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"dineease/config"
	"dineease/infras/otel/mocks"
	"dineease/infras/razorpay"
	gatewayMocks "dineease/infras/razorpay/mocks"
	"dineease/internal/domains/payment/signature"
	reservationMocks "dineease/internal/domains/reservation/mocks"
	"dineease/internal/domains/reservation/model"
	"dineease/internal/domains/reservation/model/dto"
	"dineease/internal/domains/reservation/service"
	restaurantMocks "dineease/internal/domains/restaurant/mocks"
	restaurantModel "dineease/internal/domains/restaurant/model"
	"dineease/shared/cache"
	"dineease/shared/constant"
	"dineease/shared/failure"
	gModel "dineease/shared/model"
	"dineease/shared/timezone"
)

const testSecret = "rzp_test_secret"

// stubCache always misses so services hit their repositories; async saves
// and invalidations are accepted without bookkeeping.
type stubCache struct{}

func (stubCache) Save(_ context.Context, _ string, _ any, _ int) error { return nil }
func (stubCache) Get(_ context.Context, _ string, _ any) error        { return cache.Nil }
func (stubCache) Delete(_ context.Context, _ string) error            { return nil }
func (stubCache) Clear(_ context.Context, _ string) error             { return nil }

// stubPublisher swallows lifecycle events published from goroutines.
type stubPublisher struct{}

func (stubPublisher) ReservationConfirmed(_ context.Context, _ model.Reservation) error { return nil }
func (stubPublisher) ReservationFailed(_ context.Context, _ model.Reservation, _ string) error {
	return nil
}
func (stubPublisher) ReservationCancelled(_ context.Context, _ model.Reservation) error { return nil }

func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func userContext(userID, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)
	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

type serviceFixture struct {
	svc            service.Reservation
	repo           *reservationMocks.MockReservation
	restaurantRepo *restaurantMocks.MockRestaurant
	gateway        *gatewayMocks.MockGateway
}

func newFixture(t *testing.T) serviceFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	repo := reservationMocks.NewMockReservation(ctrl)
	restaurantRepo := restaurantMocks.NewMockRestaurant(ctrl)
	gateway := gatewayMocks.NewMockGateway(ctrl)

	verifier, err := signature.New(testSecret)
	assert.NoError(t, err)

	cfg := &config.Config{}
	cfg.Payment.Currency = "INR"

	svc := service.New(repo, restaurantRepo, gateway, verifier, stubPublisher{}, cfg, stubCache{}, mocks.NewOtel())

	return serviceFixture{
		svc:            svc,
		repo:           repo,
		restaurantRepo: restaurantRepo,
		gateway:        gateway,
	}
}

func futureDate() string {
	return timezone.Now().AddDate(0, 0, 7).Format(constant.ReservationDateFormat)
}

func pastDate() string {
	return timezone.Now().AddDate(0, 0, -1).Format(constant.ReservationDateFormat)
}

func awaitingReservation() model.Reservation {
	return model.Reservation{
		ID:              "res-1",
		RestaurantID:    "rest-1",
		UserID:          "user-1",
		ReservationDate: timezone.Now().AddDate(0, 0, 7),
		ReservationTime: "19:00",
		PartySize:       4,
		Status:          model.StatusAwaitingConfirmation,
		PaymentStatus:   model.PaymentStatusAwaitingConfirmation,
		PaymentOrderID:  "ord_1",
		PaymentAmount:   5000,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  "user-1",
			ModifiedBy: "user-1",
		},
	}
}

func TestReservationService_Create(t *testing.T) {
	activeRestaurant := restaurantModel.Restaurant{
		ID:              "rest-1",
		Name:            "Spice Route",
		SeatingCapacity: 40,
		Active:          true,
	}

	tests := []struct {
		name      string
		req       dto.CreateReservationRequest
		setupMock func(f serviceFixture)
		wantErr   error
	}{
		{
			name: "success",
			req: dto.CreateReservationRequest{
				RestaurantID:    "rest-1",
				ReservationDate: futureDate(),
				ReservationTime: "19:00",
				PartySize:       4,
			},
			setupMock: func(f serviceFixture) {
				f.restaurantRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(activeRestaurant, nil)

				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, reservation model.Reservation) error {
						assert.Equal(t, model.StatusPending, reservation.Status)
						assert.Equal(t, model.PaymentStatusUnpaid, reservation.PaymentStatus)
						assert.Equal(t, "user-1", reservation.UserID)
						return nil
					})
			},
		},
		{
			name: "pastSlot",
			req: dto.CreateReservationRequest{
				RestaurantID:    "rest-1",
				ReservationDate: pastDate(),
				ReservationTime: "19:00",
				PartySize:       4,
			},
			setupMock: func(_ serviceFixture) {},
			wantErr:   failure.BadRequestFromString("reservation slot must be in the future"),
		},
		{
			name: "restaurantNotFound",
			req: dto.CreateReservationRequest{
				RestaurantID:    "rest-missing",
				ReservationDate: futureDate(),
				ReservationTime: "19:00",
				PartySize:       4,
			},
			setupMock: func(f serviceFixture) {
				f.restaurantRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(restaurantModel.Restaurant{}, nil)
			},
			wantErr: failure.NotFound("restaurant not found"),
		},
		{
			name: "restaurantInactive",
			req: dto.CreateReservationRequest{
				RestaurantID:    "rest-1",
				ReservationDate: futureDate(),
				ReservationTime: "19:00",
				PartySize:       4,
			},
			setupMock: func(f serviceFixture) {
				inactive := activeRestaurant
				inactive.Active = false

				f.restaurantRepo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(inactive, nil)
			},
			wantErr: failure.Conflict("restaurant is not accepting reservations"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Create(userContext("user-1", constant.RoleUser), tt.req)

			if tt.wantErr != nil {
				assert.Equal(t, failure.GetCode(tt.wantErr), failure.GetCode(err))
				assert.EqualError(t, err, tt.wantErr.Error())
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, model.StatusPending, res.Status)
			assert.NotEmpty(t, res.ID)
		})
	}
}

func TestReservationService_InitiatePayment(t *testing.T) {
	pendingReservation := model.Reservation{
		ID:            "res-1",
		RestaurantID:  "rest-1",
		UserID:        "user-1",
		PartySize:     4,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
	}

	tests := []struct {
		name      string
		setupMock func(f serviceFixture)
		wantErr   error
		wantOrder string
	}{
		{
			name: "success",
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingReservation, nil)

				f.gateway.EXPECT().
					OpenOrder(gomock.Any(), int64(5000), "INR", "res-1", gomock.Any()).
					Return(razorpay.Order{ID: "ord_1", Amount: 5000, Currency: "INR"}, nil)

				f.repo.EXPECT().
					TransitionStatus(gomock.Any(), "res-1", []string{model.StatusPending}, gomock.Any()).
					Return(true, nil)
			},
			wantOrder: "ord_1",
		},
		{
			name: "idempotentRetryReturnsStoredOrder",
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(awaitingReservation(), nil)
			},
			wantOrder: "ord_1",
		},
		{
			name: "notFound",
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Reservation{}, nil)
			},
			wantErr: failure.NotFound("reservation not found"),
		},
		{
			name: "notOwner",
			setupMock: func(f serviceFixture) {
				other := pendingReservation
				other.UserID = "user-2"

				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(other, nil)
			},
			wantErr: failure.ResourceRestrictedError,
		},
		{
			name: "alreadyCancelled",
			setupMock: func(f serviceFixture) {
				cancelled := pendingReservation
				cancelled.Status = model.StatusCancelled

				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(cancelled, nil)
			},
			wantErr: failure.InvalidStateTransition("payment can only be initiated for a pending reservation"),
		},
		{
			name: "gatewayUnavailable",
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingReservation, nil)

				f.gateway.EXPECT().
					OpenOrder(gomock.Any(), int64(5000), "INR", "res-1", gomock.Any()).
					Return(razorpay.Order{}, failure.GatewayUnavailableError)
			},
			wantErr: failure.GatewayUnavailableError,
		},
		{
			name: "lostRaceAfterOrderOpened",
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(pendingReservation, nil)

				f.gateway.EXPECT().
					OpenOrder(gomock.Any(), int64(5000), "INR", "res-1", gomock.Any()).
					Return(razorpay.Order{ID: "ord_2", Amount: 5000, Currency: "INR"}, nil)

				f.repo.EXPECT().
					TransitionStatus(gomock.Any(), "res-1", []string{model.StatusPending}, gomock.Any()).
					Return(false, nil)
			},
			wantErr: failure.InvalidStateTransition("reservation is no longer pending"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.InitiatePayment(userContext("user-1", constant.RoleUser), "res-1", dto.InitiatePaymentRequest{Amount: 5000})

			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
				assert.Equal(t, failure.GetCode(tt.wantErr), failure.GetCode(err))
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantOrder, res.OrderID)
			assert.Equal(t, int64(5000), res.Amount)
			assert.Equal(t, "INR", res.Currency)
		})
	}
}

func TestReservationService_ConfirmPayment(t *testing.T) {
	validReq := dto.ConfirmPaymentRequest{
		ReservationID: "res-1",
		PaymentID:     "pay_1",
		OrderID:       "ord_1",
		Signature:     sign("ord_1", "pay_1"),
	}

	tests := []struct {
		name       string
		req        dto.ConfirmPaymentRequest
		setupMock  func(f serviceFixture)
		wantErr    error
		wantStatus string
	}{
		{
			name: "confirmed",
			req:  validReq,
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(awaitingReservation(), nil)

				confirmed := awaitingReservation()
				confirmed.Status = model.StatusConfirmed
				confirmed.PaymentStatus = model.PaymentStatusCompleted
				confirmed.PaymentID = "pay_1"

				f.repo.EXPECT().
					ConfirmPaid(gomock.Any(), "res-1", "pay_1", "user-1").
					Return(confirmed, nil)
			},
			wantStatus: model.StatusConfirmed,
		},
		{
			name: "duplicateCallbackIsNoOp",
			req:  validReq,
			setupMock: func(f serviceFixture) {
				confirmed := awaitingReservation()
				confirmed.Status = model.StatusConfirmed
				confirmed.PaymentStatus = model.PaymentStatusCompleted
				confirmed.PaymentID = "pay_1"

				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(confirmed, nil)
			},
			wantStatus: model.StatusConfirmed,
		},
		{
			name: "orderMismatchBeatsValidSignature",
			req: dto.ConfirmPaymentRequest{
				ReservationID: "res-1",
				PaymentID:     "pay_1",
				OrderID:       "ord_other",
				Signature:     sign("ord_other", "pay_1"),
			},
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(awaitingReservation(), nil)
			},
			wantErr: failure.OrderMismatchError,
		},
		{
			name: "callbackBeforeOrderStored",
			req:  validReq,
			setupMock: func(f serviceFixture) {
				early := awaitingReservation()
				early.Status = model.StatusPending
				early.PaymentOrderID = ""

				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(early, nil)
			},
			wantErr: failure.OrderMismatchError,
		},
		{
			name: "signatureOverWrongPayment",
			req: dto.ConfirmPaymentRequest{
				ReservationID: "res-1",
				PaymentID:     "pay_1",
				OrderID:       "ord_1",
				Signature:     sign("ord_1", "pay_2"),
			},
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(awaitingReservation(), nil)
			},
			wantErr: failure.SignatureInvalidError,
		},
		{
			name: "notFound",
			req:  validReq,
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Reservation{}, nil)
			},
			wantErr: failure.NotFound("reservation not found"),
		},
		{
			name: "cancelledBeforeCallback",
			req:  validReq,
			setupMock: func(f serviceFixture) {
				cancelled := awaitingReservation()
				cancelled.Status = model.StatusCancelled

				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(cancelled, nil)
			},
			wantErr: failure.InvalidStateTransition("reservation is no longer awaiting payment confirmation"),
		},
		{
			name: "capacityExceededSurfacesPaidButNotHonored",
			req:  validReq,
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(awaitingReservation(), nil)

				failed := awaitingReservation()
				failed.Status = model.StatusFailed
				failed.PaymentStatus = model.PaymentStatusCompleted
				failed.PaymentID = "pay_1"

				f.repo.EXPECT().
					ConfirmPaid(gomock.Any(), "res-1", "pay_1", "user-1").
					Return(failed, failure.CapacityExceededError)
			},
			wantErr: failure.CapacityExceededError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.ConfirmPayment(userContext("user-1", constant.RoleUser), tt.req)

			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
				assert.Equal(t, failure.GetCode(tt.wantErr), failure.GetCode(err))
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, model.PaymentStatusCompleted, res.PaymentStatus)
		})
	}
}

func TestReservationService_Cancel(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		setupMock func(f serviceFixture)
		wantErr   error
	}{
		{
			name: "ownerCancelsAwaiting",
			ctx:  userContext("user-1", constant.RoleUser),
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(awaitingReservation(), nil)

				f.repo.EXPECT().
					TransitionStatus(gomock.Any(), "res-1", model.CancellableStatuses(), gomock.Any()).
					Return(true, nil)
			},
		},
		{
			name: "adminCancelsConfirmed",
			ctx:  userContext("admin-1", constant.RoleAdmin),
			setupMock: func(f serviceFixture) {
				confirmed := awaitingReservation()
				confirmed.Status = model.StatusConfirmed
				confirmed.PaymentStatus = model.PaymentStatusCompleted

				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(confirmed, nil)

				f.repo.EXPECT().
					TransitionStatus(gomock.Any(), "res-1", model.CancellableStatuses(), gomock.Any()).
					Return(true, nil)
			},
		},
		{
			name: "notOwner",
			ctx:  userContext("user-2", constant.RoleUser),
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(awaitingReservation(), nil)
			},
			wantErr: failure.ResourceRestrictedError,
		},
		{
			name: "alreadyCancelled",
			ctx:  userContext("user-1", constant.RoleUser),
			setupMock: func(f serviceFixture) {
				cancelled := awaitingReservation()
				cancelled.Status = model.StatusCancelled

				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(cancelled, nil)
			},
			wantErr: failure.InvalidStateTransition("reservation can no longer be cancelled"),
		},
		{
			name: "completedIsTerminal",
			ctx:  userContext("user-1", constant.RoleUser),
			setupMock: func(f serviceFixture) {
				completed := awaitingReservation()
				completed.Status = model.StatusCompleted

				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(completed, nil)
			},
			wantErr: failure.InvalidStateTransition("reservation can no longer be cancelled"),
		},
		{
			name: "lostRaceAgainstConfirm",
			ctx:  userContext("user-1", constant.RoleUser),
			setupMock: func(f serviceFixture) {
				f.repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(awaitingReservation(), nil)

				f.repo.EXPECT().
					TransitionStatus(gomock.Any(), "res-1", model.CancellableStatuses(), gomock.Any()).
					Return(false, nil)
			},
			wantErr: failure.InvalidStateTransition("reservation can no longer be cancelled"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Cancel(tt.ctx, "res-1", dto.CancelReservationRequest{Reason: "change of plans"})

			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, model.StatusCancelled, res.Status)
			assert.Equal(t, "change of plans", res.CancelReason)
		})
	}
}

func TestReservationService_Get(t *testing.T) {
	t.Run("ownerSeesOwnReservation", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(awaitingReservation(), nil)

		res, err := f.svc.Get(userContext("user-1", constant.RoleUser), "res-1")

		assert.NoError(t, err)
		assert.Equal(t, "res-1", res.ID)
	})

	t.Run("otherUserGetsNotFound", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(awaitingReservation(), nil)

		_, err := f.svc.Get(userContext("user-2", constant.RoleUser), "res-1")

		assert.EqualError(t, err, "reservation not found")
	})

	t.Run("adminSeesAnyReservation", func(t *testing.T) {
		f := newFixture(t)

		f.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(awaitingReservation(), nil)

		res, err := f.svc.Get(userContext("admin-1", constant.RoleAdmin), "res-1")

		assert.NoError(t, err)
		assert.Equal(t, "res-1", res.ID)
	})
}
