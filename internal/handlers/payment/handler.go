package payment

import (
	"net/http"

	"dineease/infras/otel"
	"dineease/internal/domains/reservation/model/dto"
	"dineease/internal/domains/reservation/service"
	"dineease/shared/constant"
	"dineease/shared/validator"
	"dineease/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Reservation
	otel    otel.Otel
}

func New(service service.Reservation, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/payments", func(routerGroup chi.Router) {
		routerGroup.Post("/create-order", handler.CreateOrder)
		routerGroup.Post("/verify", handler.VerifyPayment)
	})
}

// CreateOrder opens a payment order for a pending reservation.
// @Summary Create a payment order
// @Description Open a gateway order for a pending reservation and move it to awaiting_confirmation. Retrying returns the stored order instead of opening a new one.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.CreateOrderRequest true "Create Order Request"
// @Success 200 {object} response.Data[dto.InitiatePaymentResponse] "Payment order"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/payments/create-order [post]
// @Security BearerAuth
func (handler *Handler) CreateOrder(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateOrder")
	defer scope.End()

	req := dto.CreateOrderRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	order, err := handler.service.InitiatePayment(ctx, req.ReservationID, dto.InitiatePaymentRequest{Amount: req.Amount})
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create payment order")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment order created for reservation " + req.ReservationID)

	response.WithJSON(writer, http.StatusOK, order)
}

// VerifyPayment settles a payment callback.
// @Summary Verify a payment callback
// @Description Verify the gateway signature for a payment and confirm the reservation if the slot still has capacity. Duplicate callbacks are idempotent.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.ConfirmPaymentRequest true "Confirm Payment Request"
// @Success 200 {object} response.Data[dto.ReservationResponse] "Final reservation state"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/verify [post]
// @Security BearerAuth
func (handler *Handler) VerifyPayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".VerifyPayment")
	defer scope.End()

	req := dto.ConfirmPaymentRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	reservation, err := handler.service.ConfirmPayment(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("reservationID", req.ReservationID).Msg("failed to confirm payment")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment confirmed for reservation " + req.ReservationID)

	response.WithJSON(writer, http.StatusOK, reservation)
}
