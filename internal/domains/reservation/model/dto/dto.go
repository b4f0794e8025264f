package dto

import (
	"time"

	"dineease/internal/domains/reservation/model"
	"dineease/shared"
	"dineease/shared/constant"
	gDto "dineease/shared/dto"
	gModel "dineease/shared/model"
	"dineease/shared/timezone"

	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	RestaurantID    string `json:"restaurant_id"    validate:"required,uuid"`
	ReservationDate string `json:"reservation_date" validate:"required,datetime=2006-01-02"`
	ReservationTime string `json:"reservation_time" validate:"required,datetime=15:04"`
	PartySize       int    `json:"party_size"       validate:"required,min=1,max=20"`
	SpecialRequests string `json:"special_requests" validate:"omitempty,max=500"`
}

// StartsAt combines the requested date and time into a single instant in the
// application timezone. Format errors cannot occur past validation.
func (c *CreateReservationRequest) StartsAt() time.Time {
	startsAt, _ := timezone.Parse(
		constant.ReservationDateFormat+" "+constant.ReservationTimeFormat,
		c.ReservationDate+" "+c.ReservationTime,
	)

	return startsAt
}

func (c *CreateReservationRequest) ToModel(user string) model.Reservation {
	date, _ := timezone.Parse(constant.ReservationDateFormat, c.ReservationDate)

	return model.Reservation{
		ID:              uuid.NewString(),
		RestaurantID:    c.RestaurantID,
		UserID:          user,
		ReservationDate: date,
		ReservationTime: c.ReservationTime,
		PartySize:       c.PartySize,
		SpecialRequests: c.SpecialRequests,
		Status:          model.StatusPending,
		PaymentStatus:   model.PaymentStatusUnpaid,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type InitiatePaymentRequest struct {
	Amount int64 `json:"amount" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	ReservationID string `json:"reservation_id" validate:"required,uuid"`
	Amount        int64  `json:"amount"         validate:"required,min=1"`
}

type InitiatePaymentResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type ConfirmPaymentRequest struct {
	ReservationID string `json:"reservation_id" validate:"required,uuid"`
	PaymentID     string `json:"payment_id"     validate:"required,max=100"`
	OrderID       string `json:"order_id"       validate:"required,max=100"`
	Signature     string `json:"signature"      validate:"required,max=128"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type ReservationResponse struct {
	ID              string `json:"id"`
	RestaurantID    string `json:"restaurant_id"`
	UserID          string `json:"user_id"`
	ReservationDate string `json:"reservation_date"`
	ReservationTime string `json:"reservation_time"`
	PartySize       int    `json:"party_size"`
	SpecialRequests string `json:"special_requests,omitempty"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"payment_status"`
	PaymentOrderID  string `json:"payment_order_id,omitempty"`
	PaymentAmount   int64  `json:"payment_amount,omitempty"`
	CancelReason    string `json:"cancel_reason,omitempty"`
	CancelledBy     string `json:"cancelled_by,omitempty"`
	gDto.Metadata
}

func (r *ReservationResponse) FromModel(model model.Reservation) {
	r.ID = model.ID
	r.RestaurantID = model.RestaurantID
	r.UserID = model.UserID
	r.ReservationDate = timezone.Format(model.ReservationDate, constant.ReservationDateFormat)
	r.ReservationTime = model.ReservationTime
	r.PartySize = model.PartySize
	r.SpecialRequests = model.SpecialRequests
	r.Status = model.Status
	r.PaymentStatus = model.PaymentStatus
	r.PaymentOrderID = model.PaymentOrderID
	r.PaymentAmount = model.PaymentAmount
	r.CancelReason = model.CancelReason
	r.CancelledBy = model.CancelledBy
	r.Metadata.FromModel(model.Metadata)
}

type GetReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetReservationsResponse) FromModels(models []model.Reservation, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Reservations = make([]ReservationResponse, len(models))
	for i, mod := range models {
		r.Reservations[i].FromModel(mod)
	}
}
