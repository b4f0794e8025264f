package model

import (
	"slices"
	"time"

	"dineease/shared/model"
)

const (
	TableName  = "reservations"
	EntityName = "reservation"

	FieldID              = "id"
	FieldRestaurantID    = "restaurant_id"
	FieldUserID          = "user_id"
	FieldReservationDate = "reservation_date"
	FieldReservationTime = "reservation_time"
	FieldPartySize       = "party_size"
	FieldStatus          = "status"
	FieldPaymentStatus   = "payment_status"
	FieldPaymentOrderID  = "payment_order_id"
	FieldPaymentID       = "payment_id"
	FieldPaymentAmount   = "payment_amount"
	FieldCancelReason    = "cancel_reason"
	FieldCancelledBy     = "cancelled_by"
)

// Reservation statuses. failed, cancelled and completed are terminal.
const (
	StatusPending              = "pending"
	StatusAwaitingConfirmation = "awaiting_confirmation"
	StatusConfirmed            = "confirmed"
	StatusFailed               = "failed"
	StatusCancelled            = "cancelled"
	StatusCompleted            = "completed"
)

const (
	PaymentStatusUnpaid               = "unpaid"
	PaymentStatusAwaitingConfirmation = "awaiting_confirmation"
	PaymentStatusCompleted            = "completed"
	PaymentStatusFailed               = "failed"
)

var cancellableStatuses = []string{
	StatusPending,
	StatusAwaitingConfirmation,
	StatusConfirmed,
}

// CancellableStatuses returns the statuses a reservation may be cancelled
// from, as a fresh slice safe for the caller to pass into query builders.
func CancellableStatuses() []string {
	return slices.Clone(cancellableStatuses)
}

type Reservation struct {
	ID              string    `db:"id"`
	RestaurantID    string    `db:"restaurant_id"`
	UserID          string    `db:"user_id"`
	ReservationDate time.Time `db:"reservation_date"`
	ReservationTime string    `db:"reservation_time"`
	PartySize       int       `db:"party_size"`
	SpecialRequests string    `db:"special_requests"`
	Status          string    `db:"status"`
	PaymentStatus   string    `db:"payment_status"`
	PaymentOrderID  string    `db:"payment_order_id"`
	PaymentID       string    `db:"payment_id"`
	PaymentAmount   int64     `db:"payment_amount"`
	CancelReason    string    `db:"cancel_reason"`
	CancelledBy     string    `db:"cancelled_by"`
	model.Metadata
}

func (r Reservation) Cancellable() bool {
	return slices.Contains(cancellableStatuses, r.Status)
}

func (r Reservation) OwnedBy(userID string) bool {
	return r.UserID == userID
}
