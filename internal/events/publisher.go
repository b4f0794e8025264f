package events

//go:generate go run go.uber.org/mock/mockgen -source=./publisher.go -destination=./mocks/publisher_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"dineease/config"
	"dineease/infras/kafka"
	"dineease/infras/otel"
	"dineease/internal/domains/reservation/model"
	"dineease/shared/constant"
	"dineease/shared/timezone"
)

const (
	TypeReservationConfirmed = "reservation.confirmed"
	TypeReservationFailed    = "reservation.failed"
	TypeReservationCancelled = "reservation.cancelled"

	ReasonCapacityExceeded = "capacity_exceeded"
	ReasonPaymentExpired   = "payment_expired"
)

// ReservationEvent is the lifecycle record published for downstream
// reconciliation. A failed event with payment_status completed marks a
// reservation that was paid but not honored.
type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	RestaurantID  string    `json:"restaurant_id"`
	UserID        string    `json:"user_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	PaymentID     string    `json:"payment_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	ReservationConfirmed(ctx context.Context, reservation model.Reservation) error
	ReservationFailed(ctx context.Context, reservation model.Reservation, reason string) error
	ReservationCancelled(ctx context.Context, reservation model.Reservation) error
}

type publisherImpl struct {
	kafka kafka.Client
	cfg   *config.Config
	otel  otel.Otel
}

func New(kafkaClient kafka.Client, cfg *config.Config, otl otel.Otel) Publisher {
	return &publisherImpl{
		kafka: kafkaClient,
		cfg:   cfg,
		otel:  otl,
	}
}

func (p *publisherImpl) ReservationConfirmed(ctx context.Context, reservation model.Reservation) error {
	return p.publish(ctx, TypeReservationConfirmed, reservation, constant.Empty)
}

func (p *publisherImpl) ReservationFailed(ctx context.Context, reservation model.Reservation, reason string) error {
	return p.publish(ctx, TypeReservationFailed, reservation, reason)
}

func (p *publisherImpl) ReservationCancelled(ctx context.Context, reservation model.Reservation) error {
	return p.publish(ctx, TypeReservationCancelled, reservation, reservation.CancelReason)
}

func (p *publisherImpl) publish(ctx context.Context, eventType string, reservation model.Reservation, reason string) (err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".publisher.publish")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute("event.type", eventType)

	event := ReservationEvent{
		Type:          eventType,
		ReservationID: reservation.ID,
		RestaurantID:  reservation.RestaurantID,
		UserID:        reservation.UserID,
		Status:        reservation.Status,
		PaymentStatus: reservation.PaymentStatus,
		PaymentID:     reservation.PaymentID,
		Reason:        reason,
		OccurredAt:    timezone.Now(),
	}

	err = p.kafka.SendMessages(ctx, p.cfg.Kafka.Topic, kafka.Message{
		Key:   reservation.ID,
		Value: event,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	return nil
}
