package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"dineease/infras/otel"
	"dineease/infras/postgres"
	"dineease/internal/domains/reservation/model"
	restaurantModel "dineease/internal/domains/restaurant/model"
	"dineease/shared/constant"
	gDto "dineease/shared/dto"
	"dineease/shared/failure"
	"dineease/shared/logger"
	gRepo "dineease/shared/repository"
	"dineease/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

type Reservation interface {
	Insert(ctx context.Context, model model.Reservation) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Reservation, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Reservation, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	TransitionStatus(ctx context.Context, id string, expected []string, fields map[string]any) (bool, error)
	ConfirmPaid(ctx context.Context, id, paymentID, actor string) (model.Reservation, error)
	FailStale(ctx context.Context, cutoff time.Time, actor string) (int64, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Reservation]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Reservation {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Reservation](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// TransitionStatus applies a conditional status write: the fields are set only
// while the current status is one of expected. Returns false when the row was
// not in an expected status, which callers surface as InvalidStateTransition.
func (r *repositoryImpl) TransitionStatus(ctx context.Context, id string, expected []string, fields map[string]any) (res bool, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.TransitionStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	if len(expected) == 0 {
		return false, errors.New("expected statuses must not be empty")
	}

	setClauses := []string{}
	setArgs := []any{}

	for _, col := range slices.Sorted(maps.Keys(fields)) {
		setClauses = append(setClauses, col+" = ?")
		setArgs = append(setArgs, fields[col])
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = ? AND %s IN (?)",
		model.TableName,
		strings.Join(setClauses, ", "),
		model.FieldID,
		model.FieldStatus,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	query, args, err := sqlx.In(query, append(setArgs, id, expected)...)
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to build transition query (%s): %w", model.EntityName, err)
	}

	result, err := r.db.Write.ExecContext(ctx, r.db.Write.Rebind(query), args...)
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to transition status (%s): %w", model.EntityName, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to read affected rows (%s): %w", model.EntityName, err)
	}

	return rows > 0, nil
}

// ConfirmPaid settles a verified payment in a single transaction. It locks the
// reservation row, then the restaurant row to serialize capacity decisions for
// the (restaurant, date, time) bucket, and writes the final status together
// with the payment metadata. Duplicate deliveries with the same paymentID
// return the stored record unchanged.
func (r *repositoryImpl) ConfirmPaid(ctx context.Context, id, paymentID, actor string) (res model.Reservation, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.ConfirmPaid")
	defer scope.End()
	defer scope.TraceIfError(err)

	tx, err := r.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return res, fmt.Errorf("failed to begin transaction (%s): %w", model.EntityName, err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Error().Err(rbErr).Msg("failed to roll back confirm transaction")
			}
		}
	}()

	lockQuery := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 FOR UPDATE",
		strings.Join(r.InsertColumns, ", "),
		model.TableName,
		model.FieldID,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, lockQuery)

	err = tx.GetContext(ctx, &res, lockQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return res, failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	if err != nil {
		logger.ErrorWithStack(err)

		return res, fmt.Errorf("failed to lock reservation: %w", err)
	}

	// Recheck under the lock: a duplicate delivery or a racing cancel may
	// have transitioned the row after the caller's read.
	if res.Status == model.StatusConfirmed && res.PaymentID == paymentID {
		_ = tx.Rollback()

		return res, nil
	}

	if res.Status != model.StatusAwaitingConfirmation {
		return res, failure.InvalidStateTransition("reservation is no longer awaiting payment confirmation") // nolint:wrapcheck
	}

	var capacity int

	capacityQuery := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1 FOR UPDATE",
		restaurantModel.FieldSeatingCapacity,
		restaurantModel.TableName,
		restaurantModel.FieldID,
	)

	err = tx.GetContext(ctx, &capacity, capacityQuery, res.RestaurantID)
	if err != nil {
		logger.ErrorWithStack(err)

		return res, fmt.Errorf("failed to lock restaurant capacity: %w", err)
	}

	var taken int

	takenQuery := fmt.Sprintf(
		"SELECT COALESCE(SUM(%s), 0) FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3 AND %s = $4",
		model.FieldPartySize,
		model.TableName,
		model.FieldRestaurantID,
		model.FieldReservationDate,
		model.FieldReservationTime,
		model.FieldStatus,
	)

	err = tx.GetContext(ctx, &taken, takenQuery, res.RestaurantID, res.ReservationDate, res.ReservationTime, model.StatusConfirmed)
	if err != nil {
		logger.ErrorWithStack(err)

		return res, fmt.Errorf("failed to sum confirmed party sizes: %w", err)
	}

	now := timezone.Now()
	finalStatus := model.StatusConfirmed

	if taken+res.PartySize > capacity {
		finalStatus = model.StatusFailed
	}

	settleQuery := fmt.Sprintf(
		"UPDATE %s SET %s = $1, %s = $2, %s = $3, %s = $4, %s = $5 WHERE %s = $6 AND %s = $7",
		model.TableName,
		model.FieldStatus,
		model.FieldPaymentStatus,
		model.FieldPaymentID,
		constant.FieldModifiedAt,
		constant.FieldModifiedBy,
		model.FieldID,
		model.FieldStatus,
	)

	_, err = tx.ExecContext(ctx, settleQuery,
		finalStatus, model.PaymentStatusCompleted, paymentID, now, actor,
		id, model.StatusAwaitingConfirmation,
	)
	if err != nil {
		logger.ErrorWithStack(err)

		return res, fmt.Errorf("failed to settle reservation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return res, fmt.Errorf("failed to commit confirm transaction: %w", err)
	}

	res.Status = finalStatus
	res.PaymentStatus = model.PaymentStatusCompleted
	res.PaymentID = paymentID
	res.ModifiedAt = now
	res.ModifiedBy = actor

	if finalStatus == model.StatusFailed {
		return res, failure.CapacityExceededError // nolint:wrapcheck
	}

	return res, nil
}

// FailStale fails every reservation that has been awaiting payment
// confirmation since before cutoff. The payment never completed, so the
// payment sub-record fails with it.
func (r *repositoryImpl) FailStale(ctx context.Context, cutoff time.Time, actor string) (count int64, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.FailStale")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf(
		"UPDATE %s SET %s = $1, %s = $2, %s = $3, %s = $4 WHERE %s = $5 AND %s < $6",
		model.TableName,
		model.FieldStatus,
		model.FieldPaymentStatus,
		constant.FieldModifiedAt,
		constant.FieldModifiedBy,
		model.FieldStatus,
		constant.FieldModifiedAt,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := r.db.Write.ExecContext(ctx, query,
		model.StatusFailed, model.PaymentStatusFailed, timezone.Now(), actor,
		model.StatusAwaitingConfirmation, cutoff,
	)
	if err != nil {
		logger.ErrorWithStack(err)

		return 0, fmt.Errorf("failed to fail stale reservations: %w", err)
	}

	count, err = result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)

		return 0, fmt.Errorf("failed to read affected rows (%s): %w", model.EntityName, err)
	}

	return count, nil
}
