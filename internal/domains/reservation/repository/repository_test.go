package repository_test

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"dineease/infras/otel/mocks"
	"dineease/infras/postgres"
	"dineease/internal/domains/reservation/model"
	"dineease/internal/domains/reservation/repository"
	"dineease/shared/failure"
	gModel "dineease/shared/model"
)

func repoFixture(t *testing.T) (repository.Reservation, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	db := sqlx.NewDb(mockDB, "postgres")

	return repository.New(&postgres.Connection{Read: db, Write: db}, mocks.NewOtel()), mock
}

func awaitingRow() model.Reservation {
	return model.Reservation{
		ID:              "res-1",
		RestaurantID:    "rest-1",
		UserID:          "user-1",
		ReservationDate: time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		ReservationTime: "19:00",
		PartySize:       4,
		Status:          model.StatusAwaitingConfirmation,
		PaymentStatus:   model.PaymentStatusAwaitingConfirmation,
		PaymentOrderID:  "ord_1",
		PaymentAmount:   5000,
		Metadata: gModel.Metadata{
			CreatedAt:  time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
			ModifiedAt: time.Date(2026, 9, 1, 10, 5, 0, 0, time.UTC),
			CreatedBy:  "user-1",
			ModifiedBy: "user-1",
		},
	}
}

func reservationRows(res model.Reservation) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "restaurant_id", "user_id", "reservation_date", "reservation_time",
		"party_size", "special_requests", "status", "payment_status",
		"payment_order_id", "payment_id", "payment_amount", "cancel_reason",
		"cancelled_by", "created_at", "modified_at", "created_by", "modified_by",
	}).AddRow(
		res.ID, res.RestaurantID, res.UserID, res.ReservationDate, res.ReservationTime,
		res.PartySize, res.SpecialRequests, res.Status, res.PaymentStatus,
		res.PaymentOrderID, res.PaymentID, res.PaymentAmount, res.CancelReason,
		res.CancelledBy, res.CreatedAt, res.ModifiedAt, res.CreatedBy, res.ModifiedBy,
	)
}

func expectReservationLock(mock sqlmock.Sqlmock, res model.Reservation) {
	mock.ExpectQuery(`FROM reservations WHERE id = \$1 FOR UPDATE`).
		WithArgs(res.ID).
		WillReturnRows(reservationRows(res))
}

func expectBucketUsage(mock sqlmock.Sqlmock, res model.Reservation, capacity, taken int) {
	mock.ExpectQuery(`SELECT seating_capacity FROM restaurants WHERE id = \$1 FOR UPDATE`).
		WithArgs(res.RestaurantID).
		WillReturnRows(sqlmock.NewRows([]string{"seating_capacity"}).AddRow(capacity))

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(party_size\), 0\) FROM reservations`).
		WithArgs(res.RestaurantID, res.ReservationDate, res.ReservationTime, model.StatusConfirmed).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(taken))
}

func TestConfirmPaid(t *testing.T) {
	t.Run("confirmsWhenBucketHasRoom", func(t *testing.T) {
		repo, mock := repoFixture(t)
		res := awaitingRow()

		mock.ExpectBegin()
		expectReservationLock(mock, res)
		expectBucketUsage(mock, res, 10, 4)
		mock.ExpectExec(`UPDATE reservations SET status = \$1, payment_status = \$2, payment_id = \$3`).
			WithArgs(model.StatusConfirmed, model.PaymentStatusCompleted, "pay_1", sqlmock.AnyArg(), "user-1", res.ID, model.StatusAwaitingConfirmation).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		confirmed, err := repo.ConfirmPaid(context.Background(), res.ID, "pay_1", "user-1")

		assert.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, confirmed.Status)
		assert.Equal(t, model.PaymentStatusCompleted, confirmed.PaymentStatus)
		assert.Equal(t, "pay_1", confirmed.PaymentID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loserOfCapacityRaceFailsButKeepsPayment", func(t *testing.T) {
		repo, mock := repoFixture(t)
		res := awaitingRow()

		// A concurrent confirm for the same bucket already consumed 6 of 8
		// seats, so this party of 4 no longer fits.
		mock.ExpectBegin()
		expectReservationLock(mock, res)
		expectBucketUsage(mock, res, 8, 6)
		mock.ExpectExec(`UPDATE reservations SET status = \$1, payment_status = \$2, payment_id = \$3`).
			WithArgs(model.StatusFailed, model.PaymentStatusCompleted, "pay_1", sqlmock.AnyArg(), "user-1", res.ID, model.StatusAwaitingConfirmation).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		failed, err := repo.ConfirmPaid(context.Background(), res.ID, "pay_1", "user-1")

		assert.ErrorIs(t, err, failure.CapacityExceededError)
		assert.Equal(t, model.StatusFailed, failed.Status)
		assert.Equal(t, model.PaymentStatusCompleted, failed.PaymentStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exactFitConsumesRemainingCapacity", func(t *testing.T) {
		repo, mock := repoFixture(t)
		res := awaitingRow()

		mock.ExpectBegin()
		expectReservationLock(mock, res)
		expectBucketUsage(mock, res, 8, 4)
		mock.ExpectExec(`UPDATE reservations SET status = \$1, payment_status = \$2, payment_id = \$3`).
			WithArgs(model.StatusConfirmed, model.PaymentStatusCompleted, "pay_1", sqlmock.AnyArg(), "user-1", res.ID, model.StatusAwaitingConfirmation).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		confirmed, err := repo.ConfirmPaid(context.Background(), res.ID, "pay_1", "user-1")

		assert.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, confirmed.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicateDeliveryReturnsStoredRow", func(t *testing.T) {
		repo, mock := repoFixture(t)
		res := awaitingRow()
		res.Status = model.StatusConfirmed
		res.PaymentStatus = model.PaymentStatusCompleted
		res.PaymentID = "pay_1"

		mock.ExpectBegin()
		expectReservationLock(mock, res)
		mock.ExpectRollback()

		stored, err := repo.ConfirmPaid(context.Background(), res.ID, "pay_1", "user-1")

		assert.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, stored.Status)
		assert.Equal(t, "pay_1", stored.PaymentID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("differentPaymentAgainstConfirmedRowIsRejected", func(t *testing.T) {
		repo, mock := repoFixture(t)
		res := awaitingRow()
		res.Status = model.StatusConfirmed
		res.PaymentStatus = model.PaymentStatusCompleted
		res.PaymentID = "pay_1"

		mock.ExpectBegin()
		expectReservationLock(mock, res)
		mock.ExpectRollback()

		_, err := repo.ConfirmPaid(context.Background(), res.ID, "pay_2", "user-1")

		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelledBeforeSettleIsRejected", func(t *testing.T) {
		repo, mock := repoFixture(t)
		res := awaitingRow()
		res.Status = model.StatusCancelled

		mock.ExpectBegin()
		expectReservationLock(mock, res)
		mock.ExpectRollback()

		_, err := repo.ConfirmPaid(context.Background(), res.ID, "pay_1", "user-1")

		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missingReservation", func(t *testing.T) {
		repo, mock := repoFixture(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`FROM reservations WHERE id = \$1 FOR UPDATE`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.ConfirmPaid(context.Background(), "missing", "pay_1", "user-1")

		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransitionStatus(t *testing.T) {
	t.Run("reportsWinWhenRowStillInExpectedStatus", func(t *testing.T) {
		repo, mock := repoFixture(t)

		mock.ExpectExec(`UPDATE reservations SET payment_amount = \$1, payment_order_id = \$2.* WHERE id = \$\d+ AND status IN \(\$\d+\)`).
			WithArgs(int64(5000), "ord_1", sqlmock.AnyArg(), sqlmock.AnyArg(), "res-1", model.StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.TransitionStatus(context.Background(), "res-1", []string{model.StatusPending}, map[string]any{
			model.FieldPaymentAmount:  int64(5000),
			model.FieldPaymentOrderID: "ord_1",
			model.FieldStatus:         model.StatusAwaitingConfirmation,
			model.FieldPaymentStatus:  model.PaymentStatusAwaitingConfirmation,
		})

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reportsLossWhenRowAlreadyMoved", func(t *testing.T) {
		repo, mock := repoFixture(t)

		mock.ExpectExec(`UPDATE reservations SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.TransitionStatus(context.Background(), "res-1", []string{model.StatusPending}, map[string]any{
			model.FieldStatus: model.StatusAwaitingConfirmation,
		})

		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejectsEmptyExpectedStatuses", func(t *testing.T) {
		repo, mock := repoFixture(t)

		ok, err := repo.TransitionStatus(context.Background(), "res-1", nil, map[string]any{
			model.FieldStatus: model.StatusAwaitingConfirmation,
		})

		assert.Error(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFailStale(t *testing.T) {
	t.Run("failsRowsAwaitingPastCutoff", func(t *testing.T) {
		repo, mock := repoFixture(t)
		cutoff := time.Date(2026, 9, 12, 18, 45, 0, 0, time.UTC)

		mock.ExpectExec(`UPDATE reservations SET status = \$1, payment_status = \$2, modified_at = \$3`).
			WithArgs(model.StatusFailed, model.PaymentStatusFailed, sqlmock.AnyArg(), "reaper", model.StatusAwaitingConfirmation, cutoff).
			WillReturnResult(sqlmock.NewResult(0, 3))

		count, err := repo.FailStale(context.Background(), cutoff, "reaper")

		assert.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
