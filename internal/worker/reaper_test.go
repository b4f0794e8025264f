package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"dineease/config"
	"dineease/infras/otel/mocks"
	reservationMocks "dineease/internal/domains/reservation/mocks"
	"dineease/internal/worker"
	"dineease/shared/timezone"
)

func newReaper(t *testing.T, windowMinutes int) (*worker.Reaper, *reservationMocks.MockReservation) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := reservationMocks.NewMockReservation(ctrl)

	cfg := &config.Config{}
	cfg.Payment.OrderWindowMin = windowMinutes
	cfg.Reaper.Enable = true
	cfg.Reaper.IntervalSeconds = 1

	return worker.NewReaper(repo, cfg, mocks.NewOtel()), repo
}

func TestReaper_ReapOnce(t *testing.T) {
	t.Run("cutoffHonorsOrderWindow", func(t *testing.T) {
		reaper, repo := newReaper(t, 15)

		repo.EXPECT().
			FailStale(gomock.Any(), gomock.Any(), "reaper").
			DoAndReturn(func(_ context.Context, cutoff time.Time, _ string) (int64, error) {
				expected := timezone.Now().Add(-15 * time.Minute)
				assert.WithinDuration(t, expected, cutoff, 2*time.Second)
				return 3, nil
			})

		count, err := reaper.ReapOnce(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("repositoryError", func(t *testing.T) {
		reaper, repo := newReaper(t, 15)

		repo.EXPECT().
			FailStale(gomock.Any(), gomock.Any(), "reaper").
			Return(int64(0), errors.New("connection refused"))

		count, err := reaper.ReapOnce(context.Background())

		assert.Error(t, err)
		assert.Zero(t, count)
	})
}

func TestReaper_Run(t *testing.T) {
	t.Run("disabledReturnsImmediately", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Reaper.Enable = false

		disabled := worker.NewReaper(nil, cfg, mocks.NewOtel())
		disabled.Run(context.Background())
	})

	t.Run("stopsOnContextCancel", func(t *testing.T) {
		reaper, repo := newReaper(t, 15)

		repo.EXPECT().
			FailStale(gomock.Any(), gomock.Any(), "reaper").
			Return(int64(0), nil).
			AnyTimes()

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			reaper.Run(ctx)
			close(done)
		}()

		time.Sleep(1200 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("reaper did not stop after context cancellation")
		}
	})
}
