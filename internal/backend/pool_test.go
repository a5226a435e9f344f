package backend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"railway.tracker.org/internal/models"
)

type stubClient struct {
	delay    time.Duration
	err      error
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *stubClient) wait(ctx context.Context) error {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	select {
	case <-time.After(s.delay):
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stubClient) Locations(ctx context.Context, query string) ([]models.Place, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return []models.Place{{Type: models.PlaceTypeStop, ID: query}}, nil
}

func (s *stubClient) Journeys(ctx context.Context, from, to models.Place, opts models.JourneysOptions) (models.JourneysResponse, error) {
	if err := s.wait(ctx); err != nil {
		return models.JourneysResponse{}, err
	}
	return models.JourneysResponse{Journeys: []models.Journey{{ID: from.ID + to.ID}}}, nil
}

func (s *stubClient) RefreshJourney(ctx context.Context, token string, opts models.RefreshOptions) (models.Journey, error) {
	if err := s.wait(ctx); err != nil {
		return models.Journey{}, err
	}
	return models.Journey{ID: token}, nil
}

func TestWithTimeoutPassesResults(t *testing.T) {
	client := WithTimeout(&stubClient{}, Config{})

	places, err := client.Locations(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", places[0].ID)

	resp, err := client.Journeys(context.Background(), models.Place{ID: "a"}, models.Place{ID: "b"}, models.JourneysOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ab", resp.Journeys[0].ID)

	j, err := client.RefreshJourney(context.Background(), "tok", models.RefreshOptions{})
	require.NoError(t, err)
	assert.Equal(t, "tok", j.ID)
}

func TestWithTimeoutExpires(t *testing.T) {
	client := WithTimeout(&stubClient{delay: time.Second}, Config{Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := client.RefreshJourney(context.Background(), "tok", models.RefreshOptions{})

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "refresh_journey", be.Op)
}

func TestWithTimeoutWrapsFailures(t *testing.T) {
	boom := errors.New("connection refused")
	client := WithTimeout(&stubClient{err: boom}, Config{})

	_, err := client.Locations(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsTimeout(err))

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, KindBackend, be.Kind)
}

func TestWithTimeoutBoundsWorkers(t *testing.T) {
	stub := &stubClient{delay: 30 * time.Millisecond}
	client := WithTimeout(stub, Config{Workers: 2})

	done := make(chan error, 6)
	for i := 0; i < 6; i++ {
		go func() {
			_, err := client.Locations(context.Background(), "x")
			done <- err
		}()
	}
	for i := 0; i < 6; i++ {
		require.NoError(t, <-done)
	}

	assert.LessOrEqual(t, stub.maxSeen.Load(), int32(2))
}

func TestCallerCancellationIsNotTimeout(t *testing.T) {
	client := WithTimeout(&stubClient{delay: time.Second}, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Locations(ctx, "x")
	require.Error(t, err)
	assert.False(t, IsTimeout(err))
	assert.ErrorIs(t, err, context.Canceled)
}
