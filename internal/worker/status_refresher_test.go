package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"msc-cert/portal-backend/internal/certificates"
)

type MockStatusService struct {
	mock.Mock
}

func (m *MockStatusService) RefreshStatuses(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockStatusService) ExpiringSoon(ctx context.Context) ([]certificates.Certificate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]certificates.Certificate), args.Error(1)
}

func (m *MockStatusService) MaintenanceDue(ctx context.Context) ([]certificates.Certificate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]certificates.Certificate), args.Error(1)
}

func TestRunOnce(t *testing.T) {
	svc := new(MockStatusService)
	svc.On("RefreshStatuses", mock.Anything).Return(3, nil)
	svc.On("ExpiringSoon", mock.Anything).Return([]certificates.Certificate{{ID: 1}, {ID: 2}}, nil)
	svc.On("MaintenanceDue", mock.Anything).Return([]certificates.Certificate{{ID: 4}}, nil)

	r, err := NewStatusRefresher(svc, "0 5 0 * * *", time.UTC, nil)
	require.NoError(t, err)

	summary, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Changed)
	assert.Equal(t, 2, summary.ExpiringSoon)
	assert.Equal(t, 1, summary.MaintenanceDue)
	svc.AssertExpectations(t)
}

func TestRunOnceStopsOnRefreshError(t *testing.T) {
	svc := new(MockStatusService)
	svc.On("RefreshStatuses", mock.Anything).Return(1, errors.New("db down"))

	r, err := NewStatusRefresher(svc, "@daily", nil, nil)
	require.NoError(t, err)

	summary, err := r.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, summary.Changed)
	svc.AssertNotCalled(t, "ExpiringSoon", mock.Anything)
}

func TestInvalidSpec(t *testing.T) {
	_, err := NewStatusRefresher(new(MockStatusService), "every day", time.UTC, nil)
	assert.Error(t, err)
}

func TestStartSchedulesNextRun(t *testing.T) {
	r, err := NewStatusRefresher(new(MockStatusService), "0 5 0 * * *", time.UTC, nil)
	require.NoError(t, err)
	assert.True(t, r.Next().IsZero())

	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()
	assert.Error(t, r.Start(context.Background()))

	next := r.Next()
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 5, next.Minute())
	assert.True(t, next.After(time.Now()))
}
