package mocks

import (
	"context"
	"time"

	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/repository"
	"github.com/stretchr/testify/mock"
)

// SecurityLogStore is a mock for repository.SecurityLogStore.
type SecurityLogStore struct {
	mock.Mock
}

func (m *SecurityLogStore) QueryMarkers(ctx context.Context, substrings []string, order repository.SortOrder) ([]repository.SecurityRow, error) {
	args := m.Called(ctx, substrings, order)
	if rows, ok := args.Get(0).([]repository.SecurityRow); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SecurityLogStore) QueryRange(ctx context.Context, r repository.KeyRange) ([]repository.SecurityRow, error) {
	args := m.Called(ctx, r)
	if rows, ok := args.Get(0).([]repository.SecurityRow); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

// AlarmLogStore is a mock for repository.AlarmLogStore.
type AlarmLogStore struct {
	mock.Mock
}

func (m *AlarmLogStore) QueryRange(ctx context.Context, r repository.KeyRange) ([]repository.AlarmRow, error) {
	args := m.Called(ctx, r)
	if rows, ok := args.Get(0).([]repository.AlarmRow); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

// TrendLogStore is a mock for repository.TrendLogStore.
type TrendLogStore struct {
	mock.Mock
}

func (m *TrendLogStore) QueryRange(ctx context.Context, r repository.KeyRange) ([]repository.TrendRow, error) {
	args := m.Called(ctx, r)
	if rows, ok := args.Get(0).([]repository.TrendRow); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

// ApprovalRepository is a mock for approval.Repository.
type ApprovalRepository struct {
	mock.Mock
}

func (m *ApprovalRepository) Create(ctx context.Context, rec *approval.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *ApprovalRepository) Approve(ctx context.Context, key batch.Key, approver string, at time.Time) (bool, error) {
	args := m.Called(ctx, key, approver, at)
	return args.Bool(0), args.Error(1)
}

func (m *ApprovalRepository) Get(ctx context.Context, key batch.Key) (*approval.Record, error) {
	args := m.Called(ctx, key)
	if rec, ok := args.Get(0).(*approval.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ApprovalRepository) List(ctx context.Context) ([]approval.Record, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]approval.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
