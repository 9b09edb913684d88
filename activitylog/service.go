/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package activitylog records user actions with a bounded retention and
// lists them by user, by action or across the whole table.
package activitylog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suparena/bookcatalog/datastore"
	"github.com/suparena/bookcatalog/errors"
	"github.com/suparena/bookcatalog/metrics"
	"github.com/suparena/bookcatalog/paginate"
	"github.com/suparena/bookcatalog/storagemodels"
)

const (
	DefaultPageSize = 20
	Retention       = 30 * 24 * time.Hour
)

// Service records and lists activity.
type Service struct {
	store  datastore.DataStore[Entry]
	pager  *paginate.Engine[Entry]
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger  *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(o *serviceOptions) {
		o.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) {
		o.now = now
	}
}

// NewService creates the activity service. Listings are never cached.
func NewService(store datastore.DataStore[Entry], opts ...Option) *Service {
	o := serviceOptions{logger: zap.NewNop(), metrics: metrics.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.Named("activitylog")
	return &Service{
		store:  store,
		pager:  paginate.NewEngine(store, nil, paginate.WithLogger(logger), paginate.WithMetrics(o.metrics)),
		logger: logger,
		now:    o.now,
	}
}

// Record stores an entry for userID. Callers treat a failure as
// non-fatal to the action being recorded.
func (s *Service) Record(ctx context.Context, userID, action, details string) (*Entry, error) {
	if userID == "" {
		return nil, errors.NewValidationError("userId", "is required")
	}
	if action == "" {
		return nil, errors.NewValidationError("action", "is required")
	}

	now := s.now().UTC()
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	entry := &Entry{
		ID:        id.String(),
		UserID:    userID,
		Timestamp: now.Format(storagemodels.TimestampLayout),
		Action:    action,
		Details:   details,
		TTL:       now.Add(Retention).Unix(),
	}
	if err := s.store.Put(ctx, *entry); err != nil {
		s.logger.Error("failed to record activity",
			zap.String("user_id", userID),
			zap.String("action", action),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("activity recorded", zap.String("action", action), zap.String("user_id", userID))
	return entry, nil
}

// GetUserActivityLogs lists userID's entries, newest first.
func (s *Service) GetUserActivityLogs(ctx context.Context, userID string, req storagemodels.PageRequest) (*storagemodels.Envelope[Entry], error) {
	if userID == "" {
		return nil, errors.NewValidationError("userId", "is required")
	}
	return s.pager.Paginate(ctx, paginate.Shape[Entry]{
		Name:           "activity.by_user",
		IndexName:      UserIDIndex,
		PartitionValue: userID,
		DefaultLimit:   DefaultPageSize,
	}, req)
}

// GetActivityLogsByAction lists entries with the given action, newest first.
func (s *Service) GetActivityLogsByAction(ctx context.Context, action string, req storagemodels.PageRequest) (*storagemodels.Envelope[Entry], error) {
	if action == "" {
		return nil, errors.NewValidationError("action", "is required")
	}
	return s.pager.Paginate(ctx, paginate.Shape[Entry]{
		Name:           "activity.by_action",
		IndexName:      ActionIndex,
		PartitionValue: action,
		DefaultLimit:   DefaultPageSize,
	}, req)
}

// GetRecentActivityLogs scans the table. Each page is sorted newest first,
// but the scan itself is unordered so pages are not globally ordered.
func (s *Service) GetRecentActivityLogs(ctx context.Context, req storagemodels.PageRequest) (*storagemodels.Envelope[Entry], error) {
	return s.pager.Paginate(ctx, paginate.Shape[Entry]{
		Name:         "activity.recent",
		Scan:         true,
		DefaultLimit: DefaultPageSize,
		Order:        newestFirst,
	}, req)
}

func newestFirst(a, b Entry) int {
	return strings.Compare(b.Timestamp, a.Timestamp)
}
