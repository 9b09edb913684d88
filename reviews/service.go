/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package reviews stores book reviews in the key-value store and serves
// paginated listings and rating statistics through the shared cache.
package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suparena/bookcatalog/aggregate"
	"github.com/suparena/bookcatalog/cache"
	"github.com/suparena/bookcatalog/cachekey"
	"github.com/suparena/bookcatalog/datastore"
	"github.com/suparena/bookcatalog/errors"
	"github.com/suparena/bookcatalog/metrics"
	"github.com/suparena/bookcatalog/mutation"
	"github.com/suparena/bookcatalog/paginate"
	"github.com/suparena/bookcatalog/storagemodels"
	"github.com/suparena/bookcatalog/validation"
)

const (
	DefaultPageSize = 10
	ListTTL         = 10 * time.Minute
	StatsTTL        = aggregate.DefaultTTL
)

// ListKey is the cache key of the first page of a book's reviews.
func ListKey(bookID string, limit int) string {
	return cachekey.Partitioned(cachekey.EntityReviews, "book", bookID, map[string]any{"limit": limit})
}

// ListPattern matches every cached listing of a book's reviews.
func ListPattern(bookID string) string {
	return cachekey.Pattern(cachekey.EntityReviews, "book", bookID)
}

// StatsKey is the cache key of a book's rating statistics.
func StatsKey(bookID string) string {
	return cachekey.Key(cachekey.EntityReviews, "stats", bookID)
}

// Service implements the review operations.
type Service struct {
	store    datastore.DataStore[Review]
	pager    *paginate.Engine[Review]
	stats    *aggregate.Engine[Review]
	pipeline *mutation.Pipeline
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger  *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time
	newID   func() string
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *serviceOptions) {
		o.metrics = m
	}
}

// WithClock replaces time.Now for review timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) {
		o.now = now
	}
}

// NewService wires the review operations. layer may be nil to disable caching.
func NewService(store datastore.DataStore[Review], layer *cache.Layer, opts ...Option) *Service {
	o := serviceOptions{
		logger:  zap.NewNop(),
		metrics: metrics.Nop(),
		now:     time.Now,
		newID:   newReviewID,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.Named("reviews")

	pager := paginate.NewEngine(store, layer, paginate.WithLogger(logger), paginate.WithMetrics(o.metrics))
	return &Service{
		store:    store,
		pager:    pager,
		stats:    aggregate.NewEngine(pager, layer, ratingOf, aggregate.WithTTL(StatsTTL), aggregate.WithLogger(logger)),
		pipeline: mutation.New(layer, mutation.WithLogger(logger), mutation.WithMetrics(o.metrics)),
		logger:   logger,
		now:      o.now,
		newID:    o.newID,
	}
}

func ratingOf(r Review) float64 { return float64(r.Rating) }

// newReviewID returns a time-ordered id so that the store's sort-key order
// within a book is creation order.
func newReviewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(storagemodels.TimestampLayout)
}

func (s *Service) invalidation(bookID string) mutation.Invalidation {
	return mutation.Invalidation{
		Keys:     []string{StatsKey(bookID), cachekey.Point(cachekey.EntityBooks, bookID)},
		Patterns: []string{ListPattern(bookID)},
	}
}

func requireUser(userID string) error {
	if userID == "" {
		return errors.NewValidationError("userId", "is required")
	}
	return nil
}

// AddReview creates userID's review of a book. A user may review a book
// once; the check reads before writing and is not atomic.
func (s *Service) AddReview(ctx context.Context, userID string, in CreateReviewInput) (*Review, error) {
	return mutation.Run(ctx, s.pipeline, "review.create", mutation.Steps[*Review]{
		Validate: func(ctx context.Context) error {
			if err := requireUser(userID); err != nil {
				return err
			}
			if err := validation.Struct(in); err != nil {
				return err
			}
			existing, err := s.FindUserBookReview(ctx, in.BookID, userID)
			if err != nil {
				return err
			}
			if existing != nil {
				return errors.NewAlreadyExistsError("Review", in.BookID+"/"+userID)
			}
			return nil
		},
		Persist: func(ctx context.Context) (*Review, error) {
			review := &Review{
				BookID:    in.BookID,
				ReviewID:  s.newID(),
				UserID:    userID,
				Rating:    in.Rating,
				Comment:   in.Comment,
				Timestamp: s.timestamp(),
			}
			if err := s.store.Put(ctx, *review); err != nil {
				return nil, err
			}
			return review, nil
		},
		Invalidate: func(r *Review) mutation.Invalidation {
			return s.invalidation(r.BookID)
		},
	})
}

// UpdateReview changes the rating or comment of a review owned by userID
// and returns the stored result. An input with no changes returns the
// review as it is.
func (s *Service) UpdateReview(ctx context.Context, userID, reviewID string, in UpdateReviewInput) (*Review, error) {
	var existing *Review
	key := storagemodels.Key{Partition: in.BookID, Sort: reviewID}

	return mutation.Run(ctx, s.pipeline, "review.update", mutation.Steps[*Review]{
		Validate: func(context.Context) error {
			if err := requireUser(userID); err != nil {
				return err
			}
			return validation.Struct(in)
		},
		Authorize: func(ctx context.Context) error {
			var err error
			if existing, err = s.store.Get(ctx, key); err != nil {
				return err
			}
			return mutation.Authorize("Review", reviewID, existing.UserID, userID)
		},
		Persist: func(ctx context.Context) (*Review, error) {
			changes := map[string]any{}
			if in.Rating != nil {
				changes["rating"] = *in.Rating
			}
			if in.Comment != nil {
				changes["comment"] = *in.Comment
			}
			if len(changes) == 0 {
				return existing, nil
			}
			changes["timestamp"] = s.timestamp()
			return s.store.Update(ctx, key, changes)
		},
		Invalidate: func(r *Review) mutation.Invalidation {
			return s.invalidation(r.BookID)
		},
	})
}

// DeleteReview removes a review owned by userID.
func (s *Service) DeleteReview(ctx context.Context, userID, bookID, reviewID string) (bool, error) {
	key := storagemodels.Key{Partition: bookID, Sort: reviewID}

	return mutation.Run(ctx, s.pipeline, "review.delete", mutation.Steps[bool]{
		Validate: func(context.Context) error {
			return requireUser(userID)
		},
		Authorize: func(ctx context.Context) error {
			existing, err := s.store.Get(ctx, key)
			if err != nil {
				return err
			}
			return mutation.Authorize("Review", reviewID, existing.UserID, userID)
		},
		Persist: func(ctx context.Context) (bool, error) {
			if err := s.store.Delete(ctx, key); err != nil {
				return false, err
			}
			return true, nil
		},
		Invalidate: func(bool) mutation.Invalidation {
			return s.invalidation(bookID)
		},
	})
}

func (s *Service) bookShape(bookID string) paginate.Shape[Review] {
	return paginate.Shape[Review]{
		Name:           "reviews.by_book",
		PartitionValue: bookID,
		ScanForward:    false,
		DefaultLimit:   DefaultPageSize,
		CacheKey:       func(limit int) string { return ListKey(bookID, limit) },
		CacheTTL:       ListTTL,
	}
}

// GetReviews lists a book's reviews, newest first.
func (s *Service) GetReviews(ctx context.Context, bookID string, req storagemodels.PageRequest) (*storagemodels.Envelope[Review], error) {
	if bookID == "" {
		return nil, errors.NewValidationError("bookId", "is required")
	}
	return s.pager.Paginate(ctx, s.bookShape(bookID), req)
}

// GetUserReviews lists the reviews written by userID, newest first.
func (s *Service) GetUserReviews(ctx context.Context, userID string, req storagemodels.PageRequest) (*storagemodels.Envelope[Review], error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.pager.Paginate(ctx, paginate.Shape[Review]{
		Name:           "reviews.by_user",
		IndexName:      UserIDIndex,
		PartitionValue: userID,
		ScanForward:    false,
		DefaultLimit:   DefaultPageSize,
	}, req)
}

// GetReviewByID fetches one review by its full key.
func (s *Service) GetReviewByID(ctx context.Context, bookID, reviewID string) (*Review, error) {
	return s.store.Get(ctx, storagemodels.Key{Partition: bookID, Sort: reviewID})
}

// FindUserBookReview returns userID's review of bookID, or nil when there
// is none. It reads the whole partition.
func (s *Service) FindUserBookReview(ctx context.Context, bookID, userID string) (*Review, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := datastore.Stream(ctx, s.store, storagemodels.QueryParams{
		PartitionValue: bookID,
		Filters:        map[string]any{"user_id": userID},
		ScanForward:    true,
	}, storagemodels.WithMaxRetries(0))
	for r := range results {
		if r.Error != nil {
			return nil, r.Error
		}
		review := r.Item
		return &review, nil
	}
	return nil, nil
}

// GetBookStats returns the rating statistics of a book.
func (s *Service) GetBookStats(ctx context.Context, bookID string) (*aggregate.Stats, error) {
	if bookID == "" {
		return nil, errors.NewValidationError("bookId", "is required")
	}
	return s.stats.Stats(ctx, StatsKey(bookID), s.bookShape(bookID))
}
