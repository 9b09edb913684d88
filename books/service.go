/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package books manages the relational book catalog. Reads are cached;
// writes are ownership-checked, recorded in the activity log and
// invalidate the cached reads they affect.
package books

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suparena/bookcatalog/activitylog"
	"github.com/suparena/bookcatalog/cache"
	"github.com/suparena/bookcatalog/cachekey"
	"github.com/suparena/bookcatalog/errors"
	"github.com/suparena/bookcatalog/metrics"
	"github.com/suparena/bookcatalog/mutation"
	"github.com/suparena/bookcatalog/paginate"
	"github.com/suparena/bookcatalog/reviews"
	"github.com/suparena/bookcatalog/storagemodels"
	"github.com/suparena/bookcatalog/validation"
)

const (
	DetailsTTL        = 10 * time.Minute
	SearchTTL         = 5 * time.Minute
	DefaultSearchSize = 10
)

// sortColumns maps the accepted sort fields to columns.
var sortColumns = map[string]string{
	"id":              "id",
	"title":           "title",
	"author":          "author",
	"publicationDate": "publication_date",
	"createdAt":       "created_at",
}

// ReviewLister is the part of the review service a book read needs.
type ReviewLister interface {
	GetReviews(ctx context.Context, bookID string, req storagemodels.PageRequest) (*storagemodels.Envelope[reviews.Review], error)
}

// ActivityRecorder is the part of the activity log a book write needs.
type ActivityRecorder interface {
	Record(ctx context.Context, userID, action, details string) (*activitylog.Entry, error)
}

// DetailsKey is the cache key of a book read.
func DetailsKey(id string) string {
	return cachekey.Point(cachekey.EntityBooks, id)
}

// SearchKey is the cache key of a search.
func SearchKey(p SearchParams) string {
	return cachekey.Query(cachekey.EntityBooks, "search", map[string]any{
		"page":      p.Page,
		"limit":     p.Limit,
		"sortBy":    p.SortBy,
		"sortOrder": p.SortOrder,
		"title":     p.Title,
		"author":    p.Author,
		"fromDate":  p.FromDate,
		"toDate":    p.ToDate,
	})
}

// Service implements the book operations.
type Service struct {
	repo     Repository
	reviews  ReviewLister
	activity ActivityRecorder
	cache    *cache.Layer
	pipeline *mutation.Pipeline
	logger   *zap.Logger
	now      func() time.Time
}

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

// NewService wires the book operations. layer may be nil.
func NewService(repo Repository, reviewLister ReviewLister, activity ActivityRecorder, layer *cache.Layer, opts ...Option) *Service {
	o := serviceOptions{logger: zap.NewNop(), metrics: metrics.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.Named("books")
	return &Service{
		repo:     repo,
		reviews:  reviewLister,
		activity: activity,
		cache:    layer,
		pipeline: mutation.New(layer, mutation.WithLogger(logger), mutation.WithMetrics(o.metrics)),
		logger:   logger,
		now:      o.now,
	}
}

func listPatterns() []string {
	return []string{
		cachekey.Pattern(cachekey.EntityBooks, "list"),
		cachekey.Pattern(cachekey.EntityBooks, "search"),
	}
}

func (s *Service) record(ctx context.Context, userID, action string, book *Book, verb string) {
	details := fmt.Sprintf("%s book: %s - %s", verb, book.ID, book.Title)
	if _, err := s.activity.Record(ctx, userID, action, details); err != nil {
		s.logger.Warn("activity not recorded",
			zap.String("action", action),
			zap.String("book_id", book.ID),
			zap.Error(err))
	}
}

// Create adds a book published by userID with today's publication date.
func (s *Service) Create(ctx context.Context, userID string, in CreateBookInput) (*Book, error) {
	return mutation.Run(ctx, s.pipeline, "book.create", mutation.Steps[*Book]{
		Validate: func(context.Context) error {
			if userID == "" {
				return errors.NewValidationError("userId", "is required")
			}
			return validation.Struct(in)
		},
		Persist: func(ctx context.Context) (*Book, error) {
			now := s.now().UTC().Truncate(time.Second)
			book := &Book{
				ID:              uuid.NewString(),
				Title:           in.Title,
				Author:          in.Author,
				ISBN:            in.ISBN,
				Description:     in.Description,
				PublicationDate: now,
				Publisher:       userID,
				CreatedAt:       now,
			}
			if err := s.repo.Insert(ctx, book); err != nil {
				return nil, err
			}
			s.record(ctx, userID, activitylog.ActionCreateBook, book, "Created")
			return book, nil
		},
		Invalidate: func(*Book) mutation.Invalidation {
			return mutation.Invalidation{Patterns: listPatterns()}
		},
	})
}

// FindOne returns a book with the first page of its reviews.
func (s *Service) FindOne(ctx context.Context, id string) (*Details, error) {
	if id == "" {
		return nil, errors.NewValidationError("id", "is required")
	}
	key := DetailsKey(id)
	if s.cache != nil {
		var cached Details
		if s.cache.Get(ctx, key, &cached) {
			return &cached, nil
		}
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	page, err := s.reviews.GetReviews(ctx, id, storagemodels.PageRequest{})
	if err != nil {
		return nil, err
	}
	details := &Details{Book: *book, Items: page.Items, Count: page.Count, NextToken: page.NextToken}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, details, DetailsTTL)
	}
	return details, nil
}

func (s *Service) authorize(ctx context.Context, id, userID string) (*Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return book, mutation.Authorize("Book", id, book.Publisher, userID)
}

// Update changes a book published by userID.
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateBookInput) (*Book, error) {
	var book *Book
	var published *time.Time

	return mutation.Run(ctx, s.pipeline, "book.update", mutation.Steps[*Book]{
		Validate: func(context.Context) error {
			if err := validation.Struct(in); err != nil {
				return err
			}
			if in.PublicationDate != nil {
				t, err := parseDate("publicationDate", *in.PublicationDate)
				if err != nil {
					return err
				}
				published = &t
			}
			return nil
		},
		Authorize: func(ctx context.Context) error {
			var err error
			book, err = s.authorize(ctx, id, userID)
			return err
		},
		Persist: func(ctx context.Context) (*Book, error) {
			if in.Title != nil {
				book.Title = *in.Title
			}
			if in.Author != nil {
				book.Author = *in.Author
			}
			if in.ISBN != nil {
				book.ISBN = *in.ISBN
			}
			if in.Description != nil {
				book.Description = *in.Description
			}
			if published != nil {
				book.PublicationDate = *published
			}
			if err := s.repo.Update(ctx, book); err != nil {
				return nil, err
			}
			s.record(ctx, userID, activitylog.ActionUpdateBook, book, "Updated")
			return book, nil
		},
		Invalidate: func(*Book) mutation.Invalidation {
			return mutation.Invalidation{Keys: []string{DetailsKey(id)}, Patterns: listPatterns()}
		},
	})
}

// Remove deletes a book published by userID.
func (s *Service) Remove(ctx context.Context, userID, id string) error {
	var book *Book
	_, err := mutation.Run(ctx, s.pipeline, "book.delete", mutation.Steps[bool]{
		Authorize: func(ctx context.Context) error {
			var err error
			book, err = s.authorize(ctx, id, userID)
			return err
		},
		Persist: func(ctx context.Context) (bool, error) {
			if err := s.repo.Delete(ctx, id); err != nil {
				return false, err
			}
			s.record(ctx, userID, activitylog.ActionDeleteBook, book, "Deleted")
			return true, nil
		},
		Invalidate: func(bool) mutation.Invalidation {
			return mutation.Invalidation{Keys: []string{DetailsKey(id)}, Patterns: listPatterns()}
		},
	})
	return err
}

// Search filters, sorts and pages the catalog. Title and author match
// case-insensitively anywhere in the value. An unknown sort field sorts
// by id.
func (s *Service) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	c, err := s.criteria(&p)
	if err != nil {
		return nil, err
	}

	key := SearchKey(p)
	if s.cache != nil {
		var cached SearchResult
		if s.cache.Get(ctx, key, &cached) {
			return &cached, nil
		}
	}

	items, total, err := s.repo.Search(ctx, c)
	if err != nil {
		s.logger.Warn("book search failed", zap.Error(err))
		return nil, err
	}
	result := &SearchResult{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(p.Limit))),
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, result, SearchTTL)
	}
	return result, nil
}

// criteria validates p, fills in its defaults and resolves it.
func (s *Service) criteria(p *SearchParams) (Criteria, error) {
	if p.Page < 0 {
		return Criteria{}, errors.NewValidationError("page", "must be greater than 0")
	}
	if p.Page == 0 {
		p.Page = 1
	}
	limit, err := paginate.ResolveLimit(p.Limit, DefaultSearchSize)
	if err != nil {
		return Criteria{}, err
	}
	p.Limit = limit
	if err := validation.Struct(*p); err != nil {
		return Criteria{}, err
	}

	column, ok := sortColumns[p.SortBy]
	if !ok {
		column = "id"
	}
	c := Criteria{
		Title:      strings.TrimSpace(p.Title),
		Author:     strings.TrimSpace(p.Author),
		SortColumn: column,
		Descending: p.SortOrder == SortDesc,
		Offset:     (p.Page - 1) * p.Limit,
		Limit:      p.Limit,
	}
	if p.FromDate != "" {
		t, err := parseDate("fromDate", p.FromDate)
		if err != nil {
			return Criteria{}, err
		}
		c.From = &t
	}
	if p.ToDate != "" {
		t, err := parseDate("toDate", p.ToDate)
		if err != nil {
			return Criteria{}, err
		}
		c.To = &t
	}
	return c, nil
}

// parseDate accepts an RFC 3339 date-time or a full date.
func parseDate(field, value string) (time.Time, error) {
	if dt, err := strfmt.ParseDateTime(value); err == nil {
		return time.Time(dt).UTC(), nil
	}
	if t, err := time.Parse(strfmt.RFC3339FullDate, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.NewValidationError(field, "must be an RFC 3339 date or date-time")
}
