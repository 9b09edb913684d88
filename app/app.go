/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package app owns the process-wide clients and wires the catalog
// services on top of them. Open acquires everything; Close releases it in
// reverse order.
package app

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/suparena/bookcatalog/activitylog"
	"github.com/suparena/bookcatalog/books"
	"github.com/suparena/bookcatalog/cache"
	"github.com/suparena/bookcatalog/config"
	"github.com/suparena/bookcatalog/datastore"
	"github.com/suparena/bookcatalog/datastore/ddb"
	"github.com/suparena/bookcatalog/metrics"
	"github.com/suparena/bookcatalog/reviews"
	"github.com/suparena/bookcatalog/users"
)

// App holds the wired services.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Cache    *cache.Layer

	Reviews  *reviews.Service
	Activity *activitylog.Service
	Books    *books.Service
	Users    *users.Service

	closers []func() error
}

// Option overrides a collaborator Open would otherwise build.
type Option func(*options)

type options struct {
	logger        *zap.Logger
	reviewStore   datastore.DataStore[reviews.Review]
	activityStore datastore.DataStore[activitylog.Entry]
	cacheBackend  cache.Backend
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithReviewStore replaces the DynamoDB review store.
func WithReviewStore(store datastore.DataStore[reviews.Review]) Option {
	return func(o *options) {
		o.reviewStore = store
	}
}

// WithActivityStore replaces the DynamoDB activity store.
func WithActivityStore(store datastore.DataStore[activitylog.Entry]) Option {
	return func(o *options) {
		o.activityStore = store
	}
}

// WithCacheBackend replaces the backend selected by the configuration.
func WithCacheBackend(backend cache.Backend) Option {
	return func(o *options) {
		o.cacheBackend = backend
	}
}

// Open builds every client and service described by cfg. On failure the
// clients already opened are closed.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: o.logger, Registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	collector := metrics.NewCollector(cfg.Metrics.Namespace, a.Registry)

	backend := o.cacheBackend
	if backend == nil {
		if backend, err = cache.NewBackend(cfg.Cache); err != nil {
			return nil, fmt.Errorf("failed to create cache backend: %w", err)
		}
	}
	a.Cache = cache.NewLayer(backend, cache.WithLogger(a.Logger), cache.WithMetrics(collector))
	a.closers = append(a.closers, a.Cache.Close)

	reviewStore, activityStore, err := a.openStores(ctx, o)
	if err != nil {
		return nil, err
	}

	bookRepo, userStore, err := a.openDatabases(ctx)
	if err != nil {
		return nil, err
	}

	a.Reviews = reviews.NewService(reviewStore, a.Cache, reviews.WithLogger(a.Logger), reviews.WithMetrics(collector))
	a.Activity = activitylog.NewService(activityStore, activitylog.WithLogger(a.Logger), activitylog.WithMetrics(collector))
	a.Books = books.NewService(bookRepo, a.Reviews, a.Activity, a.Cache, books.WithLogger(a.Logger), books.WithMetrics(collector))
	a.Users = users.NewService(userStore, users.WithLogger(a.Logger))

	a.Logger.Info("catalog opened",
		zap.String("environment", cfg.Environment),
		zap.String("database", cfg.Database.Kind),
		zap.String("cache", cfg.Cache.Kind),
		zap.Bool("prefix_invalidation", a.Cache.SupportsPrefixScan()))
	return a, nil
}

func (a *App) openStores(ctx context.Context, o options) (datastore.DataStore[reviews.Review], datastore.DataStore[activitylog.Entry], error) {
	reviewStore, activityStore := o.reviewStore, o.activityStore
	if reviewStore != nil && activityStore != nil {
		return reviewStore, activityStore, nil
	}

	dc := a.Config.DynamoDB
	client, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{
		Region:    dc.Region,
		AccessKey: dc.AccessKey,
		SecretKey: dc.SecretKey,
		Endpoint:  dc.Endpoint,
	})
	if err != nil {
		return nil, nil, err
	}

	if reviewStore == nil {
		s, err := ddb.NewDynamodbDataStore[reviews.Review](client, ddb.WithTableName(dc.ReviewsTable), ddb.WithLogger(a.Logger))
		if err != nil {
			return nil, nil, err
		}
		reviewStore = s
	}
	if activityStore == nil {
		s, err := ddb.NewDynamodbDataStore[activitylog.Entry](client, ddb.WithTableName(dc.ActivityTable), ddb.WithLogger(a.Logger))
		if err != nil {
			return nil, nil, err
		}
		activityStore = s
	}
	return reviewStore, activityStore, nil
}

func (a *App) openDatabases(ctx context.Context) (*books.BunRepository, *users.Store, error) {
	bookDriver, userDriver := books.DriverSQLite, users.DriverSQLite
	if a.Config.Database.Kind == config.DatabasePostgres {
		bookDriver, userDriver = books.DriverPostgres, users.DriverPostgres
	}

	db, err := books.OpenDB(bookDriver, a.Config.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, db.Close)
	repo := books.NewBunRepository(db)
	if err := repo.Init(ctx); err != nil {
		return nil, nil, err
	}

	store, err := users.Open(userDriver, a.Config.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, store.Close)
	if err := store.Init(ctx); err != nil {
		return nil, nil, err
	}
	return repo, store, nil
}

// Close releases every client, newest first, and flushes the logger.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	_ = a.Logger.Sync()
	return stderrors.Join(errs...)
}
