/*
Package bookcatalog is the data-access core of a book catalog: accounts and
books in a relational database, reviews and an activity log in DynamoDB, and
a read-through cache in front of both.

Layout:
  - cursor, paginate: opaque continuation tokens and the cursor-paginated
    read engine shared by every key-value listing
  - datastore, datastore/ddb, datastore/mock, registry, storagemodels: the
    typed key-value store adapter and its table layouts
  - cache, cachekey, metrics: cache backends (sturdyc, Redis, none), key
    conventions and counters
  - mutation, aggregate: the ownership-checked write pipeline and cached
    rating statistics
  - reviews, activitylog, books, users: the entity services
  - config, logging, validation, errors, app: ambient wiring

Basic usage:

	cfg, _ := config.Load("catalog.yaml", "")
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.Reviews.GetReviews(ctx, bookID, storagemodels.PageRequest{Limit: 20})
	next, err := a.Reviews.GetReviews(ctx, bookID, storagemodels.PageRequest{Limit: 20, Cursor: page.NextToken})
*/
package bookcatalog
