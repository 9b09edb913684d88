/*
Package paginate is the single cursor-paginated read path shared by the
review store, the activity log and the book read model.

A Shape names the partition or scan to read, its default page size, and
optionally how to cache the first page:

	shape := paginate.Shape[reviews.Review]{
	    Name:           "reviews.by_book",
	    PartitionValue: bookID,
	    DefaultLimit:   10,
	    CacheKey: func(limit int) string {
	        return cachekey.Partitioned("reviews", "book", bookID, map[string]any{"limit": limit})
	    },
	    CacheTTL: 10 * time.Minute,
	}
	env, err := engine.Paginate(ctx, shape, storagemodels.PageRequest{Limit: 10, Cursor: token})

Limits outside [1,100] are rejected with an invalid-input error, as are
cursors that do not decode to the key attributes of the shape.
*/
package paginate
