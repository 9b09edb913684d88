/*
Package ddb provides a DynamoDB implementation of the DataStore interface.

The store resolves its table layout from the registry by Go type and builds
every request with the expression package:

	client, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{Region: "us-east-1"})
	store, err := ddb.NewDynamodbDataStore[reviews.Review](client,
	    ddb.WithTableName("book_reviews"),
	    ddb.WithLogger(logger),
	)

	page, err := store.Query(ctx, &storagemodels.QueryParams{
	    PartitionValue: bookID,
	    Limit:          10,
	    ScanForward:    false,
	})

Updates are conditional on the record existing and return ALL_NEW
attributes. Service failures become StoreUnavailable errors carrying the
service error code; a failed existence condition becomes NotFound. The store
does not retry; the SDK client's retryer is configured by the caller.
*/
package ddb
