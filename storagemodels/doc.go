/*
Package storagemodels defines the store-neutral data structures shared by the
key-value adapters, the pagination engine and the entity services.

QueryParams and ScanParams describe a single page read:

	params := &QueryParams{
	    IndexName:      "UserIdIndex",
	    PartitionValue: userID,
	    Limit:          20,
	    ScanForward:    false,
	}

Stores answer with a Page whose LastEvaluatedKey is a plain map of key
attributes; the cursor package turns it into an opaque token. Envelope is the
client-visible shape of a paginated result:

	{"items": [...], "count": 2, "nextToken": "eyJib29rX2lkIjoi..."}

StreamOptions configure multi-page reads that follow LastEvaluatedKey until
the partition is exhausted.
*/
package storagemodels
