/*
Package datastore defines the key-value store adapter used by the review and
activity-log stores.

	type DataStore[T any] interface {
	    Put(ctx context.Context, entity T) error
	    Get(ctx context.Context, key storagemodels.Key) (*T, error)
	    Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.Page[T], error)
	    Scan(ctx context.Context, params *storagemodels.ScanParams) (*storagemodels.Page[T], error)
	    Update(ctx context.Context, key storagemodels.Key, changes map[string]any) (*T, error)
	    Delete(ctx context.Context, key storagemodels.Key) error
	    Schema() registry.TableSchema
	}

Implementations:
  - ddb: DynamoDB implementation on aws-sdk-go-v2
  - mock: In-memory implementation with DynamoDB ordering and paging semantics

Every failure is classified into the errors package taxonomy. Stream follows
LastEvaluatedKey across pages for callers that need a whole partition.
*/
package datastore
