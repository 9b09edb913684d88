/*
Package registry associates Go record types with their key-value table layout.

Record packages register their schema during initialization:

	func init() {
	    registry.RegisterTableSchema[Review](registry.TableSchema{
	        Table:        "book_reviews",
	        Entity:       "Review",
	        PartitionKey: "book_id",
	        SortKey:      "review_id",
	        Indexes: map[string]registry.IndexSchema{
	            "UserIdIndex": {Name: "UserIdIndex", PartitionKey: "user_id", SortKey: "timestamp"},
	        },
	    })
	}

Data stores look the schema up by type to build keys, key conditions and to
validate pagination cursors. The registry is safe for concurrent use.
*/
package registry
