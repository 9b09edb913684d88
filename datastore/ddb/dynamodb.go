/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	catalogerrors "github.com/suparena/bookcatalog/errors"
	"github.com/suparena/bookcatalog/registry"
	"github.com/suparena/bookcatalog/storagemodels"
)

// DynamodbDataStore implements datastore.DataStore[T] on DynamoDB.
type DynamodbDataStore[T any] struct {
	client Client
	schema registry.TableSchema
	logger *zap.Logger
}

// Option configures a DynamodbDataStore.
type Option func(*storeOptions)

type storeOptions struct {
	tableName string
	logger    *zap.Logger
}

// WithTableName overrides the table name registered in the schema.
func WithTableName(name string) Option {
	return func(o *storeOptions) {
		o.tableName = name
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// NewDynamodbDataStore constructs a store for type T. T's table schema must
// have been registered with registry.RegisterTableSchema.
func NewDynamodbDataStore[T any](client Client, opts ...Option) (*DynamodbDataStore[T], error) {
	schema, ok := registry.GetTableSchema[T]()
	if !ok {
		var zero T
		return nil, fmt.Errorf("%w: %T", catalogerrors.ErrNoSchema, zero)
	}

	o := storeOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tableName != "" {
		schema.Table = o.tableName
	}

	return &DynamodbDataStore[T]{
		client: client,
		schema: schema,
		logger: o.logger.With(zap.String("table", schema.Table)),
	}, nil
}

// Schema returns the table layout this store reads and writes.
func (d *DynamodbDataStore[T]) Schema() registry.TableSchema {
	return d.schema
}

// Put writes entity, replacing any record with the same key.
func (d *DynamodbDataStore[T]) Put(ctx context.Context, entity T) error {
	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return catalogerrors.NewValidationError("entity", fmt.Sprintf("cannot marshal %s: %v", d.schema.Entity, err))
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: aws.String(d.schema.Table),
		Item:      av,
	})
	if err != nil {
		d.logFailure("put", err)
		return classify("put", err)
	}
	return nil
}

// Get retrieves a single record by its full key.
func (d *DynamodbDataStore[T]) Get(ctx context.Context, key storagemodels.Key) (*T, error) {
	keyMap, err := d.keyMap(key)
	if err != nil {
		return nil, err
	}

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: aws.String(d.schema.Table),
		Key:       keyMap,
	})
	if err != nil {
		d.logFailure("get", err)
		return nil, classify("get", err)
	}
	if out.Item == nil {
		return nil, catalogerrors.NewNotFoundError(d.schema.Entity, keyString(key))
	}

	result := new(T)
	if err := attributevalue.UnmarshalMap(out.Item, result); err != nil {
		return nil, catalogerrors.NewStoreUnavailableError("get", "", fmt.Errorf("failed to unmarshal item: %w", err))
	}
	return result, nil
}

// Update sets the given attributes on an existing record and returns the
// record as stored after the write. Key attributes cannot be changed.
func (d *DynamodbDataStore[T]) Update(ctx context.Context, key storagemodels.Key, changes map[string]any) (*T, error) {
	if len(changes) == 0 {
		return d.Get(ctx, key)
	}
	keyMap, err := d.keyMap(key)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(changes))
	for name := range changes {
		if name == d.schema.PartitionKey || name == d.schema.SortKey {
			return nil, catalogerrors.NewValidationError(name, "key attributes cannot be updated")
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var update expression.UpdateBuilder
	for i, name := range names {
		if i == 0 {
			update = expression.Set(expression.Name(name), expression.Value(changes[name]))
			continue
		}
		update = update.Set(expression.Name(name), expression.Value(changes[name]))
	}
	cond := expression.AttributeExists(expression.Name(d.schema.PartitionKey))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, catalogerrors.NewValidationError("changes", err.Error())
	}

	out, err := d.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 aws.String(d.schema.Table),
		Key:                       keyMap,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, catalogerrors.NewNotFoundError(d.schema.Entity, keyString(key))
		}
		d.logFailure("update", err)
		return nil, classify("update", err)
	}

	result := new(T)
	if err := attributevalue.UnmarshalMap(out.Attributes, result); err != nil {
		return nil, catalogerrors.NewStoreUnavailableError("update", "", fmt.Errorf("failed to unmarshal item: %w", err))
	}
	return result, nil
}

// Delete removes a record. Deleting an absent key succeeds.
func (d *DynamodbDataStore[T]) Delete(ctx context.Context, key storagemodels.Key) error {
	keyMap, err := d.keyMap(key)
	if err != nil {
		return err
	}

	_, err = d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: aws.String(d.schema.Table),
		Key:       keyMap,
	})
	if err != nil {
		d.logFailure("delete", err)
		return classify("delete", err)
	}
	return nil
}

func (d *DynamodbDataStore[T]) keyMap(key storagemodels.Key) (map[string]types.AttributeValue, error) {
	if key.Partition == "" {
		return nil, catalogerrors.NewValidationError(d.schema.PartitionKey, "partition key is required")
	}
	m := map[string]types.AttributeValue{
		d.schema.PartitionKey: &types.AttributeValueMemberS{Value: key.Partition},
	}
	if d.schema.SortKey != "" {
		if key.Sort == "" {
			return nil, catalogerrors.NewValidationError(d.schema.SortKey, "sort key is required")
		}
		m[d.schema.SortKey] = &types.AttributeValueMemberS{Value: key.Sort}
	}
	return m, nil
}

func (d *DynamodbDataStore[T]) logFailure(operation string, err error) {
	d.logger.Warn("dynamodb operation failed",
		zap.String("operation", operation),
		zap.Bool("throttled", isThrottled(err)),
		zap.Error(err),
	)
}

func keyString(key storagemodels.Key) string {
	if key.Sort == "" {
		return key.Partition
	}
	return key.Partition + "/" + key.Sort
}
