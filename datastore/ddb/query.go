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
	"github.com/suparena/bookcatalog/storagemodels"
)

// Query reads one page of a single partition of the table or one of its
// indexes.
func (d *DynamodbDataStore[T]) Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.Page[T], error) {
	idx, ok := d.schema.Index(params.IndexName)
	if !ok {
		return nil, catalogerrors.NewValidationError("indexName", fmt.Sprintf("table %s has no index %q", d.schema.Table, params.IndexName))
	}

	builder := expression.NewBuilder().WithKeyCondition(
		expression.Key(idx.PartitionKey).Equal(expression.Value(params.PartitionValue)),
	)
	if filter, ok := equalityFilter(params.Filters); ok {
		builder = builder.WithFilter(filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, catalogerrors.NewValidationError("query", err.Error())
	}

	input := &sdk.QueryInput{
		TableName:                 aws.String(d.schema.Table),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(params.ScanForward),
	}
	if params.IndexName != "" {
		input.IndexName = aws.String(params.IndexName)
	}
	if params.Limit > 0 {
		input.Limit = aws.Int32(params.Limit)
	}
	if input.ExclusiveStartKey, err = marshalStartKey(params.ExclusiveStartKey); err != nil {
		return nil, err
	}

	out, err := d.client.Query(ctx, input)
	if err != nil {
		d.logFailure("query", err)
		return nil, classify("query", err)
	}
	return toPage[T]("query", out.Items, out.LastEvaluatedKey)
}

// Scan reads one page of the whole table. It is the costly fallback for
// reads with no partition to target and carries no ordering guarantee.
func (d *DynamodbDataStore[T]) Scan(ctx context.Context, params *storagemodels.ScanParams) (*storagemodels.Page[T], error) {
	input := &sdk.ScanInput{
		TableName: aws.String(d.schema.Table),
	}
	if filter, ok := equalityFilter(params.Filters); ok {
		expr, err := expression.NewBuilder().WithFilter(filter).Build()
		if err != nil {
			return nil, catalogerrors.NewValidationError("scan", err.Error())
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}
	if params.Limit > 0 {
		input.Limit = aws.Int32(params.Limit)
	}
	var err error
	if input.ExclusiveStartKey, err = marshalStartKey(params.ExclusiveStartKey); err != nil {
		return nil, err
	}

	d.logger.Debug("scanning table", zap.Int32("limit", params.Limit))
	out, err := d.client.Scan(ctx, input)
	if err != nil {
		d.logFailure("scan", err)
		return nil, classify("scan", err)
	}
	return toPage[T]("scan", out.Items, out.LastEvaluatedKey)
}

// equalityFilter ANDs one equality condition per filter entry, in
// attribute-name order so the generated expression is stable.
func equalityFilter(filters map[string]any) (expression.ConditionBuilder, bool) {
	if len(filters) == 0 {
		return expression.ConditionBuilder{}, false
	}
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	conds := make([]expression.ConditionBuilder, 0, len(names))
	for _, name := range names {
		conds = append(conds, expression.Name(name).Equal(expression.Value(filters[name])))
	}
	if len(conds) == 1 {
		return conds[0], true
	}
	return expression.And(conds[0], conds[1], conds[2:]...), true
}

func marshalStartKey(key map[string]any) (map[string]types.AttributeValue, error) {
	if len(key) == 0 {
		return nil, nil
	}
	av, err := attributevalue.MarshalMap(key)
	if err != nil {
		return nil, catalogerrors.NewMalformedCursorError("start key is not a valid item key", err)
	}
	return av, nil
}

func toPage[T any](operation string, items []map[string]types.AttributeValue, lek map[string]types.AttributeValue) (*storagemodels.Page[T], error) {
	page := &storagemodels.Page[T]{Items: make([]T, 0, len(items))}
	if err := attributevalue.UnmarshalListOfMaps(items, &page.Items); err != nil {
		return nil, catalogerrors.NewStoreUnavailableError(operation, "", fmt.Errorf("failed to unmarshal items: %w", err))
	}
	if len(lek) > 0 {
		if err := attributevalue.UnmarshalMap(lek, &page.LastEvaluatedKey); err != nil {
			return nil, catalogerrors.NewStoreUnavailableError(operation, "", fmt.Errorf("failed to unmarshal last evaluated key: %w", err))
		}
	}
	return page, nil
}
