/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package activitylog

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OperationKind distinguishes reads from writes in recorded actions.
type OperationKind string

const (
	KindQuery    OperationKind = "query"
	KindMutation OperationKind = "mutation"
)

const masked = "***"

var sensitiveFields = map[string]bool{
	"password":        true,
	"newPassword":     true,
	"confirmPassword": true,
}

// RecordOperation records an API operation as "<kind>:<name>" with its
// arguments as the details. Password fields are masked at any depth.
func (s *Service) RecordOperation(ctx context.Context, userID string, kind OperationKind, name string, args any) (*Entry, error) {
	payload, err := MaskedPayload(args)
	if err != nil {
		return nil, err
	}
	return s.Record(ctx, userID, fmt.Sprintf("%s:%s", kind, name), "Payload: "+payload)
}

// MaskedPayload renders args as JSON with sensitive fields replaced.
func MaskedPayload(args any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode operation arguments: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("failed to decode operation arguments: %w", err)
	}
	out, err := json.Marshal(mask(generic))
	if err != nil {
		return "", fmt.Errorf("failed to encode operation arguments: %w", err)
	}
	return string(out), nil
}

func mask(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if sensitiveFields[k] {
				t[k] = masked
				continue
			}
			t[k] = mask(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = mask(child)
		}
		return t
	default:
		return v
	}
}
