/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package cursor converts a store's last-evaluated key into an opaque,
// client-safe continuation token and back.
package cursor

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/suparena/bookcatalog/errors"
)

// canonical sorts map keys so equal keys always encode to equal tokens.
var canonical = jsoniter.ConfigCompatibleWithStandardLibrary

// Encode returns the token for a last-evaluated key. An empty key has no
// continuation and encodes to the empty string.
func Encode(key map[string]any) (string, error) {
	if len(key) == 0 {
		return "", nil
	}
	raw, err := canonical.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses a token produced by Encode. Tokens that are not base64, not
// a JSON object, or an empty object fail with a MalformedCursorError.
func Decode(token string) (map[string]any, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.NewMalformedCursorError("not base64", err)
	}
	var key map[string]any
	if err := canonical.Unmarshal(raw, &key); err != nil {
		return nil, errors.NewMalformedCursorError("not a JSON object", err)
	}
	if len(key) == 0 {
		return nil, errors.NewMalformedCursorError("empty key", nil)
	}
	return key, nil
}

// Conforms checks that key carries exactly the given key attributes with
// scalar values.
func Conforms(key map[string]any, attrs []string) error {
	if len(key) != len(attrs) {
		got := make([]string, 0, len(key))
		for k := range key {
			got = append(got, k)
		}
		sort.Strings(got)
		return errors.NewMalformedCursorError(
			fmt.Sprintf("expected attributes [%s], got [%s]", strings.Join(attrs, ","), strings.Join(got, ",")), nil)
	}
	for _, a := range attrs {
		v, ok := key[a]
		if !ok {
			return errors.NewMalformedCursorError(fmt.Sprintf("missing attribute %q", a), nil)
		}
		switch v.(type) {
		case string, float64, bool:
		default:
			return errors.NewMalformedCursorError(fmt.Sprintf("attribute %q is not a scalar", a), nil)
		}
	}
	return nil
}

// MatchesPartition checks that key was issued for the partition whose
// attribute attr holds value. Partition keys are strings.
func MatchesPartition(key map[string]any, attr, value string) error {
	v, ok := key[attr].(string)
	if !ok {
		return errors.NewMalformedCursorError(fmt.Sprintf("attribute %q is not a string", attr), nil)
	}
	if v != value {
		return errors.NewMalformedCursorError(fmt.Sprintf("issued for another %s", attr), nil)
	}
	return nil
}

// DecodeFor decodes token and checks it against the expected key attributes.
func DecodeFor(token string, attrs []string) (map[string]any, error) {
	key, err := Decode(token)
	if err != nil {
		return nil, err
	}
	if err := Conforms(key, attrs); err != nil {
		return nil, err
	}
	return key, nil
}
