/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package cachekey derives cache keys for point lookups and parameterized
// queries. Equal parameters always produce equal keys, whatever order the
// caller supplies them in.
package cachekey

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Separator joins key segments.
const Separator = ":"

// Wildcard terminates a prefix pattern.
const Wildcard = "*"

// Entity namespaces shared across packages.
const (
	EntityBooks   = "books"
	EntityReviews = "reviews"
)

// Key joins segments into a key, e.g. Key("reviews", "stats", id).
func Key(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Point is the key of a single entity: "<entity>:<id>".
func Point(entity, id string) string {
	return Key(entity, id)
}

// Query is the key of a parameterized read: "<entity>:<op>:<params>".
func Query(entity, operation string, params map[string]any) string {
	return Key(entity, operation, Canonical(params))
}

// Partitioned is the key of a read scoped to one partition:
// "<entity>:<op>:<partition>:<params>". All such keys for a partition
// match Pattern(entity, op, partition).
func Partitioned(entity, operation, partition string, params map[string]any) string {
	return Key(entity, operation, partition, Canonical(params))
}

// Pattern is a prefix pattern matching every key under the given segments.
func Pattern(segments ...string) string {
	return Key(segments...) + Separator + Wildcard
}

// Canonical renders params as "k1=v1,k2=v2" in key order. Nil values and
// nil pointers are omitted so unset optional parameters do not fragment
// the key space.
func Canonical(params map[string]any) string {
	names := make([]string, 0, len(params))
	for name, v := range params {
		if isNil(v) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + serializeValue(params[name])
	}
	return strings.Join(parts, ",")
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func serializeValue(v any) string {
	switch tv := v.(type) {
	case time.Time:
		return tv.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return tv.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		return serializeValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = serializeValue(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, "|") + "]"
	case reflect.Map:
		nested := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			nested[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		return "{" + Canonical(nested) + "}"
	}
	return fmt.Sprintf("%v", v)
}
