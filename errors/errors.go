/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when a uniqueness rule would be violated
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedCursor is returned when a pagination cursor cannot be decoded
	ErrMalformedCursor = errors.New("malformed cursor")

	// ErrForbidden is returned when the acting user does not own the record
	ErrForbidden = errors.New("operation not permitted")

	// ErrStoreUnavailable is returned when the backing store fails
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNoSchema is returned when no table schema is registered for a type
	ErrNoSchema = errors.New("no table schema registered for type")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents a conflict with an existing entity
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MalformedCursorError is an invalid-input error raised by cursor decoding.
type MalformedCursorError struct {
	Reason string
	Err    error
}

func (e *MalformedCursorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed cursor: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed cursor: %s", e.Reason)
}

func (e *MalformedCursorError) Is(target error) bool {
	return target == ErrMalformedCursor || target == ErrInvalidInput
}

func (e *MalformedCursorError) Unwrap() error {
	return e.Err
}

// ForbiddenError is returned when Actor is not the owner of the entity.
type ForbiddenError struct {
	Type  string
	Key   string
	Actor string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("user %q may not modify %s with key %q", e.Actor, e.Type, e.Key)
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// StoreUnavailableError wraps a failure of the underlying store.
type StoreUnavailableError struct {
	Operation string
	Code      string
	Err       error
}

func (e *StoreUnavailableError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store unavailable during %s (%s): %v", e.Operation, e.Code, e.Err)
	}
	return fmt.Sprintf("store unavailable during %s: %v", e.Operation, e.Err)
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewMalformedCursorError creates a new MalformedCursorError
func NewMalformedCursorError(reason string, err error) error {
	return &MalformedCursorError{Reason: reason, Err: err}
}

// NewForbiddenError creates a new ForbiddenError
func NewForbiddenError(entityType, key, actor string) error {
	return &ForbiddenError{Type: entityType, Key: key, Actor: actor}
}

// NewStoreUnavailableError creates a new StoreUnavailableError
func NewStoreUnavailableError(operation, code string, err error) error {
	return &StoreUnavailableError{Operation: operation, Code: code, Err: err}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMalformedCursor checks if an error came from cursor decoding
func IsMalformedCursor(err error) bool {
	return errors.Is(err, ErrMalformedCursor)
}

// IsForbidden checks if an error is an ownership error
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsStoreUnavailable checks if an error is a store failure
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
