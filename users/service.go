/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package users manages accounts in the relational store.
package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/suparena/bookcatalog/errors"
	"github.com/suparena/bookcatalog/validation"
)

// Repository is the persistence a Service needs.
type Repository interface {
	Insert(ctx context.Context, u *User) error
	All(ctx context.Context) ([]User, error)
	FindBy(ctx context.Context, column, value string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
	cost   int
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithHashCost sets the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: zap.NewNop(), now: time.Now, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("users")
	return s
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Create adds a user. A duplicate email fails with AlreadyExists.
func (s *Service) Create(ctx context.Context, in CreateUserInput) (*User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		s.logger.Error("failed to create user", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (s *Service) FindAll(ctx context.Context) ([]User, error) {
	return s.repo.All(ctx)
}

// FindOne fails with NotFound when id is unknown.
func (s *Service) FindOne(ctx context.Context, id string) (*User, error) {
	return s.repo.FindBy(ctx, colID, id)
}

// FindByEmail returns nil without error when no user has email.
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.FindBy(ctx, colEmail, email)
	if errors.IsNotFound(err) {
		return nil, nil
	}
	return u, err
}

func (s *Service) Update(ctx context.Context, id string, in UpdateUserInput) (*User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Password != nil {
		if u.PasswordHash, err = s.hash(*in.Password); err != nil {
			return nil, err
		}
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("failed to update user", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// CheckPassword reports whether password matches the user's hash.
func CheckPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
