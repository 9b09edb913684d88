/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package users

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/suparena/bookcatalog/errors"
)

// Supported database drivers.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

const (
	tableUsers = "users"

	colID           = "id"
	colEmail        = "email"
	colName         = "name"
	colPasswordHash = "password_hash"
	colCreatedAt    = "created_at"
	colUpdatedAt    = "updated_at"

	pgUniqueViolation = "23505"
)

const createTable = `CREATE TABLE IF NOT EXISTS users (
	id            VARCHAR(36)  PRIMARY KEY,
	email         VARCHAR(255) NOT NULL UNIQUE,
	name          VARCHAR(255) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	created_at    TIMESTAMP    NOT NULL,
	updated_at    TIMESTAMP    NOT NULL
)`

var dialects = map[string]string{
	DriverPostgres: "postgres",
	DriverSQLite:   "sqlite3",
}

// Store persists users with sqlx, building statements with goqu.
type Store struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
}

// Open connects to a database for driver, which is DriverPostgres or
// DriverSQLite.
func Open(driver, dsn string) (*Store, error) {
	name, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db, dialect: goqu.Dialect(name)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the users table if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return errors.NewStoreUnavailableError("users.create_table", "", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, u *User) error {
	query, args, err := s.dialect.Insert(tableUsers).Prepared(true).Rows(goqu.Record{
		colID:           u.ID,
		colEmail:        u.Email,
		colName:         u.Name,
		colPasswordHash: u.PasswordHash,
		colCreatedAt:    u.CreatedAt,
		colUpdatedAt:    u.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return buildFailed("users.insert", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return s.classify("users.insert", u.Email, err)
	}
	return nil
}

func (s *Store) selectUsers() *goqu.SelectDataset {
	return s.dialect.From(tableUsers).Prepared(true).
		Select(colID, colEmail, colName, colPasswordHash, colCreatedAt, colUpdatedAt)
}

// All lists every user ordered by creation time.
func (s *Store) All(ctx context.Context) ([]User, error) {
	query, args, err := s.selectUsers().Order(goqu.I(colCreatedAt).Asc(), goqu.I(colID).Asc()).ToSQL()
	if err != nil {
		return nil, buildFailed("users.select", err)
	}
	users := []User{}
	if err := s.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, errors.NewStoreUnavailableError("users.select", "", err)
	}
	return users, nil
}

// FindBy returns the user whose column equals value, or NotFound.
func (s *Store) FindBy(ctx context.Context, column, value string) (*User, error) {
	query, args, err := s.selectUsers().Where(goqu.C(column).Eq(value)).Limit(1).ToSQL()
	if err != nil {
		return nil, buildFailed("users.select", err)
	}
	var u User
	err = s.db.GetContext(ctx, &u, query, args...)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("User", value)
	}
	if err != nil {
		return nil, errors.NewStoreUnavailableError("users.select", "", err)
	}
	return &u, nil
}

func (s *Store) Update(ctx context.Context, u *User) error {
	query, args, err := s.dialect.Update(tableUsers).Prepared(true).Set(goqu.Record{
		colEmail:        u.Email,
		colName:         u.Name,
		colPasswordHash: u.PasswordHash,
		colUpdatedAt:    u.UpdatedAt,
	}).Where(goqu.C(colID).Eq(u.ID)).ToSQL()
	if err != nil {
		return buildFailed("users.update", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return s.classify("users.update", u.Email, err)
	}
	return requireRow(res, u.ID)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	query, args, err := s.dialect.Delete(tableUsers).Prepared(true).Where(goqu.C(colID).Eq(id)).ToSQL()
	if err != nil {
		return buildFailed("users.delete", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.NewStoreUnavailableError("users.delete", "", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStoreUnavailableError("users.rows_affected", "", err)
	}
	if n == 0 {
		return errors.NewNotFoundError("User", id)
	}
	return nil
}

// classify turns a unique violation on email into AlreadyExists.
// buildFailed reports a statement the query builder could not render.
func buildFailed(op string, err error) error {
	return errors.NewStoreUnavailableError(op, "build", err)
}

func (s *Store) classify(op, email string, err error) error {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return errors.NewAlreadyExistsError("User", email)
	}
	var liteErr sqlite3.Error
	if stderrors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return errors.NewAlreadyExistsError("User", email)
	}
	return errors.NewStoreUnavailableError(op, "", err)
}
