/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package books

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/suparena/bookcatalog/errors"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Criteria is a resolved search: filters, sort column and offset window.
type Criteria struct {
	Title      string
	Author     string
	From       *time.Time
	To         *time.Time
	SortColumn string
	Descending bool
	Offset     int
	Limit      int
}

// Repository persists books.
type Repository interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, book *Book) error
	FindByID(ctx context.Context, id string) (*Book, error)
	Update(ctx context.Context, book *Book) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, c Criteria) ([]Book, int, error)
}

// OpenDB opens a bun database for driver, which is DriverPostgres or
// DriverSQLite.
func OpenDB(driver, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	switch driver {
	case DriverPostgres:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case DriverSQLite:
		// One writer at a time.
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		_ = sqldb.Close()
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// BunRepository is a Repository on a bun database.
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

// Init creates the books table if it does not exist.
func (r *BunRepository) Init(ctx context.Context) error {
	_, err := r.db.NewCreateTable().Model((*Book)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return errors.NewStoreUnavailableError("books.create_table", "", err)
	}
	return nil
}

func (r *BunRepository) Insert(ctx context.Context, book *Book) error {
	if _, err := r.db.NewInsert().Model(book).Exec(ctx); err != nil {
		return errors.NewStoreUnavailableError("books.insert", "", err)
	}
	return nil
}

func (r *BunRepository) FindByID(ctx context.Context, id string) (*Book, error) {
	book := new(Book)
	err := r.db.NewSelect().Model(book).Where("? = ?", bun.Ident("id"), id).Scan(ctx)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("Book", id)
	}
	if err != nil {
		return nil, errors.NewStoreUnavailableError("books.select", "", err)
	}
	return book, nil
}

func (r *BunRepository) Update(ctx context.Context, book *Book) error {
	res, err := r.db.NewUpdate().Model(book).WherePK().Exec(ctx)
	if err != nil {
		return errors.NewStoreUnavailableError("books.update", "", err)
	}
	return requireRow(res, book.ID)
}

func (r *BunRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*Book)(nil)).Where("? = ?", bun.Ident("id"), id).Exec(ctx)
	if err != nil {
		return errors.NewStoreUnavailableError("books.delete", "", err)
	}
	return requireRow(res, id)
}

// Search returns one window of matching books and the total match count.
func (r *BunRepository) Search(ctx context.Context, c Criteria) ([]Book, int, error) {
	books := []Book{}
	q := r.db.NewSelect().Model(&books)
	if c.Title != "" {
		q = q.Where("LOWER(?) LIKE ? ESCAPE '\\'", bun.Ident("b.title"), containsPattern(c.Title))
	}
	if c.Author != "" {
		q = q.Where("LOWER(?) LIKE ? ESCAPE '\\'", bun.Ident("b.author"), containsPattern(c.Author))
	}
	if c.From != nil {
		q = q.Where("? >= ?", bun.Ident("b.publication_date"), *c.From)
	}
	if c.To != nil {
		q = q.Where("? <= ?", bun.Ident("b.publication_date"), *c.To)
	}

	dir := "ASC"
	if c.Descending {
		dir = "DESC"
	}
	q = q.OrderExpr("? "+dir, bun.Ident("b."+c.SortColumn))
	if c.SortColumn != "id" {
		q = q.OrderExpr("? ASC", bun.Ident("b.id"))
	}

	total, err := q.Limit(c.Limit).Offset(c.Offset).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.NewStoreUnavailableError("books.search", "", err)
	}
	return books, total, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStoreUnavailableError("books.rows_affected", "", err)
	}
	if n == 0 {
		return errors.NewNotFoundError("Book", id)
	}
	return nil
}

func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
