// internal/data/models.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrRecordNotFound is returned when no book with the requested id exists.
	ErrRecordNotFound = errors.New("record not found")
	// ErrStoreUnavailable wraps every failure of the underlying store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidRecord is returned when the store refuses a value in the record
	// itself (data exception or integrity constraint), not because it is down.
	ErrInvalidRecord = errors.New("record rejected by store")
)

// BookStore is the persistence contract behind the book endpoints.
// Each write is atomic for the record it touches.
type BookStore interface {
	GetAll(ctx context.Context) ([]*Book, error)
	Get(ctx context.Context, id uuid.UUID) (*Book, error)
	Insert(ctx context.Context, book *Book) error
	Update(ctx context.Context, book *Book) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Models is a top-level container that groups all model types together.
// It is passed around the application via applicationDependencies so every handler
// has access to the store without importing sql directly.
type Models struct {
	Books BookStore
}

// NewModels constructs a Models value backed by the given PostgreSQL pool.
func NewModels(db *sql.DB) Models {
	return Models{
		Books: BookModel{
			DB:     db,
			tracer: otel.Tracer("github.com/aoideee/book-inventory/internal/data"),
		},
	}
}

// NewMemoryModels constructs a Models value that keeps everything in process memory.
func NewMemoryModels() Models {
	return Models{
		Books: NewMemoryBookModel(),
	}
}

// queryTimeout bounds every single statement sent to PostgreSQL.
const queryTimeout = 3 * time.Second

// BookModel wraps a *sql.DB connection and provides methods for
// creating, reading, updating, and deleting book records.
type BookModel struct {
	DB     *sql.DB
	tracer trace.Tracer
}

func (m BookModel) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := m.tracer
	if tracer == nil {
		tracer = otel.Tracer("github.com/aoideee/book-inventory/internal/data")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(append(attrs, attribute.String("db.system", "postgresql"))...))
}

// storeError records err on span and wraps it as ErrInvalidRecord when
// PostgreSQL rejected the data (SQLSTATE classes 22 and 23), or as
// ErrStoreUnavailable otherwise.
func storeError(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23":
			span.SetAttributes(attribute.String("db.sqlstate", string(pqErr.Code)))
			return fmt.Errorf("%w: %s: %w", ErrInvalidRecord, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// Insert adds a new book record to the database.
// A fresh id is generated here; created_at and updated_at come back from the
// database and are written into book.
func (m BookModel) Insert(ctx context.Context, book *Book) error {
	book.ID = uuid.New()

	ctx, span := m.startSpan(ctx, "books.insert", attribute.String("book.id", book.ID.String()))
	defer span.End()

	query := `
		INSERT INTO books (book_id, book_name, book_author, book_price, selling_price, purchase_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	args := []any{
		book.ID,
		book.BookName,
		book.BookAuthor,
		book.BookPrice,
		book.SellingPrice,
		book.PurchaseDate.String(),
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, args...).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return storeError(span, "insert book", err)
	}
	return nil
}

// Get retrieves a single book by its id.
// Returns ErrRecordNotFound if no book with the given id exists.
func (m BookModel) Get(ctx context.Context, id uuid.UUID) (*Book, error) {
	ctx, span := m.startSpan(ctx, "books.get", attribute.String("book.id", id.String()))
	defer span.End()

	query := `
		SELECT book_id, book_name, book_author, book_price, selling_price, purchase_date, created_at, updated_at
		FROM books
		WHERE book_id = $1`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	book, err := scanBook(m.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, storeError(span, "get book", err)
		}
	}
	return book, nil
}

// GetAll retrieves every book in the order they were created.
func (m BookModel) GetAll(ctx context.Context) ([]*Book, error) {
	ctx, span := m.startSpan(ctx, "books.list")
	defer span.End()

	query := `
		SELECT book_id, book_name, book_author, book_price, selling_price, purchase_date, created_at, updated_at
		FROM books
		ORDER BY seq ASC`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, storeError(span, "list books", err)
	}
	// Always close the result set when we are done to free the database connection.
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, storeError(span, "scan book", err)
		}
		books = append(books, book)
	}
	if err = rows.Err(); err != nil {
		return nil, storeError(span, "iterate books", err)
	}

	span.SetAttributes(attribute.Int("books.count", len(books)))
	return books, nil
}

// Update replaces every editable field of the stored book with the values in
// book. The id and created_at never change; updated_at is refreshed by the
// database and scanned back into book.
// Returns ErrRecordNotFound if the row no longer exists.
func (m BookModel) Update(ctx context.Context, book *Book) error {
	ctx, span := m.startSpan(ctx, "books.update", attribute.String("book.id", book.ID.String()))
	defer span.End()

	query := `
		UPDATE books
		SET book_name = $1, book_author = $2, book_price = $3, selling_price = $4,
		    purchase_date = $5, updated_at = NOW()
		WHERE book_id = $6
		RETURNING created_at, updated_at`

	args := []any{
		book.BookName,
		book.BookAuthor,
		book.BookPrice,
		book.SellingPrice,
		book.PurchaseDate.String(),
		book.ID,
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := m.DB.QueryRowContext(ctx, query, args...).Scan(&book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return storeError(span, "update book", err)
		}
	}
	return nil
}

// Delete removes the book with the given id from the database.
// Returns ErrRecordNotFound if no matching record exists.
func (m BookModel) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := m.startSpan(ctx, "books.delete", attribute.String("book.id", id.String()))
	defer span.End()

	query := `DELETE FROM books WHERE book_id = $1`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := m.DB.ExecContext(ctx, query, id)
	if err != nil {
		return storeError(span, "delete book", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError(span, "delete book", err)
	}

	// If no rows were deleted, the book didn't exist.
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(s rowScanner) (*Book, error) {
	var (
		book         Book
		purchaseDate time.Time
	)
	err := s.Scan(
		&book.ID,
		&book.BookName,
		&book.BookAuthor,
		&book.BookPrice,
		&book.SellingPrice,
		&purchaseDate,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	book.PurchaseDate = civil.DateOf(purchaseDate)
	return &book, nil
}
