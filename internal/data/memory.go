package data

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBookModel is a BookStore that keeps books in process memory.
// It backs the demo mode and the handler tests; nothing survives a restart.
type MemoryBookModel struct {
	mu    sync.RWMutex
	books map[uuid.UUID]Book
	order []uuid.UUID
	now   func() time.Time
}

// NewMemoryBookModel returns an empty MemoryBookModel.
func NewMemoryBookModel() *MemoryBookModel {
	return &MemoryBookModel{
		books: make(map[uuid.UUID]Book),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// GetAll returns copies of every book in insertion order.
func (m *MemoryBookModel) GetAll(_ context.Context) ([]*Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Book, 0, len(m.order))
	for _, id := range m.order {
		book := m.books[id]
		result = append(result, &book)
	}
	return result, nil
}

// Get returns a copy of the book with the given id.
func (m *MemoryBookModel) Get(_ context.Context, id uuid.UUID) (*Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, ok := m.books[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &book, nil
}

// Insert stores book under a freshly generated id, writing the id and
// timestamps back into book.
func (m *MemoryBookModel) Insert(_ context.Context, book *Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	book.ID = uuid.New()
	book.CreatedAt = m.now()
	book.UpdatedAt = book.CreatedAt

	m.books[book.ID] = *book
	m.order = append(m.order, book.ID)
	return nil
}

// Update replaces the stored fields of the book with book.ID.
func (m *MemoryBookModel) Update(_ context.Context, book *Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.books[book.ID]
	if !ok {
		return ErrRecordNotFound
	}

	book.CreatedAt = stored.CreatedAt
	book.UpdatedAt = m.now()
	m.books[book.ID] = *book
	return nil
}

// Delete removes the book with the given id.
func (m *MemoryBookModel) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return ErrRecordNotFound
	}

	delete(m.books, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}
