// Package client is a typed HTTP client for the book inventory API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aoideee/book-inventory/internal/data"
)

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("book api: %d %s: %v", e.StatusCode, e.Message, e.Fields)
	}
	return fmt.Sprintf("book api: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Fields are the values sent on create and update.
type Fields struct {
	BookName     string          `json:"bookName"`
	BookAuthor   string          `json:"bookAuthor"`
	BookPrice    decimal.Decimal `json:"bookPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	PurchaseDate civil.Date      `json:"purchaseDate"`
}

// Client calls the book inventory API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client for the API at baseURL. A nil httpClient means http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// List returns every book.
func (c *Client) List(ctx context.Context) ([]data.Book, error) {
	var books []data.Book
	if err := c.do(ctx, http.MethodGet, "/book", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// Get returns the book with the given id.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (*data.Book, error) {
	var book data.Book
	if err := c.do(ctx, http.MethodGet, "/book/"+id.String(), nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// Create stores a new book and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, fields Fields) (*data.Book, error) {
	var book data.Book
	if err := c.do(ctx, http.MethodPost, "/book/addbook", fields, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// Update replaces every field of the book with the given id.
func (c *Client) Update(ctx context.Context, id uuid.UUID, fields Fields) (*data.Book, error) {
	var book data.Book
	if err := c.do(ctx, http.MethodPut, "/book/"+id.String(), fields, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// Delete removes the book with the given id.
func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/book/"+id.String(), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		js, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(js)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string            `json:"message"`
			Errors  map[string]string `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Message
			apiErr.Fields = payload.Errors
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
