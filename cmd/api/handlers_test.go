package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/book-inventory/internal/data"
)

const duneJSON = `{"bookName":"Dune","bookAuthor":"Herbert","bookPrice":500,"sellingPrice":450,"purchaseDate":"2024-01-10"}`

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func createDune(t *testing.T, ts *testServer) data.Book {
	t.Helper()
	code, _, body := ts.do(t, http.MethodPost, "/book/addbook", duneJSON)
	require.Equal(t, http.StatusCreated, code, "body: %s", body)
	return decode[data.Book](t, body)
}

func TestListBooks_Empty(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, header, body := ts.do(t, http.MethodGet, "/book", "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.JSONEq(t, `[]`, string(body))
}

func TestCreateBook(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, header, body := ts.do(t, http.MethodPost, "/book/addbook", duneJSON)
	require.Equal(t, http.StatusCreated, code, "body: %s", body)

	book := decode[data.Book](t, body)
	assert.NotEqual(t, uuid.Nil, book.ID)
	assert.Equal(t, "/book/"+book.ID.String(), header.Get("Location"))
	assert.Equal(t, "Dune", book.BookName)
	assert.Equal(t, "2024-01-10", book.PurchaseDate.String())

	raw := decode[map[string]any](t, body)
	assert.Equal(t, float64(500), raw["bookPrice"])
	assert.Equal(t, float64(450), raw["sellingPrice"])

	code, _, body = ts.do(t, http.MethodGet, "/book", "")
	require.Equal(t, http.StatusOK, code)
	books := decode[[]data.Book](t, body)
	require.Len(t, books, 1)
	assert.Equal(t, book.ID, books[0].ID)
}

func TestCreateBook_AliasAndFormStyleBody(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	// Keys in the browser form's capitalisation, every value as a string.
	payload := `{"BookName":"Dune","BookAuthor":"Herbert","BookPrice":"500","SellingPrice":"450","PurchaseDate":"2024-01-10T00:00:00.000Z"}`
	code, _, body := ts.do(t, http.MethodPost, "/book", payload)
	require.Equal(t, http.StatusCreated, code, "body: %s", body)

	book := decode[data.Book](t, body)
	assert.Equal(t, "Herbert", book.BookAuthor)
	assert.Equal(t, "500", book.BookPrice.String())
	assert.Equal(t, "2024-01-10", book.PurchaseDate.String())
}

func TestCreateBook_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{
			name:   "missing name",
			body:   `{"bookAuthor":"Herbert","bookPrice":500,"sellingPrice":450,"purchaseDate":"2024-01-10"}`,
			fields: []string{"bookName"},
		},
		{
			name:   "negative price",
			body:   `{"bookName":"Dune","bookAuthor":"Herbert","bookPrice":-1,"sellingPrice":450,"purchaseDate":"2024-01-10"}`,
			fields: []string{"bookPrice"},
		},
		{
			name:   "bad date and negative selling price",
			body:   `{"bookName":"Dune","bookAuthor":"Herbert","bookPrice":500,"sellingPrice":-450,"purchaseDate":"2024-13-01"}`,
			fields: []string{"sellingPrice", "purchaseDate"},
		},
		{
			name:   "id supplied",
			body:   `{"id":"9b2d6c1e-3f4a-4e5b-8c7d-1a2b3c4d5e6f","bookName":"Dune","bookAuthor":"Herbert","bookPrice":500,"sellingPrice":450,"purchaseDate":"2024-01-10"}`,
			fields: []string{"id"},
		},
		{
			name:   "price with a huge exponent",
			body:   `{"bookName":"Dune","bookAuthor":"Herbert","bookPrice":"1e50000000","sellingPrice":1e50000000,"purchaseDate":"2024-01-10"}`,
			fields: []string{"bookPrice", "sellingPrice"},
		},
		{
			name:   "price with three decimal places",
			body:   `{"bookName":"Dune","bookAuthor":"Herbert","bookPrice":500.001,"sellingPrice":450,"purchaseDate":"2024-01-10"}`,
			fields: []string{"bookPrice"},
		},
		{
			name:   "NUL in name and year zero",
			body:   `{"bookName":"A\u0000","bookAuthor":"Herbert","bookPrice":500,"sellingPrice":450,"purchaseDate":"0000-01-01"}`,
			fields: []string{"bookName", "purchaseDate"},
		},
		{
			name:   "empty object",
			body:   `{}`,
			fields: []string{"bookName", "bookAuthor", "bookPrice", "sellingPrice", "purchaseDate"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApplication(t)
			ts := newTestServer(t, app.routes())

			code, _, body := ts.do(t, http.MethodPost, "/book/addbook", tc.body)
			require.Equal(t, http.StatusBadRequest, code, "body: %s", body)

			e := decode[errorBody](t, body)
			assert.Equal(t, "invalid input", e.Message)
			assert.Len(t, e.Errors, len(tc.fields))
			for _, f := range tc.fields {
				assert.Contains(t, e.Errors, f)
			}

			_, _, body = ts.do(t, http.MethodGet, "/book", "")
			assert.JSONEq(t, `[]`, string(body))
		})
	}
}

func TestCreateBook_BadBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"syntax error", `{"bookName": "Dune",}`, "badly-formed JSON"},
		{"truncated", `{"bookName": "Dune"`, "badly-formed JSON"},
		{"wrong type", `{"bookName": 42}`, `incorrect JSON type for field "bookName"`},
		{"unknown field", `{"bookName":"Dune","isbn":"123"}`, `unknown key "isbn"`},
		{"two values", `{} {}`, "single JSON value"},
		{"array", `[]`, "incorrect JSON type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApplication(t)
			ts := newTestServer(t, app.routes())

			code, _, body := ts.do(t, http.MethodPost, "/book/addbook", tc.body)
			require.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, decode[errorBody](t, body).Message, tc.message)
		})
	}
}

func TestCreateBook_EmptyBody(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, _, body := ts.do(t, http.MethodPost, "/book/addbook", "")
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "body must not be empty", decode[errorBody](t, body).Message)
}

func TestShowBook(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())
	dune := createDune(t, ts)

	code, _, body := ts.do(t, http.MethodGet, "/book/"+dune.ID.String(), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, dune.ID, decode[data.Book](t, body).ID)

	code, _, _ = ts.do(t, http.MethodGet, "/book/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _, _ = ts.do(t, http.MethodGet, "/book/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUpdateBook(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())
	dune := createDune(t, ts)

	update := strings.Replace(duneJSON, `"sellingPrice":450`, `"sellingPrice":400`, 1)
	code, _, body := ts.do(t, http.MethodPut, "/book/"+dune.ID.String(), update)
	require.Equal(t, http.StatusOK, code, "body: %s", body)

	updated := decode[data.Book](t, body)
	assert.Equal(t, dune.ID, updated.ID)
	assert.Equal(t, "400", updated.SellingPrice.String())
	assert.Equal(t, "500", updated.BookPrice.String())
	assert.True(t, dune.CreatedAt.Equal(updated.CreatedAt))

	// The id may be echoed back as long as it matches.
	withID := `{"id":"` + dune.ID.String() + `",` + update[1:]
	code, _, body = ts.do(t, http.MethodPut, "/book/"+dune.ID.String(), withID)
	require.Equal(t, http.StatusOK, code, "body: %s", body)
}

func TestUpdateBook_Errors(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())
	dune := createDune(t, ts)

	t.Run("unknown id wins over bad body", func(t *testing.T) {
		code, _, _ := ts.do(t, http.MethodPut, "/book/"+uuid.NewString(), `{"bookPrice":-1}`)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("malformed id", func(t *testing.T) {
		code, _, _ := ts.do(t, http.MethodPut, "/book/123", duneJSON)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("partial body", func(t *testing.T) {
		code, _, body := ts.do(t, http.MethodPut, "/book/"+dune.ID.String(), `{"sellingPrice":400}`)
		require.Equal(t, http.StatusBadRequest, code)
		e := decode[errorBody](t, body)
		assert.Contains(t, e.Errors, "bookName")
		assert.NotContains(t, e.Errors, "sellingPrice")
	})

	t.Run("id mismatch", func(t *testing.T) {
		body := `{"id":"` + uuid.NewString() + `",` + duneJSON[1:]
		code, _, out := ts.do(t, http.MethodPut, "/book/"+dune.ID.String(), body)
		require.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, decode[errorBody](t, out).Errors, "id")
	})

	// None of the failures above touched the stored book.
	code, _, body := ts.do(t, http.MethodGet, "/book/"+dune.ID.String(), "")
	require.Equal(t, http.StatusOK, code)
	got := decode[data.Book](t, body)
	assert.Equal(t, "450", got.SellingPrice.String())
	assert.True(t, dune.UpdatedAt.Equal(got.UpdatedAt))
}

func TestDeleteBook(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())
	dune := createDune(t, ts)

	code, _, body := ts.do(t, http.MethodDelete, "/book/"+dune.ID.String(), "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"message":"book successfully deleted"}`, string(body))

	code, _, _ = ts.do(t, http.MethodDelete, "/book/"+dune.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _, _ = ts.do(t, http.MethodPut, "/book/"+dune.ID.String(), duneJSON)
	assert.Equal(t, http.StatusNotFound, code)

	_, _, body = ts.do(t, http.MethodGet, "/book", "")
	assert.JSONEq(t, `[]`, string(body))
}

func TestStoreUnavailable(t *testing.T) {
	app := newTestApplication(t)
	app.models.Books = brokenStore{}
	ts := newTestServer(t, app.routes())

	requests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/book", ""},
		{http.MethodPost, "/book/addbook", duneJSON},
		{http.MethodGet, "/book/" + uuid.NewString(), ""},
		{http.MethodPut, "/book/" + uuid.NewString(), duneJSON},
		{http.MethodDelete, "/book/" + uuid.NewString(), ""},
	}

	for _, rq := range requests {
		t.Run(rq.method+" "+rq.path, func(t *testing.T) {
			code, _, body := ts.do(t, rq.method, rq.path, rq.body)
			assert.Equal(t, http.StatusServiceUnavailable, code)
			assert.NotContains(t, string(body), "connection refused")
		})
	}
}

func TestCreateBook_ResponseSizeIsBounded(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	payload := `{"bookName":"Dune","bookAuthor":"Herbert","bookPrice":"0e-50000000","sellingPrice":"1.500","purchaseDate":"2024-01-10"}`
	code, _, body := ts.do(t, http.MethodPost, "/book/addbook", payload)
	require.Equal(t, http.StatusCreated, code, "body: %s", body)
	assert.Less(t, len(body), 1024)

	raw := decode[map[string]any](t, body)
	assert.Equal(t, float64(0), raw["bookPrice"])
	assert.Equal(t, 1.5, raw["sellingPrice"])
}

func TestStoreRejectsRecord(t *testing.T) {
	app := newTestApplication(t)
	app.models.Books = rejectingStore{BookStore: app.models.Books}
	ts := newTestServer(t, app.routes())

	code, _, body := ts.do(t, http.MethodPost, "/book/addbook", duneJSON)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotContains(t, string(body), "22003")

	_, _, body = ts.do(t, http.MethodGet, "/book", "")
	assert.JSONEq(t, `[]`, string(body))
}

func TestRouting(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, _, body := ts.do(t, http.MethodPatch, "/book/"+uuid.NewString(), `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, code)
	assert.Contains(t, decode[errorBody](t, body).Message, "PATCH")

	code, _, _ = ts.do(t, http.MethodGet, "/books/nothing/here", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthcheck(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, _, body := ts.do(t, http.MethodGet, "/healthcheck", "")
	require.Equal(t, http.StatusOK, code)

	var got struct {
		Status     string            `json:"status"`
		SystemInfo map[string]string `json:"system_info"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "available", got.Status)
	assert.Equal(t, appVersion, got.SystemInfo["version"])
	assert.Equal(t, "memory", got.SystemInfo["store"])
}

func TestIndex(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, header, body := ts.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "/book/addbook")
}
