// cmd/api/handlers.go
// This file contains all HTTP request handlers for the books resource.
// Each handler is a method on *applicationDependencies so it has access
// to the logger and the book store.
package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aoideee/book-inventory/internal/data"
	"github.com/aoideee/book-inventory/internal/validator"
	"github.com/aoideee/book-inventory/web"
)

// storeErrorResponse picks the response for an error returned by the book store.
func (app *applicationDependencies) storeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, data.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, data.ErrInvalidRecord):
		app.invalidRecordResponse(w, r, err)
	case errors.Is(err, data.ErrStoreUnavailable):
		app.storeUnavailableResponse(w, r, err)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

// listBooksHandler handles GET /book.
// It returns every book as a bare JSON array, oldest first.
func (app *applicationDependencies) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	books, err := app.models.Books.GetAll(r.Context())
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, books, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// createBookHandler handles POST /book/addbook.
// It validates every field, stores the book under a new id and responds
// 201 Created with the stored record.
func (app *applicationDependencies) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var input data.BookInput

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(input.ID == nil, "id", "must not be provided, ids are assigned by the server")

	book := data.ValidateBookInput(v, input)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Books.Insert(r.Context(), book)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/book/%s", book.ID))

	err = app.writeJSON(w, http.StatusCreated, book, headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBookHandler handles GET /book/:id.
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	// A malformed id was never issued, so it is reported as not found.
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	book, err := app.models.Books.Get(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, book, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateBookHandler handles PUT /book/:id.
// The book must exist before the body is looked at. Every field has to be
// resupplied; the stored record is replaced in place and keeps its id.
func (app *applicationDependencies) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	_, err = app.models.Books.Get(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	var input data.BookInput
	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	v.Check(input.ID == nil || *input.ID == id.String(), "id", "must match the book being updated")

	book := data.ValidateBookInput(v, input)
	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}
	book.ID = id

	// Update reports ErrRecordNotFound if the book was deleted in the meantime.
	err = app.models.Books.Update(r.Context(), book)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, book, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteBookHandler handles DELETE /book/:id.
// Deletion is permanent.
func (app *applicationDependencies) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.models.Books.Delete(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "book successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// healthcheckHandler handles GET /healthcheck.
func (app *applicationDependencies) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	body := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment": app.config.environment,
			"store":       app.config.store,
			"version":     appVersion,
		},
	}

	err := app.writeJSON(w, http.StatusOK, body, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// indexHandler handles GET / with the embedded browser client.
func (app *applicationDependencies) indexHandler(w http.ResponseWriter, r *http.Request) {
	content, err := web.Content.ReadFile("index.html")
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(content)
}
