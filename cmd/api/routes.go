// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// routes registers all HTTP endpoints and returns the configured router wrapped
// in the middleware chain.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → otelhttp → logRequests → enableCORS → rateLimit → router
//
// Current endpoints:
//
//	GET    /               – browser client
//	GET    /healthcheck    – service status
//	GET    /book           – list all books
//	POST   /book/addbook   – create a new book (POST /book is an alias)
//	GET    /book/:id       – retrieve a single book
//	PUT    /book/:id       – replace every field of an existing book
//	DELETE /book/:id       – delete a book
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/", app.indexHandler)
	router.HandlerFunc(http.MethodGet, "/healthcheck", app.healthcheckHandler)

	router.HandlerFunc(http.MethodGet, "/book", app.listBooksHandler)
	router.HandlerFunc(http.MethodPost, "/book", app.createBookHandler)
	router.HandlerFunc(http.MethodPost, "/book/addbook", app.createBookHandler)
	router.HandlerFunc(http.MethodGet, "/book/:id", app.showBookHandler)
	router.HandlerFunc(http.MethodPut, "/book/:id", app.updateBookHandler)
	router.HandlerFunc(http.MethodDelete, "/book/:id", app.deleteBookHandler)

	handler := app.logRequests(app.enableCORS(app.rateLimit(router)))
	return app.recoverPanic(otelhttp.NewHandler(handler, serviceName))
}
