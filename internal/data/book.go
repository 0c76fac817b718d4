// Package data provides the data models and database interaction logic
// for the book inventory service.
package data

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aoideee/book-inventory/internal/validator"
)

// Prices go over the wire as JSON numbers rather than quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	// maxTextBytes caps the length of the free-text fields.
	maxTextBytes = 500

	// Prices fit NUMERIC(14,2): at most 12 integer digits and 2 decimal places.
	maxPriceIntDigits = 12
	maxPriceScale     = 2
)

// Book represents a single book record stored in the inventory.
// It maps directly to a row in the "books" table.
type Book struct {
	ID           uuid.UUID       `json:"id"`           // Assigned by the store on creation, never changed afterwards
	BookName     string          `json:"bookName"`     // Title of the book
	BookAuthor   string          `json:"bookAuthor"`   // Author name
	BookPrice    decimal.Decimal `json:"bookPrice"`    // What the shop paid for the book
	SellingPrice decimal.Decimal `json:"sellingPrice"` // What the shop sells the book for
	PurchaseDate civil.Date      `json:"purchaseDate"` // Calendar date of purchase, YYYY-MM-DD
	CreatedAt    time.Time       `json:"createdAt"`    // Timestamp when the record was created
	UpdatedAt    time.Time       `json:"updatedAt"`    // Timestamp when the record was last modified
}

// BookInput holds the fields a client supplies when creating or replacing a book.
//
// The prices are decoded as json.Number or string (the browser form posts every
// field as text), so that a malformed value is reported against its field by
// ValidateBookInput instead of failing the whole body.
type BookInput struct {
	ID           *string `json:"id"`
	BookName     *string `json:"bookName"`
	BookAuthor   *string `json:"bookAuthor"`
	BookPrice    any     `json:"bookPrice"`
	SellingPrice any     `json:"sellingPrice"`
	PurchaseDate *string `json:"purchaseDate"`
}

// ValidateBookInput checks every field of input and, when all of them are
// acceptable, returns the Book they describe. Failures are recorded on v;
// the returned Book is nil whenever v is not valid afterwards.
func ValidateBookInput(v *validator.Validator, input BookInput) *Book {
	book := &Book{}

	book.BookName = validateText(v, "bookName", input.BookName)
	book.BookAuthor = validateText(v, "bookAuthor", input.BookAuthor)
	book.BookPrice = validatePrice(v, "bookPrice", input.BookPrice)
	book.SellingPrice = validatePrice(v, "sellingPrice", input.SellingPrice)

	if input.PurchaseDate == nil {
		v.AddError("purchaseDate", "must be provided")
	} else if d, err := ParseDate(*input.PurchaseDate); err != nil {
		v.AddError("purchaseDate", "must be a valid calendar date (YYYY-MM-DD)")
	} else {
		book.PurchaseDate = d
	}

	if !v.Valid() {
		return nil
	}
	return book
}

func validateText(v *validator.Validator, key string, value *string) string {
	if value == nil {
		v.AddError(key, "must be provided")
		return ""
	}
	s := strings.TrimSpace(*value)
	v.Check(validator.NotBlank(s), key, "must be provided")
	v.Check(validator.MaxBytes(s, maxTextBytes), key, fmt.Sprintf("must not be more than %d bytes long", maxTextBytes))
	v.Check(validator.ValidUTF8(s), key, "must be valid UTF-8 text")
	v.Check(!strings.ContainsRune(s, 0), key, "must not contain NUL characters")
	return s
}

func validatePrice(v *validator.Validator, key string, value any) decimal.Decimal {
	var raw string
	switch x := value.(type) {
	case nil:
		v.AddError(key, "must be provided")
		return decimal.Zero
	case json.Number:
		raw = x.String()
	case float64:
		return checkPriceRange(v, key, decimal.NewFromFloat(x))
	case string:
		raw = strings.TrimSpace(x)
		if raw == "" {
			v.AddError(key, "must be provided")
			return decimal.Zero
		}
	default:
		v.AddError(key, "must be a number")
		return decimal.Zero
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		v.AddError(key, "must be a number")
		return decimal.Zero
	}
	return checkPriceRange(v, key, d)
}

// checkPriceRange records any range or precision failure for d and returns
// d with its exponent no lower than -maxPriceScale.
func checkPriceRange(v *validator.Validator, key string, d decimal.Decimal) decimal.Decimal {
	// A zero like 0e-50000000 would print as fifty million digits.
	if d.IsZero() {
		return decimal.Zero
	}

	ok := !d.IsNegative()
	v.Check(ok, key, "must be greater than or equal to zero")
	if !priceScaleOK(d) {
		v.AddError(key, fmt.Sprintf("must be a number with at most %d decimal places", maxPriceScale))
		ok = false
	}
	if !priceSizeOK(d) {
		v.AddError(key, fmt.Sprintf("must have at most %d digits before the decimal point", maxPriceIntDigits))
		ok = false
	}

	if ok && d.Exponent() < -maxPriceScale {
		return d.Truncate(maxPriceScale)
	}
	return d
}

// priceScaleOK reports whether d has no significant digits past maxPriceScale.
// The exponent is bounded before Truncate so that a value like 1e-50000000
// is never rescaled.
func priceScaleOK(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp >= -maxPriceScale {
		return true
	}
	if int(-exp) > d.NumDigits()+maxPriceScale {
		return d.IsZero()
	}
	return d.Equal(d.Truncate(maxPriceScale))
}

// priceSizeOK reports whether the integer part of d has at most
// maxPriceIntDigits digits, without expanding the exponent.
func priceSizeOK(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	return int64(d.NumDigits())+int64(d.Exponent()) <= maxPriceIntDigits
}

// ParseDate parses a calendar date between years 1 and 9999. Both a bare
// date ("2024-01-10") and an RFC 3339 timestamp ("2024-01-10T00:00:00.000Z")
// are accepted; for a timestamp the date as written is kept and the time of
// day is dropped.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	d, err := civil.ParseDate(s)
	if err != nil {
		t, terr := time.Parse(time.RFC3339Nano, s)
		if terr != nil {
			return civil.Date{}, fmt.Errorf("invalid date %q", s)
		}
		d = civil.DateOf(t)
	}
	if d.Year < 1 || d.Year > 9999 {
		return civil.Date{}, fmt.Errorf("date %q is outside years 1 to 9999", s)
	}
	return d, nil
}
