// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request data:
// JSON bodies, path ids and the optional reporting period.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"caisse/internal/core"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// RequestParser decodes and validates request input.
type RequestParser struct {
	validator *core.Validator
}

func NewRequestParser(v *core.Validator) *RequestParser {
	return &RequestParser{validator: v}
}

// DecodeJSON reads the body into dst without validating it. Malformed JSON
// is reported as a ValidationError on the "body" field.
func (p *RequestParser) DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return core.NewValidationError("body", "required", "corps de requête vide")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return core.NewValidationError(typeErr.Field, "type", "type de valeur invalide")
		}
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		return core.NewValidationError("body", "json", "JSON invalide")
	}
	return nil
}

// Parse decodes the body into dst and validates it. dst must be a pointer
// to one of the core input structs.
func (p *RequestParser) Parse(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := p.DecodeJSON(w, r, dst); err != nil {
		return err
	}
	return p.validator.Struct(dst)
}

// PathID reads a positive integer path parameter. Anything else is treated
// as an id that cannot exist.
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s %q: %w", name, raw, core.ErrNotFound)
	}
	return id, nil
}

// ParsePeriod reads the optional month and year query parameters. Both
// absent means the current period (nil). Giving only one, or an invalid
// value, is a validation error.
func ParsePeriod(r *http.Request) (*core.Period, error) {
	q := r.URL.Query()
	monthStr := strings.TrimSpace(q.Get("month"))
	yearStr := strings.TrimSpace(q.Get("year"))
	if monthStr == "" && yearStr == "" {
		return nil, nil
	}

	ve := &core.ValidationError{}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		ve.Fields = append(ve.Fields, core.FieldError{Field: "month", Tag: "number", Message: "mois invalide"})
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		ve.Fields = append(ve.Fields, core.FieldError{Field: "year", Tag: "number", Message: "année invalide"})
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}

	p, err := core.NewPeriod(year, month)
	if err != nil {
		return nil, core.NewValidationError("period", "period", err.Error())
	}
	return &p, nil
}
