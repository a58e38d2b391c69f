// Package http exposes the bookkeeping API over JSON.
//
// This file implements the Builder Pattern for JSON responses and the single
// mapping from domain errors to status codes and French messages.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"caisse/internal/core"
	"caisse/internal/log"
)

// User-facing messages. Internal errors never reach the client.
const (
	MsgUnauthorized     = "Non autorisé"
	MsgInvalidData      = "Données invalides"
	MsgInternal         = "Erreur interne du serveur"
	MsgQuestionRequired = "Question requise"
	MsgAdviceFailed     = "Impossible de générer des conseils pour le moment"
	MsgTrendsFailed     = "Impossible d'analyser les tendances pour le moment"
	MsgRouteNotFound    = "Route non trouvée"
	MsgMethodNotAllowed = "Méthode non autorisée"
	MsgTooManyRequests  = "Trop de requêtes, réessayez plus tard"
	MsgBadRequest       = "Requête invalide"

	MsgInvoiceNotFound     = "Facture non trouvée"
	MsgExpenseNotFound     = "Dépense non trouvée"
	MsgItemNotFound        = "Article non trouvé"
	MsgLinkNotFound        = "Lien de paiement non trouvé"
	MsgTransactionNotFound = "Transaction non trouvée"
	MsgUserNotFound        = "Utilisateur non trouvé"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string            `json:"message"`
	Errors  []core.FieldError `json:"errors,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.body != nil {
		_ = json.NewEncoder(w).Encode(b.body)
	}
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) {
	NewJSONResponse().Body(v).Write(w)
}

// Created writes v with status 201.
func Created(w http.ResponseWriter, v any) {
	NewJSONResponse().Status(http.StatusCreated).Body(v).Write(w)
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter) {
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Message: message})
}

// ValidationErrorResponse creates a 400 response listing the invalid fields.
func ValidationErrorResponse(ve *core.ValidationError) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusBadRequest).
		Body(ErrorBody{Message: MsgInvalidData, Errors: ve.Fields})
}

// writeError maps err onto a response. notFound is the message used for
// core.ErrNotFound and internal the one used for every unexpected failure,
// which is logged with its cause.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFound, internal string) {
	if ve, ok := core.AsValidation(err); ok {
		ValidationErrorResponse(ve).Write(w)
		return
	}

	status, message := http.StatusInternalServerError, internal
	errorType := log.ErrorTypeInternal
	switch {
	case errors.Is(err, core.ErrNotFound) && notFound != "":
		ErrorResponse(http.StatusNotFound, notFound).Write(w)
		return
	case errors.Is(err, core.ErrUnauthorized):
		ErrorResponse(http.StatusUnauthorized, MsgUnauthorized).Write(w)
		return
	case errors.Is(err, core.ErrAdviceTimeout):
		status, errorType = http.StatusGatewayTimeout, log.ErrorTypeTimeout
	case errors.Is(err, core.ErrAdviceUnavailable):
		errorType = log.ErrorTypeUpstream
	}

	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		log.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
			WithError(err).
			WithErrorType(errorType).
			ToSlice()...)
	ErrorResponse(status, message).Write(w)
}
