package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldEntityID      = "entity_id"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldTransactionID = "transaction_id"
	FieldTxType        = "transaction_type"
	FieldCategory      = "category"
	FieldAmount        = "amount"
	FieldEventType     = "event_type"
	FieldModel         = "model"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentAnalytics = "analytics"
	ComponentAdvisor   = "advisor"
	ComponentWorker    = "worker"
	ComponentSecurity  = "security"
	ComponentBackend   = "backend"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpAppend  = "append"
	OpPublish = "publish"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeTimeout  = "timeout_error"
	ErrorTypeUpstream = "upstream_error"
	ErrorTypeInternal = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message, skipping nil errors.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithUser(userID int64) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithTransaction adds the ledger fields of a recorded transaction.
func (f LogFields) WithTransaction(id int64, txType, category, amount string) LogFields {
	f[FieldTransactionID] = id
	f[FieldTxType] = txType
	f[FieldCategory] = category
	f[FieldAmount] = amount
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

func (f LogFields) WithEventType(eventType string) LogFields {
	f[FieldEventType] = eventType
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
