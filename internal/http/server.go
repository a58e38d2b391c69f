package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"caisse/internal/config"
	"caisse/internal/core"
	"caisse/internal/log"
	"caisse/internal/middleware/ratelimit"
	"caisse/internal/middleware/security"
	"caisse/internal/middleware/trace"
	"caisse/internal/services"
	"caisse/internal/storage"
)

// Reports is the read side used by the dashboard and inventory routes.
type Reports interface {
	FinancialSummary(ctx context.Context, userID int64, p *core.Period) (core.FinancialSummary, error)
	DashboardSummary(ctx context.Context, userID int64) (core.DashboardSummary, error)
	ChartData(ctx context.Context, userID int64) (core.ChartData, error)
	LowStockItems(ctx context.Context, userID int64) ([]core.InventoryItem, error)
}

// Advisor answers the /ai routes.
type Advisor interface {
	Advice(ctx context.Context, user core.User, req core.AdviceRequest) (core.Advice, error)
	AnalyzeTrends(ctx context.Context, userID int64) (core.TrendAnalysis, error)
}

// Deps are the collaborators the handlers delegate to. Advisor may be nil,
// in which case the /ai routes answer with their generic failure message.
type Deps struct {
	Store      storage.Store
	Bookkeeper *services.Bookkeeper
	Reports    Reports
	Advisor    Advisor
	Validator  *core.Validator
	Logger     *log.Logger
}

type Server struct {
	http.Server
	store      storage.Store
	bookkeeper *services.Bookkeeper
	reports    Reports
	advisor    Advisor
	validator  *core.Validator
	parser     *RequestParser
	logger     *log.Logger
	userID     int64

	detector    *security.Detector
	tracer      *trace.Middleware
	rateLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer wires the routes and middleware, returning a ready-to-run server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	validator := deps.Validator
	if validator == nil {
		validator = core.NewValidator(cfg.PhoneRegion)
	}

	s := &Server{
		Server: http.Server{
			Addr:              ":" + cfg.Port,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			// Advice calls can take up to the advice timeout.
			WriteTimeout: cfg.AdviceTimeout + 15*time.Second,
			IdleTimeout:  120 * time.Second,
		},
		store:       deps.Store,
		bookkeeper:  deps.Bookkeeper,
		reports:     deps.Reports,
		advisor:     deps.Advisor,
		validator:   validator,
		parser:      NewRequestParser(validator),
		logger:      logger,
		userID:      cfg.DefaultUserID,
		detector:    security.NewDetector(logger),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)
	s.Handler = s.routes(cfg.CORSAllowedOrigins)
	return s
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type userKey struct{}

// requireUser resolves the current user. Authentication is out of scope, so
// the configured default user stands in for it.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user, ok, err := s.store.GetUser(ctx, s.userID)
		if err != nil {
			writeError(w, r, err, "", MsgInternal)
			return
		}
		if !ok {
			ErrorResponse(http.StatusUnauthorized, MsgUnauthorized).Write(w)
			return
		}
		ctx = context.WithValue(ctx, userKey{}, user)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, user.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the user resolved by requireUser.
func currentUser(r *http.Request) core.User {
	u, _ := r.Context().Value(userKey{}).(core.User)
	return u
}

// formatPhone rewrites a validated phone number in E.164 form.
func (s *Server) formatPhone(p *string) *string {
	if p == nil || *p == "" {
		return p
	}
	v := s.validator.FormatPhone(*p)
	return &v
}

// lookup turns a store absence into core.ErrNotFound.
func lookup[T any](v T, ok bool, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, core.ErrNotFound
	}
	return v, nil
}
