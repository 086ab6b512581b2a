// Package handlers composes the page views, the JSON API, and the route
// table that binds them to guards.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/gorilla/csrf"

	"github.com/tqpictures/studio/internal/auth"
	"github.com/tqpictures/studio/internal/events"
	"github.com/tqpictures/studio/internal/gallery"
	"github.com/tqpictures/studio/internal/metrics"
	"github.com/tqpictures/studio/internal/notify"
	"github.com/tqpictures/studio/internal/router"
	"github.com/tqpictures/studio/models"
	"github.com/tqpictures/studio/web"
)

type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) error
	UpsertByEmail(ctx context.Context, p *models.Profile) error
	ByID(ctx context.Context, id string) (*models.Profile, error)
	ByEmail(ctx context.Context, email string) (*models.Profile, error)
	ListCustomers(ctx context.Context) ([]models.Profile, error)
}

type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	ListForProfile(ctx context.Context, profileID string) ([]models.Booking, error)
	ListRecent(ctx context.Context, limit int) ([]models.Booking, error)
	CountPending(ctx context.Context) (int64, error)
}

type ImageCounter interface {
	Count(ctx context.Context) (int64, error)
}

type Config struct {
	CSRFKey       []byte
	EnableCSRF    bool
	SecureCookies bool
	JWTSecret     string
	JWTTTL        time.Duration
	GoogleEnabled bool

	MetricsHandler http.Handler
	HealthCheck    func(context.Context) error
}

type Deps struct {
	Profiles ProfileStore
	Bookings BookingStore
	Images   ImageCounter
	Gallery  *gallery.Service
	Sessions *auth.Sessions
	Events   *events.Publisher
	Notify   *notify.Telegram
	Metrics  *metrics.Metrics
	Log      *slog.Logger
}

type Handlers struct {
	cfg      Config
	profiles ProfileStore
	bookings BookingStore
	images   ImageCounter
	gallery  *gallery.Service
	sessions *auth.Sessions
	events   *events.Publisher
	notify   *notify.Telegram
	metrics  *metrics.Metrics
	tmpl     *template.Template
	log      *slog.Logger
}

func New(cfg Config, d Deps) (*Handlers, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handlers{
		cfg:      cfg,
		profiles: d.Profiles,
		bookings: d.Bookings,
		images:   d.Images,
		gallery:  d.Gallery,
		sessions: d.Sessions,
		events:   d.Events,
		notify:   d.Notify,
		metrics:  d.Metrics,
		tmpl:     tmpl,
		log:      d.Log,
	}, nil
}

// Routes assembles the full router. Page routes go through the guard
// table and CSRF; API routes authenticate with bearer tokens. Unknown
// paths fall back to the marketing home view.
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.sessions.Middleware)

	r.Group(func(r chi.Router) {
		if h.cfg.EnableCSRF {
			r.Use(csrf.Protect(h.cfg.CSRFKey, csrf.Secure(h.cfg.SecureCookies), csrf.Path("/")))
		}
		router.Mount(r, h.pageRoutes())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.With(httprate.Limit(
			10,
			1*time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		)).Post("/auth/token", h.APIToken)

		r.Group(func(r chi.Router) {
			r.Use(h.apiAuth)
			r.Get("/me", h.APIMe)
			r.Get("/bookings", h.APIBookings)
			r.Get("/images", h.APIImages)
		})
	})

	if h.cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", h.cfg.MetricsHandler)
	}
	r.Get("/healthz", h.Healthz)

	r.NotFound(h.Home)
	return r
}

func (h *Handlers) pageRoutes() []router.Route {
	routes := []router.Route{
		{Method: http.MethodGet, Path: "/", Handler: h.Home},
		{Method: http.MethodGet, Path: "/login", Handler: h.LoginForm},
		{Method: http.MethodPost, Path: "/login", Handler: h.Login},
		{Method: http.MethodGet, Path: "/signup", Handler: h.SignupForm},
		{Method: http.MethodPost, Path: "/signup", Handler: h.Signup},
		{Method: http.MethodPost, Path: "/logout", Handler: h.Logout},
		{Method: http.MethodGet, Path: "/admin-login", Handler: h.AdminLoginForm},
		{Method: http.MethodPost, Path: "/admin-login", Handler: h.AdminLogin},
		{Method: http.MethodGet, Path: "/booking", Handler: h.BookingForm},
		{Method: http.MethodPost, Path: "/booking", Guard: signedInOnly, Handler: h.BookingCreate},
		{Method: http.MethodGet, Path: "/dashboard", Guard: customerOnly, Handler: h.Dashboard},
		{Method: http.MethodGet, Path: "/admin", Guard: adminOnly, Handler: h.AdminDashboard},
		{Method: http.MethodPost, Path: "/admin/upload", Guard: adminOnly, Handler: h.AdminUpload},
	}
	if h.cfg.GoogleEnabled {
		routes = append(routes,
			router.Route{Method: http.MethodGet, Path: "/auth/{provider}", Handler: h.OAuthBegin},
			router.Route{Method: http.MethodGet, Path: "/auth/{provider}/callback", Handler: h.OAuthCallback},
		)
	}
	return routes
}

func signedInOnly(p *models.Profile) router.Result {
	if p == nil {
		return router.RedirectTo("/login")
	}
	return router.Allow()
}

func customerOnly(p *models.Profile) router.Result {
	if p == nil {
		return router.RedirectTo("/login")
	}
	if p.IsAdmin {
		return router.RedirectTo("/admin")
	}
	return router.Allow()
}

func adminOnly(p *models.Profile) router.Result {
	if p == nil || !p.IsAdmin {
		return router.RedirectTo("/admin-login")
	}
	return router.Allow()
}

// basePage carries what every template needs.
type basePage struct {
	Profile *models.Profile
	CSRF    template.HTML
	Error   string
	Flash   string
}

func (h *Handlers) base(w http.ResponseWriter, r *http.Request) basePage {
	return basePage{
		Profile: auth.ProfileFrom(r.Context()),
		CSRF:    csrf.TemplateField(r),
		Flash:   h.sessions.PopFlash(w, r),
	}
}

// render buffers template output so a template error never half-writes a
// response.
func (h *Handlers) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// internalError logs the real error and keeps the response generic.
func (h *Handlers) internalError(w http.ResponseWriter, err error) {
	h.log.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func apiError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.cfg.HealthCheck != nil {
		if err := h.cfg.HealthCheck(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	_, _ = w.Write([]byte("ok"))
}
