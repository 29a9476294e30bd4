package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/countaustin1990/responsive-travel-website/api"
	"github.com/countaustin1990/responsive-travel-website/config"
	"github.com/countaustin1990/responsive-travel-website/internal/middleware"
	"github.com/countaustin1990/responsive-travel-website/internal/service/booking"
	"github.com/countaustin1990/responsive-travel-website/internal/service/contact"
	"github.com/countaustin1990/responsive-travel-website/internal/service/pricing"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Services are the use cases served over HTTP.
type Services struct {
	Bookings booking.BookingUseCase
	Contacts contact.ContactUseCase
	Pricing  pricing.PricingUseCase
	// Stats is optional; it adds the booking count to /api/health.
	Stats api.BookingCounter
}

// Run serves the JSON API and blocks until ctx is canceled or the server
// fails. limiter may be nil, which disables rate limiting.
func Run(ctx context.Context, cfg *config.Config, svc Services, limiter middleware.Counter, logger logrus.FieldLogger) error {
	srv, err := newServer(cfg, svc, limiter, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("address", cfg.HTTP.Address).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http %s: %w", cfg.HTTP.Address, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServer(cfg *config.Config, svc Services, limiter middleware.Counter, logger logrus.FieldLogger) (*http.Server, error) {
	router, err := NewRouter(cfg, svc, limiter, logger)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// NewRouter assembles middleware, the /api routes, API docs and the optional
// static site. Forwarding headers are only honoured from
// cfg.HTTP.TrustedProxies, so the client IP used for rate limits and audit
// is the socket peer unless a proxy is configured.
func NewRouter(cfg *config.Config, svc Services, limiter middleware.Counter, logger logrus.FieldLogger) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(
		middleware.RequestLogger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.HTTP.FrontendURL),
		middleware.BodyLimit(cfg.HTTP.BodyLimitBytes),
	)

	expose := cfg.App.IsDevelopment()
	group := router.Group("/api", middleware.RateLimit(limiter, cfg.RateLimit.Prefix, middleware.GeneralRule(cfg.RateLimit.General), logger))

	api.NewBookingHandler(svc.Bookings, expose).Register(group,
		middleware.RateLimit(limiter, cfg.RateLimit.Prefix, middleware.BookingRule(cfg.RateLimit.Booking), logger))
	api.NewContactHandler(svc.Contacts, expose).Register(group)
	api.NewDestinationHandler(svc.Pricing).Register(group)
	api.NewHealthHandler(time.Now(), svc.Stats).Register(group)

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/travel.swagger.json"))))
	}

	router.NoRoute(fallback(cfg.HTTP.StaticDir))
	return router, nil
}

// fallback serves files from staticDir for non-API GET requests and answers
// everything else with the JSON not-found body.
func fallback(staticDir string) gin.HandlerFunc {
	if staticDir == "" {
		return api.NotFound
	}
	files := http.FileServer(http.Dir(staticDir))

	return func(c *gin.Context) {
		req := c.Request
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			api.NotFound(c)
			return
		}
		if strings.HasPrefix(req.URL.Path, "/api/") || !exists(staticDir, req.URL.Path) {
			api.NotFound(c)
			return
		}
		files.ServeHTTP(c.Writer, req)
	}
}

func exists(root, urlPath string) bool {
	name := filepath.Join(root, filepath.FromSlash(path.Clean("/"+urlPath)))
	info, err := os.Stat(name)
	if err == nil && info.IsDir() {
		_, err = os.Stat(filepath.Join(name, "index.html"))
	}
	return err == nil
}
