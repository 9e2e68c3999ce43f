// Package webapi provides a web API for the message risk checks and anonymized reports.
package webapi

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/naijacyber/cyberguardian/app/storage"
	"github.com/naijacyber/cyberguardian/lib/guardian"
	"github.com/naijacyber/cyberguardian/lib/riskcheck"
)

//go:generate moq --out mocks/checker.go --pkg mocks --with-resets --skip-ensure . Checker
//go:generate moq --out mocks/reports.go --pkg mocks --with-resets --skip-ensure . Reports

// Server is a web API server.
type Server struct {
	Config
}

// Config defines server parameters
type Config struct {
	Version    string  // version to show in /ping
	ListenAddr string  // listen address
	Checker    Checker // risk checker (bot)
	Reports    Reports // reports storage, optional
	AuthPasswd string  // basic auth password for user "cyberguardian", protects reports
	RateLimit  float64 // max requests per second per client, 50 by default
	Dbg        bool    // debug mode
}

// Checker analyzes messages with the current rules
type Checker interface {
	Analyze(text string) riskcheck.Result
	Rules() guardian.RuleTable
}

// Reports is a read-only interface to anonymized reports
type Reports interface {
	Last(ctx context.Context, limit int) ([]storage.Report, error)
	Stats(ctx context.Context) (storage.Stats, error)
}

const (
	defaultReportsLimit = 50
	maxReportsLimit     = 1000
	maxMsgSize          = 64 * 1024
)

// NewServer creates a new web API server.
func NewServer(config Config) *Server {
	return &Server{Config: config}
}

// Run starts server and accepts requests checking messages.
func (s *Server) Run(ctx context.Context) error {
	if s.AuthPasswd != "" {
		log.Printf("[INFO] basic auth enabled for webapi reports")
	} else {
		log.Printf("[WARN] basic auth disabled, access to webapi reports is not protected")
	}

	srv := &http.Server{Addr: s.ListenAddr, Handler: s.routes(), ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown webapi server: %v", err)
		} else {
			log.Printf("[INFO] webapi server stopped")
		}
	}()

	log.Printf("[INFO] start webapi server on %s", s.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

func (s *Server) routes() http.Handler {
	rateLimit := s.RateLimit
	if rateLimit <= 0 {
		rateLimit = 50
	}
	lmt := tollbooth.NewLimiter(rateLimit, nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})

	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()))
	router.Use(rest.AppInfo("cyberguardian", "naijacyber", s.Version), rest.Ping)
	router.Use(tollbooth.HTTPMiddleware(lmt))
	router.Use(rest.SizeLimit(maxMsgSize))

	router.HandleFunc("GET /health", s.healthHandler)
	router.HandleFunc("POST /check", s.checkHandler) // check a message
	router.HandleFunc("GET /rules", s.rulesHandler)  // current rules and summary

	router.Group().Route(func(authAPI *routegroup.Bundle) {
		authAPI.Use(s.authMiddleware(rest.BasicAuthWithUserPasswd("cyberguardian", s.AuthPasswd)))
		authAPI.HandleFunc("GET /reports", s.reportsHandler) // recent anonymized reports and stats
	})
	return router
}

// healthHandler handles GET /health request
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	rest.RenderJSON(w, rest.JSON{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// checkHandler handles POST /check request.
// it gets message text from request body and returns the analysis result.
func (s *Server) checkHandler(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Msg string `json:"msg"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		rest.RenderJSON(w, rest.JSON{"error": "can't decode request", "details": err.Error()})
		log.Printf("[WARN] can't decode request: %v", err)
		return
	}

	res := s.Checker.Analyze(req.Msg)
	if s.Dbg {
		log.Printf("[DEBUG] check request %q, %s", strings.ReplaceAll(req.Msg, "\n", " "), res)
	}
	rest.RenderJSON(w, res)
}

// rulesHandler handles GET /rules request
func (s *Server) rulesHandler(w http.ResponseWriter, _ *http.Request) {
	rules := s.Checker.Rules()
	rest.RenderJSON(w, rest.JSON{"summary": rules.Summary(), "rules": rules})
}

// reportsHandler handles GET /reports?limit=N request. It returns recent reports, newest first, and counts per level.
func (s *Server) reportsHandler(w http.ResponseWriter, r *http.Request) {
	if s.Reports == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		rest.RenderJSON(w, rest.JSON{"error": "reports are disabled"})
		return
	}

	limit := defaultReportsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 0 {
			w.WriteHeader(http.StatusBadRequest)
			rest.RenderJSON(w, rest.JSON{"error": "invalid limit", "details": v})
			return
		}
		limit = min(l, maxReportsLimit)
	}

	reports, err := s.Reports.Last(r.Context(), limit)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't get reports", "details": err.Error()})
		return
	}
	stats, err := s.Reports.Stats(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		rest.RenderJSON(w, rest.JSON{"error": "can't get reports stats", "details": err.Error()})
		return
	}
	rest.RenderJSON(w, rest.JSON{"reports": reports, "stats": stats})
}

func (s *Server) authMiddleware(mw func(next http.Handler) http.Handler) func(next http.Handler) http.Handler {
	if s.AuthPasswd == "" {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return func(next http.Handler) http.Handler {
		return mw(next)
	}
}

// GenerateRandomPassword generates a random password of a given length
func GenerateRandomPassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+"

	var password strings.Builder
	charsetSize := big.NewInt(int64(len(charset)))

	for i := 0; i < length; i++ {
		randomNumber, err := rand.Int(rand.Reader, charsetSize)
		if err != nil {
			return "", err
		}

		password.WriteByte(charset[randomNumber.Int64()])
	}

	return password.String(), nil
}
