// Package server exposes the token service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iTheRudy/solana-token/metrics"
	"github.com/iTheRudy/solana-token/token"
)

// TokenService is the set of operations served over HTTP.
// *token.Service satisfies it.
type TokenService interface {
	Available() bool
	LastBlockHeight() uint64
	Mint() solana.PublicKey

	GenerateWallet(ctx context.Context) (*token.GeneratedWallet, error)
	PublicKeyFromMnemonic(mnemonic string) (string, error)
	GetOrCreateTokenAccount(ctx context.Context, owner string) (string, error)
	Balances(ctx context.Context, owner string) ([]token.Balance, error)
	CurrentSupply(ctx context.Context) (decimal.Decimal, error)
	CreateSupply(ctx context.Context, amount decimal.Decimal) (*token.MintResult, error)
	CreditAccount(ctx context.Context, tokenAccount string, amount decimal.Decimal) (string, error)
	TransferTokens(ctx context.Context, req token.TransferRequest) (string, error)
	FreezeAccount(ctx context.Context, tokenAccount string) (string, error)
	ThawAccount(ctx context.Context, tokenAccount string) (string, error)
}

var _ TokenService = (*token.Service)(nil)

// Config controls the HTTP surface
type Config struct {
	Addr                string
	CORSOrigins         []string
	RateLimitRPS        float64
	RateLimitBurst      int
	ShutdownGracePeriod time.Duration
}

// Server is the HTTP API
type Server struct {
	service TokenService
	config  Config
	log     *logrus.Entry
	limiter *RateLimiter
	router  chi.Router
}

// New creates a server and registers all routes
func New(service TokenService, config Config, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.StandardLogger().WithField("type", "server")
	}
	if len(config.CORSOrigins) == 0 {
		config.CORSOrigins = []string{"*"}
	}
	if config.ShutdownGracePeriod <= 0 {
		config.ShutdownGracePeriod = 10 * time.Second
	}

	s := &Server{
		service: service,
		config:  config,
		log:     log,
	}
	if config.RateLimitRPS > 0 {
		s.limiter = NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger(s.log))
	r.Use(instrument)
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         3600,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Handler)
		}

		r.Route("/wallet", func(r chi.Router) {
			r.Post("/generate", s.handleGenerateWallet)
			r.Get("/pubkey/mnemonic", s.handlePublicKeyFromMnemonic)
			r.Post("/pubkey/mnemonic", s.handlePublicKeyFromMnemonic)
			r.Get("/token/balance", s.handleBalances)
			r.Post("/accounts/getorcreate", s.handleGetOrCreateTokenAccount)
			r.Post("/accounts/freeze", s.handleFreeze)
			r.Post("/accounts/thaw", s.handleThaw)
			r.Post("/credit/account", s.handleCreditAccount)
		})

		r.Route("/token", func(r chi.Router) {
			r.Get("/supply", s.handleGetSupply)
			r.Post("/supply", s.handleCreateSupply)
			r.Post("/transfer", s.handleTransfer)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is done, then drains in-flight requests
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.limiter != nil {
		go s.limiter.Run(ctx, time.Minute)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.config.Addr).Info("server is running")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownGracePeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
