package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	httpcontext "github.com/classhub/classhub-server/internal/api/http/context"
	"github.com/classhub/classhub-server/internal/api/http/router"
	httpServer "github.com/classhub/classhub-server/internal/api/http/server"
	"github.com/classhub/classhub-server/internal/config"
	"github.com/classhub/classhub-server/internal/logger"
	"github.com/classhub/classhub-server/internal/model"
	"github.com/classhub/classhub-server/internal/password"
	"github.com/classhub/classhub-server/internal/provider"
	"github.com/classhub/classhub-server/internal/repository/postgres"
	"github.com/classhub/classhub-server/internal/server"
	"github.com/classhub/classhub-server/internal/service"
	"github.com/classhub/classhub-server/internal/session"
	"github.com/classhub/classhub-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	redisClient, err := session.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Fatal("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	userRepo := postgres.NewUserRepository(db)
	oauthAccountRepo := postgres.NewOAuthAccountRepository(db)
	sessionStore := session.NewStore(redisClient, cfg.Redis.SessionPrefix)

	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	hasher := password.NewHasher(cfg.Auth.HashIterations)

	authService := service.NewAuth(userRepo, sessionStore, tokenManager, hasher, logger)
	oauthService := service.NewOAuth(userRepo, oauthAccountRepo, tokenManager, logger)
	ctxMgr := httpcontext.NewManager()

	var adapters []provider.Adapter
	if cfg.Google.Enabled() {
		adapters = append(adapters, provider.NewGoogle(cfg.Google))
	}
	if cfg.GitHub.Enabled() {
		adapters = append(adapters, provider.NewGitHub(cfg.GitHub))
	}
	providers := provider.NewRegistry(adapters...)

	srv := registerHTTPServer(
		authService, oauthService, providers, sessionStore, ctxMgr, logger,
		fmt.Sprintf(":%s", cfg.HTTP.Port),
	)

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func registerHTTPServer(
	authService *service.Auth,
	oauthService *service.OAuth,
	providers provider.Registry,
	sessions model.SessionStore,
	ctxMgr model.ContextManager,
	logger *logger.Logger,
	addr string,
) *httpServer.HTTPServer {
	r := router.New(authService, oauthService, providers, sessions, ctxMgr, logger)
	return httpServer.NewHTTPServer(r.Register(), addr)
}
