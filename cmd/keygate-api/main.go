package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/keygate-dev/keygate/internal/config"
	"github.com/keygate-dev/keygate/internal/handler"
	"github.com/keygate-dev/keygate/internal/jwt"
	"github.com/keygate-dev/keygate/internal/logger"
	"github.com/keygate-dev/keygate/internal/middleware"
	"github.com/keygate-dev/keygate/internal/router"
	"github.com/keygate-dev/keygate/internal/service"
	"github.com/keygate-dev/keygate/internal/storage/pg"
	"github.com/keygate-dev/keygate/internal/utils/email"
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	storage, err := pg.New(cfg)
	if err != nil {
		logger.Log.Error("failed to connect to storage", "error", err)
		os.Exit(1)
	}
	defer storage.Cleanup()

	mailer := email.New(&cfg.Private.Email)
	tokens := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	auth := service.NewAuth(storage, mailer, tokens, cfg)
	reset := service.NewReset(storage, storage, mailer, cfg)
	guard := middleware.NewGuard(tokens, storage)

	h := handler.New(auth, reset, storage, cfg)
	r := router.New(h, guard, cfg)

	srv := &http.Server{
		Addr:              cfg.Public.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Log.Info("server started", "addr", cfg.Public.Addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
