package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"equiprent/internal/config"
	"equiprent/internal/middleware"
	"equiprent/internal/modules/auth"
	"equiprent/internal/modules/rental"
	"equiprent/internal/modules/review"
	jwtsvc "equiprent/internal/pkg/jwt"
	"equiprent/internal/pkg/logger"
	"equiprent/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage", "backend", cfg.Backend, "error", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Error("close storage", "error", err)
		}
	}()

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	authHandler := auth.NewHandler(
		auth.NewService(st.Users, st.RefreshTokens, j, cfg.RefreshTokenPepper, cfg.RefreshTTL),
		cfg.JWTAccessTTL,
	)
	reviewHandler := review.NewHandler(review.NewService(st.Reviews, st.Equipment))
	rentalHandler := rental.NewHandler(rental.NewService(st, cfg.TxIsolation))

	if config.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.ErrorLogger(log), middleware.CORS(cfg.CORSOrigins, cfg.CORSMaxAge))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": st.Backend})
	})

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			reviewHandler.RegisterRoutes(v1, protected.Group("", middleware.RequireRole("customer")))
			rentalHandler.RegisterRoutes(protected)
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr, "backend", st.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	log.Info("server stopped")
}
