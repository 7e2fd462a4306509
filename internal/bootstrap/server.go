package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Domenick1991/flighttracker/api"
	"github.com/Domenick1991/flighttracker/config"
	"github.com/Domenick1991/flighttracker/internal/service/flights"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	swaggerSpecFile = "flights.swagger.json"
	shutdownTimeout = 5 * time.Second
)

// Run starts the HTTP server and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, flightSvc flights.FlightUseCase, recent api.RecentSearches) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, logger, flightSvc, recent),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(cfg.Provider.TimeoutSeconds)*time.Second + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "address", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// NewRouter wires middleware, API routes, health and docs.
func NewRouter(cfg *config.Config, logger *slog.Logger, flightSvc flights.FlightUseCase, recent api.RecentSearches) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), api.CORS(cfg.HTTP.AllowedOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"live_data":       cfg.Provider.HasCredential(),
			"recent_searches": recent != nil,
		})
	})

	handler := api.NewFlightHandler(flightSvc, recent, logger)
	handler.Register(router.Group("/api"))

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFile("/swagger/"+swaggerSpecFile, filepath.Join(cfg.HTTP.SwaggerDir, swaggerSpecFile))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/"+swaggerSpecFile),
		)))
	}

	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
