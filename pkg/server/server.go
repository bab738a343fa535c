package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jdmarquezdev/tribitr-web/pkg/admin"
	"github.com/jdmarquezdev/tribitr-web/pkg/binder"
	"github.com/jdmarquezdev/tribitr-web/pkg/config"
	"github.com/jdmarquezdev/tribitr-web/pkg/errcodes"
	"github.com/jdmarquezdev/tribitr-web/pkg/syncapi"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(cors(cfg))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeout(cfg.RequestTimeout))
	}

	health.RegisterRoutes(e)

	syncapi.RegisterRoutes(e, db, cfg)

	// Admin routes stay unmounted unless a token is configured.
	if cfg.AdminToken != "" {
		admin.RegisterRoutes(e, db, cfg)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func cors(cfg *config.Config) echo.MiddlewareFunc {
	if len(cfg.CORSAllowOrigins) == 0 {
		return middleware.CORS()
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, admin.TokenHeader},
	})
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
