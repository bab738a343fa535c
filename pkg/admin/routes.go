package admin

import (
	"github.com/jdmarquezdev/tribitr-web/pkg/config"
	"github.com/jdmarquezdev/tribitr-web/pkg/snapshots"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config) {
	h := &handler{
		snapshotStore: snapshots.NewStore(db),
	}

	g := e.Group("/admin", RequireToken(cfg.AdminToken))
	g.GET("/snapshots", h.list)
	g.DELETE("/snapshots", h.deleteAll)
	g.DELETE("/snapshots/:profileId", h.deleteOne)
}
