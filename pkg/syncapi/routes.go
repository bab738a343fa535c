package syncapi

import (
	"github.com/jdmarquezdev/tribitr-web/pkg/config"
	"github.com/jdmarquezdev/tribitr-web/pkg/snapshots"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config) {
	syncService := NewService(snapshots.NewStore(db), cfg.MaxSnapshotBytes)

	h := &handler{
		syncService:  syncService,
		maxBodyBytes: int64(syncService.maxSnapshotBytes) + envelopeSlack,
	}

	g := e.Group("/sync")
	g.POST("/pull", h.pull)
	g.POST("/push", h.push)
	g.POST("/delete", h.delete)
}
