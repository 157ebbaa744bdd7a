package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"equipment-lifecycle/config"
	"equipment-lifecycle/internal/mw"
)

// NewRouter creates and configures the gin engine for s.
func NewRouter(s *Server, cfg *config.ServerConfig, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(mw.Recovery(s.log), mw.AccessLog(s.log))

	limiter := mw.NewClientLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	ttl := time.Duration(cfg.PolicyCacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.Use(mw.RateLimit(limiter))
	{
		// The role table never changes at runtime.
		api.GET("/policy", caching, s.GetPolicy)
		api.POST("/session", s.serialize, s.Login)
	}

	authed := api.Group("")
	authed.Use(s.serialize, s.requireToken)
	{
		authed.DELETE("/session", s.Logout)
		authed.GET("/session/permissions", s.GetPermissions)

		authed.GET("/catalog", s.GetCatalog)
		authed.PUT("/catalog/filter", s.PutCatalogFilter)

		authed.GET("/equipment", s.ListEquipment)
		authed.GET("/equipment/selectable", s.ListSelectableEquipment)
		authed.GET("/equipment/inventory-number", s.SuggestInventoryNumber)
		authed.POST("/equipment", s.CreateEquipment)
		authed.PUT("/equipment/:id", s.UpdateEquipment)
		authed.DELETE("/equipment/:id", s.DeleteEquipment)
		authed.POST("/equipment/:id/retire", s.RetireEquipment)

		authed.GET("/maintenance", s.ListMaintenance)
		authed.POST("/maintenance", s.CreateMaintenance)
		authed.POST("/maintenance/:id/complete", s.CompleteMaintenance)
		authed.DELETE("/maintenance/:id", s.DeleteMaintenance)

		authed.GET("/departments", s.ListDepartments)
		authed.POST("/departments", s.CreateDepartment)
		authed.PUT("/departments/:id", s.UpdateDepartment)
		authed.DELETE("/departments/:id", s.DeactivateDepartment)

		authed.GET("/reports/equipment", s.GetEquipmentReport)
		authed.GET("/reports/equipment.xlsx", s.GetEquipmentReportXLSX)
		authed.GET("/reports/maintenance", s.GetMaintenanceReport)

		authed.GET("/status", s.GetStatus)
		authed.POST("/status/resync", s.Resync)
	}

	return r
}
