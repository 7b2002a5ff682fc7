package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/certisched-api/api/swagger"
	"github.com/noah-isme/certisched-api/internal/handler"
	"github.com/noah-isme/certisched-api/internal/middleware"
	"github.com/noah-isme/certisched-api/internal/models"
	"github.com/noah-isme/certisched-api/pkg/config"
	"github.com/noah-isme/certisched-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/certisched-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/certisched-api/pkg/middleware/requestid"
)

// Router builds the gin engine with every route of the API.
func (a *App) Router() *gin.Engine {
	if a.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger))
	r.Use(corsmiddleware.New(a.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.Metrics))

	metricsHandler := handler.NewMetricsHandler(a.Metrics, a.checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if a.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := middleware.JWT(a.Tokens)
	if a.Hub != nil {
		r.GET("/ws/changes", auth, a.Hub.Handle)
	}

	prefix := a.Config.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix, auth, middleware.Screen(), middleware.WithResponseMeta())

	admin := middleware.RequireRoles(models.RoleAdmin)
	api.GET("/system/metrics", admin, metricsHandler.System)

	groups := api.Group("/groups/:groupId", middleware.GroupScope())
	read := middleware.RequireRoles(models.RoleAdmin, models.RoleManager, models.RoleAnalyst)
	write := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)

	territory := handler.NewTerritoryHandler(a.Territory)
	groups.GET("/territories", read, territory.List)
	groups.PUT("/territories", write, territory.Upsert)
	groups.GET("/territories/resolve", read, territory.Resolve)
	groups.POST("/territories/responsibles", write, territory.AddResponsible)
	groups.DELETE("/territories/responsibles", write, territory.RemoveResponsible)

	scheduling := handler.NewSchedulingHandler(a.Scheduling, a.Manual)
	groups.GET("/analysts/demand", read, scheduling.DemandAll)
	groups.GET("/analysts/:analystId/demand", read, scheduling.Demand)
	groups.GET("/availability", read, scheduling.Availability)
	groups.GET("/schedules", read, scheduling.Schedules)
	groups.POST("/scheduling/run", write, scheduling.Run)
	groups.POST("/scheduling/manual/validate", read, scheduling.ValidateManual)
	groups.POST("/scheduling/manual", write, scheduling.ExecuteManual)

	improviso := handler.NewImprovisoHandler(a.Improviso)
	groups.GET("/improviso/impacted", read, improviso.Impacted)
	groups.POST("/improviso", write, improviso.Declare)
	groups.POST("/improviso/cancel", write, improviso.Cancel)

	approvals := handler.NewApprovalHandler(a.Sweeper)
	groups.POST("/approvals/sweep", write, approvals.Sweep)

	calendar := handler.NewCalendarHandler(a.Calendar)
	groups.GET("/events", read, calendar.List)
	groups.POST("/events", write, calendar.Create)
	groups.POST("/events/range", write, calendar.CreateRange)
	groups.DELETE("/events", write, calendar.Remove)

	scores := handler.NewScoreAdjustmentHandler(a.Scores)
	groups.GET("/score-adjustments", read, scores.List)
	groups.POST("/score-adjustments", write, scores.Save)
	groups.DELETE("/score-adjustments/:id", write, scores.Delete)

	techs := handler.NewTechnicianHandler(a.Techs)
	groups.GET("/technicians", read, techs.List)
	groups.POST("/technicians/import", write, techs.Import)
	groups.POST("/technicians/:id/approve", write, techs.Approve)
	groups.POST("/technicians/:id/withdraw", write, techs.Withdraw)

	changes := handler.NewChangeHandler(a.changes)
	groups.GET("/changes/last", read, changes.Last)

	return r
}
