package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/config"
	"github.com/noah-isme/gcc-pulse-api/internal/handler"
	"github.com/noah-isme/gcc-pulse-api/internal/middleware"
	"github.com/noah-isme/gcc-pulse-api/internal/observability"
	"github.com/noah-isme/gcc-pulse-api/internal/utils"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler        *handler.AuthHandler
	ResumeHandler      *handler.ResumeHandler
	JobHandler         *handler.JobHandler
	ApplicationHandler *handler.ApplicationHandler
	AssessmentHandler  *handler.AssessmentHandler
	CandidateHandler   *handler.CandidateHandler
	EventHandler       *handler.EventHandler
	PageHandler        *handler.PageHandler
	Sessions           middleware.SessionResolver
	Gatekeeper         *access.Gatekeeper
	HealthChecks       map[string]handler.HealthCheckFunc
	AnalysisMode       string
	Logger             zerolog.Logger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	observability.RegisterMetricsRoute(app, cfg.MetricsPath)

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.AnalysisMode, deps.HealthChecks))

	authenticated := middleware.Authenticate(deps.Sessions, cfg.SessionCookie)
	admins := middleware.RequireRole(access.RoleRecruitingAdmin, access.RoleSuperAdmin)
	reviewers := middleware.RequireRole(access.RolePanelist, access.RoleRecruitingAdmin, access.RoleSuperAdmin)

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), authenticated)
	}

	if deps.ResumeHandler != nil {
		resumes := api.Group("/resumes", authenticated)
		deps.ResumeHandler.Register(resumes, middleware.RateLimit("resume_analyze", cfg.AnalyzeLimit, cfg.AnalyzeWindow))
	}

	// Applicant surface
	if deps.JobHandler != nil {
		deps.JobHandler.RegisterPublic(api.Group("/jobs", authenticated))
	}
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.RegisterApplicant(api.Group("/applications", authenticated))
	}
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.RegisterApplicant(api.Group("/assessments", authenticated))
	}

	// Recruiting admin surface
	admin := api.Group("/admin", authenticated, admins)
	if deps.JobHandler != nil {
		deps.JobHandler.RegisterAdmin(admin.Group("/jobs"))
	}
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.RegisterAdmin(admin.Group("/applications"))
	}
	if deps.CandidateHandler != nil {
		deps.CandidateHandler.RegisterAdmin(admin.Group("/candidates"))
	}

	// Panel review surface
	panelist := api.Group("/panelist", authenticated, reviewers)
	if deps.CandidateHandler != nil {
		deps.CandidateHandler.RegisterPanelist(panelist.Group("/candidates"))
	}
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.RegisterPanelist(panelist)
	}
	if deps.EventHandler != nil {
		deps.EventHandler.Register(panelist.Group("/events"))
	}

	// Unknown API paths must not fall through to the page catch-all.
	app.All("/api/*", func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusNotFound, "route not found")
	})

	if deps.PageHandler != nil {
		gatekeeper := deps.Gatekeeper
		if gatekeeper == nil {
			gatekeeper = access.NewGatekeeper()
		}
		guard := middleware.PageGuard(gatekeeper, deps.Sessions, cfg.SessionCookie, deps.Logger)
		deps.PageHandler.Register(app, guard)
	}
}
