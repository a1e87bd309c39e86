package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/quintor/shopdesk/internal/command"
	"github.com/quintor/shopdesk/internal/config"
	"github.com/quintor/shopdesk/internal/forms"
	"github.com/quintor/shopdesk/internal/metadata"
	"github.com/quintor/shopdesk/internal/observability"
	"github.com/quintor/shopdesk/internal/search"
)

// Dependencies holds all injected dependencies for the HTTP transport
// layer.
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Navigation *metadata.NavigationProvider
	Pages      *metadata.PageProvider
	Details    *metadata.DetailProvider
	Forms      *forms.Engine
	Commands   *command.Executor
	Lookups    *search.LookupProvider
	Readiness  observability.ReadinessChecks
}

// NewRouter creates a chi.Router with the full middleware pipeline and
// all route registrations. Health, readiness, and metrics endpoints skip
// request logging and timeouts.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(Recovery(deps.Logger))
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)

	r.Get("/ui/health", observability.HandleHealth())
	r.Get("/ui/ready", observability.HandleReady(deps.Readiness))
	if deps.Config.Observability.Metrics.Enabled {
		r.Method(http.MethodGet, deps.Config.Observability.Metrics.Path, observability.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(deps.Logger))
		if deps.Metrics != nil {
			r.Use(deps.Metrics.MetricsMiddleware)
		}

		r.Get("/ui/navigation", handleNavigation(deps.Navigation))
		r.Get("/ui/pages/{pageId}", handleGetPage(deps.Pages))
		r.Get("/ui/pages/{pageId}/data", handleGetPageData(deps.Pages))
		r.Get("/ui/details/{detailId}/{entityId}", handleGetDetail(deps.Details))

		r.Post("/ui/forms/{formId}/sessions", handleOpenForm(deps.Forms))
		r.Get("/ui/forms/{formId}/sessions/{sessionId}", handleGetForm(deps.Forms))
		r.Post("/ui/forms/{formId}/sessions/{sessionId}/refresh", handleRefreshForm(deps.Forms))
		r.Put("/ui/forms/{formId}/sessions/{sessionId}/fields/{field}", handleSetField(deps.Forms))
		r.Post("/ui/forms/{formId}/sessions/{sessionId}/submit", handleSubmitForm(deps.Forms))

		r.Post("/ui/commands/{commandId}", handleCommand(deps.Commands))
		r.Get("/ui/lookups/{lookupId}", handleLookup(deps.Lookups))
	})

	return r
}
