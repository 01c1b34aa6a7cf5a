// Package routes wires every HTTP endpoint into the router and API.
package routes

import (
	"net/url"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/janisto/ols-profile-service/internal/http/health"
	"github.com/janisto/ols-profile-service/internal/http/v1/profile"
	"github.com/janisto/ols-profile-service/internal/platform/auth"
	profilesvc "github.com/janisto/ols-profile-service/internal/service/profile"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Profiles profilesvc.Service
	Verifier auth.Verifier // nil disables authentication
	Health   health.Checker
}

// Register mounts the health endpoints on router and the profile operations
// on api.
func Register(router chi.Router, api huma.API, deps Deps) {
	prefix := apiPrefix(api)

	healthHandler := health.Handler(deps.Health)
	router.Get("/health", healthHandler)
	router.Get(prefix+"/healthcheck", healthHandler)

	if deps.Verifier != nil {
		registerBearerScheme(api)
	}
	api.UseMiddleware(auth.Middleware(api, deps.Verifier))
	profile.Register(api, deps.Profiles, prefix, auth.Requirement(deps.Verifier))
}

func registerBearerScheme(api huma.API) {
	oapi := api.OpenAPI()
	if oapi.Components == nil {
		oapi.Components = &huma.Components{}
	}
	if oapi.Components.SecuritySchemes == nil {
		oapi.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oapi.Components.SecuritySchemes[auth.SchemeName] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
		Description:  "Firebase ID token",
	}
}

func apiPrefix(api huma.API) string {
	for _, s := range api.OpenAPI().Servers {
		if u, err := url.Parse(s.URL); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return ""
}
