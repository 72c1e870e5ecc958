package rest

import (
	"log/slog"
	"net/http"

	"github.com/Selami79/rubber-ds/api"
	"github.com/Selami79/rubber-ds/internal/auth"
	"github.com/Selami79/rubber-ds/internal/quality"
	"github.com/Selami79/rubber-ds/internal/rawmaterial"
	"github.com/Selami79/rubber-ds/internal/recipe"
	"github.com/Selami79/rubber-ds/internal/scrap"
	"github.com/Selami79/rubber-ds/internal/transport/middleware"
	"github.com/Selami79/rubber-ds/internal/transport/swagger"
	"github.com/Selami79/rubber-ds/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const APIPrefix = "/api/v1"

// RouteDeps carries everything the router mounts. A nil handler leaves its
// routes unregistered; a nil Validator disables request validation.
type RouteDeps struct {
	Gate        *auth.Gate
	Health      *HealthHandler
	Auth        *auth.Handler
	Users       *user.Handler
	RawMaterial *rawmaterial.Handler
	Recipes     *recipe.Handler
	Quality     *quality.Handler
	Scrap       *scrap.Handler

	LoginLimiter *middleware.IPRateLimiter
	Validator    *middleware.RequestValidator
	MetricsPath  string
	Logger       *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, deps RouteDeps) {
	gate := deps.Gate

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.TraceID)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.Metrics)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))

	// OpenAPI document and UI live outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Spec)
	})
	router.Handle("/swagger/*", swagger.Handler())

	if deps.MetricsPath != "" {
		router.Handle(deps.MetricsPath, promhttp.Handler())
	}

	router.Route(APIPrefix, func(r chi.Router) {
		if deps.Validator != nil {
			r.Use(deps.Validator.Middleware)
		}

		if deps.Health != nil {
			r.Get("/health", deps.Health.Health)
			r.Get("/ping", deps.Health.Ping)
		}

		if deps.Auth != nil {
			r.Group(func(pr chi.Router) {
				if deps.LoginLimiter != nil {
					pr.Use(deps.LoginLimiter.Middleware)
				}
				pr.Post("/first-user", deps.Auth.FirstUser)
				pr.Post("/login", deps.Auth.Login)
			})
		}

		if gate == nil {
			return
		}

		if h := deps.Users; h != nil {
			r.Route("/users", func(ur chi.Router) {
				ur.Get("/me", gate.Require(auth.ActionViewSelf, h.GetCurrentUser))
				ur.Get("/", gate.Require(auth.ActionManageUsers, h.ListUsers))
				ur.Post("/", gate.Require(auth.ActionManageUsers, h.CreateUser))
				ur.Patch("/{id}/deactivate", gate.Require(auth.ActionManageUsers, h.DeactivateUser))
			})
		}

		if h := deps.RawMaterial; h != nil {
			r.Route("/raw-materials", func(mr chi.Router) {
				mr.Get("/", gate.Require(auth.ActionManageRawMaterial, h.List))
				mr.Post("/", gate.Require(auth.ActionManageRawMaterial, h.Create))
				mr.Get("/critical", gate.Require(auth.ActionManageRawMaterial, h.ListCritical))
				mr.Get("/{id}", gate.Require(auth.ActionManageRawMaterial, h.Get))
				mr.Put("/{id}", gate.Require(auth.ActionManageRawMaterial, h.Update))
				mr.Delete("/{id}", gate.Require(auth.ActionManageRawMaterial, h.Delete))
				mr.Post("/{id}/adjust", gate.Require(auth.ActionManageRawMaterial, h.Adjust))
			})
		}

		if h := deps.Recipes; h != nil {
			r.Route("/recipes", func(rr chi.Router) {
				rr.Get("/", gate.Require(auth.ActionListRecipes, h.List))
				rr.Post("/", gate.Require(auth.ActionCreateRecipe, h.Create))

				// per recipe decisions and audit entries are made by the access policy
				rr.Get("/{id}", gate.Require(auth.ActionAccessRecipe, h.Get()))
				rr.Put("/{id}", gate.Require(auth.ActionAccessRecipe, h.Update()))
				rr.Delete("/{id}", gate.Require(auth.ActionAccessRecipe, h.Delete()))
				rr.Get("/{id}/scale", gate.Require(auth.ActionAccessRecipe, h.Scale()))
			})
			r.Get("/recipe-access-log", gate.Require(auth.ActionViewAccessLog, h.AccessLog))
		}

		if h := deps.Quality; h != nil {
			r.Route("/quality-tests", func(qr chi.Router) {
				qr.Get("/", gate.Require(auth.ActionRecordQuality, h.List))
				qr.Post("/", gate.Require(auth.ActionRecordQuality, h.Create))
				qr.Get("/products/{productId}/summary", gate.Require(auth.ActionRecordQuality, h.ProductSummary))
				qr.Get("/{id}", gate.Require(auth.ActionRecordQuality, h.Get))
				qr.Post("/{id}/measurements", gate.Require(auth.ActionRecordQuality, h.AddMeasurement))
				qr.Put("/{id}/approval", gate.Require(auth.ActionApproveQuality, h.Approve))
			})
		}

		if h := deps.Scrap; h != nil {
			r.Route("/scrap-records", func(sr chi.Router) {
				sr.Get("/", gate.Require(auth.ActionRecordScrap, h.List))
				sr.Post("/", gate.Require(auth.ActionRecordScrap, h.Create))
				sr.Get("/report", gate.Require(auth.ActionReviewScrap, h.Report))
				sr.Get("/by-machine", gate.Require(auth.ActionReviewScrap, h.ByMachine))
				sr.Get("/{id}", gate.Require(auth.ActionRecordScrap, h.Get))
				sr.Patch("/{id}/status", gate.Require(auth.ActionReviewScrap, h.UpdateStatus))
			})
		}
	})
}
