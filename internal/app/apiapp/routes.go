package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/marcucus/goldwen-backend/internal/config"
	pgrepo "github.com/marcucus/goldwen-backend/internal/repo/postgres"
	authsvc "github.com/marcucus/goldwen-backend/internal/services/auth"
	completionsvc "github.com/marcucus/goldwen-backend/internal/services/completion"
	personalitysvc "github.com/marcucus/goldwen-backend/internal/services/personality"
	photosvc "github.com/marcucus/goldwen-backend/internal/services/photos"
	profilesvc "github.com/marcucus/goldwen-backend/internal/services/profiles"
	promptsvc "github.com/marcucus/goldwen-backend/internal/services/prompts"
	"github.com/marcucus/goldwen-backend/internal/transport/http/handlers"
)

type Dependencies struct {
	JWTManager         *authsvc.JWTManager
	ProfileService     *profilesvc.Service
	PhotoService       *photosvc.Service
	PromptService      *promptsvc.Service
	PersonalityService *personalitysvc.Service
	CompletionService  *completionsvc.Service
	DeviceRepo         *pgrepo.DeviceRepo
	Logger             *zap.Logger
	Config             config.Config
}

func RegisterRoutes(r *chi.Mux, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	profileHandler := handlers.NewProfileHandler(deps.ProfileService)
	photosHandler := handlers.NewPhotosHandler(deps.PhotoService)
	promptsHandler := handlers.NewPromptsHandler(deps.PromptService)
	personalityHandler := handlers.NewPersonalityHandler(deps.PersonalityService)
	completionHandler := handlers.NewCompletionHandler(deps.CompletionService)
	devicesHandler := handlers.NewDevicesHandler(deps.DeviceRepo)
	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.Get("/v1/personality/questions", personalityHandler.Questions)

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", profileHandler.Get)
			r.Put("/basics", profileHandler.UpdateBasics)
			r.Get("/completion", completionHandler.Report)
			r.Put("/visibility", completionHandler.SetVisibility)

			r.Route("/photos", func(r chi.Router) {
				r.Post("/", photosHandler.Upload)
				r.Get("/", photosHandler.List)
				r.Delete("/{photoID}", photosHandler.Delete)
				r.Put("/{photoID}/order", photosHandler.SetOrder)
				r.Put("/{photoID}/primary", photosHandler.SetPrimary)
			})

			r.Route("/prompts", func(r chi.Router) {
				r.Get("/", promptsHandler.List)
				r.Put("/", promptsHandler.Submit)
			})
		})

		r.Route("/personality/answers", func(r chi.Router) {
			r.Get("/", personalityHandler.List)
			r.Put("/", personalityHandler.Submit)
		})

		r.Post("/devices", devicesHandler.Register)
	})
}
