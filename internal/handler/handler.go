package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/shield-staffing/shield/backend/internal/config"
	"github.com/shield-staffing/shield/backend/internal/domain"
	"github.com/shield-staffing/shield/backend/internal/notifier"
	"github.com/shield-staffing/shield/backend/internal/repository"
	"github.com/shield-staffing/shield/backend/internal/resolver"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	notifier    *notifier.Notifier
	resolver    *resolver.Resolver
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, ntf *notifier.Notifier, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		notifier:    ntf,
		resolver:    resolver.New(repo, ntf),
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	authLimiter := NewIPRateLimiter(rate.Limit(h.config.RateLimit.AuthPerSecond), h.config.RateLimit.AuthBurst)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Use(h.rateLimit(authLimiter))
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// everything below requires a logged-in account
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/shifts", func(r chi.Router) {
			r.With(h.myInfo).With(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin})).Post("/", h.CreateShift)
			r.With(h.myInfo).Get("/", h.ListShifts)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftInfo)
				r.Get("/", h.GetShift)
				r.Group(func(r chi.Router) {
					r.Use(h.myInfo)
					r.Use(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin}))
					r.Patch("/", h.UpdateShift)
					r.Delete("/", h.CancelShift)
					r.Post("/broadcast", h.BroadcastShift)
					r.Get("/offers", h.ListShiftOffers)
				})
			})
		})

		r.Route("/offers", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.ListMyOffers)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetOffer)
				r.With(h.preventInactiveAccount).Post("/respond", h.RespondToOffer)
			})
		})
	})
}
