// Package router wires every endpoint to its handler and middleware chain.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiez-net/kiez/internal/middleware/metrics"
	"github.com/kiez-net/kiez/internal/setup"
)

func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/ready", h.Ready)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
		})

		r.Route("/communities", func(r chi.Router) {
			r.With(authMw.OptionalAuth()).Get("/", h.GetCommunities)
			r.With(authMw.NeedAuth()).Post("/", h.CreateCommunity)

			r.Route("/{slug}", func(r chi.Router) {
				r.With(authMw.OptionalAuth()).Get("/", h.GetCommunity)
				r.With(authMw.NeedAuth()).Patch("/", h.UpdateCommunity)
				r.With(authMw.NeedAuth()).Delete("/", h.ArchiveCommunity)

				r.With(authMw.NeedAuth()).Post("/join", h.JoinCommunity)
				r.With(authMw.NeedAuth()).Post("/leave", h.LeaveCommunity)
				r.With(authMw.OptionalAuth()).Get("/members", h.GetMembers)
				r.With(authMw.NeedAuth()).Patch("/members/{userId}", h.ChangeMemberRole)
				r.With(authMw.NeedAuth()).Delete("/members/{userId}", h.RemoveMember)

				r.With(authMw.NeedAuth()).Get("/bans", h.GetBans)
				r.With(authMw.NeedAuth()).Post("/bans", h.BanUser)
				r.With(authMw.NeedAuth()).Delete("/bans", h.UnbanUser)

				r.Get("/flairs", h.GetFlairs)
				r.With(authMw.NeedAuth()).Post("/flairs", h.CreateFlair)
				r.With(authMw.NeedAuth()).Delete("/flairs/{flairId}", h.DeleteFlair)

				r.Get("/rules", h.GetRules)
				r.With(authMw.NeedAuth()).Post("/rules", h.CreateRule)
				r.With(authMw.NeedAuth()).Patch("/rules/{ruleId}", h.UpdateRule)
				r.With(authMw.NeedAuth()).Delete("/rules/{ruleId}", h.DeleteRule)

				r.With(authMw.OptionalAuth()).Get("/posts", h.GetPosts)
				r.With(authMw.NeedAuth()).Post("/posts", h.CreatePost)

				r.With(authMw.NeedAuth()).Get("/reports", h.GetReports)
				r.With(authMw.NeedAuth()).Post("/reports", h.ModerateReport)
				r.With(authMw.NeedAuth()).Get("/modlog", h.GetModLog)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.With(authMw.NeedAuth()).Get("/saved", h.GetSavedPosts)

			r.Route("/{postId}", func(r chi.Router) {
				r.With(authMw.OptionalAuth()).Get("/", h.GetPost)
				r.With(authMw.NeedAuth()).Patch("/", h.EditPost)
				r.With(authMw.NeedAuth()).Delete("/", h.DeletePost)

				r.With(authMw.OptionalAuth()).Get("/comments", h.GetComments)
				r.With(authMw.NeedAuth()).Post("/comments", h.CreateComment)

				r.With(authMw.NeedAuth()).Post("/pin", h.PinPost)
				r.With(authMw.NeedAuth()).Post("/lock", h.LockPost)
				r.With(authMw.NeedAuth()).Post("/save", h.SavePost)
				r.With(authMw.NeedAuth()).Post("/vote", h.VotePost)
				r.With(authMw.NeedAuth()).Post("/poll/vote", h.VotePoll)
				r.With(authMw.NeedAuth()).Post("/report", h.ReportPost)
			})
		})

		r.Route("/comments/{commentId}", func(r chi.Router) {
			r.Use(authMw.NeedAuth())
			r.Patch("/", h.EditComment)
			r.Delete("/", h.DeleteComment)
			r.Post("/vote", h.VoteComment)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(authMw.NeedAuth())
			r.Get("/", h.GetNotifications)
			r.Post("/{notificationId}/read", h.MarkNotificationRead)
		})
	})

	// preflight requests must not 404
	r.MethodFunc("OPTIONS", "/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
