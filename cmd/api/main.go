package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/bdsuman/mcq-exam-evaluation-system/internal/api/http"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/auth"
	authmw "github.com/bdsuman/mcq-exam-evaluation-system/internal/auth/middleware"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/config"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/db"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/quiz"
	"github.com/bdsuman/mcq-exam-evaluation-system/internal/rbac"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := quiz.NewSQLStore(dbh, cfg.DBDriver)

	authSvc := authmw.NewAuthService(cfg.AuthHMACSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Language"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(v1 chi.Router) {
		// Unauthenticated auth surface.
		v1.Post("/auth/register", auth.RegisterHandler(authSvc, dbh))
		v1.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
		v1.Post("/auth/google-login", auth.GoogleLoginHandler(authSvc, dbh, cfg))

		// Protected API (JWT → role in context → RBAC).
		v1.Group(func(pr chi.Router) {
			pr.Use(authmw.JWTMiddleware(authSvc))
			pr.Use(authmw.AttachRoleFromDB(dbh, true))

			pr.With(rbac.Require("enum:view")).
				Get("/enums/question-types", api.QuestionTypesHandler())

			// Admin: question authoring + dashboard.
			pr.With(rbac.Require("dashboard:view")).
				Get("/admin/dashboard/stats", api.DashboardStatsHandler(store))
			pr.With(rbac.Require("question:list")).
				Get("/admin/questions", api.ListQuestionsHandler(store, cfg))
			pr.With(rbac.Require("question:create")).
				Post("/admin/questions", api.CreateQuestionHandler(store, cfg))
			pr.With(rbac.Require("question:view")).
				Get("/admin/questions/{questionID}", api.GetQuestionHandler(store, cfg))
			pr.With(rbac.Require("question:update")).
				Put("/admin/questions/{questionID}", api.UpdateQuestionHandler(store, cfg))
			pr.With(rbac.Require("question:delete")).
				Delete("/admin/questions/{questionID}", api.DeleteQuestionHandler(store))

			// Student flow.
			pr.With(rbac.Require("question:view-published")).
				Get("/student/questions", api.ListPublishedQuestionsHandler(store, cfg))
			pr.With(rbac.Require("submission:create")).
				Post("/student/questions/submit", api.SubmitAnswersHandler(store))
			pr.With(rbac.Require("submission:view-own")).
				Get("/student/questions/{questionID}/submission", api.GetSubmissionHandler(store))
			pr.With(rbac.Require("stats:view-own")).
				Get("/student/stats", api.UserStatsHandler(store))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
