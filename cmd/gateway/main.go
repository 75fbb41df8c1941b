package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	api "github.com/skill-forge/skillforge-hr/internal/api/http"
	"github.com/skill-forge/skillforge-hr/internal/attempt"
	"github.com/skill-forge/skillforge-hr/internal/auth"
	"github.com/skill-forge/skillforge-hr/internal/config"
	"github.com/skill-forge/skillforge-hr/internal/db"
	"github.com/skill-forge/skillforge-hr/internal/eventlog"
	"github.com/skill-forge/skillforge-hr/internal/rbac"
	"github.com/skill-forge/skillforge-hr/internal/storage"
	"github.com/skill-forge/skillforge-hr/internal/testdef"
)

func main() {
	_ = godotenv.Load() // optional .env for local runs

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}

	tests := testdef.NewSQLStore(dbh)
	attempts := attempt.NewSQLStore(dbh)
	events := eventlog.NewRepo(dbh)
	svc := attempt.NewService(attempts, tests, cfg.Scoring, events, log)

	authSvc := auth.NewService(cfg.AuthSecret, cfg.TokenTTL)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatal("blob store", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → role from users table → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh))

		// Test catalog
		pr.With(rbac.Require("test:view")).
			Get("/tests", api.ListTestsHandler(tests))
		pr.With(rbac.Require("test:view")).
			Get("/tests/{testID}", api.GetTestHandler(tests))
		pr.With(rbac.Require("test:create")).
			Post("/tests", api.UploadTestHandler(tests))
		pr.With(rbac.Require("test:create")).
			Get("/tests/{testID}/full", api.GetTestFullHandler(tests))
		pr.With(rbac.Require("test:publish")).
			Post("/tests/{testID}/publish", api.PublishTestHandler(tests))

		// Attempt lifecycle
		pr.With(rbac.Require("attempt:start")).
			Post("/tests/{testID}/attempts", api.StartAttemptHandler(svc))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(svc))

		// Manual review of text answers
		pr.With(rbac.Require("attempt:review")).
			Get("/attempts/{attemptID}/review", api.GetAttemptReviewHandler(svc))
		pr.With(rbac.Require("attempt:review")).
			Post("/attempts/{attemptID}/review", api.ApplyAttemptReviewHandler(svc))

		// Users
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))

		// Profiles and skills
		pr.Get("/profiles/{userID}", api.GetProfileHandler(dbh))
		pr.Put("/profiles/{userID}", api.PutProfileHandler(dbh))
		pr.Put("/profiles/{userID}/skills", api.PutProfileSkillsHandler(dbh))
		pr.With(rbac.RequireAny("skills:list", "skills:*")).
			Get("/skills", api.ListSkillsHandler(dbh))
		pr.With(rbac.Require("skills:create")).
			Post("/skills", api.CreateSkillHandler(dbh))

		// Resume uploads
		pr.Route("/assets", func(ar chi.Router) {
			api.MountAssets(ar, bs, dbh)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Info("listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("db", cfg.DBDriver),
		zap.Float64("pass_threshold", cfg.Scoring.PassThreshold),
		zap.String("text_policy", string(cfg.Scoring.TextPolicy)))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
