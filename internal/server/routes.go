package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"gradetrack/internal/admin"
	"gradetrack/internal/course"
	"gradetrack/internal/courseeval"
	"gradetrack/internal/grade"
	"gradetrack/internal/gradesys"
	"gradetrack/internal/metrics"
	"gradetrack/internal/server/handlers"
	"gradetrack/internal/server/util"
	"gradetrack/internal/shared"
	"gradetrack/internal/user"
)

// Services bundles the domain services the router dispatches to.
type Services struct {
	Users   *user.Service
	Systems *gradesys.Service
	Grades  *grade.Service
	Courses *course.Service
	Evals   *courseeval.Service
	Admin   *admin.Service
}

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(cfg *shared.ServiceConfig, svc *Services) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// 2. Initialize Handlers
	userHandler := &handlers.UserHandler{Users: svc.Users}
	gradeHandler := &handlers.GradeHandler{Systems: svc.Systems, Grades: svc.Grades}
	courseHandler := &handlers.CourseHandler{Courses: svc.Courses, Evals: svc.Evals}
	adminHandler := &handlers.AdminHandler{Admin: svc.Admin}

	// 3. Define Routes

	// Ops
	r.Get("/healthz", adminHandler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Public
	r.Post("/users/register", userHandler.Register)
	r.Post("/users/login", userHandler.Login)

	// Protected Routes (Require Valid Token)
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Security.JWTSecret))

		r.Get("/users/me", userHandler.Me)
		r.Get("/users/my-academic-path", userHandler.AcademicPath)

		r.Route("/grades", func(r chi.Router) {
			r.Post("/system/add", gradeHandler.AddSystem)
			r.Get("/system/search", gradeHandler.SearchSystems)
			r.Post("/set", gradeHandler.SetGrade)
		})

		r.Route("/courses", func(r chi.Router) {
			r.Post("/add", courseHandler.Add)
			r.Delete("/remove", courseHandler.Remove)
			r.Get("/stats/{courseId}", courseHandler.Stats)
			r.Get("/search", courseHandler.Search)

			r.Route("/eval", func(r chi.Router) {
				r.Post("/create", courseHandler.CreateEval)
				r.Post("/set", courseHandler.SetEval)
				r.Get("/search", courseHandler.SearchEvals)
			})
		})

		// Admin Management
		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminOnly)

			r.Delete("/db/clear", adminHandler.ClearDatabase)
			r.Get("/stats", adminHandler.Stats)
		})
	})

	return r
}

// AuthMiddleware creates a middleware that validates JWT bearer tokens and
// injects the claims into the request context.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			claims, err := user.ParseToken(jwtSecret, tokenStr)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(util.WithClaims(r.Context(), claims)))
		})
	}
}

// AdminOnly rejects authenticated requests whose token does not carry the
// admin role.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := util.CurrentClaims(r.Context())
		if claims == nil {
			util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
			return
		}
		if claims.Role != shared.RoleAdmin {
			util.WriteJSONError(w, http.StatusForbidden, "administrator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
