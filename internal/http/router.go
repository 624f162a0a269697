// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/moodlink/go-social-backend/docs"
	"github.com/moodlink/go-social-backend/internal/config"
	"github.com/moodlink/go-social-backend/internal/domain"
	"github.com/moodlink/go-social-backend/internal/http/handlers"
	"github.com/moodlink/go-social-backend/internal/http/middleware"
	"github.com/moodlink/go-social-backend/internal/repo"
	"github.com/moodlink/go-social-backend/internal/services"
)

// accountRepoShim adapts the repository free functions to the
// services.AccountRepo interface. This keeps services decoupled from the
// concrete repo package while reusing existing functions.
type accountRepoShim struct{}

func (accountRepoShim) CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.CreateUser(ctx, db, u)
}

func (accountRepoShim) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (accountRepoShim) GetUserByHandle(ctx context.Context, db *gorm.DB, handle string) (*domain.User, error) {
	return repo.GetUserByHandle(ctx, db, handle)
}

func (accountRepoShim) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

func (accountRepoShim) ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	return repo.ListUsers(ctx, db)
}

func (accountRepoShim) DeleteUser(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.DeleteUser(ctx, db, id)
}

// profileRepoShim adapts repository functions to services.ProfileRepo.
type profileRepoShim struct{}

func (profileRepoShim) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (profileRepoShim) UpdateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return repo.UpdateUser(ctx, db, u)
}

// relationshipRepoShim adapts repository functions to services.RelationshipRepo.
type relationshipRepoShim struct{}

func (relationshipRepoShim) CreateFriendship(ctx context.Context, db *gorm.DB, userA, userB uint) error {
	return repo.CreateFriendship(ctx, db, userA, userB)
}

func (relationshipRepoShim) ListFriends(ctx context.Context, db *gorm.DB, userID uint) ([]repo.FriendSummary, error) {
	return repo.ListFriends(ctx, db, userID)
}

func (relationshipRepoShim) ListFriendsWithStatus(ctx context.Context, db *gorm.DB, userID uint, status int) ([]repo.FriendSummary, error) {
	return repo.ListFriendsWithStatus(ctx, db, userID, status)
}

func (relationshipRepoShim) CreateFavorite(ctx context.Context, db *gorm.DB, owner, target uint) error {
	return repo.CreateFavorite(ctx, db, owner, target)
}

func (relationshipRepoShim) ListFavorites(ctx context.Context, db *gorm.DB, ownerID uint) ([]repo.FriendSummary, error) {
	return repo.ListFavorites(ctx, db, ownerID)
}

func (relationshipRepoShim) GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

func (relationshipRepoShim) ListMemberships(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Membership, error) {
	return repo.ListMemberships(ctx, db, userID)
}

// matchStoreShim adapts repository functions to services.MatchStore.
type matchStoreShim struct{}

func (matchStoreShim) CountPendingMemberships(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	return repo.CountPendingMemberships(ctx, db, userID)
}

func (matchStoreShim) FindFriendWithStatus(ctx context.Context, db *gorm.DB, userID uint, status int) (*repo.FriendSummary, error) {
	return repo.FindFriendWithStatus(ctx, db, userID, status)
}

func (matchStoreShim) ProvisionMatch(ctx context.Context, db *gorm.DB, userA, userB uint) (*domain.ChatRoom, error) {
	return repo.ProvisionMatch(ctx, db, userA, userB)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Response compression
//  7. Metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (emails show up in login payloads
	// and query strings; never let them reach the logs)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress JSON list responses
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, ownerID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, ownerID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	accountSvc := services.NewAccountService(db, accountRepoShim{})
	matcher := services.NewMatchmaker(db, matchStoreShim{})
	profileSvc := services.NewProfileService(db, profileRepoShim{}, matcher)
	relSvc := services.NewRelationshipService(db, relationshipRepoShim{})
	h := handlers.New(accountSvc, profileSvc, relSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Accounts
		api.POST("/users", h.RegisterUser)
		api.GET("/users", h.ListUsers)
		api.GET("/users/find", h.FindUser)
		api.POST("/users/login", h.Login)
		api.PATCH("/users/:id", h.UpdateUser)
		api.DELETE("/users/:id", h.DeleteUser)

		// Relationships
		api.POST("/users/:id/friends", h.CreateFriendship)
		api.GET("/users/:id/friends", h.ListFriends)
		api.POST("/users/:id/favorites", h.CreateFavorite)
		api.GET("/users/:id/favorites", h.ListFavorites)
		api.GET("/users/:id/recommend", h.Recommend)
		api.GET("/users/:id/memberships", h.ListMemberships)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
