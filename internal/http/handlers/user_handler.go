// User HTTP handlers.
//
// This file exposes REST endpoints for account resources:
//   - POST   /users        (register)
//   - GET    /users        (list, ETag support)
//   - GET    /users/find   (fetch by id)
//   - POST   /users/login  (credential check)
//   - PATCH  /users/{id}   (partial profile update, may auto-provision a room)
//   - DELETE /users/{id}   (remove account)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/moodlink/go-social-backend/internal/domain"
	"github.com/moodlink/go-social-backend/internal/repo"
	"github.com/moodlink/go-social-backend/internal/services"
	"github.com/moodlink/go-social-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AccountService defines account lifecycle operations consumed by HTTP
// handlers. Implementations should be safe for concurrent use and must honor
// the provided context for cancellation and timeouts.
type AccountService interface {
	// Register creates a new account with a unique handle.
	Register(ctx context.Context, handle, displayName, email, secret string, status int) (*domain.User, error)
	// Get fetches one account by id.
	Get(ctx context.Context, id uint) (*domain.User, error)
	// List returns every account.
	List(ctx context.Context) ([]domain.User, error)
	// Login verifies an email/secret pair.
	Login(ctx context.Context, email, secret string) (*domain.User, error)
	// Delete removes an account.
	Delete(ctx context.Context, id uint) error
}

// ProfileService defines the partial-update operation that can trigger
// chat-room auto-provisioning.
type ProfileService interface {
	// Update merges a partial patch into the stored record; on a status
	// transition it runs the matcher and reports the result.
	Update(ctx context.Context, userID uint, patch services.ProfilePatch) (*domain.User, *services.MatchResult, error)
}

// RelationshipService defines friendship/favorite mutations and relationship
// reads consumed by HTTP handlers.
type RelationshipService interface {
	// Befriend connects two users symmetrically.
	Befriend(ctx context.Context, userA, userB uint) error
	// Friends lists a user's friends with their current status.
	Friends(ctx context.Context, userID uint) ([]repo.FriendSummary, error)
	// Favorite records a one-directional favorite edge.
	Favorite(ctx context.Context, owner, target uint) error
	// Favorites lists the users a user has favorited.
	Favorites(ctx context.Context, ownerID uint) ([]repo.FriendSummary, error)
	// Recommend lists friends currently sharing the user's status.
	Recommend(ctx context.Context, userID uint) ([]repo.FriendSummary, error)
	// Memberships lists a user's chat-room memberships.
	Memberships(ctx context.Context, userID uint) ([]domain.Membership, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for accounts, relationships, and profile
// updates. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	accountSvc AccountService
	profileSvc ProfileService
	relSvc     RelationshipService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(accountSvc AccountService, profileSvc ProfileService, relSvc RelationshipService) *Handlers {
	return &Handlers{accountSvc: accountSvc, profileSvc: profileSvc, relSvc: relSvc}
}

// pathID parses the ":id" path parameter as an unsigned user identifier.
func pathID(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

//
// DTOs
//

// RegisterUserRequest is the JSON payload for creating an account.
type RegisterUserRequest struct {
	Handle      string `json:"handle"       binding:"required,min=1,max=64"  example:"kosuda"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=255" example:"Kosuda"`
	Email       string `json:"email"        binding:"required,email"         example:"kosuda@example.com"`
	Password    string `json:"password"     binding:"required,min=1"         example:"hunter2"`
	Status      int    `json:"status"       example:"0"`
}

// LoginRequest is the JSON payload for verifying credentials.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email" example:"kosuda@example.com"`
	Password string `json:"password" binding:"required"       example:"hunter2"`
}

// UpdateUserRequest is the JSON payload for a partial profile update.
// Omitted fields keep their stored values.
type UpdateUserRequest struct {
	Handle      *string `json:"handle,omitempty"       example:"kosuda"`
	DisplayName *string `json:"display_name,omitempty" example:"Kosuda"`
	Email       *string `json:"email,omitempty"        example:"kosuda@example.com"`
	Password    *string `json:"password,omitempty"     example:"correct-horse"`
	Status      *int    `json:"status,omitempty"       example:"2"`
}

// UpdateUserResponse wraps the persisted record and, when the status change
// provisioned a chat room, the match details.
type UpdateUserResponse struct {
	User  *domain.User          `json:"user"`
	Match *services.MatchResult `json:"match,omitempty"`
}

//
// Handlers
//

// RegisterUser godoc
// @ID          registerUser
// @Summary     Register a new user
// @Description Creates an account. The handle must be unique; the password is hashed server-side and never returned.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterUserRequest  true  "Registration payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Handle already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [post]
func (h *Handlers) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.accountSvc.Register(c.Request.Context(), req.Handle, req.DisplayName, req.Email, req.Password, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateHandle) {
			fail(c, http.StatusConflict, ErrCodeConflict, "handle already registered")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeStorageError, err.Error())
		return
	}
	ok(c, http.StatusCreated, u)
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List users
// @Description Returns every account. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Users
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {array}  domain.User
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.accountSvc.(*services.AccountService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.UsersStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"users:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	list, err := h.accountSvc.List(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStorageError, err.Error())
		return
	}
	ok(c, http.StatusOK, list)
}

// FindUser godoc
// @ID          findUser
// @Summary     Fetch a user by id
// @Tags        Users
// @Produce     json
//
// @Param       id  query  int  true  "User ID"  minimum(1)
//
// @Success     200  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/find [get]
func (h *Handlers) FindUser(c *gin.Context) {
	id := utils.AtoiDefault(c.Query("id"), 0)
	if id <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be a positive integer")
		return
	}

	u, err := h.accountSvc.Get(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeStorageError, err.Error())
		return
	}
	ok(c, http.StatusOK, u)
}

// Login godoc
// @ID          login
// @Summary     Verify credentials
// @Description Checks an email/password pair and returns the account detail on success.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Invalid credentials"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, err := h.accountSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeStorageError, err.Error())
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Partially update a profile
// @Description Merges the supplied fields into the stored record; omitted fields are unchanged. A status transition may auto-provision a chat room with a matching friend, reported under "match".
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       id    path  int  true  "User ID"  minimum(1)
// @Param       body  body  handlers.UpdateUserRequest  true  "Partial update payload"
//
// @Success     200  {object} handlers.UpdateUserResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id} [patch]
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a positive integer")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, match, err := h.profileSvc.Update(c.Request.Context(), id, services.ProfilePatch{
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Secret:      req.Password,
		Status:      req.Status,
	})
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeStorageError, err.Error())
		return
	}
	ok(c, http.StatusOK, UpdateUserResponse{User: u, Match: match})
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete a user
// @Tags        Users
// @Produce     json
//
// @Param       id  path  int  true  "User ID"  minimum(1)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a positive integer")
		return
	}

	if err := h.accountSvc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeStorageError, err.Error())
		return
	}
	noContent(c)
}
