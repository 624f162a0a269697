// Relationship HTTP handlers.
//
// This file exposes REST endpoints for the relationship graph:
//   - POST /users/{id}/friends      (create symmetric friendship)
//   - GET  /users/{id}/friends      (list friends with status)
//   - POST /users/{id}/favorites    (create one-directional favorite)
//   - GET  /users/{id}/favorites    (list favorites)
//   - GET  /users/{id}/recommend    (friends sharing the user's status)
//   - GET  /users/{id}/memberships  (chat-room membership view)
//
// Idempotency: edge tables carry no uniqueness constraint, so the two POST
// endpoints support the Idempotency-Key header. A replayed key returns the
// original outcome with `Idempotency-Replayed: true` instead of inserting a
// duplicate edge pair.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moodlink/go-social-backend/internal/http/middleware"
	"github.com/moodlink/go-social-backend/internal/repo"
	"github.com/moodlink/go-social-backend/internal/services"
)

// edgeTargetRequest is the JSON payload for both edge-creating endpoints: the
// other end of the edge, with the owner taken from the path.
type edgeTargetRequest struct {
	TargetUserID uint `json:"target_user_id" binding:"required,min=1" example:"42"`
}

// EdgeCreatedResponse acknowledges an edge insert.
type EdgeCreatedResponse struct {
	Result string `json:"result" example:"connect success"`
}

// createEdge factors the shared flow of the two POST endpoints: parse ids,
// serve an idempotent replay if one exists, run the mutation, record the key.
func (h *Handlers) createEdge(c *gin.Context, mutate func(owner, target uint) error) {
	ctx := c.Request.Context()

	owner, okID := pathID(c)
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a positive integer")
		return
	}

	var req edgeTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "target_user_id required")
		return
	}

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	svc, okSvc := h.relSvc.(*services.RelationshipService)
	if idemKey != "" && okSvc && svc.DB != nil {
		if rec, err := repo.GetIdempotency(ctx, svc.DB, c.Param("id"), idemKey, time.Now().UTC()); err == nil && rec != nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, rec.Status, EdgeCreatedResponse{Result: "connect success"})
			return
		}
	}

	if err := mutate(owner, req.TargetUserID); err != nil {
		switch err {
		case services.ErrSelfRelation:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot relate a user to itself")
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeStorageError, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && okSvc && svc.DB != nil {
		_, _ = repo.CreateIdempotency(ctx, svc.DB, c.Param("id"), idemKey, http.StatusCreated, 24*time.Hour)
	}

	ok(c, http.StatusCreated, EdgeCreatedResponse{Result: "connect success"})
}

// CreateFriendship godoc
// @ID          createFriendship
// @Summary     Create a friendship
// @Description Connects two users symmetrically: both directed edges are inserted atomically.
// @Tags        Relationships
// @Accept      json
// @Produce     json
//
// @Param       id               path    int     true  "Owner user ID"  minimum(1)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.edgeTargetRequest  true  "Edge payload"
//
// @Success     201  {object} handlers.EdgeCreatedResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id}/friends [post]
func (h *Handlers) CreateFriendship(c *gin.Context) {
	h.createEdge(c, func(owner, target uint) error {
		return h.relSvc.Befriend(c.Request.Context(), owner, target)
	})
}

// ListFriends godoc
// @ID          listFriends
// @Summary     List a user's friends
// @Description Returns the users connected by friend edges, each with its current status. Ordering is unspecified.
// @Tags        Relationships
// @Produce     json
//
// @Param       id  path  int  true  "User ID"  minimum(1)
//
// @Success     200  {array}  repo.FriendSummary
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id}/friends [get]
func (h *Handlers) ListFriends(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a positive integer")
		return
	}
	list, err := h.relSvc.Friends(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStorageError, err.Error())
		return
	}
	ok(c, http.StatusOK, list)
}

// CreateFavorite godoc
// @ID          createFavorite
// @Summary     Create a favorite
// @Description Records "owner favorites target". One-directional; no reciprocal edge is created.
// @Tags        Relationships
// @Accept      json
// @Produce     json
//
// @Param       id               path    int     true  "Owner user ID"  minimum(1)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"
// @Param       body             body    handlers.edgeTargetRequest  true  "Edge payload"
//
// @Success     201  {object} handlers.EdgeCreatedResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id}/favorites [post]
func (h *Handlers) CreateFavorite(c *gin.Context) {
	h.createEdge(c, func(owner, target uint) error {
		return h.relSvc.Favorite(c.Request.Context(), owner, target)
	})
}

// ListFavorites godoc
// @ID          listFavorites
// @Summary     List a user's favorites
// @Tags        Relationships
// @Produce     json
//
// @Param       id  path  int  true  "Owner user ID"  minimum(1)
//
// @Success     200  {array}  repo.FriendSummary
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id}/favorites [get]
func (h *Handlers) ListFavorites(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a positive integer")
		return
	}
	list, err := h.relSvc.Favorites(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStorageError, err.Error())
		return
	}
	ok(c, http.StatusOK, list)
}

// Recommend godoc
// @ID          recommend
// @Summary     List friends sharing the user's status
// @Description Read-only diagnostic over the same predicate the matcher uses. Never provisions anything.
// @Tags        Relationships
// @Produce     json
//
// @Param       id  path  int  true  "User ID"  minimum(1)
//
// @Success     200  {array}  repo.FriendSummary
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id}/recommend [get]
func (h *Handlers) Recommend(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a positive integer")
		return
	}
	list, err := h.relSvc.Recommend(c.Request.Context(), id)
	if err != nil {
		if err == services.ErrUserNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeStorageError, err.Error())
		return
	}
	ok(c, http.StatusOK, list)
}

// ListMemberships godoc
// @ID          listMemberships
// @Summary     List a user's chat-room memberships
// @Description Returns membership rows including pending invitations (valid=0).
// @Tags        Relationships
// @Produce     json
//
// @Param       id  path  int  true  "User ID"  minimum(1)
//
// @Success     200  {array}  domain.Membership
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id}/memberships [get]
func (h *Handlers) ListMemberships(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a positive integer")
		return
	}
	list, err := h.relSvc.Memberships(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStorageError, err.Error())
		return
	}
	ok(c, http.StatusOK, list)
}
