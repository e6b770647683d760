package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FernandoZnga/schedula/internal/transport/http/middleware"
	"github.com/FernandoZnga/schedula/internal/usecase"
)

// ProfileHandler exposes the authenticated user's profile endpoints.
type ProfileHandler struct {
	users *usecase.UserService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(users *usecase.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// RegisterRoutes binds profile routes. The group must already carry the
// authentication middleware.
func (h *ProfileHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.getProfile)
	r.PATCH("/me", h.updateProfile)
}

func (h *ProfileHandler) getProfile(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	user, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, newUserSummary(user))
}

func (h *ProfileHandler) updateProfile(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid profile payload"))
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, req.FirstName, req.LastName)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, newUserSummary(user))
}
