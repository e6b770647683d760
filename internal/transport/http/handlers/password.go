package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FernandoZnga/schedula/internal/usecase"
)

// PasswordHandler exposes the forgot/reset password endpoints.
type PasswordHandler struct {
	reset *usecase.PasswordResetService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(reset *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{reset: reset}
}

// RegisterRoutes binds password recovery routes, applying optional middleware
// ahead of the request endpoint.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, forgotMiddlewares ...gin.HandlerFunc) {
	r.POST("/forgot-password", withChain(forgotMiddlewares, h.forgotPassword)...)
	r.POST("/reset-password", h.resetPassword)
}

// forgotPassword always answers with the same message so callers cannot probe
// which addresses have accounts.
func (h *PasswordHandler) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	if err := h.reset.RequestReset(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to process request"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "if the address is registered, a reset link has been sent"})
}

func (h *PasswordHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	if err := h.reset.ConfirmReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrTokenInvalid, Status: http.StatusBadRequest, Message: "reset token is invalid"},
			{Err: usecase.ErrTokenUsed, Status: http.StatusBadRequest, Message: "reset token already used"},
			{Err: usecase.ErrTokenExpired, Status: http.StatusBadRequest, Message: "reset token expired"},
			{Err: usecase.ErrTokenWrongPurpose, Status: http.StatusBadRequest, Message: "token was issued for a different flow"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet complexity requirements"},
			{Err: usecase.ErrPasswordReused, Status: http.StatusBadRequest, Message: "password was used recently"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to reset password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}
