package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FernandoZnga/schedula/internal/transport/http/middleware"
	"github.com/FernandoZnga/schedula/internal/usecase"
)

// AuthHandler exposes registration and authentication endpoints.
type AuthHandler struct {
	auth         *usecase.AuthService
	registration *usecase.RegistrationService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, registration *usecase.RegistrationService) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		registration: registration,
	}
}

// AuthRouteOptions carries per-endpoint middleware chains, typically rate limits.
type AuthRouteOptions struct {
	SignupMiddlewares []gin.HandlerFunc
	LoginMiddlewares  []gin.HandlerFunc
}

// RegisterRoutes binds authentication routes, applying optional middleware ahead of handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, opts AuthRouteOptions) {
	r.POST("/signup", withChain(opts.SignupMiddlewares, h.signup)...)
	r.POST("/confirm-email", h.confirmEmail)
	r.POST("/login", withChain(opts.LoginMiddlewares, h.login)...)
	r.POST("/refresh", h.refresh)
	r.POST("/logout", h.logout)
}

func withChain(middlewares []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	chain := append([]gin.HandlerFunc{}, middlewares...)
	return append(chain, handler)
}

func (h *AuthHandler) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid signup payload"))
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email is required"))
		return
	}

	user, err := h.registration.SignUp(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrEmailTaken, Status: http.StatusBadRequest, Message: "email already registered"},
			{Err: usecase.ErrInvalidEmail, Status: http.StatusBadRequest, Message: "invalid email address"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet complexity requirements"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to register account")
		return
	}

	c.JSON(http.StatusCreated, SignupResponse{
		User:    newUserSummary(user),
		Message: "confirmation email sent",
	})
}

func (h *AuthHandler) confirmEmail(c *gin.Context) {
	var req ConfirmEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid confirmation payload"))
		return
	}

	user, err := h.registration.ConfirmEmail(c.Request.Context(), req.Token)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrTokenInvalid, Status: http.StatusBadRequest, Message: "confirmation token is invalid"},
			{Err: usecase.ErrTokenUsed, Status: http.StatusBadRequest, Message: "confirmation token already used"},
			{Err: usecase.ErrTokenExpired, Status: http.StatusBadRequest, Message: "confirmation token expired"},
			{Err: usecase.ErrTokenWrongPurpose, Status: http.StatusBadRequest, Message: "token was issued for a different flow"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to confirm email")
		return
	}

	c.JSON(http.StatusOK, SignupResponse{
		User:    newUserSummary(user),
		Message: "email confirmed",
	})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	tokens, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var credErr *usecase.InvalidCredentialsError
		if errors.As(err, &credErr) {
			c.JSON(http.StatusUnauthorized, LoginFailureResponse{
				Error:             "invalid credentials",
				RemainingAttempts: credErr.RemainingAttempts,
				RequestID:         middleware.GetRequestID(c),
			})
			return
		}

		cases := []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
			{Err: usecase.ErrAccountBlocked, Status: http.StatusForbidden, Message: "account is blocked"},
			{Err: usecase.ErrAccountSuspended, Status: http.StatusForbidden, Message: "account is suspended"},
			{Err: usecase.ErrEmailNotConfirmed, Status: http.StatusForbidden, Message: "email address not confirmed"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to log in")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    tokens.ExpiresIn,
		User:         newUserSummary(*user),
	})
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid refresh payload"))
		return
	}

	accessToken, expiresIn, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrInvalidRefreshToken, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
			{Err: usecase.ErrExpiredRefreshToken, Status: http.StatusUnauthorized, Message: "refresh token expired"},
			{Err: usecase.ErrAccountBlocked, Status: http.StatusForbidden, Message: "account is blocked"},
			{Err: usecase.ErrAccountSuspended, Status: http.StatusForbidden, Message: "account is suspended"},
			{Err: usecase.ErrEmailNotConfirmed, Status: http.StatusForbidden, Message: "email address not confirmed"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to refresh token")
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	})
}

// logout revokes the supplied refresh token. It always answers 200 so retries
// after a partial failure do not surface as errors.
func (h *AuthHandler) logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid logout payload"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to log out"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}
