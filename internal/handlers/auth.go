package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-api/internal/constants"
	"github.com/yukikurage/todo-api/internal/dto"
	apierrors "github.com/yukikurage/todo-api/internal/errors"
	"github.com/yukikurage/todo-api/internal/ident"
	"github.com/yukikurage/todo-api/internal/middleware"
	"github.com/yukikurage/todo-api/internal/services"
)

// AuthHandler coordinates account and session HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup registers a new user and logs them in.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), services.SignupInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Password:    req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	if err := startSession(c, user.ID); err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login authenticates a user and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	if err := startSession(c, user.ID); err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := purgeSession(c); err != nil {
		apierrors.InternalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCurrentUser returns the session's user. It validates the session
// itself so that a stale one can be purged.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	session := sessions.Default(c)

	userID, err := services.ParseClaim(session.Get(constants.ContextKeyUserID))
	if err != nil {
		if errors.Is(err, services.ErrMalformedSession) {
			_ = purgeSession(c)
		}
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			_ = purgeSession(c)
			apierrors.BadRequest(c, "Session user no longer exists")
			return
		}
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateCurrentUser partially updates the session's user.
func (h *AuthHandler) UpdateCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.UpdateMe(c.Request.Context(), userID, req.ToInput()); err != nil {
		respondAuthError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteCurrentUser removes the session's user and ends the session.
func (h *AuthHandler) DeleteCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.authService.RemoveMe(c.Request.Context(), userID); err != nil {
		respondAuthError(c, err)
		return
	}

	if err := purgeSession(c); err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UsernameAvailable reports whether a username is still free.
func (h *AuthHandler) UsernameAvailable(c *gin.Context) {
	available, err := h.authService.UsernameAvailable(c.Request.Context(), c.Param("username"))
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, available)
}

func startSession(c *gin.Context, userID ident.ID) error {
	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, userID.String())
	return session.Save()
}

func purgeSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case services.IsValidationError(err):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, services.ErrUnauthorized):
		apierrors.Unauthorized(c, "")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, err)
	}
}
