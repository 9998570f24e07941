package handlers

import (
	"errors"
	"net/http"
	"time"

	"olza-admin/internal/api/middleware"
	"olza-admin/internal/auth"
	"olza-admin/internal/logger"
	"olza-admin/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	msgMissingCredentials = "Please provide a username and password."
	msgInvalidCredentials = "Invalid username or password."
	msgUnknownAction      = "Unknown action."
)

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// AuthHandler signs admins in and hands out request tokens.
type AuthHandler struct {
	users        *auth.Service
	tokens       *auth.Manager
	sessionTTL   time.Duration
	secureCookie bool
	logger       *logger.Logger
}

func NewAuthHandler(users *auth.Service, tokens *auth.Manager, sessionTTL time.Duration, secureCookie bool, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		users:        users,
		tokens:       tokens,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Login returns a session token and a request token for the sync actions,
// and sets the session cookie for browser callers.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, h.logger, models.NewValidationError(msgMissingCredentials))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		respondMessage(c, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	session, err := h.tokens.IssueSession(user)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	requestToken, err := h.tokens.IssueRequestToken(user.ID, auth.ActionLoadFiles)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	setSessionCookie(c, session, h.sessionTTL, h.secureCookie)
	h.logger.Info("Admin %s signed in", user.Username)

	respondOK(c, gin.H{
		"token":         session,
		"request_token": requestToken,
		"expires_in":    int(h.sessionTTL.Seconds()),
		"user":          user,
	})
}

// RequestToken issues a fresh request token for ?action= (default: the sync actions).
func (h *AuthHandler) RequestToken(c *gin.Context) {
	claims := middleware.GetSession(c)

	action := c.DefaultQuery("action", auth.ActionLoadFiles)
	if action != auth.ActionLoadFiles && action != auth.ActionSaveSettings {
		respondError(c, h.logger, models.NewValidationError(msgUnknownAction))
		return
	}

	token, err := h.tokens.IssueRequestToken(claims.Subject, action)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, gin.H{"request_token": token, "action": action})
}

func setSessionCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(ttl.Seconds()), "/", "", secure, true)
}

func clearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", secure, true)
}
