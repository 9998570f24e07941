package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"olza-admin/internal/admin"
	"olza-admin/internal/api/middleware"
	"olza-admin/internal/auth"
	"olza-admin/internal/logger"
	"olza-admin/internal/models"
	"olza-admin/internal/services/pickup"
	"olza-admin/internal/settings"

	"github.com/gin-gonic/gin"
)

// Browser admin paths.
const (
	LoginPath    = "/admin/login"
	LogoutPath   = "/admin/logout"
	SettingsPath = "/admin/settings"
	ScriptPath   = "/admin/assets/admin.js"
)

const (
	msgSettingsSaved = "Settings saved."
	msgSaveFailed    = "Settings could not be saved."
)

// AdminPageHandler serves the server-rendered settings page and its sign-in form.
type AdminPageHandler struct {
	renderer     *admin.Renderer
	store        *settings.Store
	users        *auth.Service
	tokens       *auth.Manager
	endpoints    admin.Endpoints
	sessionTTL   time.Duration
	secureCookie bool
	logger       *logger.Logger
}

func NewAdminPageHandler(renderer *admin.Renderer, store *settings.Store, users *auth.Service, tokens *auth.Manager, endpoints admin.Endpoints, sessionTTL time.Duration, secureCookie bool, logger *logger.Logger) *AdminPageHandler {
	return &AdminPageHandler{
		renderer:     renderer,
		store:        store,
		users:        users,
		tokens:       tokens,
		endpoints:    endpoints,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

func (h *AdminPageHandler) LoginForm(c *gin.Context) {
	h.renderLogin(c, http.StatusOK, admin.LoginData{})
}

func (h *AdminPageHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	user, err := h.users.Authenticate(c.Request.Context(), username, c.PostForm("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Error("Sign in failed: %v", err)
		}
		h.renderLogin(c, http.StatusUnauthorized, admin.LoginData{Username: username, Error: msgInvalidCredentials})
		return
	}

	session, err := h.tokens.IssueSession(user)
	if err != nil {
		h.logger.Error("Failed to issue session: %v", err)
		h.renderLogin(c, http.StatusInternalServerError, admin.LoginData{Username: username, Error: msgInternal})
		return
	}

	setSessionCookie(c, session, h.sessionTTL, h.secureCookie)
	h.logger.Info("Admin %s signed in", user.Username)
	c.Redirect(http.StatusSeeOther, SettingsPath)
}

func (h *AdminPageHandler) Logout(c *gin.Context) {
	clearSessionCookie(c, h.secureCookie)
	c.Redirect(http.StatusSeeOther, LoginPath)
}

// Settings renders the settings page.
func (h *AdminPageHandler) Settings(c *gin.Context) {
	claims, ok := h.authorize(c)
	if !ok {
		return
	}

	notice := ""
	if c.Query("updated") == "1" {
		notice = msgSettingsSaved
	}
	h.renderSettings(c, http.StatusOK, claims, notice, "")
}

// Save stores the submitted settings form and redirects back to the page.
func (h *AdminPageHandler) Save(c *gin.Context) {
	claims, ok := h.authorize(c)
	if !ok {
		return
	}

	if err := h.tokens.VerifyRequestToken(c.PostForm("nonce"), claims.Subject, auth.ActionSaveSettings); err != nil {
		h.renderSettings(c, http.StatusUnauthorized, claims, "", middleware.MsgSecurityFailed)
		return
	}

	values := settings.FromForm(c.Request.PostForm)
	if _, err := h.store.Save(c.Request.Context(), values); err != nil {
		h.logger.Error("Failed to save settings: %v", err)
		h.renderSettings(c, http.StatusInternalServerError, claims, "", msgSaveFailed)
		return
	}

	h.logger.Info("Settings saved by %s", claims.Username)
	c.Redirect(http.StatusSeeOther, SettingsPath+"?updated=1")
}

func (h *AdminPageHandler) Script(c *gin.Context) {
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", admin.Script())
}

func (h *AdminPageHandler) authorize(c *gin.Context) (*auth.SessionClaims, bool) {
	claims := middleware.GetSession(c)
	if claims == nil {
		c.Redirect(http.StatusSeeOther, LoginPath)
		c.Abort()
		return nil, false
	}
	if !claims.Can(models.CapManageWooCommerce, models.CapManageOptions) {
		c.String(http.StatusForbidden, middleware.MsgPermissionDenied)
		c.Abort()
		return nil, false
	}
	return claims, true
}

func (h *AdminPageHandler) renderSettings(c *gin.Context, status int, claims *auth.SessionClaims, notice, errMsg string) {
	cfg, err := h.store.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load settings: %v", err)
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}

	requestToken, err := h.tokens.IssueRequestToken(claims.Subject, auth.ActionLoadFiles)
	if err != nil {
		h.logger.Error("Failed to issue request token: %v", err)
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}
	saveToken, err := h.tokens.IssueRequestToken(claims.Subject, auth.ActionSaveSettings)
	if err != nil {
		h.logger.Error("Failed to issue request token: %v", err)
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}

	var buf bytes.Buffer
	err = h.renderer.RenderSettings(&buf, admin.PageData{
		Settings:        cfg,
		Username:        claims.Username,
		RequestToken:    requestToken,
		SaveToken:       saveToken,
		Endpoints:       h.endpoints,
		FallbackPayload: pickup.DefaultPayload(),
		Notice:          notice,
		Error:           errMsg,
	})
	if err != nil {
		h.logger.Error("Failed to render settings page: %v", err)
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (h *AdminPageHandler) renderLogin(c *gin.Context, status int, data admin.LoginData) {
	var buf bytes.Buffer
	if err := h.renderer.RenderLogin(&buf, data); err != nil {
		h.logger.Error("Failed to render login page: %v", err)
		c.String(http.StatusInternalServerError, msgInternal)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
