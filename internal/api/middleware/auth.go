package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"olza-admin/internal/auth"
	"olza-admin/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

// SessionCookie holds the session token for the browser admin.
const SessionCookie = "olza_session"

// NonceHeader is the header the page script sends its request token in.
const NonceHeader = "X-WP-Nonce"

const (
	MsgSecurityFailed   = "Security verification failed."
	MsgPermissionDenied = "You do not have permission to perform this action."
)

const sessionKey = "session"

// maxNonceBody bounds how much of a JSON body is buffered to find the nonce.
const maxNonceBody = 1 << 20

// Session requires a valid session on API routes. Callers without one get the
// same answer as a failed request token, so nothing leaks about accounts.
func Session(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.ParseSession(sessionToken(c))
		if err != nil {
			abortWith(c, models.NewAuthorizationError(MsgSecurityFailed))
			return
		}
		c.Set(sessionKey, claims)
		c.Next()
	}
}

// PageSession is Session for browser pages: it redirects to the login form.
func PageSession(tokens *auth.Manager, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.ParseSession(sessionToken(c))
		if err != nil {
			c.Redirect(http.StatusSeeOther, loginPath)
			c.Abort()
			return
		}
		c.Set(sessionKey, claims)
		c.Next()
	}
}

// RequestToken checks the action-bound request token. It must run after
// Session or PageSession.
func RequestToken(tokens *auth.Manager, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetSession(c)
		if claims == nil {
			abortWith(c, models.NewAuthorizationError(MsgSecurityFailed))
			return
		}
		if err := tokens.VerifyRequestToken(requestToken(c), claims.Subject, action); err != nil {
			abortWith(c, models.NewAuthorizationError(MsgSecurityFailed))
			return
		}
		c.Next()
	}
}

// RequireCapability lets the request through when the session holds any of caps.
func RequireCapability(caps ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetSession(c)
		if claims == nil || !claims.Can(caps...) {
			abortWith(c, models.NewForbiddenError(MsgPermissionDenied))
			return
		}
		c.Next()
	}
}

// GetSession returns the claims stored by Session, or nil.
func GetSession(c *gin.Context) *auth.SessionClaims {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.SessionClaims)
	return claims
}

func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// requestToken reads the nonce from the X-WP-Nonce header, then the JSON body
// or form field, then the query string.
func requestToken(c *gin.Context) string {
	if token := c.GetHeader(NonceHeader); token != "" {
		return token
	}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if token := jsonNonce(c); token != "" {
			return token
		}
	} else if token := c.PostForm("nonce"); token != "" {
		return token
	}
	return c.Query("nonce")
}

// jsonNonce reads the nonce field and puts the body back for the handler.
func jsonNonce(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNonceBody))
	if err != nil {
		return ""
	}
	c.Request.Body = readCloser{io.MultiReader(bytes.NewReader(body), c.Request.Body), c.Request.Body}
	return gjson.GetBytes(body, "nonce").String()
}

type readCloser struct {
	io.Reader
	io.Closer
}

func abortWith(c *gin.Context, err *models.AppError) {
	c.AbortWithStatusJSON(err.StatusCode, gin.H{
		"success": false,
		"data":    gin.H{"message": err.Message},
	})
}
