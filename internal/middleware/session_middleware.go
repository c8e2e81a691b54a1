package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/individuals-mars/seller-admin/internal/utils"
	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

const (
	sessionKey    = "session"
	sessionKeyKey = "session_key"
)

// SessionMiddleware reads the seller's backend token and exposes it as a
// marketplace.Session. The token is never verified here; the backend owns
// that decision.
type SessionMiddleware struct {
	limiter *InvalidAuthRateLimiter
}

// NewSessionMiddleware constructs a new SessionMiddleware.
func NewSessionMiddleware(limiter *InvalidAuthRateLimiter) *SessionMiddleware {
	return &SessionMiddleware{limiter: limiter}
}

// Handle returns a Gin middleware function that attaches the session and
// rejects requests whose session is missing or already expired.
func (m *SessionMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := marketplace.NewSession(tokenOf(c))
		c.Set(sessionKey, sess)
		c.Set(sessionKeyKey, sess.Key())

		if err := sess.Check(); err != nil {
			m.reject(c, err)
			return
		}
		c.Next()
	}
}

func (m *SessionMiddleware) reject(c *gin.Context, err error) {
	if m.limiter != nil && !m.limiter.Allow(c.ClientIP()) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many requests without a valid session")
		c.Abort()
		return
	}

	code := "AUTH_REQUIRED"
	if errors.Is(err, marketplace.ErrSessionExpired) {
		code = "SESSION_EXPIRED"
	}
	utils.LoginRequired(c, code, marketplace.Message(err))
	c.Abort()
}

// tokenOf takes the token from the Authorization header, or from the
// "token" query parameter for EventSource requests that cannot set headers.
func tokenOf(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return strings.TrimSpace(h)
	}
	return c.Query("token")
}

// GetSession returns the session attached by SessionMiddleware.
func GetSession(c *gin.Context) marketplace.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return marketplace.Session{}
	}
	sess, _ := v.(marketplace.Session)
	return sess
}
