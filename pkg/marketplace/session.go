package marketplace

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the bearer credential of the signed-in seller. It is passed
// explicitly to every call.
type Session struct {
	Token string
}

// NewSession builds a session from a raw token or an Authorization header
// value.
func NewSession(token string) Session {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return Session{Token: token}
}

// Anonymous reports whether the session carries no token.
func (s Session) Anonymous() bool {
	return s.Token == ""
}

// Claims are the parts of a JWT session the dashboard reads.
type Claims struct {
	SellerID  string
	ExpiresAt time.Time
}

// Claims decodes the token payload without verifying the signature; the
// backend verifies it on every call. ok is false for opaque tokens.
func (s Session) Claims() (Claims, bool) {
	if s.Token == "" {
		return Claims{}, false
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, mc); err != nil {
		return Claims{}, false
	}

	var c Claims
	for _, key := range []string{"_id", "id", "sub", "userId"} {
		if v, ok := mc[key].(string); ok && v != "" {
			c.SellerID = v
			break
		}
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, true
}

// SellerID returns the seller id carried by the token, or "".
func (s Session) SellerID() string {
	c, _ := s.Claims()
	return c.SellerID
}

// Key identifies the session without exposing the token. It is a digest of
// the whole token, so unverified claims never decide ownership: two tokens
// naming the same seller are different sessions.
func (s Session) Key() string {
	sum := sha256.Sum256([]byte(s.Token))
	return "token:" + hex.EncodeToString(sum[:16])
}

// Check fails with ErrAuthRequired or ErrSessionExpired when the session
// cannot be used.
func (s Session) Check() error {
	return s.check(time.Now())
}

// check fails locally for missing or already expired tokens.
func (s Session) check(now time.Time) error {
	if s.Token == "" {
		return &Error{Kind: ErrAuthRequired}
	}
	if c, ok := s.Claims(); ok && !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt) {
		return &Error{Kind: ErrSessionExpired}
	}
	return nil
}
