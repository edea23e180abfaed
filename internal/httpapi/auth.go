package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// inviteClaims scope a candidate token to a single interview.
type inviteClaims struct {
	InterviewID string `json:"interviewId"`
	jwt.RegisteredClaims
}

// IssueInviteToken mints the token embedded in a candidate's invite link.
func IssueInviteToken(secret, interviewID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("invite secret is not configured")
	}
	now := time.Now()
	claims := inviteClaims{
		InterviewID: interviewID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   interviewID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseInviteToken validates a token and returns the interview it grants
// access to.
func ParseInviteToken(secret, token string) (string, error) {
	var claims inviteClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.InterviewID == "" {
		return "", errors.New("invalid invite token")
	}
	return claims.InterviewID, nil
}

// InviteAuth guards candidate flow routes: the bearer token (or ?token=
// for WebSocket clients) must name the interview in the path. An empty
// secret disables the check for local development.
func InviteAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing invite token"})
			return
		}
		interviewID, err := ParseInviteToken(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid invite token"})
			return
		}
		if id := c.Param("id"); id != "" && id != interviewID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token does not match interview"})
			return
		}
		c.Set("interview_id", interviewID)
		c.Next()
	}
}
