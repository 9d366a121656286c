package security

import (
	"errors"
	"time"

	"coding_documenty/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenAuth signs the session cookie. The cookie only carries the session id;
// all session state lives server side.
var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = NewSessionAuth(config.AppConfig.SessionSecret)
}

func NewSessionAuth(secret []byte) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", secret, nil)
}

// GenerateSessionToken encodes the cookie value for a session id.
func GenerateSessionToken(ja *jwtauth.JWTAuth, sessionID string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}
	_, tokenString, err := ja.Encode(claims)
	return tokenString, err
}

func GetSessionIDFromClaims(claims jwt.MapClaims) (string, error) {
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("sid claim is missing or not a string")
	}
	return sid, nil
}
