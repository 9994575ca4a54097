package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"deeds_api/internal/common"
	"deeds_api/internal/domain/model"
	"deeds_api/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var TokenAuth *jwtauth.JWTAuth

var signingKey []byte

var (
	fallbackOnce   sync.Once
	fallbackSecret []byte
)

// Session is the identity a verified token resolves to.
type Session struct {
	UserID int64
	Role   string
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == model.RoleAdmin
}

// InitJWT resolves the signing secret and builds the token authority.
// Without SESSION_SECRET a random secret is generated once per process;
// sessions then do not survive a restart.
func InitJWT() {
	secret := common.SanitizeText(config.AppConfig.SessionSecret)
	if secret != "" {
		signingKey = []byte(secret)
	} else {
		fallbackOnce.Do(func() {
			fallbackSecret = newFallbackSecret()
			log.Println("WARN: SESSION_SECRET is not configured. Generated an ephemeral secret; configure SESSION_SECRET to persist sessions across restarts.")
		})
		signingKey = fallbackSecret
	}
	TokenAuth = jwtauth.New("HS256", signingKey, nil)
}

func newFallbackSecret() []byte {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read failing is all but impossible; uuid keeps the
		// dev-mode fallback alive anyway.
		return []byte(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return []byte(hex.EncodeToString(buf))
}

// GenerateToken issues a signed session token for the given user.
// Claims are {sub, role, iat}; there is no exp claim, the cookie
// max-age bounds browser sessions.
func GenerateToken(userID int64, role string) (string, error) {
	if role == "" {
		role = model.RoleUser
	}
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"iat":  time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// VerifyToken checks signature and structure and extracts the session
// identity. Every failure mode resolves to nil; nothing is thrown
// outward.
func VerifyToken(tokenString string) *Session {
	if tokenString == "" {
		return nil
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	userID, err := GetUserIDFromClaims(claims)
	if err != nil {
		return nil
	}
	role, _ := GetUserRoleFromClaims(claims)
	return &Session{UserID: userID, Role: role}
}

// GetUserIDFromClaims extracts the subject as a positive integer id.
func GetUserIDFromClaims(claims jwt.MapClaims) (int64, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, errors.New("sub claim is missing or not a string")
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("sub claim is not a positive integer")
	}
	return id, nil
}

// GetUserRoleFromClaims extracts the role claim, defaulting to "user".
func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return model.RoleUser, nil
	}
	return role, nil
}
