package middleware

import (
	"context"
	"net/http"

	"deeds_api/internal/common"
	"deeds_api/internal/common/security"
	"deeds_api/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UserRoleCtxKey contextKey = "userRole"
)

// SessionCookieName is the cookie browser clients carry the session
// token in. The Authorization bearer header takes precedence.
const SessionCookieName = "deeds_session"

// TokenFromSessionCookie is a jwtauth find-token function for the
// session cookie.
func TokenFromSessionCookie(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Authenticator requires a verified session token and stashes the
// caller's identity in the request context. Any decode or claim
// failure resolves to 401; nothing panics outward.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())

		if err != nil || token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "A valid session token is required.")
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid session token claims.")
			return
		}
		userRole, _ := security.GetUserRoleFromClaims(claims)

		ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
		ctx = context.WithValue(ctx, UserRoleCtxKey, userRole)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly rejects sessions without the admin role. It must run
// behind Authenticator.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleCtxKey).(string)
		if !ok || role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Administrator access required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSessionFromContext rebuilds the caller's session from the values
// Authenticator stored.
func GetSessionFromContext(ctx context.Context) (*security.Session, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	if !ok {
		return nil, false
	}
	role, ok := ctx.Value(UserRoleCtxKey).(string)
	if !ok {
		return nil, false
	}
	return &security.Session{UserID: userID, Role: role}, true
}
