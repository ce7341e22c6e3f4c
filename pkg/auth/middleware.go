package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserIDFromContext は context から userID を取得する
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}

// WithUserID は context に userID をセットする
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func unauthorized(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// RequireAuth は認証必須ミドルウェア。
// Authorization: Bearer の JWT を優先し、なければセッションクッキーを検証する。
// userID（と admin フラグ）を context にセットする
func RequireAuth(sessionSecret, jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				claims, err := ParseToken(token, jwtSecret)
				if err != nil {
					unauthorized(w, "invalid_token")
					return
				}
				ctx := WithUserID(r.Context(), claims.Subject)
				ctx = WithIsAdmin(ctx, claims.IsAdmin())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			cookie, err := r.Cookie(SessionCookieName())
			if err != nil {
				unauthorized(w, "unauthorized")
				return
			}

			userID, err := VerifySessionToken(cookie.Value, sessionSecret)
			if errors.Is(err, ErrSessionExpired) {
				unauthorized(w, "session_expired")
				return
			}
			if err != nil {
				unauthorized(w, "invalid_session")
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DevUserID は開発用のダミー userID（AUTH_REQUIRED=false 時に使用）
const DevUserID = "dev-user-id"

// DevUserHeader はローカル開発でクライアント／タレントを切り替えるためのヘッダー
const DevUserHeader = "X-Dev-User-ID"

// DevAuth は開発用ミドルウェア。X-Dev-User-ID があればそれを、なければダミー userID を context にセットする。
// X-Dev-Admin: true で admin として扱う
func DevAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(DevUserHeader)
		if userID == "" {
			userID = DevUserID
		}
		ctx := WithUserID(r.Context(), userID)
		ctx = WithIsAdmin(ctx, r.Header.Get("X-Dev-Admin") == "true")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
