package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type userIDKey struct{}

// UserIDFromContext возвращает идентификатор, положенный middleware после
// проверки bearer-токена.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey{}).(int64)
	return userID, ok
}

// Middleware проверяет заголовок Authorization и кладёт идентификатор
// пользователя в контекст запроса.
func (m *TokenManager) Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, prefix) {
				http.Error(w, "Missing bearer token", http.StatusUnauthorized)
				return
			}
			userID, err := m.Verify(strings.TrimPrefix(header, prefix))
			if err != nil {
				logger.Warn("Отклонён запрос с некорректным токеном", zap.Error(err))
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
