// Package middleware содержит HTTP middleware сервиса cardtrack.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dlanderos/cardtrack-system/internal/identity"
	"github.com/dlanderos/cardtrack-system/internal/model"
)

type contextKey string

const (
	authStateKey contextKey = "authState"
	tokenKey     contextKey = "accessToken"
)

// UserProvider описывает проверку токена сессии у провайдера аутентификации.
type UserProvider interface {
	GetUser(ctx context.Context, accessToken string) (*model.User, error)
}

// SessionMiddleware разрешает состояние сессии запроса: bearer-токен проверяется
// у провайдера, запрос без токена считается анонимным. Если провайдер
// недоступен, состояние остаётся неопределённым и решение оставляется
// координатору хранения.
type SessionMiddleware struct {
	provider UserProvider
	logger   *zap.Logger
}

// NewSessionMiddleware создаёт middleware с указанным провайдером. provider
// может быть nil, если внешняя аутентификация не сконфигурирована.
func NewSessionMiddleware(provider UserProvider, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		provider: provider,
		logger:   logger,
	}
}

// Middleware кладёт состояние сессии и токен в контекст запроса. Запрос с
// заведомо недействительным токеном отклоняется сразу.
func (m *SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)

		var state model.AuthState

		switch {
		case token == "":
			state = model.Anonymous()

		case m.provider == nil:
			// Токен предъявлен, но проверить его нечем.
			state = model.Unknown()

		default:
			user, err := m.provider.GetUser(r.Context(), token)
			switch {
			case err == nil:
				state = model.Authenticated(*user)
			case errors.Is(err, identity.ErrInvalidToken):
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			default:
				m.logger.Warn("identity provider unreachable", zap.Error(err))
				state = model.Unknown()
			}
		}

		ctx := context.WithValue(r.Context(), authStateKey, state)
		ctx = context.WithValue(ctx, tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthStateFromContext извлекает состояние сессии из контекста запроса.
func AuthStateFromContext(ctx context.Context) model.AuthState {
	if state, ok := ctx.Value(authStateKey).(model.AuthState); ok {
		return state
	}
	return model.Unknown()
}

// TokenFromContext извлекает токен сессии из контекста запроса.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}
