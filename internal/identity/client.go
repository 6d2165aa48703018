// Package identity предоставляет клиент внешнего провайдера аутентификации.
// Сервис не реализует собственный протокол аутентификации: регистрация, вход,
// проверка сессии и выход целиком делегируются провайдеру.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/dlanderos/cardtrack-system/internal/model"
)

var (
	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken возвращается, если провайдер не принял токен сессии.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrUserExists возвращается при регистрации уже существующего email.
	ErrUserExists = errors.New("user already exists")
)

// Client инкапсулирует HTTP-взаимодействие с провайдером аутентификации.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Session описывает открытую провайдером сессию.
type Session struct {
	AccessToken string     `json:"access_token"`
	User        claimsUser `json:"user"`
}

type claimsUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// NewClient создаёт клиент провайдера аутентификации по указанному адресу.
// Сетевые сбои повторяются транспортом с экспоненциальной задержкой.
func NewClient(baseURL, apiKey string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.Logger = nil

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: rc.StandardClient(),
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp регистрирует пользователя и возвращает открытую сессию.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.post(ctx, "/auth/v1/signup", "", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnprocessableEntity, http.StatusConflict:
		return nil, ErrUserExists
	default:
		return nil, fmt.Errorf("sign up: unexpected status %d", resp.StatusCode)
	}

	return decodeSession(resp)
}

// SignIn открывает сессию по email и паролю.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.post(ctx, "/auth/v1/token?grant_type=password", "", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("sign in: unexpected status %d", resp.StatusCode)
	}

	return decodeSession(resp)
}

// GetUser проверяет токен сессии и возвращает её пользователя.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*model.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrInvalidToken
	default:
		return nil, fmt.Errorf("get user: unexpected status %d", resp.StatusCode)
	}

	var u claimsUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	return &model.User{ID: u.ID, Email: u.Email}, nil
}

// SignOut закрывает сессию на стороне провайдера. Локальное состояние сервиса
// при этом не трогается: его очищает переход состояния аутентификации.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.post(ctx, "/auth/v1/logout", accessToken, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return ErrInvalidToken
	default:
		return fmt.Errorf("sign out: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) post(ctx context.Context, path, accessToken string, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, accessToken, payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, path, accessToken string, payload []byte) (*http.Request, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("identity client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	var body *bytes.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return req, nil
}

func decodeSession(resp *http.Response) (*Session, error) {
	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// SessionUser возвращает пользователя сессии в доменном виде.
func (s *Session) SessionUser() model.User {
	return model.User{ID: s.User.ID, Email: s.User.Email}
}
