// Package handler содержит HTTP-обработчики API сервиса cardtrack.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dlanderos/cardtrack-system/internal/coordinator"
	"github.com/dlanderos/cardtrack-system/internal/identity"
	"github.com/dlanderos/cardtrack-system/internal/middleware"
	"github.com/dlanderos/cardtrack-system/internal/model"
	"github.com/dlanderos/cardtrack-system/internal/projector"
	"github.com/dlanderos/cardtrack-system/internal/service"
	"github.com/dlanderos/cardtrack-system/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Register(ctx context.Context, email, password string) (*identity.Session, error)
	Login(ctx context.Context, email, password string) (*identity.Session, error)
	Logout(ctx context.Context, accessToken string) error
	ApplyAuthState(state model.AuthState)
	AuthState() model.AuthState
	LoadCards(ctx context.Context) ([]model.Card, bool)
	AddCard(ctx context.Context, draft model.CardDraft) bool
	UpdateCard(ctx context.Context, cardID string, patch model.CardPatch) bool
	RemoveCard(ctx context.Context, cardID string) bool
	Cards() []model.Card
	StorageMessage() string
	Summary() model.Summary
	CalendarEvents(horizon int, now time.Time) []model.CalendarEvent
}

// Handler реализует HTTP-обработчики API сервиса cardtrack.
type Handler struct {
	service Service
	logger  *zap.Logger
	session *middleware.SessionMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, session *middleware.SessionMiddleware) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
		session: session,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken string `json:"access_token"`
}

// Register регистрирует пользователя у провайдера аутентификации.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	session, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUserExists):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		case errors.Is(err, service.ErrIdentityNotConfigured):
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		default:
			h.logger.Error("register error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{AccessToken: session.AccessToken})
}

// Login открывает сессию пользователя у провайдера аутентификации.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if errors.Is(err, service.ErrIdentityNotConfigured) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		h.logger.Error("login error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{AccessToken: session.AccessToken})
}

// Logout завершает удалённую сессию и переводит координатор в анонимное
// состояние, что уничтожает локальный кэш карт.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	h.applyRequestState(r)

	if err := h.service.Logout(r.Context(), token); err != nil {
		h.logger.Error("logout error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.service.ApplyAuthState(model.Anonymous())
	w.WriteHeader(http.StatusOK)
}

type cardsResponse struct {
	Cards   []model.Card `json:"cards"`
	Message string       `json:"message,omitempty"`
}

// GetCards загружает и возвращает активную коллекцию карт.
func (h *Handler) GetCards(w http.ResponseWriter, r *http.Request) {
	h.applyRequestState(r)

	cards, ok := h.service.LoadCards(r.Context())
	if !ok {
		h.writeStorageFailure(w)
		return
	}

	if cards == nil {
		cards = []model.Card{}
	}
	writeJSON(w, http.StatusOK, cardsResponse{Cards: cards, Message: h.service.StorageMessage()})
}

type cardResponse struct {
	Card    model.Card `json:"card"`
	Message string     `json:"message,omitempty"`
}

// AddCard создаёт новую карту.
func (h *Handler) AddCard(w http.ResponseWriter, r *http.Request) {
	h.applyRequestState(r)

	var draft model.CardDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := validation.ValidateDraft(draft); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if !h.service.AddCard(r.Context(), draft) {
		h.writeStorageFailure(w)
		return
	}

	cards := h.service.Cards()
	if len(cards) == 0 {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, cardResponse{Card: cards[0], Message: h.service.StorageMessage()})
}

// UpdateCard накладывает частичное обновление на карту.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	h.applyRequestState(r)

	cardID := pathCardID(r)
	if cardID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var patch model.CardPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := validation.ValidatePatch(patch); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if !h.service.UpdateCard(r.Context(), cardID, patch) {
		h.writeStorageFailure(w)
		return
	}

	for _, c := range h.service.Cards() {
		if c.ID == cardID {
			writeJSON(w, http.StatusOK, cardResponse{Card: c, Message: h.service.StorageMessage()})
			return
		}
	}
	writeJSON(w, http.StatusOK, cardsResponse{Cards: h.service.Cards(), Message: h.service.StorageMessage()})
}

type statusResponse struct {
	Mode    string `json:"mode"`
	Message string `json:"message,omitempty"`
}

// RemoveCard удаляет карту.
func (h *Handler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	h.applyRequestState(r)

	cardID := pathCardID(r)
	if cardID == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !h.service.RemoveCard(r.Context(), cardID) {
		h.writeStorageFailure(w)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Mode: modeLabel(h.service.AuthState()), Message: h.service.StorageMessage()})
}

// GetSummary возвращает агрегаты дашборда по коллекции карт.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.applyRequestState(r)

	if _, ok := h.service.LoadCards(r.Context()); !ok {
		h.writeStorageFailure(w)
		return
	}

	writeJSON(w, http.StatusOK, h.service.Summary())
}

type eventsResponse struct {
	Events  []model.CalendarEvent `json:"events"`
	Message string                `json:"message,omitempty"`
}

// GetCalendarEvents возвращает события платёжного календаря на заданный горизонт.
func (h *Handler) GetCalendarEvents(w http.ResponseWriter, r *http.Request) {
	h.applyRequestState(r)

	horizon := projector.DefaultHorizon
	if raw := r.URL.Query().Get("months"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		horizon = v
	}

	if _, ok := h.service.LoadCards(r.Context()); !ok {
		h.writeStorageFailure(w)
		return
	}

	events := h.service.CalendarEvents(horizon, time.Now())
	if events == nil {
		events = []model.CalendarEvent{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, Message: h.service.StorageMessage()})
}

// GetStatus сообщает режим хранения и сообщение последней операции.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.applyRequestState(r)

	writeJSON(w, http.StatusOK, statusResponse{
		Mode:    modeLabel(h.service.AuthState()),
		Message: h.service.StorageMessage(),
	})
}

// applyRequestState передаёт координатору состояние сессии, разрешённое
// session middleware для этого запроса.
func (h *Handler) applyRequestState(r *http.Request) {
	h.service.ApplyAuthState(middleware.AuthStateFromContext(r.Context()))
}

// writeStorageFailure переводит сообщение координатора в HTTP-статус: отказ
// по отсутствию карты — 404, неразрешённая сессия и прочие отказы — 503.
func (h *Handler) writeStorageFailure(w http.ResponseWriter) {
	msg := h.service.StorageMessage()

	status := http.StatusServiceUnavailable
	switch msg {
	case coordinator.MsgCardNotFoundLocally,
		coordinator.MsgUpdateNotFoundLocal,
		coordinator.MsgRemoveNotFoundLocal:
		status = http.StatusNotFound
	}

	http.Error(w, msg, status)
}

func modeLabel(state model.AuthState) string {
	switch state.Status {
	case model.AuthAuthenticated:
		return "authenticated"
	case model.AuthAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

func pathCardID(r *http.Request) string {
	return chi.URLParam(r, "cardID")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
