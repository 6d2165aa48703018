// Package service реализует бизнес-логику сервиса cardtrack.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/dlanderos/cardtrack-system/internal/identity"
	"github.com/dlanderos/cardtrack-system/internal/model"
	"github.com/dlanderos/cardtrack-system/internal/projector"
)

// ErrIdentityNotConfigured возвращается, если внешний провайдер аутентификации
// не задан в конфигурации.
var ErrIdentityNotConfigured = errors.New("identity provider not configured")

// Coordinator описывает контракт координатора хранения, используемый сервисом.
type Coordinator interface {
	SetAuthState(state model.AuthState)
	State() model.AuthState
	Load(ctx context.Context) bool
	Add(ctx context.Context, draft model.CardDraft) bool
	Update(ctx context.Context, cardID string, patch model.CardPatch) bool
	Remove(ctx context.Context, cardID string) bool
	Cards() []model.Card
	Message() string
}

// Палитра цветовых меток карт; событиям годовой комиссии назначается
// фиксированный цвет вне палитры.
var cardColorPalette = []string{
	"bg-rose-500",
	"bg-blue-500",
	"bg-emerald-500",
	"bg-purple-500",
	"bg-amber-500",
	"bg-indigo-500",
	"bg-pink-500",
	"bg-teal-500",
	"bg-orange-500",
	"bg-cyan-500",
}

const annualFeeColor = "bg-slate-500"

// Service содержит бизнес-логику сервиса cardtrack.
type Service struct {
	coord Coordinator
	idp   *identity.Client
}

// NewService создаёт сервис поверх координатора хранения и клиента провайдера
// аутентификации. idp может быть nil, если аутентификация не сконфигурирована.
func NewService(coord Coordinator, idp *identity.Client) *Service {
	return &Service{
		coord: coord,
		idp:   idp,
	}
}

// Register регистрирует пользователя у провайдера и возвращает открытую сессию.
func (s *Service) Register(ctx context.Context, email, password string) (*identity.Session, error) {
	if s.idp == nil {
		return nil, ErrIdentityNotConfigured
	}
	return s.idp.SignUp(ctx, email, password)
}

// Login открывает сессию у провайдера по email и паролю.
func (s *Service) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	if s.idp == nil {
		return nil, ErrIdentityNotConfigured
	}
	return s.idp.SignIn(ctx, email, password)
}

// Logout закрывает сессию у провайдера. Очистка локального состояния — забота
// перехода состояния аутентификации, а не этой операции.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	if s.idp == nil {
		return ErrIdentityNotConfigured
	}
	return s.idp.SignOut(ctx, accessToken)
}

// ApplyAuthState передаёт координатору новое состояние сессии.
func (s *Service) ApplyAuthState(state model.AuthState) {
	s.coord.SetAuthState(state)
}

// LoadCards заполняет активную коллекцию и возвращает её вместе с признаком успеха.
func (s *Service) LoadCards(ctx context.Context) ([]model.Card, bool) {
	ok := s.coord.Load(ctx)
	return s.coord.Cards(), ok
}

// AddCard создаёт карту через координатор хранения.
func (s *Service) AddCard(ctx context.Context, draft model.CardDraft) bool {
	return s.coord.Add(ctx, draft)
}

// UpdateCard накладывает частичное обновление на карту.
func (s *Service) UpdateCard(ctx context.Context, cardID string, patch model.CardPatch) bool {
	return s.coord.Update(ctx, cardID, patch)
}

// RemoveCard удаляет карту.
func (s *Service) RemoveCard(ctx context.Context, cardID string) bool {
	return s.coord.Remove(ctx, cardID)
}

// Cards возвращает активную коллекцию карт.
func (s *Service) Cards() []model.Card {
	return s.coord.Cards()
}

// StorageMessage возвращает сообщение последней операции хранения.
func (s *Service) StorageMessage() string {
	return s.coord.Message()
}

// AuthState возвращает текущее состояние сессии координатора.
func (s *Service) AuthState() model.AuthState {
	return s.coord.State()
}

// Summary считает агрегаты дашборда по активной коллекции.
func (s *Service) Summary() model.Summary {
	cards := s.coord.Cards()

	sum := model.Summary{TotalCards: len(cards)}
	for _, c := range cards {
		sum.TotalCreditLine += c.CreditLine
		sum.TotalBalance += c.CurrentBalance
		sum.TotalAnnualFees += c.AnnualFee
	}
	if sum.TotalCreditLine > 0 {
		sum.UtilizationPercent = sum.TotalBalance / sum.TotalCreditLine * 100
	}
	return sum
}

// CalendarEvents проецирует события платёжного календаря по всем картам
// коллекции. Каждой карте назначается цвет из палитры по её позиции; события
// годовой комиссии получают фиксированный цвет.
func (s *Service) CalendarEvents(horizon int, now time.Time) []model.CalendarEvent {
	cards := s.coord.Cards()

	var events []model.CalendarEvent
	for i, card := range cards {
		color := cardColorPalette[i%len(cardColorPalette)]
		for _, e := range projector.CardEvents(card, horizon, now) {
			if e.Kind == model.EventAnnualFee {
				e.Color = annualFeeColor
			} else {
				e.Color = color
			}
			events = append(events, e)
		}
	}
	return events
}
