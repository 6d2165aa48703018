// Package coordinator реализует единую коллекцию карт поверх двух источников:
// удалённого хранилища для авторизованных пользователей и локального хранилища
// устройства для анонимных, с деградацией на локальное при отказе удалённого.
package coordinator

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/dlanderos/cardtrack-system/internal/localstore"
	"github.com/dlanderos/cardtrack-system/internal/model"
)

// Сообщения, различающие полный отказ операции и деградацию на локальное
// хранилище. Последнее сообщение всегда затирает предыдущее.
const (
	MsgSessionUnresolved = "Session state not resolved yet."

	MsgLoadDegraded  = "Failed to sync with remote storage, loaded from local storage."
	MsgLoadFailed    = "Failed to load cards from both sources."
	MsgLoadLocalOnly = "Failed to load cards from local storage."

	MsgAddDegraded = "Failed to add to remote storage, saved locally."
	MsgAddFailed   = "Failed to add card (remote and local)."

	MsgUpdateDegraded      = "Failed to update on remote storage, updated locally."
	MsgUpdateFailed        = "Failed to update card (remote and local)."
	MsgUpdateNotFoundLocal = "Failed to update card (remote failed, not found locally)."

	MsgRemoveDegraded      = "Failed to remove from remote storage, removed locally."
	MsgRemoveFailed        = "Failed to remove card (remote and local)."
	MsgRemoveNotFoundLocal = "Failed to remove card (remote failed, not found locally)."

	MsgCardNotFoundLocally = "Card not found in local storage."
)

// ErrRemoteUnavailable сообщает, что удалённое хранилище не сконфигурировано.
var ErrRemoteUnavailable = errors.New("remote store not configured")

// Remote описывает контракт удалённого хранилища карт.
type Remote interface {
	ListCards(ctx context.Context, userID string) ([]model.Card, error)
	InsertCard(ctx context.Context, userID string, draft model.CardDraft) (*model.Card, error)
	UpdateCard(ctx context.Context, userID, cardID string, patch model.CardPatch) (*model.Card, error)
	DeleteCard(ctx context.Context, userID, cardID string) error
}

// Local описывает контракт локального хранилища устройства.
type Local interface {
	Cards() ([]model.Card, error)
	SaveCards(cards []model.Card) error
	Add(draft model.CardDraft) (*model.Card, error)
	Update(cardID string, patch model.CardPatch) (*model.Card, error)
	Remove(cardID string) (bool, error)
	Clear() error
}

// Coordinator — единственный владелец и мутатор коллекции карт в памяти.
// Презентационный слой читает коллекцию через Cards и изменяет её только
// через Load/Add/Update/Remove.
type Coordinator struct {
	mu     sync.Mutex
	remote Remote
	local  Local
	logger *zap.Logger

	state   model.AuthState
	cards   []model.Card
	message string
}

// New создаёт координатор в состоянии «сессия не определена». remote может быть
// nil — тогда удалённые вызовы считаются отказавшими и срабатывает локальный
// фолбэк.
func New(remote Remote, local Local, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		remote: remote,
		local:  local,
		logger: logger,
		state:  model.Unknown(),
	}
}

// SetAuthState применяет новое состояние сессии. Переход из авторизованного
// состояния в анонимное (выход) уничтожает локальный кэш и коллекцию в памяти;
// миграции данных обратно не происходит.
func (c *Coordinator) SetAuthState(state model.AuthState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status == model.AuthAuthenticated && state.Status == model.AuthAnonymous {
		c.logger.Info("user logged out, clearing local storage cards")
		if err := c.local.Clear(); err != nil {
			c.logger.Error("clear local storage", zap.Error(err))
		}
		c.cards = nil
	}

	c.state = state
}

// State возвращает текущее состояние сессии координатора.
func (c *Coordinator) State() model.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cards возвращает копию активной коллекции карт.
func (c *Coordinator) Cards() []model.Card {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Card, len(c.cards))
	copy(out, c.cards)
	return out
}

// Message возвращает сообщение последней операции: пустую строку при полном
// успехе, текст деградации или отказа иначе.
func (c *Coordinator) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Load заполняет коллекцию из источника, соответствующего состоянию сессии.
// При авторизованной сессии успешная загрузка зеркалируется в локальное
// хранилище; обратного зеркалирования (локальное -> удалённое) нет.
func (c *Coordinator) Load(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = ""

	switch c.state.Status {
	case model.AuthAuthenticated:
		cards, err := c.listRemote(ctx)
		if err == nil {
			c.cards = cards
			c.mirror(cards)
			return true
		}
		c.logger.Warn("remote fetch failed, falling back to local storage", zap.Error(err))

		local, lerr := c.local.Cards()
		if lerr != nil {
			c.logger.Error("local storage fallback failed", zap.Error(lerr))
			c.message = MsgLoadFailed
			return false
		}
		c.cards = local
		c.message = MsgLoadDegraded
		return true

	case model.AuthAnonymous:
		local, err := c.local.Cards()
		if err != nil {
			c.logger.Error("load from local storage failed", zap.Error(err))
			c.message = MsgLoadLocalOnly
			return false
		}
		c.cards = local
		return true

	default:
		c.message = MsgSessionUnresolved
		return false
	}
}

// Add создаёт карту. При авторизованной сессии запись сначала идёт в удалённое
// хранилище (оно назначает идентификатор, владельца и метки времени), при
// отказе — в локальное; операция считается успешной, если удался хотя бы
// локальный фолбэк.
func (c *Coordinator) Add(ctx context.Context, draft model.CardDraft) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = ""

	switch c.state.Status {
	case model.AuthAuthenticated:
		card, err := c.insertRemote(ctx, draft)
		if err == nil {
			c.cards = append([]model.Card{*card}, c.cards...)
			// Локальный снимок пересобирается как [новая карта] + прежний
			// снимок целиком, без сверки с удалённой коллекцией.
			local, _ := c.localCards()
			c.mirror(append([]model.Card{*card}, local...))
			return true
		}
		c.logger.Warn("remote add failed, falling back to local storage", zap.Error(err))

		card, lerr := c.local.Add(draft)
		if lerr != nil {
			c.logger.Error("local storage fallback add failed", zap.Error(lerr))
			c.message = MsgAddFailed
			return false
		}
		c.cards = append([]model.Card{*card}, c.cards...)
		c.message = MsgAddDegraded
		return true

	case model.AuthAnonymous:
		card, err := c.local.Add(draft)
		if err != nil {
			c.logger.Error("add to local storage failed", zap.Error(err))
			c.message = MsgAddFailed
			return false
		}
		c.cards = append([]model.Card{*card}, c.cards...)
		return true

	default:
		c.message = MsgSessionUnresolved
		return false
	}
}

// Update накладывает patch на карту с указанным идентификатором.
func (c *Coordinator) Update(ctx context.Context, cardID string, patch model.CardPatch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = ""

	switch c.state.Status {
	case model.AuthAuthenticated:
		card, err := c.updateRemote(ctx, cardID, patch)
		if err == nil {
			c.replaceInMemory(*card)
			local, _ := c.localCards()
			c.mirror(append([]model.Card{*card}, withoutID(local, cardID)...))
			return true
		}
		c.logger.Warn("remote update failed, falling back to local storage",
			zap.Error(err), zap.String("cardID", cardID))

		card, lerr := c.local.Update(cardID, patch)
		if lerr != nil {
			if errors.Is(lerr, localstore.ErrCardNotFound) {
				c.message = MsgUpdateNotFoundLocal
				return false
			}
			c.logger.Error("local storage fallback update failed", zap.Error(lerr))
			c.message = MsgUpdateFailed
			return false
		}
		c.replaceInMemory(*card)
		c.message = MsgUpdateDegraded
		return true

	case model.AuthAnonymous:
		card, err := c.local.Update(cardID, patch)
		if err != nil {
			if errors.Is(err, localstore.ErrCardNotFound) {
				c.message = MsgCardNotFoundLocally
				return false
			}
			c.logger.Error("update in local storage failed", zap.Error(err))
			c.message = MsgUpdateFailed
			return false
		}
		c.replaceInMemory(*card)
		return true

	default:
		c.message = MsgSessionUnresolved
		return false
	}
}

// Remove удаляет карту из активного источника и из коллекции в памяти.
func (c *Coordinator) Remove(ctx context.Context, cardID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = ""

	switch c.state.Status {
	case model.AuthAuthenticated:
		err := c.deleteRemote(ctx, cardID)
		if err == nil {
			c.cards = withoutID(c.cards, cardID)
			local, _ := c.localCards()
			c.mirror(withoutID(local, cardID))
			return true
		}
		c.logger.Warn("remote remove failed, falling back to local storage",
			zap.Error(err), zap.String("cardID", cardID))

		removed, lerr := c.local.Remove(cardID)
		if lerr != nil {
			c.logger.Error("local storage fallback remove failed", zap.Error(lerr))
			c.message = MsgRemoveFailed
			return false
		}
		if !removed {
			c.message = MsgRemoveNotFoundLocal
			return false
		}
		c.cards = withoutID(c.cards, cardID)
		c.message = MsgRemoveDegraded
		return true

	case model.AuthAnonymous:
		removed, err := c.local.Remove(cardID)
		if err != nil {
			c.logger.Error("remove from local storage failed", zap.Error(err))
			c.message = MsgRemoveFailed
			return false
		}
		if !removed {
			c.message = MsgCardNotFoundLocally
			return false
		}
		c.cards = withoutID(c.cards, cardID)
		return true

	default:
		c.message = MsgSessionUnresolved
		return false
	}
}

func (c *Coordinator) listRemote(ctx context.Context) ([]model.Card, error) {
	if c.remote == nil {
		return nil, ErrRemoteUnavailable
	}
	return c.remote.ListCards(ctx, c.state.User.ID)
}

func (c *Coordinator) insertRemote(ctx context.Context, draft model.CardDraft) (*model.Card, error) {
	if c.remote == nil {
		return nil, ErrRemoteUnavailable
	}
	return c.remote.InsertCard(ctx, c.state.User.ID, draft)
}

func (c *Coordinator) updateRemote(ctx context.Context, cardID string, patch model.CardPatch) (*model.Card, error) {
	if c.remote == nil {
		return nil, ErrRemoteUnavailable
	}
	return c.remote.UpdateCard(ctx, c.state.User.ID, cardID, patch)
}

func (c *Coordinator) deleteRemote(ctx context.Context, cardID string) error {
	if c.remote == nil {
		return ErrRemoteUnavailable
	}
	return c.remote.DeleteCard(ctx, c.state.User.ID, cardID)
}

// mirror записывает снимок коллекции в локальное хранилище. Отказ зеркала не
// влияет на исход операции: кэш восстановится при следующей успешной загрузке.
func (c *Coordinator) mirror(cards []model.Card) {
	if err := c.local.SaveCards(cards); err != nil {
		c.logger.Error("mirror to local storage failed", zap.Error(err))
	}
}

// localCards читает локальный снимок; ошибка чтения трактуется как пустой снимок.
func (c *Coordinator) localCards() ([]model.Card, error) {
	cards, err := c.local.Cards()
	if err != nil {
		c.logger.Error("read local storage failed", zap.Error(err))
		return nil, err
	}
	return cards, nil
}

func (c *Coordinator) replaceInMemory(card model.Card) {
	for i := range c.cards {
		if c.cards[i].ID == card.ID {
			c.cards[i] = card
			return
		}
	}
}

func withoutID(cards []model.Card, cardID string) []model.Card {
	out := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if c.ID != cardID {
			out = append(out, c)
		}
	}
	return out
}
