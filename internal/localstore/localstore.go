// Package localstore реализует локальное хранилище карт поверх простого
// строкового key-value хранилища на диске. Коллекция сериализуется в JSON-массив
// под одним фиксированным ключом.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dlanderos/cardtrack-system/internal/model"
)

// StorageKey — ключ, под которым хранится сериализованная коллекция карт.
const StorageKey = "app_cards"

// ErrNoValue возвращается KV-хранилищем, если значения по ключу нет.
var ErrNoValue = errors.New("no value for key")

// ErrCardNotFound возвращается при обновлении или удалении отсутствующей карты.
var ErrCardNotFound = errors.New("card not found in local storage")

// KV описывает контракт строкового key-value хранилища устройства.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// FileKV хранит значения в файлах каталога dir, по файлу на ключ.
type FileKV struct {
	dir string
}

// NewFileKV создаёт KV-хранилище в каталоге dir, создавая каталог при необходимости.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create local store dir: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

// Get возвращает значение по ключу или ErrNoValue.
func (f *FileKV) Get(key string) (string, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoValue
		}
		return "", fmt.Errorf("read key %q: %w", key, err)
	}
	return string(data), nil
}

// Set записывает значение по ключу атомарно, через переименование временного файла.
func (f *FileKV) Set(key, value string) error {
	tmp, err := os.CreateTemp(f.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write key %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Remove удаляет значение по ключу. Отсутствие значения ошибкой не считается.
func (f *FileKV) Remove(key string) error {
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove key %q: %w", key, err)
	}
	return nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Store предоставляет операции над коллекцией карт в локальном хранилище.
type Store struct {
	kv KV
}

// NewStore создаёт хранилище карт поверх переданного KV.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Cards возвращает сохранённую коллекцию. Отсутствие значения по ключу
// трактуется как пустая коллекция.
func (s *Store) Cards() ([]model.Card, error) {
	raw, err := s.kv.Get(StorageKey)
	if err != nil {
		if errors.Is(err, ErrNoValue) {
			return nil, nil
		}
		return nil, err
	}

	var cards []model.Card
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		return nil, fmt.Errorf("decode local cards: %w", err)
	}
	return cards, nil
}

// SaveCards заменяет сохранённую коллекцию целиком.
func (s *Store) SaveCards(cards []model.Card) error {
	if cards == nil {
		cards = []model.Card{}
	}
	data, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("encode local cards: %w", err)
	}
	return s.kv.Set(StorageKey, string(data))
}

// Add создаёт карту с локально сгенерированным идентификатором и владельцем
// model.LocalOwnerID и добавляет её в начало коллекции.
func (s *Store) Add(draft model.CardDraft) (*model.Card, error) {
	existing, err := s.Cards()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	card := model.Card{
		ID:                uuid.NewString(),
		UserID:            model.LocalOwnerID,
		Alias:             draft.Alias,
		Bank:              draft.Bank,
		LastFourDigits:    draft.LastFourDigits,
		Network:           draft.Network,
		CutOffDate:        draft.CutOffDate,
		PaymentDeadline:   draft.PaymentDeadline,
		AnnualFee:         draft.AnnualFee,
		AnnualFeeDeadline: draft.AnnualFeeDeadline,
		CreditLine:        draft.CreditLine,
		CurrentBalance:    draft.CurrentBalance,
		Description:       draft.Description,
		Benefits:          draft.Benefits,
		ExpiryMonth:       draft.ExpiryMonth,
		ExpiryYear:        draft.ExpiryYear,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.SaveCards(append([]model.Card{card}, existing...)); err != nil {
		return nil, err
	}
	return &card, nil
}

// Update накладывает patch на карту с указанным идентификатором, сохраняя её
// позицию в коллекции. Возвращает ErrCardNotFound, если карты нет.
func (s *Store) Update(cardID string, patch model.CardPatch) (*model.Card, error) {
	cards, err := s.Cards()
	if err != nil {
		return nil, err
	}

	for i := range cards {
		if cards[i].ID != cardID {
			continue
		}
		updated := patch.Apply(cards[i])
		updated.UpdatedAt = time.Now().UTC()
		cards[i] = updated

		if err := s.SaveCards(cards); err != nil {
			return nil, err
		}
		return &updated, nil
	}

	return nil, ErrCardNotFound
}

// Remove удаляет карту из коллекции и сообщает, была ли она найдена.
func (s *Store) Remove(cardID string) (bool, error) {
	cards, err := s.Cards()
	if err != nil {
		return false, err
	}

	kept := cards[:0]
	for _, c := range cards {
		if c.ID != cardID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(cards) {
		return false, nil
	}

	if err := s.SaveCards(kept); err != nil {
		return false, err
	}
	return true, nil
}

// Clear удаляет всю коллекцию карт из хранилища.
func (s *Store) Clear() error {
	return s.kv.Remove(StorageKey)
}
