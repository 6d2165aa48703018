package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dlanderos/cardtrack-system/internal/model"
)

type stubCoordinator struct {
	state   model.AuthState
	cards   []model.Card
	message string

	loadOK   bool
	addOK    bool
	updateOK bool
	removeOK bool
}

func (s *stubCoordinator) SetAuthState(state model.AuthState) { s.state = state }
func (s *stubCoordinator) State() model.AuthState             { return s.state }
func (s *stubCoordinator) Load(ctx context.Context) bool      { return s.loadOK }
func (s *stubCoordinator) Add(ctx context.Context, draft model.CardDraft) bool {
	return s.addOK
}
func (s *stubCoordinator) Update(ctx context.Context, cardID string, patch model.CardPatch) bool {
	return s.updateOK
}
func (s *stubCoordinator) Remove(ctx context.Context, cardID string) bool {
	return s.removeOK
}
func (s *stubCoordinator) Cards() []model.Card { return s.cards }
func (s *stubCoordinator) Message() string     { return s.message }

func TestRegister_WithoutIdentityProvider(t *testing.T) {
	svc := NewService(&stubCoordinator{}, nil)

	_, err := svc.Register(context.Background(), "u@example.com", "secret")
	if !errors.Is(err, ErrIdentityNotConfigured) {
		t.Fatalf("expected ErrIdentityNotConfigured, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	coord := &stubCoordinator{
		cards: []model.Card{
			{ID: "a", CreditLine: 60000, CurrentBalance: 12000, AnnualFee: 700},
			{ID: "b", CreditLine: 40000, CurrentBalance: 3000, AnnualFee: 0},
		},
	}
	svc := NewService(coord, nil)

	sum := svc.Summary()

	if sum.TotalCards != 2 {
		t.Fatalf("TotalCards = %d, want 2", sum.TotalCards)
	}
	if sum.TotalCreditLine != 100000 {
		t.Fatalf("TotalCreditLine = %v, want 100000", sum.TotalCreditLine)
	}
	if sum.TotalBalance != 15000 {
		t.Fatalf("TotalBalance = %v, want 15000", sum.TotalBalance)
	}
	if sum.TotalAnnualFees != 700 {
		t.Fatalf("TotalAnnualFees = %v, want 700", sum.TotalAnnualFees)
	}
	if sum.UtilizationPercent != 15 {
		t.Fatalf("UtilizationPercent = %v, want 15", sum.UtilizationPercent)
	}
}

func TestSummary_EmptyCollection(t *testing.T) {
	svc := NewService(&stubCoordinator{}, nil)

	sum := svc.Summary()
	if sum.TotalCards != 0 || sum.UtilizationPercent != 0 {
		t.Fatalf("unexpected summary for empty collection: %+v", sum)
	}
}

func TestCalendarEvents_AssignsColors(t *testing.T) {
	fee := time.Date(2023, time.July, 10, 0, 0, 0, 0, time.UTC)
	coord := &stubCoordinator{
		cards: []model.Card{
			{
				ID:                "a",
				Alias:             "first",
				CutOffDate:        time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
				PaymentDeadline:   time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC),
				AnnualFeeDeadline: &fee,
			},
			{
				ID:              "b",
				Alias:           "second",
				CutOffDate:      time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC),
				PaymentDeadline: time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	svc := NewService(coord, nil)

	events := svc.CalendarEvents(6, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

	// 7 месяцев x 2 события на карту, плюс одна годовая комиссия.
	if len(events) != 29 {
		t.Fatalf("len(events) = %d, want 29", len(events))
	}

	for _, e := range events {
		switch {
		case e.Kind == model.EventAnnualFee:
			if e.Color != annualFeeColor {
				t.Fatalf("annual fee color = %q, want %q", e.Color, annualFeeColor)
			}
		case e.CardID == "a":
			if e.Color != cardColorPalette[0] {
				t.Fatalf("card a color = %q, want %q", e.Color, cardColorPalette[0])
			}
		case e.CardID == "b":
			if e.Color != cardColorPalette[1] {
				t.Fatalf("card b color = %q, want %q", e.Color, cardColorPalette[1])
			}
		}
	}
}

func TestLoadCards_ReturnsCollectionAndStatus(t *testing.T) {
	coord := &stubCoordinator{
		loadOK:  true,
		cards:   []model.Card{{ID: "a"}},
		message: "",
	}
	svc := NewService(coord, nil)

	cards, ok := svc.LoadCards(context.Background())
	if !ok {
		t.Fatalf("LoadCards reported failure")
	}
	if len(cards) != 1 || cards[0].ID != "a" {
		t.Fatalf("unexpected cards: %+v", cards)
	}
}

func TestApplyAuthState_PassThrough(t *testing.T) {
	coord := &stubCoordinator{}
	svc := NewService(coord, nil)

	svc.ApplyAuthState(model.Authenticated(model.User{ID: "user-1"}))

	if coord.state.Status != model.AuthAuthenticated {
		t.Fatalf("state not applied: %+v", coord.state)
	}
}
