package projector

import (
	"testing"
	"time"

	"github.com/dlanderos/cardtrack-system/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testCard(cutOff, payment time.Time) model.Card {
	return model.Card{
		ID:              "card-1",
		Alias:           "Visa Gold",
		CutOffDate:      cutOff,
		PaymentDeadline: payment,
	}
}

func TestCardEvents_ExampleScenario(t *testing.T) {
	card := testCard(date(2024, time.January, 15), date(2024, time.January, 20))
	now := date(2024, time.January, 10)

	events := CardEvents(card, 1, now)

	if len(events) != 4 {
		t.Fatalf("len(events) = %d, want 4", len(events))
	}

	byID := make(map[string]model.CalendarEvent, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	wantDates := map[string]time.Time{
		"card-1-cut-off-20240115": date(2024, time.January, 15),
		"card-1-cut-off-20240215": date(2024, time.February, 15),
		// 2024-01-20 — суббота, срок платежа переносится на понедельник.
		"card-1-payment-deadline-20240122": date(2024, time.January, 22),
		"card-1-payment-deadline-20240220": date(2024, time.February, 20),
	}

	for id, want := range wantDates {
		e, ok := byID[id]
		if !ok {
			t.Fatalf("event %q not generated, got %v", id, events)
		}
		if !e.Date.Equal(want) {
			t.Fatalf("event %q date = %v, want %v", id, e.Date, want)
		}
		if !e.AllDay {
			t.Fatalf("event %q must be all-day", id)
		}
	}
}

func TestCardEvents_Deterministic(t *testing.T) {
	card := testCard(date(2024, time.March, 28), date(2024, time.April, 7))
	now := date(2024, time.March, 3)

	first := CardEvents(card, 6, now)
	second := CardEvents(card, 6, now)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("event %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestCardEvents_ClampsToEndOfShortMonth(t *testing.T) {
	card := testCard(date(2024, time.January, 31), date(2024, time.February, 10))
	now := date(2024, time.January, 5)

	events := CardEvents(card, 3, now)

	var cutOffs []time.Time
	for _, e := range events {
		if e.Kind == model.EventCutOff {
			cutOffs = append(cutOffs, e.Date)
		}
	}

	want := []time.Time{
		date(2024, time.January, 31),
		date(2024, time.February, 29), // високосный год
		date(2024, time.March, 31),
		date(2024, time.April, 30),
	}

	if len(cutOffs) != len(want) {
		t.Fatalf("cut-off count = %d, want %d", len(cutOffs), len(want))
	}
	for i := range want {
		if !cutOffs[i].Equal(want[i]) {
			t.Fatalf("cut-off %d = %v, want %v", i, cutOffs[i], want[i])
		}
	}
}

func TestCardEvents_PaymentNeverOnWeekend(t *testing.T) {
	// Перебор дней закрытия и льготных периодов, чтобы покрыть все дни недели.
	for day := 1; day <= 28; day++ {
		for grace := 0; grace <= 10; grace++ {
			cutOff := date(2024, time.May, day)
			card := testCard(cutOff, cutOff.AddDate(0, 0, grace))

			events := CardEvents(card, 12, date(2024, time.May, 1))
			for _, e := range events {
				if e.Kind != model.EventPaymentDeadline {
					continue
				}
				if wd := e.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
					t.Fatalf("day=%d grace=%d: payment deadline %v falls on %v", day, grace, e.Date, wd)
				}
			}
		}
	}
}

func TestCardEvents_AnnualFeeSingleOccurrence(t *testing.T) {
	fee := date(2023, time.March, 31)
	card := testCard(date(2023, time.March, 15), date(2023, time.March, 25))
	card.AnnualFeeDeadline = &fee

	events := CardEvents(card, 12, date(2024, time.January, 10))

	var annual []model.CalendarEvent
	for _, e := range events {
		if e.Kind == model.EventAnnualFee {
			annual = append(annual, e)
		}
	}

	if len(annual) != 1 {
		t.Fatalf("annual fee events = %d, want exactly 1", len(annual))
	}
	if annual[0].Date.Month() != time.March {
		t.Fatalf("annual fee month = %v, want March", annual[0].Date.Month())
	}
	if annual[0].Date.Day() != 31 {
		t.Fatalf("annual fee day = %d, want 31", annual[0].Date.Day())
	}
}

func TestCardEvents_EventCount(t *testing.T) {
	now := date(2024, time.June, 1)

	card := testCard(date(2024, time.June, 10), date(2024, time.June, 20))
	if got := len(CardEvents(card, 6, now)); got != 14 {
		t.Fatalf("events without annual fee = %d, want 14", got)
	}

	fee := date(2023, time.September, 1)
	card.AnnualFeeDeadline = &fee
	if got := len(CardEvents(card, 6, now)); got != 15 {
		t.Fatalf("events with annual fee = %d, want 15", got)
	}
}

func TestCardEvents_NegativeHorizonTreatedAsZero(t *testing.T) {
	card := testCard(date(2024, time.June, 10), date(2024, time.June, 20))

	events := CardEvents(card, -3, date(2024, time.June, 1))
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
}
