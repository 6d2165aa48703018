// Package projector генерирует события платёжного календаря по параметрам цикла карты.
//
// Геометрия цикла считается постоянной: день закрытия периода и число льготных
// дней выводятся один раз из исходных дат карты и применяются ко всем
// проецируемым месяцам.
package projector

import (
	"fmt"
	"time"

	"github.com/dlanderos/cardtrack-system/internal/model"
)

// DefaultHorizon — число будущих месяцев по умолчанию (не считая текущего).
const DefaultHorizon = 6

// CardEvents возвращает события карты от начала текущего месяца (по now) на
// horizon месяцев вперёд включительно: в каждом месяце дата закрытия периода и
// срок платежа, плюс не более одного события годовой комиссии — в первом
// месяце, чей номер совпадает с месяцем исходной даты комиссии.
//
// Срок платежа переносится вперёд с выходных на ближайший будний день; к дате
// закрытия и дате комиссии перенос не применяется. День месяца, отсутствующий
// в коротком месяце, прижимается к последнему дню этого месяца.
func CardEvents(card model.Card, horizon int, now time.Time) []model.CalendarEvent {
	if horizon < 0 {
		horizon = 0
	}

	cutOffDay := card.CutOffDate.Day()
	graceDays := wholeDaysBetween(card.CutOffDate, card.PaymentDeadline)

	start := startOfMonth(now)
	events := make([]model.CalendarEvent, 0, 2*(horizon+1)+1)

	annualEmitted := false

	for i := 0; i <= horizon; i++ {
		month := start.AddDate(0, i, 0)

		cutOff := dayInMonthClamped(month, cutOffDay)

		payment := cutOff.AddDate(0, 0, graceDays)
		for isWeekend(payment) {
			payment = payment.AddDate(0, 0, 1)
		}

		events = append(events,
			newEvent(card, model.EventCutOff, "Cut-off", cutOff),
			newEvent(card, model.EventPaymentDeadline, "Payment", payment),
		)

		if card.AnnualFeeDeadline != nil && !annualEmitted &&
			month.Month() == card.AnnualFeeDeadline.Month() {
			fee := dayInMonthClamped(month, card.AnnualFeeDeadline.Day())
			events = append(events, newEvent(card, model.EventAnnualFee, "Annual fee", fee))
			annualEmitted = true
		}
	}

	return events
}

func newEvent(card model.Card, kind model.EventKind, label string, date time.Time) model.CalendarEvent {
	return model.CalendarEvent{
		ID:     fmt.Sprintf("%s-%s-%s", card.ID, kind, date.Format("20060102")),
		Title:  fmt.Sprintf("%s: %s", label, card.Alias),
		Date:   date,
		AllDay: true,
		Kind:   kind,
		CardID: card.ID,
	}
}

// dayInMonthClamped возвращает дату с заданным днём внутри месяца month,
// прижимая день к последнему дню месяца, если такого дня в месяце нет.
func dayInMonthClamped(month time.Time, day int) time.Time {
	last := daysInMonth(month.Year(), month.Month())
	if day > last {
		day = last
	}
	return time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, month.Location())
}

func daysInMonth(year int, m time.Month) int {
	// День 0 следующего месяца — последний день месяца m.
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// wholeDaysBetween возвращает число целых суток от a до b без учёта времени суток.
func wholeDaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad) / (24 * time.Hour))
}
