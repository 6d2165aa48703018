// Package model содержит доменные сущности сервиса cardtrack.
package model

import "time"

// LocalOwnerID — владелец карт, созданных без авторизации (только локальное хранилище).
const LocalOwnerID = "local_user"

// User представляет пользователя, аутентифицированного внешним провайдером.
type User struct {
	ID    string
	Email string
}

// Card описывает кредитную карту пользователя и параметры её платёжного цикла.
type Card struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Alias             string     `json:"alias"`
	Bank              string     `json:"bank"`
	LastFourDigits    int        `json:"last_four_digits"`
	Network           string     `json:"network"`
	CutOffDate        time.Time  `json:"cut_off_date"`
	PaymentDeadline   time.Time  `json:"payment_deadline"`
	AnnualFee         float64    `json:"annual_fee"`
	AnnualFeeDeadline *time.Time `json:"annual_fee_deadline,omitempty"`
	CreditLine        float64    `json:"credit_line"`
	CurrentBalance    float64    `json:"current_balance"`
	Description       string     `json:"description,omitempty"`
	Benefits          string     `json:"benefits,omitempty"`
	ExpiryMonth       int        `json:"expiry_month"`
	ExpiryYear        int        `json:"expiry_year"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// CardDraft содержит поля новой карты. Идентификатор, владелец и метки времени
// назначаются хранилищем, а не клиентом.
type CardDraft struct {
	Alias             string     `json:"alias"`
	Bank              string     `json:"bank"`
	LastFourDigits    int        `json:"last_four_digits"`
	Network           string     `json:"network"`
	CutOffDate        time.Time  `json:"cut_off_date"`
	PaymentDeadline   time.Time  `json:"payment_deadline"`
	AnnualFee         float64    `json:"annual_fee"`
	AnnualFeeDeadline *time.Time `json:"annual_fee_deadline,omitempty"`
	CreditLine        float64    `json:"credit_line"`
	CurrentBalance    float64    `json:"current_balance"`
	Description       string     `json:"description,omitempty"`
	Benefits          string     `json:"benefits,omitempty"`
	ExpiryMonth       int        `json:"expiry_month"`
	ExpiryYear        int        `json:"expiry_year"`
}

// CardPatch описывает частичное обновление карты: nil-поле означает «не менять».
// Идентификатор, владелец и метки времени через patch не изменяются.
type CardPatch struct {
	Alias             *string    `json:"alias,omitempty"`
	Bank              *string    `json:"bank,omitempty"`
	LastFourDigits    *int       `json:"last_four_digits,omitempty"`
	Network           *string    `json:"network,omitempty"`
	CutOffDate        *time.Time `json:"cut_off_date,omitempty"`
	PaymentDeadline   *time.Time `json:"payment_deadline,omitempty"`
	AnnualFee         *float64   `json:"annual_fee,omitempty"`
	AnnualFeeDeadline *time.Time `json:"annual_fee_deadline,omitempty"`
	CreditLine        *float64   `json:"credit_line,omitempty"`
	CurrentBalance    *float64   `json:"current_balance,omitempty"`
	Description       *string    `json:"description,omitempty"`
	Benefits          *string    `json:"benefits,omitempty"`
	ExpiryMonth       *int       `json:"expiry_month,omitempty"`
	ExpiryYear        *int       `json:"expiry_year,omitempty"`
}

// Apply накладывает заполненные поля patch на карту и возвращает результат.
func (p CardPatch) Apply(c Card) Card {
	if p.Alias != nil {
		c.Alias = *p.Alias
	}
	if p.Bank != nil {
		c.Bank = *p.Bank
	}
	if p.LastFourDigits != nil {
		c.LastFourDigits = *p.LastFourDigits
	}
	if p.Network != nil {
		c.Network = *p.Network
	}
	if p.CutOffDate != nil {
		c.CutOffDate = *p.CutOffDate
	}
	if p.PaymentDeadline != nil {
		c.PaymentDeadline = *p.PaymentDeadline
	}
	if p.AnnualFee != nil {
		c.AnnualFee = *p.AnnualFee
	}
	if p.AnnualFeeDeadline != nil {
		d := *p.AnnualFeeDeadline
		c.AnnualFeeDeadline = &d
	}
	if p.CreditLine != nil {
		c.CreditLine = *p.CreditLine
	}
	if p.CurrentBalance != nil {
		c.CurrentBalance = *p.CurrentBalance
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Benefits != nil {
		c.Benefits = *p.Benefits
	}
	if p.ExpiryMonth != nil {
		c.ExpiryMonth = *p.ExpiryMonth
	}
	if p.ExpiryYear != nil {
		c.ExpiryYear = *p.ExpiryYear
	}
	return c
}

// EventKind описывает тип события платёжного календаря.
type EventKind string

const (
	EventCutOff          EventKind = "cut-off"
	EventPaymentDeadline EventKind = "payment-deadline"
	EventAnnualFee       EventKind = "annual-fee"
)

// CalendarEvent — производное событие календаря. Не сохраняется: идентификатор
// детерминированно выводится из карты, типа и даты, поэтому повторная генерация
// даёт те же события.
type CalendarEvent struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Date   time.Time `json:"date"`
	AllDay bool      `json:"all_day"`
	Kind   EventKind `json:"kind"`
	CardID string    `json:"card_id"`
	Color  string    `json:"color"`
}

// Summary содержит агрегаты по коллекции карт для дашборда.
type Summary struct {
	TotalCards         int     `json:"total_cards"`
	TotalCreditLine    float64 `json:"total_credit_line"`
	TotalBalance       float64 `json:"total_balance"`
	TotalAnnualFees    float64 `json:"total_annual_fees"`
	UtilizationPercent float64 `json:"utilization_percent"`
}
