// Package validation содержит проверки полей карты на границе HTTP API.
package validation

import (
	"errors"
	"time"

	"github.com/dlanderos/cardtrack-system/internal/model"
)

var (
	// ErrAliasRequired — у карты должно быть отображаемое имя.
	ErrAliasRequired = errors.New("alias is required")
	// ErrLastFourDigits — последние цифры карты лежат в диапазоне 0-9999.
	ErrLastFourDigits = errors.New("last four digits must be between 0 and 9999")
	// ErrNegativeAmount — денежные поля карты не могут быть отрицательными.
	ErrNegativeAmount = errors.New("amount must not be negative")
	// ErrExpiryMonth — месяц истечения срока карты лежит в диапазоне 1-12.
	ErrExpiryMonth = errors.New("expiry month must be between 1 and 12")
	// ErrExpiryYear — год истечения срока не может быть в прошлом.
	ErrExpiryYear = errors.New("expiry year must not be in the past")
	// ErrDeadlineBeforeCutOff — срок платежа не может предшествовать дате закрытия.
	ErrDeadlineBeforeCutOff = errors.New("payment deadline must not precede cut-off date")
)

// ValidateDraft проверяет поля новой карты. Связь баланса с кредитным лимитом
// намеренно не проверяется: превышение лимита — осмысленное состояние.
func ValidateDraft(draft model.CardDraft) error {
	if draft.Alias == "" {
		return ErrAliasRequired
	}
	if draft.LastFourDigits < 0 || draft.LastFourDigits > 9999 {
		return ErrLastFourDigits
	}
	if draft.CreditLine < 0 || draft.CurrentBalance < 0 || draft.AnnualFee < 0 {
		return ErrNegativeAmount
	}
	// Нулевой срок истечения означает «не указан».
	if draft.ExpiryMonth != 0 && (draft.ExpiryMonth < 1 || draft.ExpiryMonth > 12) {
		return ErrExpiryMonth
	}
	if draft.ExpiryYear != 0 && draft.ExpiryYear < time.Now().Year() {
		return ErrExpiryYear
	}
	if draft.PaymentDeadline.Before(draft.CutOffDate) {
		return ErrDeadlineBeforeCutOff
	}
	return nil
}

// ValidatePatch проверяет заполненные поля частичного обновления.
func ValidatePatch(patch model.CardPatch) error {
	if patch.Alias != nil && *patch.Alias == "" {
		return ErrAliasRequired
	}
	if patch.LastFourDigits != nil && (*patch.LastFourDigits < 0 || *patch.LastFourDigits > 9999) {
		return ErrLastFourDigits
	}
	if patch.CreditLine != nil && *patch.CreditLine < 0 {
		return ErrNegativeAmount
	}
	if patch.CurrentBalance != nil && *patch.CurrentBalance < 0 {
		return ErrNegativeAmount
	}
	if patch.AnnualFee != nil && *patch.AnnualFee < 0 {
		return ErrNegativeAmount
	}
	if patch.ExpiryMonth != nil && *patch.ExpiryMonth != 0 &&
		(*patch.ExpiryMonth < 1 || *patch.ExpiryMonth > 12) {
		return ErrExpiryMonth
	}
	if patch.ExpiryYear != nil && *patch.ExpiryYear != 0 && *patch.ExpiryYear < time.Now().Year() {
		return ErrExpiryYear
	}
	if patch.CutOffDate != nil && patch.PaymentDeadline != nil &&
		patch.PaymentDeadline.Before(*patch.CutOffDate) {
		return ErrDeadlineBeforeCutOff
	}
	return nil
}
