// Package validation содержит проверку входных данных HTTP-запросов.
package validation

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/vetbill/internal/model"
)

// MaxAmountScale ограничивает число знаков после запятой в денежных суммах.
const MaxAmountScale = 2

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Struct проверяет структуру по тегам validate. Ошибки проверки оборачивают model.ErrInvalidInput.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}

	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field()+" "+describe(fe))
	}
	return fmt.Errorf("%w: %s", model.ErrInvalidInput, strings.Join(fields, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid id"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		return "must have at least " + fe.Param() + " element(s)"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

// ParseID разбирает идентификатор из пути или тела запроса.
func ParseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s id", model.ErrInvalidInput, what)
	}
	return id, nil
}

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ErrAmountTooLarge возвращается, если сумма в копейках не помещается в int64.
var ErrAmountTooLarge = fmt.Errorf("%w: amount too large", model.ErrInvalidInput)

// AmountToCents переводит положительную сумму с не более чем двумя знаками после запятой в копейки.
func AmountToCents(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, model.ErrAmountRequired
	}
	return DecimalToCents(amount)
}

// DecimalToCents переводит неотрицательную сумму в копейки без округления.
func DecimalToCents(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("%w: amount must not be negative", model.ErrInvalidInput)
	}
	if !amount.Equal(amount.Truncate(MaxAmountScale)) {
		return 0, fmt.Errorf("%w: amount must have at most %d decimal places", model.ErrInvalidInput, MaxAmountScale)
	}

	cents := amount.Shift(MaxAmountScale)
	if cents.GreaterThan(maxCents) {
		return 0, ErrAmountTooLarge
	}
	return cents.IntPart(), nil
}

// CentsToAmount переводит копейки в десятичную сумму.
func CentsToAmount(cents int64) decimal.Decimal {
	return decimal.New(cents, -MaxAmountScale)
}

// BillFilterFromQuery собирает фильтр списка счетов из параметров status, shopId и search.
// Неизвестный статус игнорируется.
func BillFilterFromQuery(q url.Values) (model.BillFilter, error) {
	var f model.BillFilter

	if status, ok := model.ParseBillStatus(q.Get("status")); ok {
		f.Status = &status
	}

	if raw := strings.TrimSpace(q.Get("shopId")); raw != "" {
		shopID, err := ParseID(raw, "shop")
		if err != nil {
			return model.BillFilter{}, err
		}
		f.ShopID = &shopID
	}

	f.Query = strings.TrimSpace(q.Get("search"))

	return f, nil
}
