// Package invoice формирует номера счетов из значений атомарного счётчика.
package invoice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Prefix — префикс номера счёта.
const Prefix = "INV-"

// SequenceName — имя счётчика номеров счетов в хранилище.
const SequenceName = "bill"

// ErrMalformedNumber возвращается при разборе строки, не являющейся номером счёта.
var ErrMalformedNumber = errors.New("malformed invoice number")

// Format возвращает номер счёта для порядкового значения seq, дополненного нулями до трёх знаков.
func Format(seq int64) string {
	return fmt.Sprintf("%s%03d", Prefix, seq)
}

// Parse извлекает порядковое значение из номера счёта.
func Parse(number string) (int64, error) {
	digits, ok := strings.CutPrefix(number, Prefix)
	if !ok || len(digits) < 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, number)
	}

	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, number)
	}

	return seq, nil
}
