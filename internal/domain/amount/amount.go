// Package amount implements the fixed-point money representation used by the
// ledger. Values are unsigned integers scaled by 10^4 so that four fractional
// digits are carried exactly.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the multiplier between a whole unit and its fixed-point value.
	Scale = 10000
	// FractionalDigits is the number of digits kept after the decimal point.
	FractionalDigits = 4
)

var (
	// ErrInvalidAmount is returned by Parse for text that is not a valid amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrOverflow is returned by Add when the sum exceeds the representable range.
	ErrOverflow = errors.New("amount overflow")
	// ErrUnderflow is returned by Sub when the result would be negative.
	ErrUnderflow = errors.New("amount underflow")
)

// Amount is a non-negative monetary value in ten-thousandths of a unit.
type Amount uint64

// Parse decodes a decimal string such as "3.05" into its fixed-point value.
// The text must contain exactly one decimal point and at most four digits
// after it.
func Parse(text string) (Amount, error) {
	intPart, fracPart, found := strings.Cut(text, ".")
	if !found {
		return 0, fmt.Errorf("%w: no decimal point in %q", ErrInvalidAmount, text)
	}
	if strings.Contains(fracPart, ".") {
		return 0, fmt.Errorf("%w: more than one decimal point in %q", ErrInvalidAmount, text)
	}
	if len(fracPart) > FractionalDigits {
		return 0, fmt.Errorf("%w: more than %d fractional digits in %q", ErrInvalidAmount, FractionalDigits, text)
	}

	digits := intPart + fracPart + strings.Repeat("0", FractionalDigits-len(fracPart))
	value, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, text, err)
	}
	return Amount(value), nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and constants.
func MustParse(text string) Amount {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the amount with four fractional digits. Zero is rendered as
// "0.0", which downstream consumers of the CSV output rely on.
func (a Amount) String() string {
	if a == 0 {
		return "0.0"
	}
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(a)), -FractionalDigits).StringFixed(FractionalDigits)
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Add returns a+b, or ErrOverflow if the sum does not fit.
func (a Amount) Add(b Amount) (Amount, error) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return Amount(sum), nil
}

// Sub returns a-b, or ErrUnderflow if b is larger than a.
func (a Amount) Sub(b Amount) (Amount, error) {
	diff, borrow := bits.Sub64(uint64(a), uint64(b), 0)
	if borrow != 0 {
		return 0, ErrUnderflow
	}
	return Amount(diff), nil
}
