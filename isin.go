package quotesheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
)

// ErrInvalidISIN is wrapped by every error returned by ValidateISIN.
var ErrInvalidISIN = errors.New("invalid ISIN")

// isinLength is the length of an ISIN: a country prefix of 2 letters, a
// national code of 9 letters or digits, and a check digit.
const isinLength = 12

// ValidateISIN reports whether isin is an upper case ISIN with a valid check
// digit. Errors wrap ErrInvalidISIN and name the offending position.
func ValidateISIN(isin string) error {
	if len(isin) != isinLength {
		return fmt.Errorf("%w %q: %d characters, want %d", ErrInvalidISIN, isin, len(isin), isinLength)
	}
	for i := range isinLength {
		c := isin[i]
		letter, digit := 'A' <= c && c <= 'Z', '0' <= c && c <= '9'
		switch {
		case i < 2 && !letter:
			return fmt.Errorf("%w %q: country prefix %q is not 2 upper case letters", ErrInvalidISIN, isin, isin[:2])
		case i == isinLength-1 && !digit:
			return fmt.Errorf("%w %q: check digit %q is not a digit", ErrInvalidISIN, isin, c)
		case !letter && !digit:
			return fmt.Errorf("%w %q: unexpected %q at position %d", ErrInvalidISIN, isin, c, i+1)
		}
	}
	if want := isinCheckDigit(isin[:isinLength-1]); int(isin[isinLength-1]-'0') != want {
		return fmt.Errorf("%w %q: check digit is %c, want %d", ErrInvalidISIN, isin, isin[isinLength-1], want)
	}
	return nil
}

// isinCheckDigit returns the check digit of the first 11 characters of an
// ISIN. Letters expand to two digits (A is 10, Z is 35) and the digit sequence
// is summed with the Luhn algorithm, doubling the rightmost digit.
func isinCheckDigit(body string) int {
	digits := make([]int, 0, 2*len(body))
	for i := range len(body) {
		if c := body[i]; c >= 'A' {
			v := int(c-'A') + 10
			digits = append(digits, v/10, v%10)
		} else {
			digits = append(digits, int(c-'0'))
		}
	}
	sum := 0
	for i, d := range digits {
		if (len(digits)-1-i)%2 == 0 {
			if d *= 2; d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

// KnownCurrency reports whether code is an ISO 4217 currency code.
func KnownCurrency(code string) bool {
	return money.GetCurrency(strings.ToUpper(strings.TrimSpace(code))) != nil
}
