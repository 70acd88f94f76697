package core

// convert.go parses and formats exact decimals.
//
// Coefficients and column headers arrive as text and must never pass through
// float64. They are parsed into pgtype.Numeric (an arbitrary precision integer
// mantissa with a base-10 exponent) and all arithmetic happens on big.Int.
//
// Spreadsheet exports sometimes write small coefficients in scientific
// notation ("1.5E-05"); the exponent is folded into Numeric.Exp so the value
// stays exact.

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// decimalRegex matches plain decimals with an optional exponent.
var decimalRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ErrNotDecimal is returned for text that is not a finite decimal number.
var ErrNotDecimal = errors.New("not a decimal number")

var (
	bigTen = big.NewInt(10)
	bigOne = big.NewInt(1)
)

// ParseDecimal parses s into an exact pgtype.Numeric.
// Surrounding whitespace and spreadsheet artifacts are removed first.
func ParseDecimal(s string) (pgtype.Numeric, error) {
	s = CleanCell(s)
	if s == "" {
		return pgtype.Numeric{}, fmt.Errorf("%w: empty", ErrNotDecimal)
	}
	if !decimalRegex.MatchString(s) {
		return pgtype.Numeric{}, fmt.Errorf("%w: %q", ErrNotDecimal, s)
	}

	mantissa, exp := s, int64(0)
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		e, err := strconv.ParseInt(s[i+1:], 10, 32)
		if err != nil {
			return pgtype.Numeric{}, fmt.Errorf("%w: exponent %q: %v", ErrNotDecimal, s[i+1:], err)
		}
		mantissa, exp = s[:i], e
	}
	// Numeric.Scan does not accept a bare leading point.
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	} else if strings.HasPrefix(mantissa, "-.") || strings.HasPrefix(mantissa, "+.") {
		mantissa = mantissa[:1] + "0" + mantissa[1:]
	}

	var n pgtype.Numeric
	if err := n.Scan(mantissa); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("%w: %q: %v", ErrNotDecimal, s, err)
	}
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite {
		return pgtype.Numeric{}, fmt.Errorf("%w: %q", ErrNotDecimal, s)
	}

	exp += int64(n.Exp)
	if exp > 1<<20 || exp < -(1<<20) {
		return pgtype.Numeric{}, fmt.Errorf("%w: exponent out of range in %q", ErrNotDecimal, s)
	}
	n.Exp = int32(exp)
	return n, nil
}

// pow10 returns 10^n for n >= 0.
func pow10(n int64) *big.Int {
	return new(big.Int).Exp(bigTen, big.NewInt(n), nil)
}

// FormatDecimal renders mantissa x 10^exp as a plain decimal string with no
// exponent and no trailing fractional zeros ("2", "0.5", "-12.25").
func FormatDecimal(mantissa *big.Int, exp int32) string {
	if mantissa.Sign() == 0 {
		return "0"
	}
	if exp >= 0 {
		return new(big.Int).Mul(mantissa, pow10(int64(exp))).String()
	}

	neg := mantissa.Sign() < 0
	digits := new(big.Int).Abs(mantissa).String()
	scale := int(-exp)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	intPart := digits[:len(digits)-scale]
	fracPart := strings.TrimRight(digits[len(digits)-scale:], "0")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(intPart)
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

// NumericString renders a parsed Numeric in FormatDecimal form.
func NumericString(n pgtype.Numeric) string {
	if n.Int == nil {
		return "0"
	}
	return FormatDecimal(n.Int, n.Exp)
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
