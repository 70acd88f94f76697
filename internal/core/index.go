package core

import (
	"fmt"
	"math/big"
)

// sigmaStepExp is the base-10 exponent of the sigma step 0.0001.
const sigmaStepExp = -4

// SigmaIndex returns header / 0.0001 - 1 as an exact decimal string.
// Dividing by 0.0001 is a shift of the decimal exponent, so no rounding can occur.
func SigmaIndex(header string) (string, error) {
	n, err := ParseDecimal(header)
	if err != nil {
		return "", err
	}

	mantissa := new(big.Int).Set(n.Int)
	exp := int64(n.Exp) - sigmaStepExp
	if exp >= 0 {
		mantissa.Mul(mantissa, pow10(exp))
		mantissa.Sub(mantissa, bigOne)
		return mantissa.String(), nil
	}
	// mantissa x 10^exp - 1 == (mantissa - 10^-exp) x 10^exp
	mantissa.Sub(mantissa, pow10(-exp))
	return FormatDecimal(mantissa, int32(exp)), nil
}

// TIndex returns label / 10.
func TIndex(label int64) int64 {
	return label / LabelStep
}

// ExpandIndex derives the ledger coordinates of a cell from its column header
// and row label. row is used only for error context.
func ExpandIndex(row int, header string, label int64) (tIdx int64, sigmaIdx string, err error) {
	sigmaIdx, err = SigmaIndex(header)
	if err != nil {
		return 0, "", &IndexComputationError{Row: row, Header: header, Err: err}
	}
	return TIndex(label), sigmaIdx, nil
}

// String renders a TableCell for logs.
func (c TableCell) String() string {
	return fmt.Sprintf("(t=%d, sigma=%s, k=%s)", c.TIndex, c.SigmaIndex, c.Coefficient)
}
