package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
)

// FractionalBits is the fixed-point scale: values are stored as x * 2^64.
const FractionalBits = 64

// MaxFixedPointBits is the widest encoded value the ledger column accepts.
const MaxFixedPointBits = 128

var (
	// ErrNegativeCoefficient is returned for values below zero; the ledger stores unsigned integers.
	ErrNegativeCoefficient = errors.New("coefficient is negative")
	// ErrFixedPointOverflow is returned when the encoded value needs more than MaxFixedPointBits bits.
	ErrFixedPointOverflow = errors.New("fixed-point value overflows 128 bits")
)

// FixedPoint returns floor(n * 2^64) for a non-negative n, truncating any
// fractional remainder toward zero. The computation is exact.
func FixedPoint(n pgtype.Numeric) *big.Int {
	if n.Int == nil {
		return new(big.Int)
	}
	v := new(big.Int).Lsh(n.Int, FractionalBits)
	if n.Exp >= 0 {
		return v.Mul(v, pow10(int64(n.Exp)))
	}
	return v.Quo(v, pow10(int64(-n.Exp)))
}

// EncodeFixedPoint parses a decimal coefficient and converts it to its
// fixed-point ledger representation.
func EncodeFixedPoint(s string) (*big.Int, error) {
	n, err := ParseDecimal(s)
	if err != nil {
		return nil, err
	}
	if n.Int.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeCoefficient, NumericString(n))
	}
	v := FixedPoint(n)
	if v.BitLen() > MaxFixedPointBits {
		return nil, fmt.Errorf("%w: %s", ErrFixedPointOverflow, NumericString(n))
	}
	return v, nil
}

// DecodeFixedPoint renders v / 2^64 as an exact decimal string.
// Every such quotient has a finite decimal expansion since 2^-64 = 5^64 / 10^64.
func DecodeFixedPoint(v *big.Int) string {
	m := new(big.Int).Exp(big.NewInt(5), big.NewInt(FractionalBits), nil)
	m.Mul(m, v)
	return FormatDecimal(m, -FractionalBits)
}
