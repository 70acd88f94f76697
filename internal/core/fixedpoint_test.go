package core

import (
	"errors"
	"math/big"
	"testing"
)

func TestEncodeFixedPoint(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "one is 2^64", input: "1.0", want: "18446744073709551616"},
		{name: "half is 2^63", input: "0.5", want: "9223372036854775808"},
		{name: "zero", input: "0", want: "0"},
		{name: "integer", input: "3", want: "55340232221128654848"},
		{name: "tenth truncates", input: "0.1", want: "1844674407370955161"},
		{name: "leading point", input: ".25", want: "4611686018427387904"},
		{name: "trailing zeros", input: "0.2500000", want: "4611686018427387904"},
		{name: "smallest step", input: "0.0000000000000000000542101086242752217003726400434970855712890625", want: "1"},
		{name: "below smallest step truncates to zero", input: "0.00000000000000000005", want: "0"},
		{name: "scientific notation", input: "2.5E-01", want: "4611686018427387904"},
		{name: "positive exponent", input: "1e1", want: "184467440737095516160"},
		{name: "spreadsheet formula wrapper", input: `="0.5"`, want: "9223372036854775808"},
		{name: "surrounding whitespace", input: "  0.5 ", want: "9223372036854775808"},
		// A float64 path yields 227737579084496064 here.
		{name: "many fractional digits", input: "0.0123456789", want: "227737579084496056"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeFixedPoint(tt.input)
			if err != nil {
				t.Fatalf("EncodeFixedPoint(%q) error = %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("EncodeFixedPoint(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestEncodeFixedPoint_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "", wantErr: ErrNotDecimal},
		{name: "text", input: "abc", wantErr: ErrNotDecimal},
		{name: "NaN", input: "NaN", wantErr: ErrNotDecimal},
		{name: "two points", input: "1.2.3", wantErr: ErrNotDecimal},
		{name: "negative", input: "-0.5", wantErr: ErrNegativeCoefficient},
		{name: "too wide", input: "18446744073709551616", wantErr: ErrFixedPointOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeFixedPoint(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("EncodeFixedPoint(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestEncodeFixedPoint_LargestWidth(t *testing.T) {
	// 2^64 - 2^-64 encodes to 2^128 - 1, the widest accepted value.
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), MaxFixedPointBits), big.NewInt(1))
	got, err := EncodeFixedPoint(DecodeFixedPoint(max))
	if err != nil {
		t.Fatalf("EncodeFixedPoint() error = %v", err)
	}
	if got.Cmp(max) != 0 {
		t.Errorf("EncodeFixedPoint() = %s, want %s", got, max)
	}
}

func TestEncodeFixedPoint_Idempotent(t *testing.T) {
	inputs := []string{
		"0.1",
		"0.0123456789",
		"0.333333333333333333333333333333",
		"0.999999999999999999999999",
		"1.5",
		"42.000000000000000000000000000001",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			first, err := EncodeFixedPoint(in)
			if err != nil {
				t.Fatalf("EncodeFixedPoint(%q) error = %v", in, err)
			}
			exact := DecodeFixedPoint(first)
			second, err := EncodeFixedPoint(exact)
			if err != nil {
				t.Fatalf("EncodeFixedPoint(%q) error = %v", exact, err)
			}
			if first.Cmp(second) != 0 {
				t.Errorf("re-encoding %q (from %q) = %s, want %s", exact, in, second, first)
			}
		})
	}
}

func TestDecodeFixedPoint(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "18446744073709551616", want: "1"},
		{input: "9223372036854775808", want: "0.5"},
		{input: "0", want: "0"},
		{input: "1", want: "0.0000000000000000000542101086242752217003726400434970855712890625"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := DecodeFixedPoint(mustInt(t, tt.input))
			if got != tt.want {
				t.Errorf("DecodeFixedPoint(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
