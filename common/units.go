package common

import (
	"fmt"
	"math/big"
	"strings"
)

// EtherDecimals is the number of decimal places between wei and ether.
const EtherDecimals = 18

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(EtherDecimals), nil)

// ParseEther converts a decimal ether amount such as "1.5" into wei. At most
// 18 fractional digits are accepted, negative values are rejected.
func ParseEther(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty amount")
	}

	intPart, fracPart, _ := strings.Cut(value, ".")
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("invalid amount %q", value)
	}

	if !isDigits(intPart) || !isDigits(fracPart) {
		return nil, fmt.Errorf("invalid amount %q", value)
	}

	if len(fracPart) > EtherDecimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", value, EtherDecimals)
	}

	digits := intPart + fracPart + strings.Repeat("0", EtherDecimals-len(fracPart))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return new(big.Int), nil
	}

	wei, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}

	return wei, nil
}

// ParseAmount accepts either a decimal ether amount or, when suffixed with
// "wei", a raw integer amount in wei.
func ParseAmount(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if raw, ok := strings.CutSuffix(value, "wei"); ok {
		raw = strings.TrimSpace(raw)
		if raw == "" || !isDigits(raw) {
			return nil, fmt.Errorf("invalid wei amount %q", value)
		}

		wei, _ := new(big.Int).SetString(raw, 10)
		return wei, nil
	}

	return ParseEther(value)
}

// FormatEther returns exact decimal representation of given wei amount in
// ether, without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}

	sign := ""
	abs := new(big.Int).Set(wei)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}

	intPart, fracPart := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))

	frac := padLeftZero(fracPart.String(), EtherDecimals)
	frac = strings.TrimRight(frac, "0")

	if frac == "" {
		return sign + intPart.String()
	}

	return sign + intPart.String() + "." + frac
}

// FormatBalance rounds given wei amount to `decimals` fractional ether digits,
// then removes trailing zeros. A nil balance is formatted as "0".
func FormatBalance(wei *big.Int, decimals int) string {
	if wei == nil {
		return "0"
	}

	if decimals < 0 {
		decimals = 0
	}
	if decimals >= EtherDecimals {
		return FormatEther(wei)
	}

	sign := ""
	abs := new(big.Int).Set(wei)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(EtherDecimals-decimals)), nil)
	half := new(big.Int).Rsh(scale, 1)

	units := new(big.Int).Add(abs, half)
	units.Quo(units, scale)

	if units.Sign() == 0 {
		return "0"
	}

	unitScale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	intPart, fracPart := new(big.Int).QuoRem(units, unitScale, new(big.Int))

	if decimals == 0 {
		return sign + intPart.String()
	}

	frac := strings.TrimRight(padLeftZero(fracPart.String(), decimals), "0")
	if frac == "" {
		return sign + intPart.String()
	}

	return sign + intPart.String() + "." + frac
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func padLeftZero(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
