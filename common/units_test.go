package common

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"1", "1000000000000000000"},
		{"1.5", "1500000000000000000"},
		{"0.01", "10000000000000000"},
		{".5", "500000000000000000"},
		{"2.", "2000000000000000000"},
		{"0", "0"},
		{"0.000000000000000001", "1"},
	}

	for _, c := range cases {
		wei, err := ParseEther(c.input)
		require.NoError(t, err, c.input)
		assert.Equal(t, c.want, wei.String(), c.input)
	}
}

func TestParseEtherRejects(t *testing.T) {
	for _, input := range []string{"", ".", "-1", "abc", "1.2.3", "0.0000000000000000001", "1e18"} {
		_, err := ParseEther(input)
		assert.Error(t, err, input)
	}
}

func TestParseAmountWei(t *testing.T) {
	wei, err := ParseAmount("12345wei")
	require.NoError(t, err)
	assert.Equal(t, "12345", wei.String())

	_, err = ParseAmount("wei")
	assert.Error(t, err)
}

func TestFormatEther(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5", FormatEther(wei))
	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
	assert.Equal(t, "-2", FormatEther(new(big.Int).Neg(new(big.Int).Mul(big.NewInt(2), weiPerEther))))
}

func TestFormatBalance(t *testing.T) {
	wei, _ := new(big.Int).SetString("1234567890000000000", 10)
	assert.Equal(t, "1.234568", FormatBalance(wei, 6))
	assert.Equal(t, "1.2346", FormatBalance(wei, 4))
	assert.Equal(t, "1", FormatBalance(wei, 0))

	hundred := new(big.Int).Mul(big.NewInt(100), weiPerEther)
	assert.Equal(t, "100", FormatBalance(hundred, 6))
	assert.Equal(t, "100", FormatBalance(hundred, 0))

	assert.Equal(t, "0", FormatBalance(nil, 6))
	assert.Equal(t, "0", FormatBalance(big.NewInt(1), 6))
}

func TestDisplayHash(t *testing.T) {
	hash := "0x3f1a8c2d9e4b5a6f7c8d9e0a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c"
	assert.Equal(t, "0x3f1a8c...8a9b0c", DisplayHash(hash))
	assert.Equal(t, "0x3f1a...9b0c", ShortHash(hash))
	assert.Equal(t, "tx-1700000000000-ab12c", DisplayHash("tx-1700000000000-ab12c"))
	assert.Equal(t, "Unknown", DisplayHash(""))
}

func TestExplorerURL(t *testing.T) {
	assert.Equal(t, "https://explorer.monad.xyz/tx/0xabc", ExplorerTxURL("https://explorer.monad.xyz/", "0xabc"))
	assert.Empty(t, ExplorerTxURL("https://explorer.monad.xyz", "error-1-abcdefgh"))
	assert.Equal(t, "https://explorer.monad.xyz/address/0x01", ExplorerAddressURL("https://explorer.monad.xyz", "0x01"))
}
