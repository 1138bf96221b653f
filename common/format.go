package common

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Prefixes of locally generated transaction identifiers. These are used when
// no on-chain hash exists for a history entry.
const (
	SyntheticTxPrefix      = "tx-"
	SyntheticErrorPrefix   = "error-"
	SyntheticPendingPrefix = "pending-"
)

// IsSyntheticID reports whether `id` is a locally generated identifier
// rather than a transaction hash.
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, SyntheticTxPrefix) ||
		strings.HasPrefix(id, SyntheticErrorPrefix) ||
		strings.HasPrefix(id, SyntheticPendingPrefix)
}

// ShortHash abbreviates a hash as its first 6 and last 4 characters, used in
// notification messages.
func ShortHash(hash string) string {
	if len(hash) <= 10 {
		return hash
	}
	return hash[:6] + "..." + hash[len(hash)-4:]
}

// DisplayHash formats a history identifier for table output. Synthetic ids
// are shown in full.
func DisplayHash(hash string) string {
	if hash == "" {
		return "Unknown"
	}

	if IsSyntheticID(hash) || len(hash) <= 14 {
		return hash
	}

	return hash[:8] + "..." + hash[len(hash)-6:]
}

// Capitalize upper-cases first letter of given word, empty input gives
// "Unknown".
func Capitalize(word string) string {
	if word == "" {
		return "Unknown"
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

var localePrinter = sync.OnceValue(func() *message.Printer {
	tag := language.English

	if name, err := locale.GetLocale(); err == nil {
		if parsed, err := language.Parse(name); err == nil {
			tag = parsed
		}
	}

	return message.NewPrinter(tag)
})

// LocalizedBalance formats wei amount in ether with digit grouping of user's
// locale. Precision is limited to float64, so this is for display only.
func LocalizedBalance(wei *big.Int, decimals int) string {
	if wei == nil {
		wei = new(big.Int)
	}
	if decimals < 0 {
		decimals = 0
	}

	value, _ := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		new(big.Float).SetInt(weiPerEther),
	).Float64()

	format := fmt.Sprintf("%%.%df", decimals)
	return localePrinter().Sprintf(format, value)
}
