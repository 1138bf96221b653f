package common

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// If given `value` is not empty, returns it. Else `defaultValue` will be returned.
func GetStrOr(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	} else {
		return value
	}
}

// logBannerMsg prints a block of message to log.
func LogBannerMsg(msgs []string, paddingLen int) {
	maxLen := 0
	for i := range msgs {
		l := utf8.RuneCountInString(msgs[i])
		if l > maxLen {
			maxLen = l
		}
	}

	padding := strings.Repeat(" ", paddingLen)
	stem := strings.Repeat("─", maxLen+paddingLen*2)

	log.Info("╭" + stem + "╮")
	for _, line := range msgs {
		fill := strings.Repeat(" ", maxLen-utf8.RuneCountInString(line))
		log.Info("│" + padding + line + fill + padding + "│")
	}
	log.Info("╰" + stem + "╯")
}

// ExplorerTxURL returns block explorer page of a transaction, empty string
// for locally generated ids.
func ExplorerTxURL(explorer, hash string) string {
	if hash == "" || IsSyntheticID(hash) {
		return ""
	}
	return strings.TrimRight(explorer, "/") + "/tx/" + hash
}

// ExplorerAddressURL returns block explorer page of an address.
func ExplorerAddressURL(explorer, address string) string {
	return strings.TrimRight(explorer, "/") + "/address/" + address
}
