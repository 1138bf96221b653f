package history

import (
	"testing"
	"time"

	"github.com/SirZenith/taskmon/history"
	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	hash := "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"
	entries := []history.Transaction{
		{
			Hash:      hash,
			Status:    history.StatusConfirmed,
			Timestamp: time.Now().Add(-time.Minute).UnixMilli(),
			Data:      map[string]any{"method": "stake"},
		},
		{
			Hash:      "error-1700000000000-abcdefgh",
			Status:    history.StatusFailed,
			Timestamp: time.Now().UnixMilli(),
		},
	}

	out := Render(entries, "")
	assert.Contains(t, out, "Stake")
	assert.Contains(t, out, "Confirmed")
	assert.Contains(t, out, "0x123456...abcdef")
	assert.Contains(t, out, "error-1700000000000-abcdefgh")
	assert.Contains(t, out, "Unknown")
	assert.NotContains(t, out, "Link")

	out = Render(entries, "https://explorer.example/")
	assert.Contains(t, out, "Link")
	assert.Contains(t, out, "https://explorer.example/tx/"+hash)
}
