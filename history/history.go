package history

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// StorageKey is the item under which history list is stored.
	StorageKey = "txHistory"
	// MaxEntries is the number of newest entries kept.
	MaxEntries = 50
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether status will no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

type Transaction struct {
	Hash      string         `json:"hash"`
	Status    Status         `json:"status"`
	Timestamp int64          `json:"timestamp"` // unix milliseconds
	Data      map[string]any `json:"data,omitempty"`
}

// Time converts entry's timestamp to time.Time.
func (tx Transaction) Time() time.Time {
	return time.UnixMilli(tx.Timestamp)
}

// Method returns "method" value from entry data, if any.
func (tx Transaction) Method() string {
	method, _ := tx.Data["method"].(string)
	return method
}

// History is a capped list of transactions, newest first. It is best effort:
// storage failures are logged and otherwise ignored.
type History struct {
	storage Storage
	mu      sync.Mutex
	now     func() time.Time
}

func New(storage Storage) *History {
	return &History{
		storage: storage,
		now:     time.Now,
	}
}

// Add records tx or updates existing entry with the same hash. A pending
// update never replaces a confirmed or failed entry.
func (h *History) Add(tx Transaction) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if tx.Timestamp == 0 {
		tx.Timestamp = h.now().UnixMilli()
	}

	entries := h.load()

	index := -1
	for i, entry := range entries {
		if entry.Hash == tx.Hash {
			index = i
			break
		}
	}

	if index >= 0 {
		existing := entries[index]
		if existing.Status == StatusPending || tx.Status != StatusPending {
			existing.Status = tx.Status
			existing.Data = mergeData(existing.Data, tx.Data)
			entries[index] = existing
		}
	} else {
		entries = append([]Transaction{tx}, entries...)
	}

	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	h.store(entries)
}

// List returns entries in stored order. Unreadable history yields an empty
// list.
func (h *History) List() []Transaction {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.load()
}

// Sorted returns entries ordered by timestamp, newest first.
func (h *History) Sorted() []Transaction {
	entries := h.List()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.storage.RemoveItem(StorageKey); err != nil {
		log.Errorf("failed to clear transaction history: %s", err)
	}
}

func (h *History) load() []Transaction {
	entries := []Transaction{}

	raw, ok, err := h.storage.GetItem(StorageKey)
	if err != nil {
		log.Errorf("failed to read transaction history: %s", err)
		return entries
	} else if !ok || raw == "" {
		return entries
	}

	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Errorf("failed to decode transaction history: %s", err)
		return []Transaction{}
	}

	return entries
}

func (h *History) store(entries []Transaction) {
	data, err := json.Marshal(entries)
	if err != nil {
		log.Errorf("failed to encode transaction history: %s", err)
		return
	}

	if err := h.storage.SetItem(StorageKey, string(data)); err != nil {
		log.Errorf("failed to save transaction history: %s", err)
	}
}

func mergeData(base, update map[string]any) map[string]any {
	if len(base) == 0 && len(update) == 0 {
		return base
	}

	merged := make(map[string]any, len(base)+len(update))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range update {
		merged[k] = v
	}

	return merged
}
