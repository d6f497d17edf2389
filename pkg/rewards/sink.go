// Package rewards forwards fired puff detections to the rewards backend.
//
// The backend is a black box: puffd only appends one row per detection and
// never reads balances back.
package rewards

import (
	"context"
	"sync"
	"time"

	"github.com/vapefi/puffd/pkg/tracking"
)

// Puff is a fired detection attributed to a wallet.
type Puff struct {
	tracking.Event
	Wallet string `json:"wallet"`
}

// Sink records puffs.
type Sink interface {
	Record(ctx context.Context, p Puff) error
}

// MemorySink counts puffs per wallet in memory.
type MemorySink struct {
	mu     sync.RWMutex
	counts map[string]int
	last   map[string]time.Time
	total  int
	seen   map[string]bool
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		counts: make(map[string]int),
		last:   make(map[string]time.Time),
		seen:   make(map[string]bool),
	}
}

// Record implements Sink. Re-recording the same event ID is a no-op.
func (m *MemorySink) Record(ctx context.Context, p Puff) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[p.ID] {
		return nil
	}
	m.seen[p.ID] = true
	m.counts[p.Wallet]++
	m.last[p.Wallet] = p.DetectedAt
	m.total++
	return nil
}

// Count returns the number of puffs recorded for wallet.
func (m *MemorySink) Count(wallet string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[wallet]
}

// Total returns the number of puffs recorded across all wallets.
func (m *MemorySink) Total() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total
}

// Counts returns a snapshot of per-wallet counts.
func (m *MemorySink) Counts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

// Multi fans a puff out to several sinks, stopping at the first error.
type Multi []Sink

// Record implements Sink.
func (ms Multi) Record(ctx context.Context, p Puff) error {
	for _, s := range ms {
		if err := s.Record(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
