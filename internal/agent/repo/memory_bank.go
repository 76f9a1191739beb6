package repo

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/carbon-assistant/server/internal/agent/model"
)

// MemoryBank is the process-local long-term memory.
type MemoryBank struct {
	mu       sync.RWMutex
	records  []model.MemoryRecord
	profiles map[string]model.CompanyProfile
}

func NewMemoryBank() *MemoryBank {
	return &MemoryBank{profiles: make(map[string]model.CompanyProfile)}
}

func (b *MemoryBank) SaveEmissionRecord(_ context.Context, record model.MemoryRecord) error {
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	b.mu.Lock()
	b.records = append(b.records, record)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBank) SaveProfile(_ context.Context, name string, profile model.CompanyProfile) error {
	b.mu.Lock()
	b.profiles[name] = maps.Clone(profile)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBank) Stats(_ context.Context) (model.MemoryStats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	companies := slices.Sorted(maps.Keys(b.profiles))
	if companies == nil {
		companies = []string{}
	}
	return model.MemoryStats{TotalRecords: len(b.records), Companies: companies}, nil
}

var _ model.MemoryBank = (*MemoryBank)(nil)
