package model

import (
	"context"
	"time"
)

// MemoryRecord is one prediction kept in long-term memory.
type MemoryRecord struct {
	SessionID  string        `json:"session_id"`
	Input      FeatureVector `json:"input"`
	Emission   float64       `json:"emission"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// CompanyProfile is free-form company metadata.
type CompanyProfile map[string]any

// MemoryStats summarises the memory bank.
type MemoryStats struct {
	TotalRecords int      `json:"total_records"`
	Companies    []string `json:"companies"`
}

// MemoryBank is the append-only long-term log of predictions and profiles.
type MemoryBank interface {
	SaveEmissionRecord(ctx context.Context, record MemoryRecord) error
	SaveProfile(ctx context.Context, name string, profile CompanyProfile) error
	Stats(ctx context.Context) (MemoryStats, error)
}
