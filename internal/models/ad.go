package models

import (
	"encoding/json"
	"time"
)

// Ad is an advertising-creative record owned by a business
type Ad struct {
	ID           string          `json:"id" badgerhold:"key"` // Deterministic dedup key
	BusinessID   string          `json:"business_id" badgerhold:"index"`
	SourceID     string          `json:"source_id,omitempty"`
	PageName     string          `json:"page_name,omitempty"`
	CreativeBody string          `json:"creative_body,omitempty"`
	CreativeText string          `json:"creative_text,omitempty"` // Normalized body used for dedup
	SnapshotURL  string          `json:"snapshot_url,omitempty"`
	Raw          json.RawMessage `json:"raw,omitempty"` // Original record as submitted
	ImportTaskID string          `json:"import_task_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
