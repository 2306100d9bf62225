package events

import (
	"encoding/json"
	"time"
)

type Kind string

const (
	SourceIngestedKind   Kind = "inventory.advisor.source.ingested"
	SourceDeletedKind    Kind = "inventory.advisor.source.deleted"
	SnapshotReloadedKind Kind = "inventory.advisor.snapshot.reloaded"

	eventSource  string = "inventory.advisor"
	defaultTopic string = "inventory.advisor.events"
)

// Event is one inventory lifecycle notification. Data holds the JSON
// encoded payload.
type Event struct {
	ID     string          `json:"id"`
	Kind   Kind            `json:"kind"`
	Source string          `json:"source"`
	Time   time.Time       `json:"time"`
	Data   json.RawMessage `json:"data"`
}

type SourceEvent struct {
	Name     string `json:"name"`
	FileName string `json:"file_name,omitempty"`
	Checksum string `json:"checksum,omitempty"`
	Rows     int    `json:"rows,omitempty"`
	Epoch    uint64 `json:"epoch"`
}

type ReloadEvent struct {
	Epoch   uint64 `json:"epoch"`
	Sources int    `json:"sources"`
}
