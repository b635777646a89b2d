package archive

import (
	"time"

	"github.com/wolfman30/herbal-board/internal/patients"
)

// SnapshotVersion is the layout version of exported snapshots.
const SnapshotVersion = "1"

// Snapshot is a full export of one board.
type Snapshot struct {
	Version    string              `json:"version"`
	OwnerKey   string              `json:"owner_key"`
	ExportedAt time.Time           `json:"exported_at"`
	Counts     patients.TabCounts  `json:"counts"`
	Patients   []*patients.Patient `json:"patients"`
}

// NewSnapshot builds a snapshot of list taken at now.
func NewSnapshot(owner string, list []*patients.Patient, now time.Time) *Snapshot {
	if list == nil {
		list = []*patients.Patient{}
	}
	return &Snapshot{
		Version:    SnapshotVersion,
		OwnerKey:   owner,
		ExportedAt: now.UTC(),
		Counts:     patients.CountTabs(list),
		Patients:   list,
	}
}

// ManifestEntry is one JSONL line in the monthly manifest file.
type ManifestEntry struct {
	OwnerKey   string `json:"owner_key"`
	S3Key      string `json:"s3_key"`
	Patients   int    `json:"patients"`
	Active     int    `json:"active"`
	ExportedAt string `json:"exported_at"`
}
