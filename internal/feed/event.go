// Package feed propagates patient changes between board instances and out to
// connected browsers.
package feed

import (
	"time"

	"github.com/wolfman30/herbal-board/internal/patients"
)

// EventType is the kind of change.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is one change to one record. Patient is nil for deletes.
type Event struct {
	Type      EventType         `json:"type"`
	OwnerKey  string            `json:"owner_key"`
	PatientID string            `json:"patient_id"`
	Patient   *patients.Patient `json:"patient,omitempty"`
	// Origin is the instance that made the change.
	Origin string `json:"origin"`
	// Token identifies the write, so its issuer can recognise the echo.
	Token string    `json:"token,omitempty"`
	At    time.Time `json:"at"`
}
