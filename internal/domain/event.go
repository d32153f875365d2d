package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// EventType names a roster lifecycle change
type EventType string

const (
	EventWorkerCreated EventType = "worker.created"
	EventWorkerDeleted EventType = "worker.deleted"
)

// IsKnown reports whether the engine has a handler for the type
func (t EventType) IsKnown() bool {
	switch t {
	case EventWorkerCreated, EventWorkerDeleted:
		return true
	}
	return false
}

// Event is one unit of change published by the roster. Malformed holds the decode
// error of an entry that arrived in an unexpected shape; such events are rejected.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Workers   []RawWorker `json:"workers"`
	Malformed error       `json:"-"`
}

// RawWorker is the roster's wire shape for a worker; normalized before use
type RawWorker struct {
	ID               RosterID `json:"id"`
	FullName         string   `json:"fullName"`
	NationalIDNumber string   `json:"nationalIdNumber"`
	Phone            string   `json:"phone"`
	Email            string   `json:"email"`
	Gender           string   `json:"gender"`
	FacePhoto        string   `json:"facePhoto"`
	ValidFrom        string   `json:"validFrom"`
	ValidTo          string   `json:"validTo"`
	Status           string   `json:"status"`
	UnitNumber       string   `json:"unitNumber"`
}

// RosterID accepts both JSON strings and numbers; the roster uses either
type RosterID string

func (id *RosterID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("roster id: %w", err)
		}
		*id = RosterID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("roster id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = RosterID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = RosterID(n.String())
	return nil
}

func (id RosterID) String() string {
	return string(id)
}

// Outcome is the single result reported back to the roster per event
type Outcome struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

func Succeeded() Outcome {
	return Outcome{Success: true}
}

func Failed(reason string) Outcome {
	return Outcome{Success: false, Reason: reason}
}
