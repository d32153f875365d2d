package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRosterID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want RosterID
	}{
		{"string id", `{"id":"w-17"}`, "w-17"},
		{"integer id", `{"id":123}`, "123"},
		{"large integer id", `{"id":29801011234567}`, "29801011234567"},
		{"null id", `{"id":null}`, ""},
		{"missing id", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w RawWorker
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &w))
			assert.Equal(t, tt.want, w.ID)
		})
	}
}

func TestRosterID_UnmarshalJSON_Invalid(t *testing.T) {
	var w RawWorker
	err := json.Unmarshal([]byte(`{"id":{"nested":true}}`), &w)
	assert.Error(t, err)
}

func TestEvent_DecodesRosterShape(t *testing.T) {
	raw := `{
		"id": "evt-1",
		"type": "worker.created",
		"workers": [{
			"id": 42,
			"fullName": "Ali Hassan",
			"nationalIdNumber": "123",
			"facePhoto": "https://cdn.example.com/42.jpg",
			"validFrom": "2024-01-01",
			"validTo": "2025-01-01",
			"status": "active",
			"unitNumber": "B-12"
		}]
	}`

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))

	assert.Equal(t, "evt-1", ev.ID)
	assert.Equal(t, EventWorkerCreated, ev.Type)
	require.Len(t, ev.Workers, 1)
	assert.Equal(t, RosterID("42"), ev.Workers[0].ID)
	assert.Equal(t, "Ali Hassan", ev.Workers[0].FullName)
	assert.Equal(t, "B-12", ev.Workers[0].UnitNumber)
}

func TestEventType_IsKnown(t *testing.T) {
	assert.True(t, EventWorkerCreated.IsKnown())
	assert.True(t, EventWorkerDeleted.IsKnown())
	assert.False(t, EventType("worker.renamed").IsKnown())
	assert.False(t, EventType("").IsKnown())
}
