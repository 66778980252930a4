package auditlog

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestEventValidate(t *testing.T) {
	base := Event{
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Actor:      "alice",
		Action:     "run.submitted",
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	tests := []struct {
		name   string
		mutate func(*Event)
		want   string
	}{
		{"zero time", func(e *Event) { e.OccurredAt = time.Time{} }, "OccurredAt"},
		{"blank actor", func(e *Event) { e.Actor = "  " }, "Actor"},
		{"blank action", func(e *Event) { e.Action = "" }, "Action"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := base
			tt.mutate(&event)
			err := event.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() = %v, want error mentioning %s", err, tt.want)
			}
		})
	}
}

func TestChecksumDeterministic(t *testing.T) {
	event := Event{
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Actor:      "alice",
		Action:     "run.finished",
		RunID:      "0194f6a2-0000-7000-8000-000000000001",
		RequestID:  "req-1",
		IP:         net.ParseIP("10.0.0.9"),
		UserAgent:  "curl/8.0",
	}
	detail := []byte(`{"exit_status":0}`)

	first := Checksum(event, detail)
	second := Checksum(event, detail)
	if first != second {
		t.Fatalf("checksum not deterministic: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("checksum length = %d, want 64 hex chars", len(first))
	}
}

func TestChecksumFieldBoundaries(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := Event{OccurredAt: at, Actor: "alice", Action: "run.submitted", RunID: "ab"}
	b := Event{OccurredAt: at, Actor: "alice", Action: "run.submitteda", RunID: "b"}
	if Checksum(a, nil) == Checksum(b, nil) {
		t.Fatal("shifting content between adjacent fields must change the checksum")
	}

	c := a
	c.RunID = "ac"
	if Checksum(a, nil) == Checksum(c, nil) {
		t.Fatal("changing a single field must change the checksum")
	}
}
