package events

import (
	"encoding/json"
	"testing"
)

func TestHubEmitAndUnsubscribe(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Emit(TypeTransition, Transition{ApplicationID: "a1", From: "queued", To: "started"})

	var e Event
	if err := json.Unmarshal([]byte(<-ch), &e); err != nil {
		t.Fatal(err)
	}
	if e.Type != TypeTransition || e.Version != 1 {
		t.Fatalf("unexpected event %+v", e)
	}
	var tr Transition
	if err := json.Unmarshal(e.Data, &tr); err != nil || tr.To != "started" {
		t.Fatalf("payload: %+v %v", tr, err)
	}

	h.Unsubscribe(ch)
	h.Unsubscribe(ch) // second call is a no-op
	if h.Subscribers() != 0 {
		t.Fatalf("subscriber leaked")
	}
	h.Emit(TypeRunStarted, nil)
}

func TestNilHubIsSafe(t *testing.T) {
	var h *Hub
	h.Emit(TypeRunFinished, map[string]int{"n": 1})
}
