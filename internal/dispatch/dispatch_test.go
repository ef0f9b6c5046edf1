package dispatch

import (
	"errors"
	"testing"
)

type countingPublisher struct {
	events []Event
	err    error
}

func (c *countingPublisher) Publish(evt Event) error {
	c.events = append(c.events, evt)
	return c.err
}

func TestFanoutReachesEveryPublisher(t *testing.T) {
	a := &countingPublisher{}
	b := &countingPublisher{err: errors.New("transport down")}
	c := &countingPublisher{}
	f := Fanout{a, b, c}

	if err := f.Publish(Event{Type: EventOrderCreated}); err != nil {
		t.Fatalf("fan-out must be best-effort, got %v", err)
	}
	for i, p := range []*countingPublisher{a, b, c} {
		if len(p.events) != 1 {
			t.Fatalf("publisher %d saw %d events, want 1", i, len(p.events))
		}
	}
}

func TestFanoutPreservesTarget(t *testing.T) {
	a := &countingPublisher{}
	f := Fanout{a}
	_ = f.Publish(Event{Type: EventInitiateKeyExchange, Target: "d-1"})
	if a.events[0].Target != "d-1" {
		t.Fatalf("target lost in fan-out: %+v", a.events[0])
	}
}
