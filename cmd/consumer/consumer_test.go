package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSink implements StatusSink for tests
type fakeSink struct {
	fail  int // number of times to fail HSet before succeeding
	calls int
	last  map[string]interface{}
}

func (f *fakeSink) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	f.calls++
	if f.calls <= f.fail {
		return errors.New("hset fail")
	}
	f.last = values
	return nil
}

func acceptedEvent() *orderEvent {
	var evt orderEvent
	evt.Type = "order:accepted"
	evt.Data.OrderID = "o-1"
	evt.Data.DriverID = "d-1"
	return &evt
}

func TestMirrorWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeSink{fail: 1}
	ctx := context.Background()
	start := time.Now()
	if err := mirrorWithRetry(ctx, f, acceptedEvent(), "accepted", 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls < 2 {
		t.Fatalf("expected retries, got calls=%d", f.calls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
	if f.last["status"] != "accepted" || f.last["driver_id"] != "d-1" {
		t.Fatalf("mirrored values = %v", f.last)
	}
}

func TestMirrorWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeSink{fail: 5}
	ctx := context.Background()
	if err := mirrorWithRetry(ctx, f, acceptedEvent(), "accepted", 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}

func TestStatusForEvent(t *testing.T) {
	cases := map[string]string{
		"order:created":     "pending",
		"order:accepted":    "accepted",
		"order:in_progress": "in_progress",
		"order:completed":   "completed",
	}
	for evt, want := range cases {
		got, ok := statusForEvent(evt)
		if !ok || got != want {
			t.Errorf("statusForEvent(%s) = %q,%v, want %q", evt, got, ok, want)
		}
	}
	if _, ok := statusForEvent("p2p:keyExchange"); ok {
		t.Error("relay events must not be mirrored")
	}
}
