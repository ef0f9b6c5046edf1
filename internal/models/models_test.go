package models

import "testing"

func TestOrderStatusNext(t *testing.T) {
	cases := []struct {
		from OrderStatus
		want OrderStatus
	}{
		{OrderPending, OrderAccepted},
		{OrderAccepted, OrderInProgress},
		{OrderInProgress, OrderCompleted},
		{OrderCompleted, ""},
		{"bogus", ""},
	}
	for _, tc := range cases {
		if got := tc.from.Next(); got != tc.want {
			t.Errorf("Next(%q) = %q, want %q", tc.from, got, tc.want)
		}
	}
}

func TestOrderStatusChainTerminates(t *testing.T) {
	s := OrderPending
	steps := 0
	for s != "" {
		s = s.Next()
		steps++
		if steps > 10 {
			t.Fatal("status chain does not terminate")
		}
	}
	if steps != 4 {
		t.Fatalf("chain length = %d, want 4", steps)
	}
}
