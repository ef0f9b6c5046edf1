package order

import (
	"errors"
	"testing"

	"github.com/example/privacy-dispatch/internal/models"
)

func TestUpdateRollsBackOnError(t *testing.T) {
	s := NewStore()
	if err := s.Create(models.Order{OrderID: "o-1", Status: models.OrderPending}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	boom := errors.New("boom")
	_, err := s.Update("o-1", func(o *models.Order) error {
		o.Status = models.OrderCompleted
		o.AssignedDriverID = "d-9"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	o, _ := s.Get("o-1")
	if o.Status != models.OrderPending || o.AssignedDriverID != "" {
		t.Fatalf("failed update leaked state: %+v", o)
	}
}

func TestUpdateUnknownOrder(t *testing.T) {
	s := NewStore()
	if _, err := s.Update("ghost", func(*models.Order) error { return nil }); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}
