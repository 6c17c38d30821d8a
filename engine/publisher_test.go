package engine

import (
	"testing"

	"nurifarm/models"
)

func TestPublisherDeliversInOrder(t *testing.T) {
	p := NewPublisher(nil)
	if p.Latest() != nil {
		t.Fatalf("latest before publish should be nil")
	}

	var order []string
	p.Subscribe(func(*models.Snapshot) { order = append(order, "a") })
	p.Subscribe(func(*models.Snapshot) { order = append(order, "b") })

	s := &models.Snapshot{Sequence: 7}
	p.Publish(s)

	if p.Latest() != s {
		t.Fatalf("latest not updated")
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("delivery order=%v want [a b]", order)
	}
}

func TestPublisherSurvivesPanickingSubscriber(t *testing.T) {
	p := NewPublisher(nil)
	delivered := 0
	p.Subscribe(func(*models.Snapshot) { panic("boom") })
	p.Subscribe(func(*models.Snapshot) { delivered++ })

	p.Publish(&models.Snapshot{Sequence: 1})
	p.Publish(&models.Snapshot{Sequence: 2})

	if delivered != 2 {
		t.Fatalf("delivered=%d want 2", delivered)
	}
}

func TestPublisherUnsubscribeFromCallback(t *testing.T) {
	p := NewPublisher(nil)
	calls := 0
	var unsubscribe func()
	unsubscribe = p.Subscribe(func(*models.Snapshot) {
		calls++
		unsubscribe()
	})

	for i := uint64(1); i <= 3; i++ {
		p.Publish(&models.Snapshot{Sequence: i})
	}
	if calls != 1 {
		t.Fatalf("calls=%d want 1", calls)
	}
	if p.Subscribers() != 0 {
		t.Fatalf("subscribers=%d want 0", p.Subscribers())
	}
}
