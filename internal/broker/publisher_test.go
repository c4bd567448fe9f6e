package broker

import (
	"testing"

	"github.com/patchbay-vj/patchbay/internal/models"
)

func TestFilter_Matches(t *testing.T) {
	tab1 := 1

	tests := []struct {
		name   string
		filter Filter
		change models.Change
		want   bool
	}{
		{
			name:   "empty filter matches everything",
			filter: Filter{},
			change: models.NewChange(models.ChangeTypeMixer, 0, 0),
			want:   true,
		},
		{
			name:   "type match",
			filter: Filter{Types: []models.ChangeType{models.ChangeTypeSlotParams}},
			change: models.NewChange(models.ChangeTypeSlotParams, 0, 0),
			want:   true,
		},
		{
			name:   "type mismatch",
			filter: Filter{Types: []models.ChangeType{models.ChangeTypeSlotParams}},
			change: models.NewChange(models.ChangeTypeMixer, 0, 0),
		},
		{
			name:   "tab match",
			filter: Filter{Tab: &tab1},
			change: models.NewChange(models.ChangeTypeSlotContent, 1, 0),
			want:   true,
		},
		{
			name:   "tab mismatch",
			filter: Filter{Tab: &tab1},
			change: models.NewChange(models.ChangeTypeSlotContent, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.change); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPublisher_SubscribePublish(t *testing.T) {
	p := NewPublisher()
	defer p.Close()

	var got []models.Change
	err := p.Subscribe("test", Filter{Types: []models.ChangeType{models.ChangeTypeMixer}}, func(c models.Change) {
		got = append(got, c)
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	p.Publish(models.NewChange(models.ChangeTypeMixer, 0, 0))
	p.Publish(models.NewChange(models.ChangeTypeSlotParams, 0, 0))

	if len(got) != 1 {
		t.Errorf("handler saw %d changes, want 1", len(got))
	}
}

func TestPublisher_SubscribeErrors(t *testing.T) {
	p := NewPublisher()
	defer p.Close()

	handler := func(models.Change) {}

	if err := p.Subscribe("", Filter{}, handler); err != ErrInvalidSubscriptionID {
		t.Errorf("empty id error = %v", err)
	}
	if err := p.Subscribe("x", Filter{}, nil); err != ErrNilHandler {
		t.Errorf("nil handler error = %v", err)
	}
	if err := p.Subscribe("x", Filter{}, handler); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := p.Subscribe("x", Filter{}, handler); err != ErrSubscriptionExists {
		t.Errorf("duplicate id error = %v", err)
	}
}

func TestPublisher_Unsubscribe(t *testing.T) {
	p := NewPublisher()
	defer p.Close()

	p.Subscribe("x", Filter{}, func(models.Change) {})
	if p.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d", p.SubscriberCount())
	}

	if err := p.Unsubscribe("x"); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if err := p.Unsubscribe("x"); err != ErrSubscriptionNotFound {
		t.Errorf("second unsubscribe error = %v", err)
	}
	if p.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", p.SubscriberCount())
	}
}
