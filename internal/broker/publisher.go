// Package broker propagates entity store changes to their consumers: the
// full-screen output process (push) and remote HTTP/WS clients
// (query/response plus command dispatch).
package broker

import (
	"sync"

	"github.com/patchbay-vj/patchbay/internal/models"
)

// ChangeHandler is a callback invoked when a change matches a subscription.
type ChangeHandler func(change models.Change)

// Filter defines criteria for matching changes.
type Filter struct {
	// Types filters by change type (nil = all types).
	Types []models.ChangeType

	// Tab filters to a specific tab index (nil = all tabs).
	Tab *int
}

// Matches returns true if the change matches the filter criteria.
func (f *Filter) Matches(change models.Change) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if change.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Tab != nil && change.Tab != *f.Tab {
		return false
	}
	return true
}

// subscription pairs a filter with its handler.
type subscription struct {
	filter  Filter
	handler ChangeHandler
}

// Publisher fans entity store changes out to subscribers in process.
type Publisher struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
}

// NewPublisher creates an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		subscriptions: make(map[string]*subscription),
	}
}

// Publish delivers a change to every matching subscriber. Handlers run
// synchronously on the publishing goroutine.
func (p *Publisher) Publish(change models.Change) {
	p.mu.RLock()
	handlers := make([]ChangeHandler, 0, len(p.subscriptions))
	for _, sub := range p.subscriptions {
		if sub.filter.Matches(change) {
			handlers = append(handlers, sub.handler)
		}
	}
	p.mu.RUnlock()

	for _, handler := range handlers {
		handler(change)
	}
}

// Subscribe registers a handler for changes matching the filter.
func (p *Publisher) Subscribe(id string, filter Filter, handler ChangeHandler) error {
	if id == "" {
		return ErrInvalidSubscriptionID
	}
	if handler == nil {
		return ErrNilHandler
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; exists {
		return ErrSubscriptionExists
	}
	p.subscriptions[id] = &subscription{filter: filter, handler: handler}
	return nil
}

// Unsubscribe removes a subscription.
func (p *Publisher) Unsubscribe(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; !exists {
		return ErrSubscriptionNotFound
	}
	delete(p.subscriptions, id)
	return nil
}

// SubscriberCount returns the number of active subscribers.
func (p *Publisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscriptions)
}

// Close removes all subscriptions.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriptions = make(map[string]*subscription)
}

// Errors for publisher operations.
var (
	ErrInvalidSubscriptionID = &PublisherError{Message: "subscription ID is required"}
	ErrNilHandler            = &PublisherError{Message: "handler cannot be nil"}
	ErrSubscriptionExists    = &PublisherError{Message: "subscription with this ID already exists"}
	ErrSubscriptionNotFound  = &PublisherError{Message: "subscription not found"}
)

// PublisherError represents an error from publisher operations.
type PublisherError struct {
	Message string
}

func (e *PublisherError) Error() string {
	return e.Message
}
