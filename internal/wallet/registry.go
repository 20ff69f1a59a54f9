package wallet

import (
	"sync"

	"github.com/da1suk8/donation-demo/pkg/errors"
	"github.com/da1suk8/donation-demo/pkg/log"
)

var (
	// ErrInvalidBinding rejects bindings that break the kind/topic
	// invariant before they ever reach the registry.
	ErrInvalidBinding = errors.New("invalid wallet binding")
)

// Registry maps user ids to the single wallet binding each user may
// hold. State is process-lifetime only; a restart drops every binding.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]*Binding
}

func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]*Binding),
	}
}

// Get returns the user's binding, or nil when none is linked.
func (r *Registry) Get(userID string) *Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bindings[userID]
}

// Put stores the user's binding, replacing any previous one.
func (r *Registry) Put(userID string, binding *Binding) error {
	if binding == nil || !binding.Valid() {
		return ErrInvalidBinding
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[userID] = binding
	return nil
}

// Remove drops the user's binding and returns it, or nil when the user
// had none.
func (r *Registry) Remove(userID string) *Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	binding := r.bindings[userID]
	if binding != nil {
		log.Debugf("removing wallet binding for user %v", userID)
		delete(r.bindings, userID)
	}
	return binding
}

// UserByTopic finds the user holding the session binding with the given
// topic. Used to tear down bindings when the peer closes the session.
func (r *Registry) UserByTopic(topic string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for userID, binding := range r.bindings {
		if binding.Kind == KindSession && binding.Topic == topic {
			return userID, true
		}
	}
	return "", false
}
