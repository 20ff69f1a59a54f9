package bot

import (
	"sync"
)

// step is the position of a user inside a multi-turn flow.
type step int

const (
	stepWaitingForAddress step = iota + 1
	stepWaitingForAmount
	stepWaitingForProjectID
	stepWaitingForDonationAmount
)

// conversation collects the inputs of one in-flight flow.
type conversation struct {
	step      step
	address   string
	amount    string
	projectID string
}

type advanceKind int

const (
	// advanceNone: the user has no active flow; the message is not
	// conversation input.
	advanceNone advanceKind = iota
	// advancePrompt: input accepted, flow moved to the next step.
	advancePrompt
	// advanceDispatchSend: the send flow is complete; dispatch it.
	advanceDispatchSend
	// advanceDispatchDonate: the donate flow is complete; dispatch it.
	advanceDispatchDonate
	// advanceCorrupted: the stored step was unrecognized; state has
	// been cleared.
	advanceCorrupted
)

// advance is the state machine's instruction to the command layer.
// For the dispatch kinds the user's state is already cleared: whatever
// dispatch does, the user is never left mid-flow.
type advance struct {
	kind      advanceKind
	prompt    string
	address   string
	amount    string
	projectID string
}

// conversations tracks at most one active flow per user. All access is
// serialized under the manager lock, so two concurrent messages from
// the same user never race a read-modify-write.
type conversations struct {
	mu     sync.Mutex
	active map[string]*conversation
}

func newConversations() *conversations {
	return &conversations{
		active: make(map[string]*conversation),
	}
}

// Begin starts a flow at the given step, overwriting any stale flow the
// user had.
func (c *conversations) Begin(userID string, s step) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active[userID] = &conversation{step: s}
}

// Active reports whether the user is mid-flow.
func (c *conversations) Active(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active[userID] != nil
}

// Clear drops the user's flow, if any.
func (c *conversations) Clear(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, userID)
}

// Advance feeds one inbound message into the user's flow. The message
// is always interpreted as the value the current step asks for.
func (c *conversations) Advance(userID, text string) advance {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.active[userID]
	if state == nil {
		return advance{kind: advanceNone}
	}
	switch state.step {
	case stepWaitingForAddress:
		state.address = text
		state.step = stepWaitingForAmount
		return advance{kind: advancePrompt, prompt: msgAskAmount}
	case stepWaitingForAmount:
		state.amount = text
		delete(c.active, userID)
		return advance{
			kind:    advanceDispatchSend,
			address: state.address,
			amount:  state.amount,
		}
	case stepWaitingForProjectID:
		state.projectID = text
		state.step = stepWaitingForDonationAmount
		return advance{kind: advancePrompt, prompt: msgAskDonationAmount}
	case stepWaitingForDonationAmount:
		state.amount = text
		delete(c.active, userID)
		return advance{
			kind:      advanceDispatchDonate,
			projectID: state.projectID,
			amount:    state.amount,
		}
	default:
		// Unrecognized step values mean the state is corrupted; drop
		// it rather than propagate undefined behavior.
		delete(c.active, userID)
		return advance{kind: advanceCorrupted}
	}
}
