package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationSendFlow(t *testing.T) {
	convs := newConversations()
	convs.Begin("user1", stepWaitingForAddress)
	require.True(t, convs.Active("user1"))

	adv := convs.Advance("user1", "0xabc0000000000000000000000000000000000001")
	assert.Equal(t, advancePrompt, adv.kind)
	assert.Equal(t, msgAskAmount, adv.prompt)
	assert.True(t, convs.Active("user1"))

	adv = convs.Advance("user1", "1.5")
	assert.Equal(t, advanceDispatchSend, adv.kind)
	assert.Equal(t, "0xabc0000000000000000000000000000000000001", adv.address)
	assert.Equal(t, "1.5", adv.amount)

	// The flow ends when dispatch is instructed, whatever dispatch
	// does with the values afterwards.
	assert.False(t, convs.Active("user1"))
	assert.Equal(t, advanceNone, convs.Advance("user1", "more text").kind)
}

func TestConversationDonateFlow(t *testing.T) {
	convs := newConversations()
	convs.Begin("user1", stepWaitingForProjectID)

	adv := convs.Advance("user1", "42")
	assert.Equal(t, advancePrompt, adv.kind)
	assert.Equal(t, msgAskDonationAmount, adv.prompt)

	adv = convs.Advance("user1", "0.5")
	assert.Equal(t, advanceDispatchDonate, adv.kind)
	assert.Equal(t, "42", adv.projectID)
	assert.Equal(t, "0.5", adv.amount)
	assert.False(t, convs.Active("user1"))
}

func TestConversationBeginOverwritesStaleFlow(t *testing.T) {
	convs := newConversations()
	convs.Begin("user1", stepWaitingForAddress)
	convs.Advance("user1", "0xabc")

	// Starting a new flow discards the half-collected send flow.
	convs.Begin("user1", stepWaitingForProjectID)
	adv := convs.Advance("user1", "7")
	assert.Equal(t, advancePrompt, adv.kind)
	assert.Equal(t, msgAskDonationAmount, adv.prompt)
}

func TestConversationUsersAreIndependent(t *testing.T) {
	convs := newConversations()
	convs.Begin("user1", stepWaitingForAddress)
	convs.Begin("user2", stepWaitingForProjectID)

	assert.Equal(t, msgAskAmount, convs.Advance("user1", "0xabc").prompt)
	assert.Equal(t, msgAskDonationAmount, convs.Advance("user2", "3").prompt)
}

func TestConversationClear(t *testing.T) {
	convs := newConversations()
	convs.Begin("user1", stepWaitingForAmount)
	convs.Clear("user1")
	assert.False(t, convs.Active("user1"))
	assert.Equal(t, advanceNone, convs.Advance("user1", "1").kind)
}

func TestConversationCorruptedStateIsDropped(t *testing.T) {
	convs := newConversations()
	convs.Begin("user1", step(99))

	adv := convs.Advance("user1", "anything")
	assert.Equal(t, advanceCorrupted, adv.kind)
	assert.False(t, convs.Active("user1"))
}
