package bot

import (
	"context"

	"github.com/da1suk8/donation-demo/internal/kakao"
	"github.com/da1suk8/donation-demo/internal/wallet"
	"github.com/da1suk8/donation-demo/pkg/errors"
	"github.com/da1suk8/donation-demo/pkg/log"
)

func (b *Bot) handleMyWallet(ctx context.Context, ev *inboundEvent) {
	binding := b.liveBinding(ev.userID)
	if binding == nil {
		b.replyText(msgNotConnected)
		b.showCommands()
		return
	}
	b.replyTextf(msgWalletInfo, binding.DisplayName(), binding.Address)
}

func (b *Bot) handleDisconnect(ctx context.Context, ev *inboundEvent) {
	binding := b.registry.Get(ev.userID)
	if binding == nil {
		b.replyText(msgNotConnected)
		b.showCommands()
		return
	}
	if binding.Kind == wallet.KindSession {
		if client := b.takeSession(ev.userID); client != nil {
			if err := client.Disconnect("user disconnected"); err != nil {
				log.Error(errors.Wrap(err, "disconnect wallet session"))
				b.registry.Remove(ev.userID)
				b.replyText(msgDisconnectError)
				return
			}
		}
	}
	b.registry.Remove(ev.userID)
	b.replyText(msgDisconnected)
}

func (b *Bot) handleProjectList(ctx context.Context, ev *inboundEvent) {
	b.replyCard(kakao.BasicCard(msgProjectList, projectThumbnailURL,
		kakao.WebLink("Open web page", b.cfg.Donation.ProjectListURL),
	))
}

// handleInitiateSend opens the send flow. Flow entry requires a
// binding; without one the user gets the command menu instead of a
// dangling conversation.
func (b *Bot) handleInitiateSend(ctx context.Context, ev *inboundEvent) {
	if b.liveBinding(ev.userID) == nil {
		b.replyText(msgConnectToSend)
		b.showCommands()
		return
	}
	b.conversations.Begin(ev.userID, stepWaitingForAddress)
	b.replyText(msgAskAddress)
}

// handleInitiateDonate opens the donate flow.
func (b *Bot) handleInitiateDonate(ctx context.Context, ev *inboundEvent) {
	if b.liveBinding(ev.userID) == nil {
		b.replyText(msgConnectToDonate)
		b.showCommands()
		return
	}
	b.conversations.Begin(ev.userID, stepWaitingForProjectID)
	b.replyText(msgAskProjectID)
}
