package bot

import (
	"context"
	"net/url"
	"strings"

	"github.com/da1suk8/donation-demo/internal/kaiawallet"
	"github.com/da1suk8/donation-demo/internal/kakao"
	"github.com/da1suk8/donation-demo/internal/wallet"
	"github.com/da1suk8/donation-demo/internal/walletconnect"
	"github.com/da1suk8/donation-demo/pkg/errors"
	"github.com/da1suk8/donation-demo/pkg/log"
)

// handleConnect links a wallet by racing the session pairing against
// the custodial auth flow. The command layer owns the precondition: a
// user with a binding never reaches the race.
func (b *Bot) handleConnect(ctx context.Context, ev *inboundEvent) {
	if binding := b.liveBinding(ev.userID); binding != nil {
		b.replyTextf(msgAlreadyConnected, binding.DisplayName(), binding.Address)
		b.showCommands()
		return
	}

	wcClient := walletconnect.NewClient(walletconnect.Config{
		BridgeURL: b.cfg.WalletConnect.BridgeURL,
		ChainID:   b.cfg.Chain.ID,
		Meta: walletconnect.ClientMeta{
			Name:        b.cfg.WalletConnect.Name,
			Description: b.cfg.WalletConnect.Description,
			URL:         b.cfg.WalletConnect.URL,
		},
	})
	pairingURI, err := wcClient.Pair(ctx)
	if err != nil {
		log.Error(errors.Wrap(err, "pair session wallet"))
		b.replyText(msgConnectFailed)
		return
	}

	requestKey, err := b.kaia.PrepareAuth(ctx)
	if err != nil {
		log.Error(errors.Wrap(err, "prepare custodial auth"))
		wcClient.Close()
		b.replyText(msgConnectFailed)
		return
	}
	log.Debugf("connect user %v: pairing uri %v, auth request key %v", ev.userID, pairingURI, requestKey)

	b.replyCard(b.walletChoiceCard(pairingURI, requestKey))

	outcome := raceConnect(ctx, b.cfg.Connect.Timeout(),
		b.sessionPath(wcClient, ev.userID),
		b.custodialPath(requestKey, ev.userID),
	)
	log.Infof("connect race for user %v resolved: %v", ev.userID, outcome)

	switch outcome {
	case outcomeSuccess:
		b.reportConnected(ev.userID)
	case outcomeCanceled:
		wcClient.Close()
		b.replyText(msgConnectCanceled)
	case outcomeTimeout:
		wcClient.Close()
		b.replyText(msgConnectTimeout)
	default:
		wcClient.Close()
		b.replyText(msgConnectFailed)
	}
}

// sessionPath waits for the peer wallet to approve the pairing.
func (b *Bot) sessionPath(client *walletconnect.Client, userID string) connectPath {
	return func(ctx context.Context) (connectOutcome, func() error) {
		session, err := client.AwaitApproval(ctx)
		if err != nil {
			// The bridge socket has no further use whether the wallet
			// declined, the read failed, or the race resolved on the
			// custodial path.
			client.Close()
			if errors.Is(err, walletconnect.ErrSessionRejected) {
				return outcomeCanceled, nil
			}
			if ctx.Err() == nil {
				log.Warnf("session connection for user %v: %v", userID, err)
			}
			return outcomeError, nil
		}
		binding := &wallet.Binding{
			Kind:    wallet.KindSession,
			Address: accountAddress(session.Address, b.cfg.Chain.CAIP2()),
			Topic:   session.Topic,
			Peer: wallet.PeerMeta{
				Name:        session.Peer.Name,
				Description: session.Peer.Description,
				URL:         session.Peer.URL,
				Icons:       session.Peer.Icons,
			},
		}
		return outcomeSuccess, func() error {
			b.putSession(userID, client)
			return b.registry.Put(userID, binding)
		}
	}
}

// custodialPath polls the custodial auth request until it settles.
func (b *Bot) custodialPath(requestKey, userID string) connectPath {
	return func(ctx context.Context) (connectOutcome, func() error) {
		result, err := b.kaia.PollResult(ctx, requestKey)
		if err != nil {
			if ctx.Err() == nil {
				log.Warnf("custodial connection for user %v: %v", userID, err)
			}
			return outcomeError, nil
		}
		// A nil result means the poll budget ran out: unknown, not
		// canceled.
		if result == nil {
			return outcomeError, nil
		}
		switch result.Status {
		case kaiawallet.StatusCompleted:
			if result.Type != kaiawallet.RequestTypeAuth || result.Result.KlaytnAddress == "" {
				log.Warnf("custodial auth for user %v completed with unexpected payload: %+v", userID, result)
				return outcomeError, nil
			}
			binding := &wallet.Binding{
				Kind:    wallet.KindCustodial,
				Address: result.Result.KlaytnAddress,
			}
			return outcomeSuccess, func() error {
				return b.registry.Put(userID, binding)
			}
		case kaiawallet.StatusCanceled:
			return outcomeCanceled, nil
		default:
			return outcomeError, nil
		}
	}
}

func (b *Bot) reportConnected(userID string) {
	binding := b.registry.Get(userID)
	if binding == nil {
		log.Errorf("connect race won for user %v but no binding present", userID)
		b.replyText(msgConnectFailed)
		return
	}
	b.replyText(msgConnectSuccess)
	b.replyTextf(msgConnectedAs, binding.DisplayName(), binding.Address)
}

// walletChoiceCard shows both connection options in one card: the
// session wallets through their deep links plus the pairing QR, and
// the custodial wallet through its request deep link.
func (b *Bot) walletChoiceCard(pairingURI, requestKey string) kakao.Output {
	thumbnail := walletThumbnailURL
	if qrID, err := b.qrs.Put(pairingURI); err == nil && b.cfg.Server.PublicURL != "" {
		thumbnail = b.cfg.Server.PublicURL + "/qr/" + qrID
	}
	buttons := []kakao.Button{
		kakao.WebLink("Metamask",
			b.cfg.MiniWallet.CompactURL+"/open/wallet/?url="+
				url.QueryEscape("metamask://wc?uri="+url.QueryEscape(pairingURI))),
		kakao.WebLink("Mini Wallet",
			b.cfg.MiniWallet.TallURL+"/wc/?uri="+url.QueryEscape(pairingURI)),
		kakao.WebLink("Kaikas", b.kaia.DeepLink(requestKey)),
	}
	return kakao.BasicCard(msgChooseWallet, thumbnail, buttons...)
}

// accountAddress strips a chain-qualified account like
// "eip155:1001:0xabc" down to its address part. The configured chain
// identity is matched first; other qualifications fall back to the
// last segment.
func accountAddress(account, caip2 string) string {
	if prefix := caip2 + ":"; strings.HasPrefix(account, prefix) {
		return strings.TrimPrefix(account, prefix)
	}
	if idx := strings.LastIndex(account, ":"); idx >= 0 {
		return account[idx+1:]
	}
	return account
}
