package bot

import (
	"context"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/da1suk8/donation-demo/internal/chain"
	"github.com/da1suk8/donation-demo/internal/config"
	"github.com/da1suk8/donation-demo/internal/kaiawallet"
	"github.com/da1suk8/donation-demo/internal/realtime"
	"github.com/da1suk8/donation-demo/internal/server"
	"github.com/da1suk8/donation-demo/internal/wallet"
	"github.com/da1suk8/donation-demo/internal/walletconnect"
	"github.com/da1suk8/donation-demo/pkg/log"
)

const (
	cmdConnect     = "/connect"
	cmdMyWallet    = "/my_wallet"
	cmdSendTx      = "/send_tx"
	cmdDonate      = "/donate"
	cmdProjectList = "/project_list"
	cmdDisconnect  = "/disconnect"

	kakaoChannel  = "kakao"
	returnChannel = "return"
	returnEvent   = "return"
)

// responder is the outbound side of the chat transport.
type responder interface {
	Broadcast(channel, event string, payload interface{}) error
}

// gasOracle reads gas parameters for session transactions.
type gasOracle interface {
	GasPrice(ctx context.Context) (string, error)
	EstimateGas(ctx context.Context, msg *chain.CallMsg) (string, error)
}

// Bot routes inbound chat events to wallet commands and conversation
// flows. One logical worker handles each inbound event; users are
// independent of each other.
type Bot struct {
	cfg           *config.Configuration
	rt            *realtime.Client
	responses     responder
	registry      *wallet.Registry
	conversations *conversations
	kaia          *kaiawallet.Client
	chain         gasOracle
	qrs           *server.QRStore

	sessionsMu sync.Mutex
	sessions   map[string]*walletconnect.Client

	commands map[string]func(ctx context.Context, ev *inboundEvent)
}

func New(cfg *config.Configuration, rt *realtime.Client, chainClient gasOracle, qrs *server.QRStore) *Bot {
	b := &Bot{
		cfg:           cfg,
		rt:            rt,
		responses:     rt,
		registry:      wallet.NewRegistry(),
		conversations: newConversations(),
		kaia: kaiawallet.NewClient(
			cfg.KaiaWallet.APIURL,
			cfg.KaiaWallet.BappName,
			cfg.Chain.ID,
			kaiawallet.WithPolling(cfg.KaiaWallet.PollMaxAttempts, cfg.KaiaWallet.PollInterval()),
		),
		chain:    chainClient,
		qrs:      qrs,
		sessions: make(map[string]*walletconnect.Client),
	}
	b.commands = map[string]func(ctx context.Context, ev *inboundEvent){
		cmdConnect:     b.handleConnect,
		cmdMyWallet:    b.handleMyWallet,
		cmdSendTx:      b.handleInitiateSend,
		cmdDonate:      b.handleInitiateDonate,
		cmdProjectList: b.handleProjectList,
		cmdDisconnect:  b.handleDisconnect,
	}
	return b
}

// Start registers the inbound channels and launches the realtime
// transport.
func (b *Bot) Start(ctx context.Context) {
	for _, channel := range b.cfg.Realtime.Channels {
		switch channel {
		case kakaoChannel:
			b.rt.On(kakaoChannel, func(payload gjson.Result) {
				b.handleEvent(ctx, payload)
			})
		default:
			log.Warnf("ignoring unsupported realtime channel %v", channel)
		}
	}
	b.rt.Join(returnChannel)
	go b.rt.Start(ctx)
}

// inboundEvent is one parsed chat event. Command is set only for
// events arriving through a command block; free text never becomes a
// command while a flow is collecting input.
type inboundEvent struct {
	userID  string
	text    string
	command string
}

func (b *Bot) parseEvent(payload gjson.Result) *inboundEvent {
	ev := &inboundEvent{
		userID: payload.Get("userRequest.user.id").String(),
		text:   strings.TrimSpace(payload.Get("userRequest.utterance").String()),
	}
	if block := payload.Get("userRequest.block.name").String(); b.commands[block] != nil {
		ev.command = block
	}
	return ev
}

func (b *Bot) handleEvent(ctx context.Context, payload gjson.Result) {
	ev := b.parseEvent(payload)
	if ev.userID == "" {
		log.Warnf("dropping event without user id: %v", payload.Raw)
		return
	}
	// Command blocks route directly and supersede any active flow.
	if ev.command != "" {
		b.commands[ev.command](ctx, ev)
		return
	}
	// While a flow is active every message is input for it.
	if b.conversations.Active(ev.userID) {
		b.continueConversation(ctx, ev)
		return
	}
	if handler := b.commands[ev.text]; handler != nil {
		handler(ctx, ev)
		return
	}
	b.showCommands()
}

func (b *Bot) continueConversation(ctx context.Context, ev *inboundEvent) {
	adv := b.conversations.Advance(ev.userID, ev.text)
	switch adv.kind {
	case advancePrompt:
		b.replyText(adv.prompt)
	case advanceDispatchSend:
		b.dispatchSend(ctx, ev.userID, adv.address, adv.amount)
		b.showCommands()
	case advanceDispatchDonate:
		b.dispatchDonate(ctx, ev.userID, adv.projectID, adv.amount)
		b.showCommands()
	case advanceCorrupted:
		log.Errorf("corrupted conversation state for user %v", ev.userID)
		b.replyText(msgGenericError)
		b.showCommands()
	default:
		b.showCommands()
	}
}

// session returns the live session client bound to the user, if any.
func (b *Bot) session(userID string) *walletconnect.Client {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()
	return b.sessions[userID]
}

func (b *Bot) putSession(userID string, client *walletconnect.Client) {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()
	if old := b.sessions[userID]; old != nil {
		old.Close()
	}
	b.sessions[userID] = client
}

func (b *Bot) takeSession(userID string) *walletconnect.Client {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()
	client := b.sessions[userID]
	delete(b.sessions, userID)
	return client
}

// liveBinding returns the user's binding, clearing session bindings
// whose underlying session client is gone.
func (b *Bot) liveBinding(userID string) *wallet.Binding {
	binding := b.registry.Get(userID)
	if binding == nil {
		return nil
	}
	if binding.Kind == wallet.KindSession && b.session(userID) == nil {
		log.Warnf("session for user %v is gone, clearing binding", userID)
		b.registry.Remove(userID)
		return nil
	}
	return binding
}

// dropBinding removes every trace of the user's wallet.
func (b *Bot) dropBinding(userID string) {
	if client := b.takeSession(userID); client != nil {
		client.Close()
	}
	b.registry.Remove(userID)
}
