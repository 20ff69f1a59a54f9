package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/da1suk8/donation-demo/internal/config"
	"github.com/da1suk8/donation-demo/internal/kakao"
	"github.com/da1suk8/donation-demo/internal/wallet"
)

// captureResponder records every outbound skill response instead of
// broadcasting it.
type captureResponder struct {
	responses []*kakao.SkillResponse
}

func (c *captureResponder) Broadcast(channel, event string, payload interface{}) error {
	c.responses = append(c.responses, payload.(*kakao.SkillResponse))
	return nil
}

// texts flattens the captured responses into their simple text
// contents, skipping cards.
func (c *captureResponder) texts(t *testing.T) []string {
	var out []string
	for _, resp := range c.responses {
		raw, err := json.Marshal(resp)
		require.NoError(t, err)
		for _, text := range gjson.GetBytes(raw, "template.outputs.#.simpleText.text").Array() {
			out = append(out, text.String())
		}
	}
	return out
}

func (c *captureResponder) reset() {
	c.responses = nil
}

func newTestBot(cfg *config.Configuration) (*Bot, *captureResponder) {
	if cfg == nil {
		cfg = &config.Configuration{}
	}
	capture := &captureResponder{}
	b := New(cfg, nil, nil, nil)
	b.responses = capture
	return b, capture
}

func event(userID, utterance, blockName string) gjson.Result {
	payload := map[string]interface{}{
		"userRequest": map[string]interface{}{
			"user":      map[string]interface{}{"id": userID},
			"utterance": utterance,
			"block":     map[string]interface{}{"name": blockName},
		},
	}
	raw, _ := json.Marshal(payload)
	return gjson.ParseBytes(raw)
}

func TestHandleEventUnknownTextShowsCommands(t *testing.T) {
	b, capture := newTestBot(nil)

	b.handleEvent(context.Background(), event("user1", "hello there", ""))

	require.Len(t, capture.responses, 1)
	assert.Contains(t, capture.texts(t), msgGreeting)
	assert.Len(t, capture.responses[0].Template.QuickReplies, 6)
}

func TestHandleEventDropsMissingUserID(t *testing.T) {
	b, capture := newTestBot(nil)

	b.handleEvent(context.Background(), event("", "/my_wallet", ""))

	assert.Empty(t, capture.responses)
}

func TestHandleEventTextCommandRoutes(t *testing.T) {
	b, capture := newTestBot(nil)

	b.handleEvent(context.Background(), event("user1", "/my_wallet", ""))

	assert.Contains(t, capture.texts(t), msgNotConnected)
}

func TestHandleEventBlockCommandSupersedesFlow(t *testing.T) {
	b, capture := newTestBot(nil)
	require.NoError(t, b.registry.Put("user1", &wallet.Binding{
		Kind: wallet.KindCustodial, Address: "0xabc",
	}))
	b.conversations.Begin("user1", stepWaitingForAddress)

	// A command block press routes to its handler even while a flow is
	// collecting input.
	b.handleEvent(context.Background(), event("user1", "My Wallet", cmdMyWallet))

	texts := capture.texts(t)
	require.Len(t, texts, 1)
	assert.Equal(t, fmt.Sprintf(msgWalletInfo, "Kaia Wallet", "0xabc"), texts[0])
}

func TestHandleEventFreeTextFeedsActiveFlow(t *testing.T) {
	b, capture := newTestBot(nil)
	b.conversations.Begin("user1", stepWaitingForAddress)

	// Free text that looks like a command is still flow input.
	b.handleEvent(context.Background(), event("user1", "/my_wallet", ""))

	assert.Equal(t, []string{msgAskAmount}, capture.texts(t))
	assert.True(t, b.conversations.Active("user1"))
}

func TestConnectRejectedWhileBound(t *testing.T) {
	b, capture := newTestBot(nil)
	require.NoError(t, b.registry.Put("user1", &wallet.Binding{
		Kind: wallet.KindCustodial, Address: "0xabc",
	}))

	// An existing binding rejects the command before any pairing or
	// race work runs; a reached race would dial the bridge and fail
	// loudly here.
	b.handleEvent(context.Background(), event("user1", cmdConnect, ""))

	assert.Contains(t, capture.texts(t),
		fmt.Sprintf(msgAlreadyConnected, "Kaia Wallet", "0xabc"))
	binding := b.registry.Get("user1")
	require.NotNil(t, binding)
	assert.Equal(t, wallet.KindCustodial, binding.Kind)
}

func TestMyWalletClearsGoneSessionBinding(t *testing.T) {
	b, capture := newTestBot(nil)
	// A session binding without a live session client is stale.
	require.NoError(t, b.registry.Put("user1", &wallet.Binding{
		Kind: wallet.KindSession, Address: "0xabc", Topic: "topic1",
	}))

	b.handleEvent(context.Background(), event("user1", "/my_wallet", ""))

	assert.Contains(t, capture.texts(t), msgNotConnected)
	assert.Nil(t, b.registry.Get("user1"))
}

func TestInitiateSendRequiresBinding(t *testing.T) {
	b, capture := newTestBot(nil)

	b.handleEvent(context.Background(), event("user1", cmdSendTx, ""))

	assert.Contains(t, capture.texts(t), msgConnectToSend)
	assert.False(t, b.conversations.Active("user1"))
}

func TestSendFlowEndToEndCustodial(t *testing.T) {
	var prepares, results int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/k/prepare":
			prepares++
			body := readBody(r)
			assert.Equal(t, "send_klay", gjson.Get(body, "type").String())
			assert.Equal(t, "0xrecipient", gjson.Get(body, "transaction.to").String())
			assert.Equal(t, "1.5", gjson.Get(body, "transaction.amount").String())
			fmt.Fprint(w, `{"request_key":"rk-1","status":"prepared","chain_id":"1001"}`)
		default:
			results++
			fmt.Fprint(w, `{"status":"completed","type":"send_klay","request_key":"rk-1","result":{"tx_hash":"0xhash1"}}`)
		}
	}))
	defer server.Close()

	cfg := &config.Configuration{}
	cfg.KaiaWallet.APIURL = server.URL
	cfg.KaiaWallet.BappName = "test-bapp"
	cfg.KaiaWallet.PollMaxAttempts = 3
	cfg.KaiaWallet.PollIntervalMillis = 1
	cfg.Chain.ID = 1001
	cfg.Chain.ExplorerURL = "https://baobab.klaytnscope.com"

	b, capture := newTestBot(cfg)
	require.NoError(t, b.registry.Put("user1", &wallet.Binding{
		Kind: wallet.KindCustodial, Address: "0xsender",
	}))
	b.conversations.Begin("user1", stepWaitingForAddress)

	b.handleEvent(context.Background(), event("user1", "0xrecipient", ""))
	assert.Equal(t, []string{msgAskAmount}, capture.texts(t))
	capture.reset()

	b.handleEvent(context.Background(), event("user1", "1.5", ""))

	assert.Equal(t, 1, prepares)
	assert.Equal(t, 1, results)
	texts := capture.texts(t)
	assert.Contains(t, texts, fmt.Sprintf(msgTxResult, cfg.Chain.ExplorerURL, "0xhash1"))
	assert.False(t, b.conversations.Active("user1"))
}

func TestSendFlowInvalidAmountMakesNoRequest(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := &config.Configuration{}
	cfg.KaiaWallet.APIURL = server.URL

	b, capture := newTestBot(cfg)
	require.NoError(t, b.registry.Put("user1", &wallet.Binding{
		Kind: wallet.KindCustodial, Address: "0xsender",
	}))

	b.dispatchSend(context.Background(), "user1", "0xrecipient", "not a number")

	assert.Zero(t, calls)
	assert.Contains(t, capture.texts(t), msgInvalidAmount)
}

func TestDonateRejectsSessionWallets(t *testing.T) {
	b, capture := newTestBot(nil)
	require.NoError(t, b.registry.Put("user1", &wallet.Binding{
		Kind: wallet.KindSession, Address: "0xabc", Topic: "topic1",
	}))

	b.dispatchDonate(context.Background(), "user1", "42", "1")

	assert.Contains(t, capture.texts(t), msgKaiaWalletOnly)
}

func TestDonateFlowEndToEndCustodial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/k/prepare" {
			body := readBody(r)
			assert.Equal(t, "execute_contract", gjson.Get(body, "type").String())
			assert.Equal(t, "0xcontract", gjson.Get(body, "transaction.to").String())
			assert.Equal(t, `["7"]`, gjson.Get(body, "transaction.params").String())
			fmt.Fprint(w, `{"request_key":"rk-2","status":"prepared","chain_id":"1001"}`)
			return
		}
		fmt.Fprint(w, `{"status":"completed","type":"execute_contract","request_key":"rk-2","result":{"tx_hash":"0xhash2"}}`)
	}))
	defer server.Close()

	cfg := &config.Configuration{}
	cfg.KaiaWallet.APIURL = server.URL
	cfg.KaiaWallet.PollMaxAttempts = 3
	cfg.KaiaWallet.PollIntervalMillis = 1
	cfg.Chain.ExplorerURL = "https://baobab.klaytnscope.com"
	cfg.Donation.ContractAddress = "0xcontract"

	b, capture := newTestBot(cfg)
	require.NoError(t, b.registry.Put("user1", &wallet.Binding{
		Kind: wallet.KindCustodial, Address: "0xsender",
	}))

	b.dispatchDonate(context.Background(), "user1", "7", "0.5")

	assert.Contains(t, capture.texts(t),
		fmt.Sprintf(msgDonationResult, "0xhash2", cfg.Chain.ExplorerURL, "0xhash2"))
}

func readBody(r *http.Request) string {
	raw, _ := io.ReadAll(r.Body)
	return string(raw)
}
