package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/da1suk8/donation-demo/internal/config"
	"github.com/da1suk8/donation-demo/internal/server"
	"github.com/da1suk8/donation-demo/internal/wallet"
)

func TestConnectCustodialWinClosesBridgeSocket(t *testing.T) {
	// Bridge that accepts the pairing but never answers it, so the
	// session path only resolves when the race is decided elsewhere.
	bridgeClosed := make(chan struct{})
	upgrader := websocket.Upgrader{}
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(bridgeClosed)
				return
			}
		}
	}))
	defer bridge.Close()

	kaia := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/k/prepare" {
			fmt.Fprint(w, `{"request_key":"rk-auth","status":"prepared","chain_id":"1001"}`)
			return
		}
		fmt.Fprint(w, `{"status":"completed","type":"auth","request_key":"rk-auth","result":{"klaytn_address":"0xcustodial"}}`)
	}))
	defer kaia.Close()

	cfg := &config.Configuration{}
	cfg.KaiaWallet.APIURL = kaia.URL
	cfg.KaiaWallet.PollMaxAttempts = 3
	cfg.KaiaWallet.PollIntervalMillis = 1
	cfg.Chain.ID = 1001
	cfg.WalletConnect.BridgeURL = bridge.URL
	cfg.Connect.TimeoutSeconds = 10

	b, capture := newTestBot(cfg)
	b.qrs = server.NewQRStore()

	b.handleEvent(context.Background(), event("user1", cmdConnect, ""))

	binding := b.registry.Get("user1")
	require.NotNil(t, binding)
	assert.Equal(t, wallet.KindCustodial, binding.Kind)
	assert.Equal(t, "0xcustodial", binding.Address)
	assert.Contains(t, capture.texts(t), msgConnectSuccess)
	assert.Nil(t, b.session("user1"))

	// The losing session path must tear its bridge socket down once
	// the custodial path has won.
	select {
	case <-bridgeClosed:
	case <-time.After(3 * time.Second):
		t.Fatal("bridge socket left open after the custodial path won")
	}
}

func TestAccountAddress(t *testing.T) {
	caip2 := "eip155:1001"
	assert.Equal(t, "0xabc", accountAddress("eip155:1001:0xabc", caip2))
	assert.Equal(t, "0xabc", accountAddress("0xabc", caip2))
	assert.Equal(t, "0xabc", accountAddress("eip155:8217:0xabc", caip2))
}
