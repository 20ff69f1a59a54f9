package walletconnect

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/atomic"

	"github.com/da1suk8/donation-demo/pkg/errors"
	"github.com/da1suk8/donation-demo/pkg/log"
	wc "github.com/da1suk8/donation-demo/pkg/walletconnect"
)

var (
	// ErrSessionClosed reports that the peer wallet ended the session.
	ErrSessionClosed = errors.New("session closed")
	// ErrSessionRejected reports that the user declined the pairing in
	// the wallet.
	ErrSessionRejected = errors.New("session rejected")
)

// Config for one pairing attempt.
type Config struct {
	// BridgeURL overrides the bridge shard; empty picks a random one.
	BridgeURL string
	ChainID   int
	Meta      ClientMeta
}

// Session is an approved pairing. Requests to the peer wallet are
// published on Topic.
type Session struct {
	Topic   string
	Address string
	ChainID int
	Peer    ClientMeta
}

// Client drives one wallet session over a bridge websocket: pair, wait
// for approval, then issue signing requests for as long as the session
// lives. One Client serves one user connection; create a new one per
// pairing attempt.
type Client struct {
	// Non-zero means Pair was already called; the client is one-shot.
	pairCount atomic.Int64

	readTimeout time.Duration
	writeMu     sync.Mutex
	conn        *websocket.Conn
	bridgeURL   string

	handshakeTopic string
	clientID       string
	encryptionKey  []byte
	payloadID      atomic.Int64

	chainID int
	meta    ClientMeta

	session *Session
}

func NewClient(cfg Config) *Client {
	encryptionKey, _ := wc.GenerateRandomBytes(256 / 8)
	bridgeURL := cfg.BridgeURL
	if bridgeURL == "" {
		bridgeURL = wc.RandomBridgeURL()
	}
	c := &Client{
		readTimeout:    time.Minute * 5,
		bridgeURL:      bridgeURL,
		handshakeTopic: uuid.NewString(),
		clientID:       uuid.NewString(),
		encryptionKey:  encryptionKey,
		chainID:        cfg.ChainID,
		meta:           cfg.Meta,
	}
	c.payloadID.Store(time.Now().UnixNano() / 1000)
	return c
}

// URI is the pairing URI the wallet consumes, as a deep link or QR code.
func (c *Client) URI() string {
	return fmt.Sprintf("wc:%s@1?bridge=%s&key=%s",
		c.handshakeTopic, url.QueryEscape(c.bridgeURL), hex.EncodeToString(c.encryptionKey))
}

// Pair dials the bridge, subscribes the client topic and publishes the
// session request. After Pair returns, the URI can be shown to the user
// and AwaitApproval will resolve once the wallet answers.
func (c *Client) Pair(ctx context.Context) (string, error) {
	if !c.pairCount.CAS(0, 1) {
		return "", errors.NewWithReport("duplicate pairing, recreate the client instead")
	}
	if err := c.dialWS(ctx); err != nil {
		return "", err
	}
	if err := c.subscribe(c.clientID); err != nil {
		return "", err
	}
	if err := c.createSessionRequest(); err != nil {
		return "", err
	}
	return c.URI(), nil
}

// AwaitApproval blocks until the peer wallet approves or rejects the
// session request. Context cancellation unblocks the read and returns
// the context error.
func (c *Client) AwaitApproval(ctx context.Context) (*Session, error) {
	payload, err := c.readJSONRpc(ctx)
	if err != nil {
		return nil, err
	}
	log.Debugf("wallet connect - session response:%v", payload)
	if errStr := gjson.Get(payload, "error.message").String(); errStr != "" {
		return nil, errors.Errorf("session request error: %v", errStr)
	}
	var params sessionParams
	if err := json.Unmarshal([]byte(gjson.Get(payload, "result").Raw), &params); err != nil {
		return nil, errors.WrapAndReport(err, "unmarshal session approval")
	}
	if !params.Approved {
		return nil, ErrSessionRejected
	}
	if len(params.Accounts) == 0 {
		return nil, errors.NewWithReport("approved session has no accounts")
	}
	c.session = &Session{
		Topic:   params.PeerID,
		Address: params.Accounts[0],
		ChainID: params.ChainID,
		Peer:    params.PeerMeta,
	}
	return c.session, nil
}

// Session returns the approved session, or nil before approval.
func (c *Client) Session() *Session {
	return c.session
}

// Request publishes a json-rpc request to the peer wallet and waits for
// the matching response. The result is returned raw; callers pick the
// fields they need.
func (c *Client) Request(ctx context.Context, method string, params ...interface{}) (gjson.Result, error) {
	if c.session == nil {
		return gjson.Result{}, errors.NewWithReport("request before session approval")
	}
	id := c.payloadID.Inc()
	if err := c.publish(c.session.Topic, newJSONRpcRequest(id, method, params...)); err != nil {
		return gjson.Result{}, err
	}
	for {
		payload, err := c.readJSONRpc(ctx)
		if err != nil {
			return gjson.Result{}, err
		}
		if gjson.Get(payload, "id").Int() != id {
			log.Debugf("wallet connect - skipping unrelated payload:%v", payload)
			continue
		}
		if errStr := gjson.Get(payload, "error.message").String(); errStr != "" {
			return gjson.Result{}, errors.Errorf("wallet rejected request: %v", errStr)
		}
		return gjson.Get(payload, "result"), nil
	}
}

// Disconnect tells the peer the session is over and closes the bridge
// connection. Safe to call on a never-approved client.
func (c *Client) Disconnect(reason string) error {
	defer c.Close()
	if c.session == nil {
		return nil
	}
	update := newJSONRpcRequest(c.payloadID.Inc(), "wc_sessionUpdate", map[string]interface{}{
		"approved": false,
		"chainId":  nil,
		"accounts": nil,
	})
	log.Debugf("wallet connect - disconnect session %v: %v", c.session.Topic, reason)
	return c.publish(c.session.Topic, update)
}

func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *Client) dialWS(ctx context.Context) error {
	wsURL := wc.GetWebSocketURL(c.bridgeURL, "wc", "1")
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return errors.WrapAndReport(err, "dial wallet connect bridge")
	}
	c.conn = conn
	return nil
}

func (c *Client) subscribe(topic string) error {
	msg := wcMessage{
		Topic:  topic,
		Type:   "sub",
		Silent: true,
	}
	log.Debugf("wallet connect - subscribe:%v", string(msg.Marshal()))
	return c.send(msg.Marshal())
}

func (c *Client) createSessionRequest() error {
	jsonRpc := newJSONRpcRequest(c.payloadID.Inc(), "wc_sessionRequest", peer{
		PeerID:   c.clientID,
		PeerMeta: c.meta,
		ChainID:  c.chainID,
	})
	return c.publish(c.handshakeTopic, jsonRpc)
}

func (c *Client) publish(topic string, jsonRpc *jsonRpcRequest) error {
	payload, err := c.encryptJSONRpc(jsonRpc.Marshal())
	if err != nil {
		return err
	}
	msg := wcMessage{
		Topic:   topic,
		Type:    "pub",
		Payload: payload.Marshal(),
		Silent:  jsonRpc.IsSilentPayload(),
	}
	log.Debugf("wallet connect - publish:%v", string(msg.Marshal()))
	return c.send(msg.Marshal())
}

func (c *Client) send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	err := c.conn.WriteMessage(websocket.TextMessage, payload)
	if err != nil {
		return errors.WrapAndReport(err, "write message to bridge")
	}
	return nil
}

func (c *Client) ack() error {
	msg := wcMessage{
		Topic:  c.clientID,
		Type:   "ack",
		Silent: true,
	}
	return c.send(msg.Marshal())
}

// readJSONRpc reads the next decrypted json-rpc payload addressed to
// this client. Context cancellation interrupts the blocking read by
// expiring the read deadline.
func (c *Client) readJSONRpc(ctx context.Context) (string, error) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()
	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return "", errors.WrapAndReport(err, "set bridge read deadline")
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", errors.Wrap(err, "read bridge message")
		}
		switch msgType {
		case websocket.TextMessage:
			log.Debugf("wallet connect - receive:%v", string(data))
			if err := c.ack(); err != nil {
				return "", err
			}
			msg, err := newWCMessageFromBytes(data)
			if err != nil {
				return "", err
			}
			payload, err := c.decryptJSONRpc(msg)
			if err != nil {
				return "", err
			}
			if sessionClosed := c.checkSessionUpdate(payload); sessionClosed {
				return "", ErrSessionClosed
			}
			return payload, nil
		case websocket.CloseMessage:
			return "", ErrSessionClosed
		default:
			return "", errors.NewWithReport("unsupported bridge message type")
		}
	}
}

// checkSessionUpdate inspects wc_sessionUpdate notifications; an update
// with approved=false means the peer disconnected.
func (c *Client) checkSessionUpdate(jsonRpc string) (sessionClosed bool) {
	method := gjson.Get(jsonRpc, "method").String()
	if method != "wc_sessionUpdate" {
		return false
	}
	params := gjson.Get(jsonRpc, "params").Array()
	if len(params) == 0 {
		return false
	}
	approved := params[0].Get("approved")
	if !approved.Exists() {
		return false
	}
	if approved.Bool() {
		return false
	}
	log.Warnf("wallet connect - session closed from request %v", jsonRpc)
	return true
}

func (c *Client) encryptJSONRpc(jsonRpc string) (*wcMessagePayload, error) {
	iv, err := wc.GenerateRandomBytes(128 / 8)
	if err != nil {
		return nil, errors.WrapAndReport(err, "generate random bytes")
	}
	data, err := wc.Aes256Encrypt([]byte(jsonRpc), c.encryptionKey, iv)
	if err != nil {
		return nil, err
	}
	unsigned := append(data, iv...)
	hmac := wc.HmacSha256(unsigned, c.encryptionKey)
	msg := &wcMessagePayload{
		Data: hex.EncodeToString(data),
		IV:   hex.EncodeToString(iv),
		Hmac: hex.EncodeToString(hmac),
	}
	return msg, nil
}

func (c *Client) decryptJSONRpc(msg *wcMessage) (string, error) {
	mp, err := newWCMessagePayloadFromBytes([]byte(msg.Payload))
	if err != nil {
		return "", err
	}
	iv, err := hex.DecodeString(mp.IV)
	if err != nil {
		return "", errors.WrapAndReport(err, "decode iv hex")
	}
	cipher, err := hex.DecodeString(mp.Data)
	if err != nil {
		return "", errors.WrapAndReport(err, "decode cipher hex")
	}
	expected, err := hex.DecodeString(mp.Hmac)
	if err != nil {
		return "", errors.WrapAndReport(err, "decode hmac hex")
	}
	unsigned := append(cipher, iv...)
	if !wc.VerifyHmacSha256(unsigned, c.encryptionKey, expected) {
		return "", errors.NewWithReport("inconsistent session message hmac")
	}
	data, err := wc.Aes256Decrypt(cipher, c.encryptionKey, iv)
	if err != nil {
		return "", errors.Wrap(err, "aes256 decrypt")
	}
	return string(data), nil
}
