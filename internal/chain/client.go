package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/da1suk8/donation-demo/pkg/errors"
)

// Client reads gas parameters from the chain json-rpc endpoint. The bot
// never signs or submits through this client; wallets do that.
type Client struct {
	rpc *rpc.Client
}

func Dial(ctx context.Context, endpoint string) (*Client, error) {
	c, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, errors.WrapAndReport(err, "dial chain rpc endpoint")
	}
	return &Client{rpc: c}, nil
}

func (c *Client) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

// CallMsg is the unsigned transaction shape used for gas estimation.
type CallMsg struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
	Value string `json:"value,omitempty"`
	Data  string `json:"data,omitempty"`
}

// GasPrice returns the current gas price as a 0x-prefixed hex quantity.
func (c *Client) GasPrice(ctx context.Context) (string, error) {
	var price hexutil.Big
	if err := c.rpc.CallContext(ctx, &price, "eth_gasPrice"); err != nil {
		return "", errors.WrapAndReport(err, "fetch gas price")
	}
	return price.String(), nil
}

// EstimateGas returns the gas estimate for msg as a 0x-prefixed hex
// quantity.
func (c *Client) EstimateGas(ctx context.Context, msg *CallMsg) (string, error) {
	var gas hexutil.Uint64
	if err := c.rpc.CallContext(ctx, &gas, "eth_estimateGas", msg); err != nil {
		return "", errors.WrapAndReport(err, "estimate gas")
	}
	return hexutil.EncodeUint64(uint64(gas)), nil
}
