package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/da1suk8/donation-demo/internal/chain"
	"github.com/da1suk8/donation-demo/internal/kaiawallet"
	"github.com/da1suk8/donation-demo/internal/kakao"
	"github.com/da1suk8/donation-demo/internal/wallet"
	"github.com/da1suk8/donation-demo/internal/walletconnect"
	"github.com/da1suk8/donation-demo/pkg/errors"
	"github.com/da1suk8/donation-demo/pkg/log"
)

// ABI of the donation contract method called by the donate flow.
const donateABI = `{"constant":false,"inputs":[{"name":"_projectId","type":"uint256"}],"name":"donate","outputs":[],"payable":true,"stateMutability":"payable","type":"function"}`

// dispatchSend submits one value transfer with the user's bound
// wallet. The amount is validated before any network call; exactly one
// prepare or session request happens per invocation.
func (b *Bot) dispatchSend(ctx context.Context, userID, address, amount string) {
	binding := b.registry.Get(userID)
	if binding == nil {
		b.replyText(msgNotConnected)
		return
	}
	value, err := chain.ParseAmount(amount)
	if err != nil {
		log.Warnf("user %v supplied unparsable amount %q", userID, amount)
		b.replyText(msgInvalidAmount)
		return
	}
	valueHex := chain.EncodeAmount(value)
	log.Debugf("send for user %v: %v KAIA to %v (%v)", userID, amount, address, valueHex)

	switch binding.Kind {
	case wallet.KindSession:
		b.sendViaSession(ctx, userID, binding, address, valueHex)
	case wallet.KindCustodial:
		b.sendViaKaiaWallet(ctx, userID, address, amount)
	default:
		log.Errorf("user %v holds a binding of unknown kind %v", userID, binding.Kind)
		b.replyText(msgTxError)
	}
}

func (b *Bot) sendViaSession(ctx context.Context, userID string, binding *wallet.Binding, address, valueHex string) {
	client := b.session(userID)
	if client == nil {
		log.Errorf("session binding for user %v has no live session client", userID)
		b.dropBinding(userID)
		b.replyText(msgSessionExpired)
		return
	}

	b.replyCard(kakao.BasicCard(
		fmt.Sprintf(msgConfirmInWallet, binding.DisplayName()),
		walletThumbnailURL,
		kakao.WebLink("Open Wallet",
			b.cfg.MiniWallet.CompactURL+"/open/wallet/?url="+url.QueryEscape(binding.Peer.URL)),
	))

	msg := &chain.CallMsg{
		From:  binding.Address,
		To:    address,
		Value: valueHex,
	}
	gasPrice, err := b.chain.GasPrice(ctx)
	if err != nil {
		log.Error(err)
		b.replyText(msgTxError)
		return
	}
	gas, err := b.chain.EstimateGas(ctx, msg)
	if err != nil {
		log.Error(err)
		b.replyText(msgTxError)
		return
	}

	result, err := client.Request(ctx, "eth_sendTransaction", map[string]interface{}{
		"from":     msg.From,
		"to":       msg.To,
		"gasPrice": gasPrice,
		"gasLimit": gas,
		"value":    msg.Value,
	})
	if err != nil {
		if errors.Is(err, walletconnect.ErrSessionClosed) {
			b.dropBinding(userID)
			b.replyText(msgSessionExpired)
			return
		}
		log.Error(errors.Wrap(err, "send transaction over session"))
		b.replyText(msgTxError)
		return
	}
	b.replyTextf(msgTxResult, b.cfg.Chain.ExplorerURL, result.String())
}

func (b *Bot) sendViaKaiaWallet(ctx context.Context, userID, address, amount string) {
	requestKey, err := b.kaia.PrepareSendKaia(ctx, address, amount)
	if err != nil {
		log.Error(errors.Wrap(err, "prepare custodial transfer"))
		b.replyText(msgTxError)
		return
	}
	b.replyCard(kakao.BasicCard(msgApproveTx, walletThumbnailURL,
		kakao.WebLink("Open Kaia Wallet", b.kaia.DeepLink(requestKey)),
	))

	result, err := b.kaia.PollResult(ctx, requestKey)
	if err != nil {
		log.Error(errors.Wrap(err, "poll custodial transfer result"))
		b.replyText(msgTxError)
		return
	}
	switch {
	case result == nil:
		b.replyText(msgTxFailed)
	case result.Status == kaiawallet.StatusCompleted && result.Type == kaiawallet.RequestTypeSendKaia:
		b.replyTextf(msgTxResult, b.cfg.Chain.ExplorerURL, result.Result.TxHash)
	case result.Status == kaiawallet.StatusCanceled:
		b.replyText(msgTxCanceled)
	default:
		log.Warnf("custodial transfer for user %v settled unexpectedly: %+v", userID, result)
		b.replyText(msgTxFailed)
	}
}

// dispatchDonate submits one donation contract call. Only custodial
// wallets support the contract execution flow.
func (b *Bot) dispatchDonate(ctx context.Context, userID, projectID, amount string) {
	binding := b.registry.Get(userID)
	if binding == nil {
		b.replyText(msgConnectToDonate)
		return
	}
	if binding.Kind != wallet.KindCustodial {
		b.replyText(msgKaiaWalletOnly)
		return
	}
	value, err := chain.ParseAmount(amount)
	if err != nil {
		log.Warnf("user %v supplied unparsable donation amount %q", userID, amount)
		b.replyText(msgInvalidAmount)
		return
	}
	valueHex := chain.EncodeAmount(value)
	params, err := json.Marshal([]string{projectID})
	if err != nil {
		log.Error(errors.WrapAndReport(err, "marshal donation params"))
		b.replyText(msgDonationError)
		return
	}
	log.Debugf("donation for user %v: %v KAIA (%v) to project %v", userID, amount, valueHex, projectID)

	requestKey, err := b.kaia.PrepareExecuteContract(ctx,
		b.cfg.Donation.ContractAddress, donateABI, string(params), valueHex)
	if err != nil {
		log.Error(errors.Wrap(err, "prepare donation contract call"))
		b.replyText(msgDonationError)
		return
	}
	b.replyCard(kakao.BasicCard(msgApproveDonation, walletThumbnailURL,
		kakao.WebLink("Open Kaia Wallet", b.kaia.DeepLink(requestKey)),
	))

	result, err := b.kaia.PollResult(ctx, requestKey)
	if err != nil {
		log.Error(errors.Wrap(err, "poll donation result"))
		b.replyText(msgDonationError)
		return
	}
	switch {
	case result == nil:
		b.replyText(msgDonationFailed)
	case result.Status == kaiawallet.StatusCompleted && result.Type == kaiawallet.RequestTypeExecuteContract:
		b.replyTextf(msgDonationResult, result.Result.TxHash, b.cfg.Chain.ExplorerURL, result.Result.TxHash)
	case result.Status == kaiawallet.StatusCanceled:
		b.replyText(msgDonationCanceled)
	default:
		log.Warnf("donation for user %v settled unexpectedly: %+v", userID, result)
		b.replyText(msgDonationFailed)
	}
}
