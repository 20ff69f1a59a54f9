package bot

import (
	"fmt"

	"github.com/da1suk8/donation-demo/internal/kakao"
	"github.com/da1suk8/donation-demo/pkg/log"
)

const (
	msgAlreadyConnected = "You have already connected %v\nYour address: %v\n\nDisconnect wallet first to connect a new one."
	msgNotConnected     = "You didn't connect a wallet"
	msgChooseWallet     = "Choose your wallet"

	msgConnectSuccess  = "Wallet connected successfully!"
	msgConnectTimeout  = "Connection process timed out. Please try again."
	msgConnectCanceled = "Connection request was declined in the wallet."
	msgConnectFailed   = "Failed to connect wallet. Please try again."
	msgConnectedAs     = "%v connected successfully\nYour address: %v"
	msgDisconnected    = "Wallet has been disconnected"
	msgDisconnectError = "An error occurred while disconnecting the wallet. Please try again."
	msgSessionExpired  = "Wallet session has expired. Please connect again."

	msgWalletInfo = "Connected wallet: %v\nYour address: %v"

	msgConnectToSend     = "Connect wallet to send transaction"
	msgConnectToDonate   = "Connect wallet to make a donation"
	msgAskAddress        = "Please enter the address to send to:"
	msgAskAmount         = "Please enter the amount to send:"
	msgAskProjectID      = "Please enter the project ID you want to donate to:"
	msgAskDonationAmount = "Please enter the amount you want to donate:"

	msgInvalidAmount    = "Invalid amount. Please enter a valid number."
	msgApproveTx        = "Please approve the transaction in Kaia Wallet"
	msgApproveDonation  = "Please approve the donation in Kaia Wallet"
	msgConfirmInWallet  = "Open %v and confirm transaction"
	msgTxResult         = "Transaction result\n%v/tx/%v"
	msgTxCanceled       = "Transaction was cancelled."
	msgTxFailed         = "Transaction failed or resulted in an unexpected state."
	msgTxError          = "An error occurred while sending the transaction. Please try again."
	msgDonationResult   = "Donation successful! Transaction hash: %v\nView on explorer: %v/tx/%v"
	msgDonationCanceled = "Donation was cancelled."
	msgDonationFailed   = "Donation failed or resulted in an unexpected state."
	msgDonationError    = "An error occurred while processing the donation. Please try again."
	msgKaiaWalletOnly   = "This function is currently only supported for Kaia Wallet"

	msgProjectList  = "Open Donation Project list"
	msgGenericError = "An error occurred. Please try again."

	msgGreeting = "This is an example of a Kakao bot for connecting to Kaia wallets and sending transactions with WalletConnect.\n\nCommands list:\n/connect - Connect to a wallet\n/my_wallet - Show connected wallet\n/send_tx - Send transaction\n/donate - Donate to a project\n/project_list - Show donation projects\n/disconnect - Disconnect from the wallet"
)

const walletThumbnailURL = "https://drive.google.com/uc?export=view&id=1lEseL9zsVaZD4rkuutFkPAxGxUZGpwNZ"
const projectThumbnailURL = "https://drive.google.com/uc?export=view&id=14fPyHLPBunY-HhsA8tashjxj32Z4crRl"

// Kakao block ids backing the quick replies.
const (
	blockConnect     = "66c0a93a9109d53a3d9c266b"
	blockMyWallet    = "66c0accbd7822a7a6e8a0513"
	blockSendTx      = "66c0acff632734050fdf8378"
	blockDonate      = "66c0acff632734050fdf8378"
	blockProjectList = "66c157829109d53a3d9c3130"
	blockDisconnect  = "66c0acea7712c0500c5a9422"
)

func commandQuickReplies() []kakao.QuickReply {
	return []kakao.QuickReply{
		kakao.BlockReply("Connect", cmdConnect, blockConnect),
		kakao.BlockReply("My Wallet", cmdMyWallet, blockMyWallet),
		kakao.BlockReply("Send Transaction", cmdSendTx, blockSendTx),
		kakao.BlockReply("Donate", cmdDonate, blockDonate),
		kakao.BlockReply("Project list", cmdProjectList, blockProjectList),
		kakao.BlockReply("Disconnect", cmdDisconnect, blockDisconnect),
	}
}

// sendResponse broadcasts one rendered skill response on the return
// channel.
func (b *Bot) sendResponse(resp *kakao.SkillResponse) {
	if err := b.responses.Broadcast(returnChannel, returnEvent, resp); err != nil {
		log.Error(err)
	}
}

func (b *Bot) replyText(text string) {
	b.sendResponse(kakao.NewResponse([]kakao.Output{kakao.SimpleText(text)}))
}

func (b *Bot) replyTextf(format string, args ...interface{}) {
	b.replyText(fmt.Sprintf(format, args...))
}

func (b *Bot) replyCard(card kakao.Output) {
	b.sendResponse(kakao.NewResponse([]kakao.Output{card}))
}

// showCommands sends the greeting with the command quick replies.
func (b *Bot) showCommands() {
	b.sendResponse(kakao.NewResponse(
		[]kakao.Output{kakao.SimpleText(msgGreeting)},
		commandQuickReplies()...,
	))
}
