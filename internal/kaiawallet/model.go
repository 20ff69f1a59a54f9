package kaiawallet

// Status of a pending operation at the wallet's async endpoint.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// Terminal reports whether further polling is meaningful.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// RequestType names the operation requested at the prepare endpoint.
type RequestType string

const (
	RequestTypeAuth            RequestType = "auth"
	RequestTypeSendKaia        RequestType = "send_klay"
	RequestTypeExecuteContract RequestType = "execute_contract"
)

type bapp struct {
	Name string `json:"name"`
}

// transaction carries the payload of a send or contract-call prepare.
// Field usage depends on the request type; the wallet API ignores the
// rest.
type transaction struct {
	To     string `json:"to,omitempty"`
	Amount string `json:"amount,omitempty"`
	Value  string `json:"value,omitempty"`
	Abi    string `json:"abi,omitempty"`
	Params string `json:"params,omitempty"`
}

type prepareRequest struct {
	Type        RequestType  `json:"type"`
	ChainID     string       `json:"chain_id"`
	Bapp        bapp         `json:"bapp"`
	Transaction *transaction `json:"transaction,omitempty"`
}

type prepareResponse struct {
	ChainID        string `json:"chain_id"`
	RequestKey     string `json:"request_key"`
	Status         string `json:"status"`
	ExpirationTime int64  `json:"expiration_time"`
}

// ResultPayload is the union of the type-specific result fields.
type ResultPayload struct {
	KlaytnAddress string `json:"klaytn_address"`
	SignedTx      string `json:"signed_tx"`
	TxHash        string `json:"tx_hash"`
}

// Result is one status snapshot of a pending operation.
type Result struct {
	Status         Status        `json:"status"`
	Type           RequestType   `json:"type"`
	ChainID        string        `json:"chain_id"`
	RequestKey     string        `json:"request_key"`
	ExpirationTime int64         `json:"expiration_time"`
	Result         ResultPayload `json:"result"`
}
