package wallet

// Kind discriminates how a wallet was linked to a user.
type Kind int

const (
	// KindSession is a wallet linked over the interactive session
	// protocol. Signing requests travel over the session topic.
	KindSession Kind = iota + 1
	// KindCustodial is a wallet linked out-of-band through the Kaia
	// Wallet app. Every request is approved in the app and the result
	// is polled.
	KindCustodial
)

func (k Kind) String() string {
	switch k {
	case KindSession:
		return "session"
	case KindCustodial:
		return "kaia"
	default:
		return "unknown"
	}
}

// PeerMeta describes the wallet application on the far side of a
// session, as reported during approval.
type PeerMeta struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Icons       []string `json:"icons"`
}

// Binding associates a user with exactly one connected wallet.
// A session binding always carries the session topic; a custodial
// binding never does.
type Binding struct {
	Kind    Kind
	Address string
	Topic   string
	Peer    PeerMeta
}

// DisplayName is the wallet name shown to the user.
func (b *Binding) DisplayName() string {
	if b.Kind == KindCustodial {
		return "Kaia Wallet"
	}
	if b.Peer.Name != "" {
		return b.Peer.Name
	}
	return "wallet"
}

// Valid reports whether the binding honors the kind/topic invariant.
func (b *Binding) Valid() bool {
	switch b.Kind {
	case KindSession:
		return b.Topic != ""
	case KindCustodial:
		return b.Topic == ""
	default:
		return false
	}
}
