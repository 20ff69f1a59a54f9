package walletconnect

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	alphanumerical  = "abcdefghijklmnopqrstuvwxyz0123456789"
	bridgeURLFormat = "https://%v.bridge.walletconnect.org"
)

// RandomBridgeURL picks one of the public bridge shards.
func RandomBridgeURL() string {
	n := rand.Intn(len(alphanumerical))
	c := alphanumerical[n]
	return fmt.Sprintf(bridgeURLFormat, string(c))
}

// GetWebSocketURL rewrites a bridge http(s) URL to its websocket
// endpoint.
func GetWebSocketURL(url, protocol, version string) string {
	switch {
	case strings.HasPrefix(url, "https"):
		url = strings.Replace(url, "https", "wss", 1)
	case strings.HasPrefix(url, "http"):
		url = strings.Replace(url, "http", "ws", 1)
	}
	return url + "?protocol=" + protocol + "&version=" + version + "&env=BotInfo"
}
