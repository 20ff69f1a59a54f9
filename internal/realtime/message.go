package realtime

import (
	"encoding/json"

	"github.com/da1suk8/donation-demo/pkg/log"
)

const (
	topicPrefix    = "realtime:"
	heartbeatTopic = "phoenix"

	eventJoin      = "phx_join"
	eventReply     = "phx_reply"
	eventHeartbeat = "heartbeat"
	eventBroadcast = "broadcast"
)

// envelope is the channel protocol frame.
type envelope struct {
	Topic   string      `json:"topic"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Ref     string      `json:"ref"`
}

func (e *envelope) Marshal() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		log.Errorf("marshal:%v", err)
	}
	return data
}

// broadcastPayload wraps an application payload for a broadcast frame.
type broadcastPayload struct {
	Type    string      `json:"type"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type joinPayload struct {
	Config joinConfig `json:"config"`
}

type joinConfig struct {
	Broadcast broadcastConfig `json:"broadcast"`
}

type broadcastConfig struct {
	Self bool `json:"self"`
}
