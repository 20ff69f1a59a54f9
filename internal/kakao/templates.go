package kakao

// Skill response payloads, shaped as the Kakao skill API expects them.
// The bot only ever renders simple texts, basic cards with web-link
// buttons and quick replies.

const skillVersion = "2.0"

type SkillResponse struct {
	Version  string   `json:"version"`
	Template Template `json:"template"`
}

type Template struct {
	Outputs      []Output     `json:"outputs"`
	QuickReplies []QuickReply `json:"quickReplies,omitempty"`
}

// Output is one template component keyed by its type name, e.g.
// {"simpleText": {...}}.
type Output map[string]interface{}

type QuickReply struct {
	Label       string `json:"label"`
	Action      string `json:"action"`
	MessageText string `json:"messageText,omitempty"`
	BlockID     string `json:"blockId,omitempty"`
}

type Button struct {
	Label      string `json:"label"`
	Action     string `json:"action"`
	WebLinkURL string `json:"webLinkUrl,omitempty"`
}

type Thumbnail struct {
	ImageURL string `json:"imageUrl"`
}

type basicCard struct {
	Description string    `json:"description,omitempty"`
	Thumbnail   Thumbnail `json:"thumbnail"`
	Buttons     []Button  `json:"buttons,omitempty"`
}

// NewResponse wraps outputs and optional quick replies into a complete
// skill response.
func NewResponse(outputs []Output, quickReplies ...QuickReply) *SkillResponse {
	return &SkillResponse{
		Version: skillVersion,
		Template: Template{
			Outputs:      outputs,
			QuickReplies: quickReplies,
		},
	}
}

// SimpleText builds a plain text output.
func SimpleText(text string) Output {
	return Output{
		"simpleText": map[string]interface{}{
			"text": text,
		},
	}
}

// BasicCard builds a card with a thumbnail and web-link buttons.
func BasicCard(description, thumbnailURL string, buttons ...Button) Output {
	return Output{
		"basicCard": basicCard{
			Description: description,
			Thumbnail:   Thumbnail{ImageURL: thumbnailURL},
			Buttons:     buttons,
		},
	}
}

// WebLink builds a button opening a URL.
func WebLink(label, url string) Button {
	return Button{
		Label:      label,
		Action:     "webLink",
		WebLinkURL: url,
	}
}

// BlockReply builds a quick reply triggering a bot block.
func BlockReply(label, messageText, blockID string) QuickReply {
	return QuickReply{
		Label:       label,
		Action:      "block",
		MessageText: messageText,
		BlockID:     blockID,
	}
}
