package chat

import (
	"encoding/json"

	"github.com/google/uuid"

	"matchakit/tools/decode"
)

// FrameKind is the closed set of inbound frame variants. Anything the
// gateway sends that is not a recognized message or error frame decodes
// to FrameUnknown and is ignored.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameMessage
	FrameError
)

func (k FrameKind) String() string {
	switch k {
	case FrameMessage:
		return "message"
	case FrameError:
		return "error"
	default:
		return "unknown"
	}
}

// Frame is one decoded inbound frame. Exactly one of Message/ErrorText
// is meaningful, selected by Kind.
type Frame struct {
	Kind      FrameKind
	Message   *Message
	ErrorText string
}

// wireFrame matches the gateway's envelope: {type, data} or {type, error}.
type wireFrame struct {
	Type  string         `json:"type"`
	Data  map[string]any `json:"data"`
	Error string         `json:"error"`
}

// ParseFrame decodes a raw inbound frame. Malformed input — not JSON,
// or a message frame whose payload does not form a Message — comes back
// as FrameUnknown; noise on the channel never crashes a session.
func ParseFrame(raw []byte) Frame {
	var wf wireFrame
	if err := json.Unmarshal(raw, &wf); err != nil {
		return Frame{Kind: FrameUnknown}
	}
	switch wf.Type {
	case "message":
		if wf.Data == nil {
			return Frame{Kind: FrameUnknown}
		}
		m, err := decode.Map[Message](wf.Data)
		if err != nil || m.ID == uuid.Nil {
			return Frame{Kind: FrameUnknown}
		}
		return Frame{Kind: FrameMessage, Message: m}
	case "error":
		text := wf.Error
		if text == "" {
			text = "live channel error"
		}
		return Frame{Kind: FrameError, ErrorText: text}
	default:
		return Frame{Kind: FrameUnknown}
	}
}

// SendFrame is the outbound shape the gateway accepts on the channel.
type SendFrame struct {
	ToUserID uuid.UUID `json:"to_user_id"`
	Content  string    `json:"content"`
}
