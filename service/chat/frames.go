package chat

import (
	"encoding/json"
	"time"

	"shopchat/module/chat/model"
	"shopchat/tools/decode"
	"shopchat/tools/errs"
)

// Inbound frame kinds recognized by the gateway.
const (
	KindPing    = "ping"
	KindMessage = "message"
)

// Presence events.
const (
	PresenceJoin  = "join"
	PresenceLeave = "leave"
)

var errMalformedFrame = errs.NewCodeError(4000, "malformed frame")

type MessageInbound struct {
	Text string `json:"text"`
}

// InboundFrame is the closed union over recognized client payloads. Message
// is populated iff Kind is KindMessage; an unrecognized tag comes back with
// Kind set and no payload so the caller can report it.
type InboundFrame struct {
	Kind    string
	Message *MessageInbound
}

// ParseInbound validates one raw client frame. Anything that is not a JSON
// object with a string "type", or whose payload does not match the declared
// kind's schema, fails as malformed; no partially-decoded frame escapes.
func ParseInbound(raw []byte) (*InboundFrame, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errMalformedFrame.Wrap(err)
	}

	kind, ok := m["type"].(string)
	if !ok || kind == "" {
		return nil, errMalformedFrame.WithDetail("missing type tag")
	}

	switch kind {
	case KindPing:
		return &InboundFrame{Kind: KindPing}, nil
	case KindMessage:
		payload, err := decode.DecodeMap[MessageInbound](m)
		if err != nil {
			return nil, errMalformedFrame.Wrap(err)
		}
		return &InboundFrame{Kind: KindMessage, Message: payload}, nil
	default:
		return &InboundFrame{Kind: kind}, nil
	}
}

// ---- server -> client frames ----

type helloData struct {
	UserEmail string `json:"userEmail"`
	Role      string `json:"role"`
}

type presenceData struct {
	Event     string `json:"event"`
	UserEmail string `json:"userEmail"`
}

type messageData struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"userEmail"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type errorBody struct {
	Message string `json:"message"`
}

type outbound struct {
	Type  string     `json:"type"`
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func BuildHello(userEmail, role string) []byte {
	return encodeFrame(outbound{Type: "hello", Data: helloData{UserEmail: userEmail, Role: role}})
}

func BuildPong() []byte {
	return encodeFrame(outbound{Type: "pong"})
}

func BuildPresence(event, userEmail string) []byte {
	return encodeFrame(outbound{Type: "presence", Data: presenceData{Event: event, UserEmail: userEmail}})
}

func BuildMessage(msg *model.ChatMessage) []byte {
	return encodeFrame(outbound{Type: "message", Data: messageData{
		ID:        msg.ID.Hex(),
		UserEmail: msg.UserEmail,
		Role:      msg.Role,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	}})
}

func BuildError(message string) []byte {
	return encodeFrame(outbound{Type: "error", Error: &errorBody{Message: message}})
}

func encodeFrame(v outbound) []byte {
	// The outbound types marshal without error by construction.
	b, _ := json.Marshal(v)
	return b
}
