package chat

import (
	"encoding/json"

	chatmodel "baatcheet/module/chat/model"
	"baatcheet/tools/decode"
	"baatcheet/tools/errs"
)

// Wire event types, server to client.
const (
	FrameOnlineUsers = "online_users"
	FrameNewMessage  = "new_message"
)

// Frame is the outbound envelope.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func BuildOnlineUsers(ids []string) *Frame {
	if ids == nil {
		ids = []string{}
	}
	return &Frame{Type: FrameOnlineUsers, Payload: ids}
}

func BuildNewMessage(m *chatmodel.Message) *Frame {
	return &Frame{Type: FrameNewMessage, Payload: m}
}

func EncodeFrame(f *Frame) ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return b, nil
}

// RawFrame is the inbound envelope with the payload left undecoded until
// the type is known.
type RawFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func ParseFrame(raw []byte) (*RawFrame, error) {
	var f RawFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, errs.WrapMsg(err, "unmarshal frame")
	}
	if f.Type == "" {
		return nil, errs.ErrArgs.WithDetail("frame has no type")
	}
	return &f, nil
}

// OnlineUsers decodes an online_users payload.
func (f *RawFrame) OnlineUsers() ([]string, error) {
	var ids []string
	if err := json.Unmarshal(f.Payload, &ids); err != nil {
		return nil, errs.WrapMsg(err, "decode online_users payload")
	}
	return ids, nil
}

// Message decodes a new_message payload into the canonical message struct.
func (f *RawFrame) Message() (*chatmodel.Message, error) {
	var m map[string]any
	if err := json.Unmarshal(f.Payload, &m); err != nil {
		return nil, errs.WrapMsg(err, "decode new_message payload")
	}
	return decode.DecodeMap[chatmodel.Message](m)
}
