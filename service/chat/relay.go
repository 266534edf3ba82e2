package chat

import (
	"baatcheet/logger"
	chatmodel "baatcheet/module/chat/model"
)

// Relay pushes a persisted message to its receiver's live connection.
// At-most-once by design: offline receivers get nothing and reconcile via
// the next history fetch. Callers must invoke Deliver only after the write
// is durable, so a received push always refers to a stored message.
type Relay struct {
	reg *Registry
}

func NewRelay(reg *Registry) *Relay {
	return &Relay{reg: reg}
}

// Deliver resolves the receiver and pushes the message. Returns whether a
// push was handed to a live connection; failures never propagate to the
// sender's write path.
func (r *Relay) Deliver(m *chatmodel.Message) bool {
	cl, ok := r.reg.Resolve(m.ReceiverID)
	if !ok {
		return false
	}
	payload, err := EncodeFrame(BuildNewMessage(m))
	if err != nil {
		logger.Errorf("[relay] encode message id=%s: %v", m.ID.Hex(), err)
		return false
	}
	if !cl.Enqueue(payload) {
		logger.Warnf("[relay] queue full or closed, drop push user=%s", m.ReceiverID)
		return false
	}
	return true
}
