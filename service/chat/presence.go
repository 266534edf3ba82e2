package chat

import (
	"baatcheet/logger"
)

// Presence pushes the full online set to every attached connection on each
// registry mutation. No deltas: the payload is always the complete set, so
// a missed broadcast is repaired by the next one.
type Presence struct {
	fan *Fanout
}

func NewPresence(fan *Fanout) *Presence {
	return &Presence{fan: fan}
}

// Changed broadcasts the online set to all clients. Runs under the registry
// lock via NotifyFunc; it only encodes and enqueues.
func (p *Presence) Changed(online []string, clients []*Client) {
	payload, err := EncodeFrame(BuildOnlineUsers(online))
	if err != nil {
		logger.Errorf("[presence] encode online set: %v", err)
		return
	}
	p.fan.Broadcast(clients, payload)
}

// SendSnapshot delivers the current online set to one newly attached
// connection. It goes through the same ordered queue as broadcasts so a
// snapshot can never arrive after an older set.
func (p *Presence) SendSnapshot(c *Client, online []string) {
	payload, err := EncodeFrame(BuildOnlineUsers(online))
	if err != nil {
		logger.Errorf("[presence] encode snapshot: %v", err)
		return
	}
	p.fan.Broadcast([]*Client{c}, payload)
}
