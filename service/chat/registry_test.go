package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(connID, userID string) *Client {
	return NewClient(connID, userID, nil, 8)
}

func TestIsSentinel(t *testing.T) {
	assert.True(t, IsSentinel(""))
	assert.True(t, IsSentinel("undefined"))
	assert.True(t, IsSentinel("null"))
	assert.False(t, IsSentinel("alice"))
	assert.False(t, IsSentinel("Undefined"))
}

func TestRegistrySentinelNeverRegistered(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"", "undefined", "null"} {
		c := newTestClient("conn-"+id, id)
		r.Attach(c)
		assert.False(t, r.Register(c))
	}
	assert.Empty(t, r.Online())
	assert.Len(t, r.Clients(), 3, "sentinel connections stay in the broadcast audience")
}

func TestRegistryLastConnectWins(t *testing.T) {
	r := NewRegistry()
	c1 := newTestClient("c1", "alice")
	c2 := newTestClient("c2", "alice")

	require.True(t, r.Register(c1))
	require.True(t, r.Register(c2))

	got, ok := r.Resolve("alice")
	require.True(t, ok)
	assert.Same(t, c2, got)
	assert.Equal(t, []string{"alice"}, r.Online())
}

func TestRegistryUnregisterGuardsAgainstStaleConn(t *testing.T) {
	r := NewRegistry()
	c1 := newTestClient("c1", "alice")
	c2 := newTestClient("c2", "alice")
	require.True(t, r.Register(c1))
	require.True(t, r.Register(c2))

	// The overwritten connection tears down late; alice must stay online.
	assert.False(t, r.Unregister(c1))
	assert.Equal(t, []string{"alice"}, r.Online())

	got, ok := r.Resolve("alice")
	require.True(t, ok)
	assert.Same(t, c2, got)

	assert.True(t, r.Unregister(c2))
	assert.Empty(t, r.Online())
	assert.False(t, r.Unregister(c2), "second unregister is a no-op")
}

func TestRegistryOnlineSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"carol", "alice", "bob"} {
		require.True(t, r.Register(newTestClient("c-"+id, id)))
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, r.Online())
}

func TestRegistryNotifyOrderMatchesMutationOrder(t *testing.T) {
	r := NewRegistry()
	var snaps [][]string
	r.SetNotify(func(online []string, _ []*Client) {
		snap := make([]string, len(online))
		copy(snap, online)
		snaps = append(snaps, snap)
	})

	a := newTestClient("ca", "alice")
	b := newTestClient("cb", "bob")
	require.True(t, r.Register(a))
	require.True(t, r.Register(b))
	require.True(t, r.Unregister(a))

	require.Len(t, snaps, 3)
	assert.Equal(t, []string{"alice"}, snaps[0])
	assert.Equal(t, []string{"alice", "bob"}, snaps[1])
	assert.Equal(t, []string{"bob"}, snaps[2])
}

func TestRegistryNotifyIncludesUnregisteredConns(t *testing.T) {
	r := NewRegistry()
	ghost := newTestClient("ghost", "undefined")
	r.Attach(ghost)

	var audience []*Client
	r.SetNotify(func(_ []string, clients []*Client) {
		audience = clients
	})

	a := newTestClient("ca", "alice")
	r.Attach(a)
	require.True(t, r.Register(a))

	require.Len(t, audience, 2)
	assert.Contains(t, audience, ghost)
	assert.Contains(t, audience, a)
}

func TestRegistryDetachShrinksAudienceOnly(t *testing.T) {
	r := NewRegistry()
	a := newTestClient("ca", "alice")
	r.Attach(a)
	require.True(t, r.Register(a))

	r.Detach(a)
	assert.Empty(t, r.Clients())
	assert.Equal(t, []string{"alice"}, r.Online(), "detach alone does not change presence")
}
