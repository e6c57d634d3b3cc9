package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-studio-bot/internal/campaign"
)

func TestStoreCreatesOnFirstUse(t *testing.T) {
	var created int
	store := NewStore(Options{
		NewController: func() *campaign.Controller {
			created++
			return campaign.NewController(campaign.ControllerOptions{})
		},
	})

	first := store.Get(1, 10, "alice")
	require.NotNil(t, first.Controller)
	assert.Equal(t, AwaitNone, first.Await)

	second := store.Get(1, 10, "alice")
	assert.Same(t, first.Controller, second.Controller)
	assert.Equal(t, 1, created)

	other := store.Get(1, 20, "bob")
	assert.NotSame(t, first.Controller, other.Controller)
	assert.Equal(t, 2, created)
}

func TestStoreUpdateReturnsCopy(t *testing.T) {
	store := NewStore(Options{})

	updated := store.Update(1, 10, "alice", func(s *Session) {
		s.Draft.ProductName = "Lavender Soap"
		s.Await = AwaitAudience
	})
	assert.Equal(t, "Lavender Soap", updated.Draft.ProductName)

	// Mutating the returned copy must not leak into the store.
	updated.Draft.ProductName = "changed"
	assert.Equal(t, "Lavender Soap", store.Get(1, 10, "alice").Draft.ProductName)
}

func TestStoreRestart(t *testing.T) {
	store := NewStore(Options{})

	store.Update(1, 10, "alice", func(s *Session) {
		s.Draft.ProductName = "Lavender Soap"
		s.Await = AwaitInstruction
		s.MessageID = 42
	})

	sess := store.Restart(1, 10, "alice")
	assert.Equal(t, AwaitProductName, sess.Await)
	assert.Empty(t, sess.Draft.ProductName)
	assert.Zero(t, sess.MessageID)
	require.NotNil(t, sess.Controller)
	assert.Equal(t, campaign.StageAwaitingInputs, sess.Controller.Snapshot().Stage)
}
