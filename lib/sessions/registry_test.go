package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ConnectExecDiscard(t *testing.T) {
	r := NewRegistry()

	sess, err := r.Connect("inst-1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Id)
	assert.Equal(t, "inst-1", sess.InstanceId)
	assert.False(t, sess.CreatedAt.IsZero())

	out, err := r.Exec(sess.Id, "whoami")
	require.NoError(t, err)
	assert.Equal(t, "admin", out)

	got, err := r.Get(sess.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommandsExecuted)

	require.NoError(t, r.Discard(sess.Id))
	_, err = r.Get(sess.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistry_ExecUnknownSession(t *testing.T) {
	r := NewRegistry()

	_, err := r.Exec("no-such-session", "ls")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistry_DoubleDiscard(t *testing.T) {
	r := NewRegistry()

	sess, err := r.Connect("inst-1")
	require.NoError(t, err)

	require.NoError(t, r.Discard(sess.Id))
	assert.ErrorIs(t, r.Discard(sess.Id), ErrSessionNotFound,
		"discarded ids are never reusable")
}

func TestRegistry_SessionIdsAreUnique(t *testing.T) {
	r := NewRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		sess, err := r.Connect("inst-1")
		require.NoError(t, err)
		assert.False(t, seen[sess.Id], "session ids must be unique")
		seen[sess.Id] = true
	}
}

func TestRegistry_ConnectRateLimited(t *testing.T) {
	r := NewRegistry()

	// Burst capacity is 30; draining it makes the next connect fail.
	var rateErr error
	for i := 0; i < 40; i++ {
		if _, err := r.Connect("inst-1"); err != nil {
			rateErr = err
			break
		}
	}
	assert.ErrorIs(t, rateErr, ErrTooManySessions)
}

func TestRegistry_SessionsDecoupledFromInstances(t *testing.T) {
	r := NewRegistry()

	// The registry does not validate instance existence; that is the
	// caller's concern. Any id is accepted.
	sess, err := r.Connect("ghost-instance")
	require.NoError(t, err)
	assert.Equal(t, "ghost-instance", sess.InstanceId)
}
