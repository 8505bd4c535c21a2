package storefront

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitions(t *testing.T) {
	// the per-order cycle
	require.True(t, CanTransition(StateClosed, StateOpening))
	require.True(t, CanTransition(StateOpening, StateReady))
	require.True(t, CanTransition(StateReady, StateSubmitting))
	require.True(t, CanTransition(StateSubmitting, StateConfirmed))
	require.True(t, CanTransition(StateConfirmed, StateReady))

	// transient failure returns to ready without reopening
	require.True(t, CanTransition(StateSubmitting, StateReady))

	// teardown is reachable from everywhere
	for _, from := range []State{StateOpening, StateReady, StateSubmitting, StateConfirmed} {
		require.True(t, CanTransition(from, StateClosed), "from %s", from)
	}

	// no shortcuts
	require.False(t, CanTransition(StateClosed, StateReady))
	require.False(t, CanTransition(StateReady, StateConfirmed))
	require.False(t, CanTransition(StateConfirmed, StateSubmitting))
	require.False(t, CanTransition(StateClosed, StateClosed))
}

func TestStateString(t *testing.T) {
	require.Equal(t, "closed", StateClosed.String())
	require.Equal(t, "submitting", StateSubmitting.String())
	require.Equal(t, "unknown", State(42).String())
}

func TestHeadLabel(t *testing.T) {
	id, label := HeadLabel("3")
	require.Equal(t, "3", id)
	require.Equal(t, "D.A.V.E head", label)

	// unknown ids fall back to the first option
	id, label = HeadLabel("99")
	require.Equal(t, "1", id)
	require.Equal(t, "Roll-a-thor head", label)
}

func TestNavigatorStartsClosed(t *testing.T) {
	n := NewNavigator(Options{URL: "https://example.com"})
	require.Equal(t, StateClosed, n.State())

	// closing a never-opened navigator is a no-op
	n.Close()
	require.Equal(t, StateClosed, n.State())
}
