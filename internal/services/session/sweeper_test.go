package session_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"agentlink/internal/services/session"
)

func TestSweeper_PurgesExpired(t *testing.T) {
	clk := newClock()
	st := session.NewStore(session.WithMaxAge(time.Second), session.WithClock(clk.Now))
	a, _ := channels(t)
	_, err := st.Create("s", client, server, a)
	require.NoError(t, err)
	clk.Advance(2 * time.Second)

	var runs atomic.Int32
	sw := session.NewSweeper(10*time.Millisecond, zerolog.Nop())
	require.NoError(t, sw.Register("sessions", func() int {
		runs.Add(1)
		return st.CleanupExpired()
	}))
	sw.Start()
	defer sw.Stop()

	require.Eventually(t, func() bool {
		return runs.Load() > 0 && st.Stats().Total == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweeper_RejectsNonPositiveInterval(t *testing.T) {
	sw := session.NewSweeper(0, zerolog.Nop())
	require.Error(t, sw.Register("noop", func() int { return 0 }))
}
