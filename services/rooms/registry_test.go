package rooms

import (
	"Moneta/models/game"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator returns a fixed schedule, or an error for players when
// failing is set, so registry-level degradation can be observed.
type stubGenerator struct {
	events  []game.LifeEvent
	failing bool
}

func (g *stubGenerator) GenerateLifeEvents(count int, unlockSchedule json.RawMessage, totalYears int) ([]game.LifeEvent, error) {
	if g.failing {
		return nil, assert.AnError
	}
	out := make([]game.LifeEvent, len(g.events))
	copy(out, g.events)
	return out, nil
}

func startedRoom(t *testing.T, r *Registry, totalYears int) string {
	t.Helper()
	code, err := r.CreateRoom("host", "Host")
	require.NoError(t, err)
	_, err = r.JoinRoom(code, "alice", "Alice")
	require.NoError(t, err)
	_, err = r.JoinRoom(code, "bob", "Bob")
	require.NoError(t, err)
	require.NoError(t, r.StartGame(code, game.AdminSettings{TotalYears: totalYears}))
	return code
}

func TestCreateRoomCodes(t *testing.T) {
	r := NewRegistry()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := r.CreateRoom(string(rune('a'+i%26))+string(rune('0'+i/26)), "p")
		require.NoError(t, err)

		assert.Len(t, code, 6)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true

		for _, c := range code {
			assert.True(t, strings.ContainsRune(codeCharset, c),
				"code %s contains glyph %c outside the charset", code, c)
		}
	}

	// Ambiguous glyphs never appear.
	assert.NotContains(t, codeCharset, "0")
	assert.NotContains(t, codeCharset, "O")
	assert.NotContains(t, codeCharset, "1")
	assert.NotContains(t, codeCharset, "I")
	assert.NotContains(t, codeCharset, "L")
}

func TestCreateRoomWhileSeated(t *testing.T) {
	r := NewRegistry()

	_, err := r.CreateRoom("host", "Host")
	require.NoError(t, err)

	_, err = r.CreateRoom("host", "Host")
	assert.ErrorIs(t, err, ErrPlayerAlreadyPresent)
}

func TestJoinRoom(t *testing.T) {
	r := NewRegistry()
	code, err := r.CreateRoom("host", "Host")
	require.NoError(t, err)

	t.Run("unknown room", func(t *testing.T) {
		_, err := r.JoinRoom("ZZZZZZ", "alice", "Alice")
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})

	t.Run("seats player with starting cash", func(t *testing.T) {
		snapshot, err := r.JoinRoom(code, "alice", "Alice")
		require.NoError(t, err)
		require.Len(t, snapshot.Players, 2)

		alice := snapshot.Players[1]
		assert.Equal(t, "alice", alice.ID)
		assert.Equal(t, DefaultStartingCash, alice.NetWorth)
		assert.Equal(t, DefaultStartingCash, alice.Breakdown.Cash)
	})

	t.Run("double join rejected", func(t *testing.T) {
		_, err := r.JoinRoom(code, "alice", "Alice")
		assert.ErrorIs(t, err, ErrPlayerAlreadyPresent)
	})

	t.Run("join after start rejected", func(t *testing.T) {
		require.NoError(t, r.StartGame(code, game.AdminSettings{TotalYears: 5}))
		_, err := r.JoinRoom(code, "carol", "Carol")
		assert.ErrorIs(t, err, ErrGameAlreadyStarted)
	})
}

func TestStartGame(t *testing.T) {
	t.Run("needs two players", func(t *testing.T) {
		r := NewRegistry()
		code, _ := r.CreateRoom("host", "Host")

		assert.ErrorIs(t, r.ValidateStart(code), ErrNotEnoughPlayers)
		assert.ErrorIs(t, r.StartGame(code, game.AdminSettings{TotalYears: 5}), ErrNotEnoughPlayers)
	})

	t.Run("resets clock and freezes settings", func(t *testing.T) {
		r := NewRegistry()
		code := startedRoom(t, r, 10)

		clock, ok := r.ClockState(code)
		require.True(t, ok)
		assert.True(t, clock.Started)
		assert.Equal(t, 1, clock.Year)
		assert.Equal(t, 1, clock.Month)

		settings, ok := r.Settings(code)
		require.True(t, ok)
		assert.Equal(t, 10, settings.TotalYears)

		assert.ErrorIs(t, r.StartGame(code, game.AdminSettings{}), ErrGameAlreadyStarted)
	})

	t.Run("reseeds player cash", func(t *testing.T) {
		r := NewRegistry()
		code, _ := r.CreateRoom("host", "Host")
		_, err := r.JoinRoom(code, "alice", "Alice")
		require.NoError(t, err)

		require.NoError(t, r.StartGame(code, game.AdminSettings{TotalYears: 5, StartingCash: 50000}))

		snapshot, ok := r.GetSnapshot(code)
		require.True(t, ok)
		for _, p := range snapshot.Players {
			assert.Equal(t, 50000.0, p.NetWorth, "player %s", p.ID)
			assert.Equal(t, 50000.0, p.Breakdown.Cash, "player %s", p.ID)
		}
	})

	t.Run("pause for intro", func(t *testing.T) {
		r := NewRegistry()
		code, _ := r.CreateRoom("host", "Host")
		_, err := r.JoinRoom(code, "alice", "Alice")
		require.NoError(t, err)

		require.NoError(t, r.StartGame(code, game.AdminSettings{TotalYears: 5, PauseForIntro: true}))

		clock, _ := r.ClockState(code)
		assert.True(t, clock.Paused)
	})
}

func TestLeaveRoom(t *testing.T) {
	t.Run("regular player leaves", func(t *testing.T) {
		r := NewRegistry()
		code := startedRoom(t, r, 5)

		result, err := r.LeaveRoom("alice")
		require.NoError(t, err)
		assert.Equal(t, code, result.RoomCode)
		assert.False(t, result.WasHost)
		assert.False(t, result.RoomClosed)
		assert.ElementsMatch(t, []string{"host", "bob"}, result.Remaining)

		_, ok := r.RoomCodeOf("alice")
		assert.False(t, ok)
	})

	t.Run("host leaving closes the room", func(t *testing.T) {
		r := NewRegistry()
		code := startedRoom(t, r, 5)

		result, err := r.LeaveRoom("host")
		require.NoError(t, err)
		assert.True(t, result.WasHost)
		assert.True(t, result.RoomClosed)

		_, ok := r.GetSnapshot(code)
		assert.False(t, ok)
		_, ok = r.RoomCodeOf("bob")
		assert.False(t, ok, "reverse index must be purged for every member")
		assert.Equal(t, 0, r.RoomCount())
	})

	t.Run("unknown player", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.LeaveRoom("ghost")
		assert.ErrorIs(t, err, ErrPlayerNotInRoom)
	})
}

func TestQuizBarrier(t *testing.T) {
	t.Run("resumes only when the wait list empties", func(t *testing.T) {
		r := NewRegistry()
		code := startedRoom(t, r, 5)

		_, err := r.MarkQuizStarted("alice", "stocks")
		require.NoError(t, err)
		_, err = r.MarkQuizStarted("bob", "stocks")
		require.NoError(t, err)

		clock, _ := r.ClockState(code)
		assert.True(t, clock.Paused)

		_, resumed, err := r.MarkQuizCompleted("alice", "stocks")
		require.NoError(t, err)
		assert.False(t, resumed, "one player still in the quiz")

		_, resumed, err = r.MarkQuizCompleted("bob", "stocks")
		require.NoError(t, err)
		assert.True(t, resumed)

		clock, _ = r.ClockState(code)
		assert.False(t, clock.Paused)
	})

	t.Run("duplicate start is idempotent", func(t *testing.T) {
		r := NewRegistry()
		code := startedRoom(t, r, 5)

		_, err := r.MarkQuizStarted("alice", "funds")
		require.NoError(t, err)
		_, err = r.MarkQuizStarted("alice", "funds")
		require.NoError(t, err)

		_, resumed, err := r.MarkQuizCompleted("alice", "funds")
		require.NoError(t, err)
		assert.True(t, resumed, "a single completion must clear a single seat")

		snapshot, _ := r.GetSnapshot(code)
		assert.Empty(t, snapshot.State.QuizWaiting)
	})

	t.Run("manual toggle cannot override quiz gate", func(t *testing.T) {
		r := NewRegistry()
		code := startedRoom(t, r, 5)

		_, err := r.MarkQuizStarted("alice", "crypto")
		require.NoError(t, err)

		paused, toggled := r.TogglePause(code)
		assert.True(t, paused)
		assert.False(t, toggled)
	})

	t.Run("blocker leaving resumes the room", func(t *testing.T) {
		r := NewRegistry()
		code := startedRoom(t, r, 5)

		_, err := r.MarkQuizStarted("alice", "reits")
		require.NoError(t, err)

		result, err := r.LeaveRoom("alice")
		require.NoError(t, err)
		assert.True(t, result.Resumed)

		clock, _ := r.ClockState(code)
		assert.False(t, clock.Paused)
	})
}

func TestTogglePause(t *testing.T) {
	r := NewRegistry()
	code := startedRoom(t, r, 5)

	paused, toggled := r.TogglePause(code)
	assert.True(t, paused)
	assert.True(t, toggled)

	paused, toggled = r.TogglePause(code)
	assert.False(t, paused)
	assert.True(t, toggled)

	_, toggled = r.TogglePause("ZZZZZZ")
	assert.False(t, toggled)
}

func TestAdvanceMonth(t *testing.T) {
	r := NewRegistry()
	code := startedRoom(t, r, 1)

	// Months 2..12 of the single configured year.
	for expected := 2; expected <= 12; expected++ {
		year, month, ended, ok := r.AdvanceMonth(code)
		require.True(t, ok)
		assert.False(t, ended)
		assert.Equal(t, 1, year)
		assert.Equal(t, expected, month)
	}

	// The step past the final December ends the game without advancing.
	year, month, ended, ok := r.AdvanceMonth(code)
	require.True(t, ok)
	assert.True(t, ended)
	assert.Equal(t, 1, year)
	assert.Equal(t, 12, month)

	// Terminal state accepts no further mutation.
	_, _, _, ok = r.AdvanceMonth(code)
	assert.False(t, ok)
}

func TestAdvanceMonthRollsYear(t *testing.T) {
	r := NewRegistry()
	code := startedRoom(t, r, 2)

	for i := 0; i < 11; i++ {
		r.AdvanceMonth(code)
	}
	year, month, ended, ok := r.AdvanceMonth(code)
	require.True(t, ok)
	assert.False(t, ended)
	assert.Equal(t, 2, year)
	assert.Equal(t, 1, month)
}

func TestGetLeaderboard(t *testing.T) {
	r := NewRegistry()
	code := startedRoom(t, r, 5)

	require.True(t, r.UpdatePlayerState("alice", 150000, game.PortfolioBreakdown{Cash: 150000}))
	require.True(t, r.UpdatePlayerState("bob", 150000, game.PortfolioBreakdown{Cash: 150000}))

	board := r.GetLeaderboard(code)
	require.Len(t, board, 2, "host must be excluded")

	// Equal net worths keep roster insertion order.
	assert.Equal(t, "alice", board[0].ID)
	assert.Equal(t, "bob", board[1].ID)

	require.True(t, r.UpdatePlayerState("bob", 200000, game.PortfolioBreakdown{Cash: 200000}))
	board = r.GetLeaderboard(code)
	assert.Equal(t, "bob", board[0].ID)
	assert.Equal(t, "alice", board[1].ID)
}

func TestFireDueLifeEvents(t *testing.T) {
	r := NewRegistry()
	code := startedRoom(t, r, 5)

	gen := &stubGenerator{events: []game.LifeEvent{
		{ID: "e1", Message: "bonus", IsGain: true, Amount: 10000, Year: 1, Month: 3},
		{ID: "e2", Message: "repair", IsGain: false, Amount: -5000, Year: 2, Month: 1},
	}}
	require.NoError(t, r.GenerateLifeEventsForRoom(code, 2, gen))

	t.Run("nothing due before schedule", func(t *testing.T) {
		assert.Empty(t, r.FireDueLifeEvents(code, 1, 2))
	})

	t.Run("fires once and applies cash", func(t *testing.T) {
		fired := r.FireDueLifeEvents(code, 1, 3)
		require.Len(t, fired, 3, "one event per seated player")

		for _, f := range fired {
			assert.Equal(t, "e1", f.Event.ID)
			assert.True(t, f.Event.Triggered)
		}

		snapshot, _ := r.GetSnapshot(code)
		for _, p := range snapshot.Players {
			if p.IsHost {
				continue
			}
			assert.Equal(t, DefaultStartingCash+10000, p.Breakdown.Cash, "player %s", p.ID)
			assert.Equal(t, DefaultStartingCash+10000, p.NetWorth, "player %s", p.ID)
		}

		// A duplicate scan of the same month re-fires nothing.
		assert.Empty(t, r.FireDueLifeEvents(code, 1, 3))
	})
}

func TestGenerateLifeEventsDegradesPerPlayer(t *testing.T) {
	r := NewRegistry()
	code := startedRoom(t, r, 5)

	require.NoError(t, r.GenerateLifeEventsForRoom(code, 2, &stubGenerator{failing: true}))

	// Failed generation leaves empty lists, never blocks the start.
	assert.Empty(t, r.FireDueLifeEvents(code, 1, 2))
}

func TestCleanupOldRooms(t *testing.T) {
	r := NewRegistry()

	stale, err := r.CreateRoom("host1", "H1")
	require.NoError(t, err)
	fresh := startedRoom(t, r, 5)

	removed := r.CleanupOldRooms(0)
	assert.Equal(t, []string{stale}, removed)

	_, ok := r.GetSnapshot(stale)
	assert.False(t, ok)
	_, ok = r.RoomCodeOf("host1")
	assert.False(t, ok)

	// Started rooms are never swept regardless of age.
	_, ok = r.GetSnapshot(fresh)
	assert.True(t, ok)

	removed = r.CleanupOldRooms(time.Hour)
	assert.Empty(t, removed)
}

func TestJoinAndSweepConcurrently(t *testing.T) {
	r := NewRegistry()
	code, err := r.CreateRoom("host", "Host")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			id := fmt.Sprintf("p%d", i)
			if _, err := r.JoinRoom(code, id, id); err == nil {
				r.LeaveRoom(id)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			r.CleanupOldRooms(time.Hour)
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("join and sweep stopped making progress against each other")
	}

	// The room itself is untouched: it is too young to sweep.
	_, ok := r.GetSnapshot(code)
	assert.True(t, ok)
}

func TestHostLeaveDuringJoinLeavesNoDanglingIndex(t *testing.T) {
	for i := 0; i < 100; i++ {
		r := NewRegistry()
		code, err := r.CreateRoom("host", "Host")
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.JoinRoom(code, "joiner", "Joiner")
		}()
		go func() {
			defer wg.Done()
			r.LeaveRoom("host")
		}()
		wg.Wait()

		// Whatever the interleaving, the closed room leaves no trace: the
		// joiner is never indexed into a dead room and can open a fresh one.
		_, ok := r.RoomCodeOf("joiner")
		assert.False(t, ok)
		assert.Equal(t, 0, r.RoomCount())

		_, err = r.CreateRoom("joiner", "Joiner")
		assert.NoError(t, err)
	}
}
