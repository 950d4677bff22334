package coordinator

import (
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// TimeProgression is the opaque handle to one room's running tick timer.
type TimeProgression struct {
	stop chan struct{}
	once sync.Once
}

// Stop cancels the timer. Safe to call more than once.
func (t *TimeProgression) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// StartTimeProgression installs a recurring timer that advances the room's
// simulated clock by one month per firing. All firings for one room run on a
// single goroutine, so two ticks for the same room are never in flight at
// once: if a tick overruns the interval, the intervening firings are dropped
// by the ticker rather than queued.
func (c *Coordinator) StartTimeProgression(roomCode string, monthDuration time.Duration) *TimeProgression {
	handle := &TimeProgression{stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(monthDuration)
		defer ticker.Stop()
		for {
			select {
			case <-handle.stop:
				return
			case <-ticker.C:
				if !c.Tick(roomCode) {
					return
				}
			}
		}
	}()

	log.Printf("[SCHEDULER] Time progression started for room %s (month = %s)", roomCode, monthDuration)
	return handle
}

// Tick performs one scheduled advancement for a room. It returns false when
// the timer should self-terminate: the room is gone, never started, or just
// reached its terminal year.
//
// Ordering inside one tick is fixed: the encrypted price broadcast always
// precedes the plain time-progression notice for the same (year, month), so
// clients hold price material before the update that would prompt them to
// act on it; life-event deliveries come after both, and only after each
// event's triggered flag has been flipped in the registry.
func (c *Coordinator) Tick(roomCode string) bool {
	clock, ok := c.registry.ClockState(roomCode)
	if !ok || !clock.Started || clock.Ended {
		return false
	}

	// A paused room skips this firing entirely: no time, no prices, no
	// events, and no catch-up later.
	if clock.Paused {
		return true
	}

	year, month, ended, ok := c.registry.AdvanceMonth(roomCode)
	if !ok {
		return false
	}
	if ended {
		c.endSession(roomCode)
		return false
	}

	if tick, err := c.buildPriceTick(roomCode, year, month); err != nil {
		// Simulated time is authoritative: a market-data hiccup skips this
		// tick's price broadcast but never stalls the clock.
		log.Printf("[TICK-ERROR] Price tick skipped for room %s at %d/%d: %v", roomCode, year, month, err)
	} else {
		c.bc.ToRoom(roomCode, "price_tick", tick)
	}

	c.bc.ToRoom(roomCode, "time_progression", gin.H{
		"year":  year,
		"month": month,
	})

	for _, fired := range c.registry.FireDueLifeEvents(roomCode, year, month) {
		c.bc.ToPlayer(fired.PlayerID, "life_event_triggered", gin.H{
			"event":     fired.Event,
			"new_cash":  fired.NewCash,
			"net_worth": fired.NewWorth,
		})
	}

	if snapshot, ok := c.registry.GetSnapshot(roomCode); ok {
		c.bc.ToRoom(roomCode, "game_state", snapshot)
	}
	return true
}

// endSession finalizes a room that reached its terminal year: persist every
// player's outcome, push the final leaderboard, announce the end and destroy
// the key material.
func (c *Coordinator) endSession(roomCode string) {
	log.Printf("[GAME-END] Room %s reached its final year", roomCode)

	c.registry.MarkEnded(roomCode)

	snapshot, ok := c.registry.GetSnapshot(roomCode)
	if ok {
		players := snapshot.Players[:0:0]
		for _, p := range snapshot.Players {
			if !p.IsHost {
				players = append(players, p)
			}
		}

		if _, err := c.persist.FinalizeSession(roomCode, players); err != nil {
			// Persistence is a bounded external dependency: its failure is
			// logged, the in-memory leaderboard below still goes out.
			log.Printf("[GAME-END-ERROR] Error persisting session records for room %s: %v", roomCode, err)
		}
	}

	board := c.registry.GetLeaderboard(roomCode)
	c.bc.ToRoom(roomCode, "leaderboard_update", gin.H{"leaderboard": board, "final": true})
	c.bc.ToRoom(roomCode, "game_ended", gin.H{
		"room_code":   roomCode,
		"leaderboard": board,
	})

	c.keys.CleanupRoomKeys(roomCode)
}
