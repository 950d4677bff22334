package coordinator

import (
	"Moneta/models/game"
	"Moneta/services/lifeevents"
	"Moneta/services/market"
	"Moneta/services/roomcrypto"
	"Moneta/services/rooms"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// leaderboardCoalesceWindow bounds how often a room's leaderboard is pushed:
// bursts of player-state updates collapse into one trailing broadcast.
const leaderboardCoalesceWindow = 2 * time.Second

// defaults applied when the host leaves settings blank
const (
	defaultTotalYears      = 20
	defaultStartYear       = 2000
	defaultMonthDurationMs = 10000
	defaultLifeEventsCount = 3
)

var (
	ErrKeysUnavailable = errors.New("session keys not available for this room")
	ErrStartInProgress = errors.New("session start already in progress")
)

// Broadcaster delivers events to a whole room or a single player. The
// socket.io server implements it; tests substitute a recorder.
type Broadcaster interface {
	ToRoom(roomCode, event string, payload interface{})
	ToPlayer(playerID, event string, payload interface{}) bool
}

// Finalizer persists final per-player outcomes when a session ends.
type Finalizer interface {
	FinalizeSession(roomCode string, players []game.PlayerInfo) (map[string]string, error)
}

// Coordinator drives the per-room clock and all broadcast orchestration. It
// never touches room or player state directly: every mutation goes through
// the rooms.Registry, and all key material stays inside the KeyRegistry.
type Coordinator struct {
	registry *rooms.Registry
	keys     *roomcrypto.KeyRegistry
	market   market.PriceSource
	events   lifeevents.Generator
	persist  Finalizer
	bc       Broadcaster

	mu       sync.Mutex
	pending  map[string]*time.Timer // per-room coalesced leaderboard broadcast
	starting map[string]bool        // rooms with a start attempt in flight
}

func New(registry *rooms.Registry, keys *roomcrypto.KeyRegistry, priceSource market.PriceSource,
	events lifeevents.Generator, persist Finalizer, bc Broadcaster) *Coordinator {
	return &Coordinator{
		registry: registry,
		keys:     keys,
		market:   priceSource,
		events:   events,
		persist:  persist,
		bc:       bc,
		pending:  make(map[string]*time.Timer),
		starting: make(map[string]bool),
	}
}

// BeginSession takes a room from Idle to Running: it confirms market data is
// actually available, issues the session keys, freezes the settings, seeds
// life events and installs the tick timer. Any initialization failure leaves
// the room Idle and is returned to the host; no timer is created.
func (c *Coordinator) BeginSession(roomCode string, settings game.AdminSettings) error {
	// One start attempt per room at a time. Without this, a concurrent
	// loser's key cleanup would destroy the keys the winner just issued.
	c.mu.Lock()
	if c.starting[roomCode] {
		c.mu.Unlock()
		return ErrStartInProgress
	}
	c.starting[roomCode] = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.starting, roomCode)
		c.mu.Unlock()
	}()

	if err := c.registry.ValidateStart(roomCode); err != nil {
		return err
	}

	applyDefaults(&settings)

	symbols := market.GetGameSymbols(settings.SelectedAssets)

	// Fail the start attempt early if the first month has no prices: a room
	// must never enter Running without confirmed market data.
	if _, err := c.market.GetPricesForDate(symbols, settings.StartYear, 1); err != nil {
		log.Printf("[START-ERROR] Market data unavailable for room %s: %v", roomCode, err)
		return fmt.Errorf("market data unavailable, try again: %v", err)
	}

	go c.market.PreloadPricesForGame(symbols, settings.StartYear, settings.TotalYears)

	if _, err := c.keys.InitializeRoomKeys(roomCode, symbols); err != nil {
		log.Printf("[START-ERROR] Key initialization failed for room %s: %v", roomCode, err)
		return fmt.Errorf("session key initialization failed: %v", err)
	}

	if err := c.registry.StartGame(roomCode, settings); err != nil {
		c.keys.CleanupRoomKeys(roomCode)
		return err
	}

	if err := c.registry.GenerateLifeEventsForRoom(roomCode, settings.LifeEventsCount, c.events); err != nil {
		// Isolated per-player failures are already degraded inside the
		// registry; only a missing room lands here.
		log.Printf("[START-ERROR] Life event generation failed for room %s: %v", roomCode, err)
	}

	timer := c.StartTimeProgression(roomCode, time.Duration(settings.MonthDurationMs)*time.Millisecond)
	c.registry.SetTimer(roomCode, timer)

	snapshot, _ := c.registry.GetSnapshot(roomCode)
	c.bc.ToRoom(roomCode, "game_started", gin.H{
		"room_code":   roomCode,
		"year":        1,
		"month":       1,
		"total_years": settings.TotalYears,
		"paused":      snapshot.State.Paused,
		"state":       snapshot,
	})

	log.Printf("[START] Session running in room %s", roomCode)
	return nil
}

func applyDefaults(settings *game.AdminSettings) {
	if settings.TotalYears <= 0 {
		settings.TotalYears = defaultTotalYears
	}
	if settings.StartYear <= 0 {
		settings.StartYear = defaultStartYear
	}
	if settings.MonthDurationMs <= 0 {
		settings.MonthDurationMs = defaultMonthDurationMs
	}
	if settings.LifeEventsCount <= 0 {
		settings.LifeEventsCount = defaultLifeEventsCount
	}
}

// RequestLeaderboardBroadcast schedules a leaderboard push for the room. A
// request while one is already pending is silently coalesced: only the
// trailing broadcast fires, carrying the latest state at fire time.
func (c *Coordinator) RequestLeaderboardBroadcast(roomCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, pendingAlready := c.pending[roomCode]; pendingAlready {
		return
	}
	c.pending[roomCode] = time.AfterFunc(leaderboardCoalesceWindow, func() {
		c.mu.Lock()
		delete(c.pending, roomCode)
		c.mu.Unlock()

		board := c.registry.GetLeaderboard(roomCode)
		c.bc.ToRoom(roomCode, "leaderboard_update", gin.H{"leaderboard": board})
	})
}

// KeyExchangePayload builds the key-exchange response for a room: the
// session key plus the symbol-index map clients need to decode compacted
// price arrays.
func (c *Coordinator) KeyExchangePayload(roomCode string) (gin.H, error) {
	state, keys := c.keys.Lookup(roomCode)
	if state != roomcrypto.KeysReady {
		return nil, ErrKeysUnavailable
	}
	return gin.H{
		"room_code":    roomCode,
		"session_key":  base64.StdEncoding.EncodeToString(keys.Key),
		"symbol_index": keys.SymbolIndex,
		"created_at":   keys.CreatedAt.UnixMilli(),
	}, nil
}

// HandleKeyExchange answers a client's key request: the payload is returned
// for the direct response, pushed separately so late-joining sockets that
// missed the direct response still converge, and, when the clock is already
// running, followed by one out-of-band price tick so the requester need not
// wait for the next scheduled one.
func (c *Coordinator) HandleKeyExchange(roomCode, playerID string) (gin.H, error) {
	payload, err := c.KeyExchangePayload(roomCode)
	if err != nil {
		return nil, err
	}

	c.bc.ToPlayer(playerID, "key_exchange_response", payload)

	clock, ok := c.registry.ClockState(roomCode)
	if ok && clock.Started && !clock.Ended {
		if tick, err := c.buildPriceTick(roomCode, clock.Year, clock.Month); err == nil {
			c.bc.ToPlayer(playerID, "price_tick", tick)
		} else {
			log.Printf("[KEY-EXCHANGE] No out-of-band tick for room %s: %v", roomCode, err)
		}
	}
	return payload, nil
}

// buildPriceTick fetches, compacts and encrypts one month's prices.
func (c *Coordinator) buildPriceTick(roomCode string, year, month int) (gin.H, error) {
	settings, ok := c.registry.Settings(roomCode)
	if !ok {
		return nil, rooms.ErrGameNotStarted
	}

	state, keys := c.keys.Lookup(roomCode)
	if state != roomcrypto.KeysReady {
		return nil, ErrKeysUnavailable
	}

	calendarYear := settings.StartYear + year - 1
	snapshot, err := c.market.GetPricesForDate(keys.Symbols, calendarYear, month)
	if err != nil {
		return nil, err
	}

	payload, err := c.keys.EncryptPriceData(roomCode, snapshot)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"year":    year,
		"month":   month,
		"payload": payload,
	}, nil
}

// CleanupRoom cancels any pending leaderboard broadcast and destroys the
// room's key material. Called when a room is torn down outside the normal
// end-of-game path (host left, roster emptied, idle sweep).
func (c *Coordinator) CleanupRoom(roomCode string) {
	c.mu.Lock()
	if timer, ok := c.pending[roomCode]; ok {
		timer.Stop()
		delete(c.pending, roomCode)
	}
	c.mu.Unlock()

	c.keys.CleanupRoomKeys(roomCode)
}
