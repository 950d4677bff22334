package rooms

import (
	"Moneta/models/game"
	"Moneta/services/lifeevents"
	"errors"
	"log"
	"sort"
	"sync"
	"time"
)

// DefaultStartingCash seeds players who join a room whose host has not
// configured a starting amount yet.
const DefaultStartingCash = 100000.0

var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrGameAlreadyStarted   = errors.New("game already started")
	ErrGameNotStarted       = errors.New("game not started")
	ErrPlayerAlreadyPresent = errors.New("player already in room")
	ErrPlayerNotInRoom      = errors.New("player not in any room")
	ErrNotEnoughPlayers     = errors.New("at least two players are required to start")
)

type roomEntry struct {
	mu   sync.Mutex
	room *game.Room
}

// Registry is the single source of truth for roster and game state. Rooms
// are partitioned by code: the registry lock guards the room and reverse
// index maps, each room carries its own lock, and no cross-room lock is
// ever taken. Lock order is always registry before room; operations that
// mutate both a room and the maps hold the registry lock across the whole
// mutation so a room cannot be torn down mid-update.
type Registry struct {
	mu         sync.RWMutex
	rooms      map[string]*roomEntry
	playerRoom map[string]string // player id -> room code reverse index
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:      make(map[string]*roomEntry),
		playerRoom: make(map[string]string),
	}
}

// LeaveResult reports what happened when a player left their room.
type LeaveResult struct {
	RoomCode   string
	WasHost    bool
	RoomClosed bool
	Resumed    bool // the departure emptied a quiz-gated wait list
	Remaining  []string
}

// ClockState is a read-only view of a room's clock for the tick scheduler.
type ClockState struct {
	Started bool
	Ended   bool
	Paused  bool
	Year    int
	Month   int
}

// FiredEvent is a life event that just triggered, together with the player's
// resulting cash figure so the client can reconcile.
type FiredEvent struct {
	PlayerID string
	Event    game.LifeEvent
	NewCash  float64
	NewWorth float64
}

// Snapshot is the full game-state view broadcast to a room.
type Snapshot struct {
	RoomCode string            `json:"room_code"`
	HostID   string            `json:"host_id"`
	Players  []game.PlayerInfo `json:"players"`
	State    game.GameState    `json:"state"`
	Settings *game.AdminSettings `json:"settings,omitempty"`
}

func (r *Registry) entry(code string) (*roomEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rooms[code]
	return e, ok
}

// CreateRoom allocates a room with a unique 6-character code, seats the host
// at zero net worth and registers the reverse index.
func (r *Registry) CreateRoom(hostID, hostName string) (string, error) {
	if existing, ok := r.RoomCodeOf(hostID); ok {
		log.Printf("[ROOM] Player %s already in room %s, refusing create", hostID, existing)
		return "", ErrPlayerAlreadyPresent
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for {
		code = generateRoomCode()
		if _, taken := r.rooms[code]; !taken {
			break
		}
	}

	room := &game.Room{
		Code:   code,
		HostID: hostID,
		Players: map[string]*game.PlayerInfo{
			hostID: {ID: hostID, Name: hostName, IsHost: true},
		},
		JoinOrder: []string{hostID},
		State: game.GameState{
			CurrentYear:  1,
			CurrentMonth: 1,
			QuizWaiting:  []string{},
			LifeEvents:   make(map[string][]game.LifeEvent),
		},
		CreatedAt: time.Now(),
	}

	r.rooms[code] = &roomEntry{room: room}
	r.playerRoom[hostID] = code

	log.Printf("[ROOM] Created room %s (host %s)", code, hostID)
	return code, nil
}

// JoinRoom seats a player in an existing, not-yet-started room with the
// configured starting cash in their cash bucket. The registry lock is held
// for the whole seat so the reverse index and the roster commit together
// and never against a room the sweeper or a leaving host just removed.
func (r *Registry) JoinRoom(code, playerID, playerName string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.rooms[code]
	if !ok {
		return Snapshot{}, ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.room
	if room.State.Started {
		return Snapshot{}, ErrGameAlreadyStarted
	}
	if _, present := room.Players[playerID]; present {
		return Snapshot{}, ErrPlayerAlreadyPresent
	}

	startingCash := DefaultStartingCash
	if room.Settings != nil && room.Settings.StartingCash > 0 {
		startingCash = room.Settings.StartingCash
	}

	room.Players[playerID] = &game.PlayerInfo{
		ID:       playerID,
		Name:     playerName,
		NetWorth: startingCash,
		Breakdown: game.PortfolioBreakdown{
			Cash: startingCash,
		},
	}
	room.JoinOrder = append(room.JoinOrder, playerID)
	r.playerRoom[playerID] = code

	log.Printf("[ROOM] Player %s joined room %s", playerID, code)
	return snapshotLocked(room), nil
}

// LeaveRoom removes a player from their room. When the host leaves or the
// roster empties, the room and its tick timer are torn down and every
// reverse-index entry for that room is purged. The registry lock is held
// for the whole departure so no join can slip into a room between the
// roster snapshot and the teardown.
func (r *Registry) LeaveRoom(playerID string) (LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.playerRoom[playerID]
	if !ok {
		return LeaveResult{}, ErrPlayerNotInRoom
	}
	e, ok := r.rooms[code]
	if !ok {
		return LeaveResult{}, ErrRoomNotFound
	}

	e.mu.Lock()
	room := e.room
	_, present := room.Players[playerID]
	if !present {
		e.mu.Unlock()
		return LeaveResult{}, ErrPlayerNotInRoom
	}

	wasHost := room.HostID == playerID
	delete(room.Players, playerID)
	for i, id := range room.JoinOrder {
		if id == playerID {
			room.JoinOrder = append(room.JoinOrder[:i], room.JoinOrder[i+1:]...)
			break
		}
	}
	removeFromWaitList(&room.State, playerID)
	resumed := resumeIfBarrierClear(&room.State)

	result := LeaveResult{RoomCode: code, WasHost: wasHost, Resumed: resumed}
	for _, p := range room.Players {
		result.Remaining = append(result.Remaining, p.ID)
	}

	closeRoom := wasHost || len(room.Players) == 0
	if closeRoom {
		result.RoomClosed = true
		if room.Timer != nil {
			room.Timer.Stop()
			room.Timer = nil
		}
	}
	e.mu.Unlock()

	delete(r.playerRoom, playerID)
	if closeRoom {
		delete(r.rooms, code)
		for _, id := range result.Remaining {
			delete(r.playerRoom, id)
		}
	}

	if closeRoom {
		log.Printf("[ROOM] Room %s closed (host left: %v)", code, wasHost)
	} else {
		log.Printf("[ROOM] Player %s left room %s", playerID, code)
	}
	return result, nil
}

// RoomCodeOf resolves a player id to their current room code.
func (r *Registry) RoomCodeOf(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.playerRoom[playerID]
	return code, ok
}

// ValidateStart checks the preconditions for starting a room's game without
// mutating anything, so callers can initialize market data before committing.
func (r *Registry) ValidateStart(code string) error {
	e, ok := r.entry(code)
	if !ok {
		return ErrRoomNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.room.State.Started {
		return ErrGameAlreadyStarted
	}
	if len(e.room.Players) < 2 {
		return ErrNotEnoughPlayers
	}
	return nil
}

// StartGame freezes the admin configuration into the room, flips started and
// resets the clock to year 1, month 1. When the settings carry a starting
// cash amount, every seated player is reseeded to it so all clients begin
// from the same figure.
func (r *Registry) StartGame(code string, settings game.AdminSettings) error {
	e, ok := r.entry(code)
	if !ok {
		return ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.room
	if room.State.Started {
		return ErrGameAlreadyStarted
	}
	if len(room.Players) < 2 {
		return ErrNotEnoughPlayers
	}

	room.Settings = &settings
	room.State.Started = true
	room.State.CurrentYear = 1
	room.State.CurrentMonth = 1
	if settings.PauseForIntro {
		room.State.Paused = true
		room.State.PauseReason = game.PauseIntro
	}

	if settings.StartingCash > 0 {
		for _, p := range room.Players {
			p.NetWorth = settings.StartingCash
			p.Breakdown = game.PortfolioBreakdown{Cash: settings.StartingCash}
		}
	}

	log.Printf("[ROOM] Game started in room %s (%d players, %d years)",
		code, len(room.Players), settings.TotalYears)
	return nil
}

// SetTimer installs the opaque handle to the room's running tick timer.
func (r *Registry) SetTimer(code string, timer game.TimerHandle) {
	if e, ok := r.entry(code); ok {
		e.mu.Lock()
		e.room.Timer = timer
		e.mu.Unlock()
	}
}

// GenerateLifeEventsForRoom asks the generator for eventsCount events per
// seated player. One player's generation failing degrades to an empty list
// for that player and does not abort the others.
func (r *Registry) GenerateLifeEventsForRoom(code string, eventsCount int, gen lifeevents.Generator) error {
	e, ok := r.entry(code)
	if !ok {
		return ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.room
	totalYears := 0
	var schedule []byte
	if room.Settings != nil {
		totalYears = room.Settings.TotalYears
		schedule = room.Settings.UnlockSchedule
	}

	for _, playerID := range room.JoinOrder {
		events, err := gen.GenerateLifeEvents(eventsCount, schedule, totalYears)
		if err != nil {
			log.Printf("[ROOM-ERROR] Life event generation failed for player %s in room %s: %v",
				playerID, code, err)
			room.State.LifeEvents[playerID] = []game.LifeEvent{}
			continue
		}
		room.State.LifeEvents[playerID] = events
	}
	return nil
}

// UpdatePlayerState overwrites a player's last-reported net worth and
// breakdown. This is a display cache, not the anti-cheat path: no validation
// happens here.
func (r *Registry) UpdatePlayerState(playerID string, netWorth float64, breakdown game.PortfolioBreakdown) bool {
	code, ok := r.RoomCodeOf(playerID)
	if !ok {
		return false
	}
	e, ok := r.entry(code)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	player, present := e.room.Players[playerID]
	if !present {
		return false
	}
	player.NetWorth = netWorth
	player.Breakdown = breakdown
	return true
}

// GetLeaderboard returns the non-host players strictly ordered by net worth
// descending, ties broken by roster insertion order.
func (r *Registry) GetLeaderboard(code string) []game.PlayerInfo {
	e, ok := r.entry(code)
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.room
	board := make([]game.PlayerInfo, 0, len(room.Players))
	for _, id := range room.JoinOrder {
		p, present := room.Players[id]
		if !present || p.IsHost {
			continue
		}
		board = append(board, *p)
	}

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].NetWorth > board[j].NetWorth
	})
	return board
}

// MarkQuizStarted adds the player to the quiz wait list and force-pauses the
// room. Concurrent starts from different players all land on the same list.
func (r *Registry) MarkQuizStarted(playerID, category string) (string, error) {
	code, ok := r.RoomCodeOf(playerID)
	if !ok {
		return "", ErrPlayerNotInRoom
	}
	e, ok := r.entry(code)
	if !ok {
		return "", ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.room
	player, present := room.Players[playerID]
	if !present {
		return "", ErrPlayerNotInRoom
	}

	player.ActiveQuiz = category
	player.QuizDone = false

	waiting := false
	for _, id := range room.State.QuizWaiting {
		if id == playerID {
			waiting = true
			break
		}
	}
	if !waiting {
		room.State.QuizWaiting = append(room.State.QuizWaiting, playerID)
	}
	room.State.Paused = true
	room.State.PauseReason = game.PauseQuiz

	log.Printf("[QUIZ] Player %s started %s quiz in room %s (%d waiting)",
		playerID, category, code, len(room.State.QuizWaiting))
	return code, nil
}

// MarkQuizCompleted removes the player from the wait list. The room resumes
// exactly when the list empties, never earlier.
func (r *Registry) MarkQuizCompleted(playerID, category string) (string, bool, error) {
	code, ok := r.RoomCodeOf(playerID)
	if !ok {
		return "", false, ErrPlayerNotInRoom
	}
	e, ok := r.entry(code)
	if !ok {
		return "", false, ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.room
	player, present := room.Players[playerID]
	if !present {
		return "", false, ErrPlayerNotInRoom
	}

	player.ActiveQuiz = ""
	player.QuizDone = true
	removeFromWaitList(&room.State, playerID)
	shouldResume := resumeIfBarrierClear(&room.State)

	log.Printf("[QUIZ] Player %s completed %s quiz in room %s (resume: %v)",
		playerID, category, code, shouldResume)
	return code, shouldResume, nil
}

// TogglePause flips the manual pause state. A manual toggle can never
// override a quiz-gated barrier.
func (r *Registry) TogglePause(code string) (bool, bool) {
	e, ok := r.entry(code)
	if !ok {
		return false, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state := &e.room.State
	if state.PauseReason == game.PauseQuiz {
		return state.Paused, false
	}

	if state.Paused {
		state.Paused = false
		state.PauseReason = game.PauseNone
	} else {
		state.Paused = true
		state.PauseReason = game.PauseManual
	}
	return state.Paused, true
}

// ClockState returns a read-only view of the room's clock.
func (r *Registry) ClockState(code string) (ClockState, bool) {
	e, ok := r.entry(code)
	if !ok {
		return ClockState{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.room.State
	return ClockState{
		Started: s.Started,
		Ended:   s.Ended,
		Paused:  s.Paused,
		Year:    s.CurrentYear,
		Month:   s.CurrentMonth,
	}, true
}

// Settings returns a copy of the room's frozen admin configuration.
func (r *Registry) Settings(code string) (game.AdminSettings, bool) {
	e, ok := r.entry(code)
	if !ok {
		return game.AdminSettings{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.room.Settings == nil {
		return game.AdminSettings{}, false
	}
	return *e.room.Settings, true
}

// AdvanceMonth moves the room's clock one month forward, rolling the year
// past month 12. It reports ended=true without advancing when the next month
// would exceed the configured total duration.
func (r *Registry) AdvanceMonth(code string) (int, int, bool, bool) {
	e, ok := r.entry(code)
	if !ok {
		return 0, 0, false, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.room
	if !room.State.Started || room.State.Ended || room.Settings == nil {
		return room.State.CurrentYear, room.State.CurrentMonth, false, false
	}

	year, month := room.State.CurrentYear, room.State.CurrentMonth+1
	if month > 12 {
		month = 1
		year++
	}
	if year > room.Settings.TotalYears {
		room.State.Ended = true
		return room.State.CurrentYear, room.State.CurrentMonth, true, true
	}

	room.State.CurrentYear = year
	room.State.CurrentMonth = month
	return year, month, false, true
}

// MarkEnded flips the room into its terminal state and drops the timer
// handle. No further clock mutation is accepted afterwards.
func (r *Registry) MarkEnded(code string) {
	if e, ok := r.entry(code); ok {
		e.mu.Lock()
		e.room.State.Ended = true
		e.room.Timer = nil
		e.mu.Unlock()
	}
}

// FireDueLifeEvents flips every untriggered event scheduled for exactly
// (year, month) and applies its signed amount to the player's cached cash and
// net worth, so the server's leaderboard view stays consistent with the
// delivery the caller is about to make. The triggered flag flips before the
// result is returned, so a duplicate scan can never re-fire an event.
func (r *Registry) FireDueLifeEvents(code string, year, month int) []FiredEvent {
	e, ok := r.entry(code)
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	room := e.room
	var fired []FiredEvent
	for _, playerID := range room.JoinOrder {
		events := room.State.LifeEvents[playerID]
		player, present := room.Players[playerID]
		if !present {
			continue
		}
		for i := range events {
			ev := &events[i]
			if ev.Triggered || ev.Year != year || ev.Month != month {
				continue
			}
			ev.Triggered = true
			player.Breakdown.Cash += ev.Amount
			player.NetWorth += ev.Amount
			fired = append(fired, FiredEvent{
				PlayerID: playerID,
				Event:    *ev,
				NewCash:  player.Breakdown.Cash,
				NewWorth: player.NetWorth,
			})
		}
	}
	return fired
}

// GetSnapshot returns the full game-state view broadcast to a room.
func (r *Registry) GetSnapshot(code string) (Snapshot, bool) {
	e, ok := r.entry(code)
	if !ok {
		return Snapshot{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshotLocked(e.room), true
}

// CleanupOldRooms sweeps rooms that never started and exceeded the age
// threshold, returning the removed codes.
func (r *Registry) CleanupOldRooms(maxAge time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for code, e := range r.rooms {
		e.mu.Lock()
		stale := !e.room.State.Started && time.Since(e.room.CreatedAt) > maxAge
		var members []string
		if stale {
			for id := range e.room.Players {
				members = append(members, id)
			}
		}
		e.mu.Unlock()

		if stale {
			delete(r.rooms, code)
			for _, id := range members {
				delete(r.playerRoom, id)
			}
			removed = append(removed, code)
			log.Printf("[ROOM-SWEEP] Removed idle room %s", code)
		}
	}
	return removed
}

// RoomCount reports how many rooms are currently alive.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func removeFromWaitList(state *game.GameState, playerID string) {
	for i, id := range state.QuizWaiting {
		if id == playerID {
			state.QuizWaiting = append(state.QuizWaiting[:i], state.QuizWaiting[i+1:]...)
			break
		}
	}
}

// resumeIfBarrierClear lifts a quiz-gated pause once the wait list is empty.
func resumeIfBarrierClear(state *game.GameState) bool {
	if state.PauseReason != game.PauseQuiz || len(state.QuizWaiting) > 0 {
		return false
	}
	state.Paused = false
	state.PauseReason = game.PauseNone
	return true
}

func snapshotLocked(room *game.Room) Snapshot {
	players := make([]game.PlayerInfo, 0, len(room.Players))
	for _, id := range room.JoinOrder {
		if p, ok := room.Players[id]; ok {
			players = append(players, *p)
		}
	}
	state := room.State
	state.QuizWaiting = append([]string(nil), room.State.QuizWaiting...)
	return Snapshot{
		RoomCode: room.Code,
		HostID:   room.HostID,
		Players:  players,
		State:    state,
		Settings: room.Settings,
	}
}
