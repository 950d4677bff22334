package game

import (
	"encoding/json"
	"time"
)

// PauseReason explains why a room's clock is not advancing.
type PauseReason string

const (
	PauseNone   PauseReason = ""
	PauseQuiz   PauseReason = "quiz"
	PauseManual PauseReason = "manual"
	PauseIntro  PauseReason = "intro"
)

// PortfolioBreakdown holds the per-category valuation of a player's assets.
type PortfolioBreakdown struct {
	Cash        float64 `json:"cash"`
	Savings     float64 `json:"savings"`
	Gold        float64 `json:"gold"`
	Funds       float64 `json:"funds"`
	Stocks      float64 `json:"stocks"`
	Crypto      float64 `json:"crypto"`
	Commodities float64 `json:"commodities"`
	REITs       float64 `json:"reits"`
}

// PlayerInfo is the per-player state kept in a room's roster.
type PlayerInfo struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	IsHost     bool               `json:"is_host"`
	NetWorth   float64            `json:"net_worth"`
	Breakdown  PortfolioBreakdown `json:"breakdown"`
	ActiveQuiz string             `json:"active_quiz"` // quiz category, empty if none
	QuizDone   bool               `json:"quiz_done"`
}

// LifeEvent is a scheduled one-shot gain or loss applied to a single player.
type LifeEvent struct {
	ID        string  `json:"id"`
	IsGain    bool    `json:"is_gain"`
	Message   string  `json:"message"`
	Amount    float64 `json:"amount"` // signed: negative for losses
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	Triggered bool    `json:"triggered"`
}

// SelectedAssets lists the market symbols the host picked for the session,
// grouped by category. Gold is always on and not selectable.
type SelectedAssets struct {
	Stocks      []string `json:"stocks"`
	Funds       []string `json:"funds"`
	Crypto      []string `json:"crypto"`
	Commodities []string `json:"commodities"`
	REITs       []string `json:"reits"`
}

// AdminSettings is the host configuration frozen into the room when the
// session starts. The schedule/quote/quiz fields are opaque: the coordinator
// stores and forwards them but never interprets them.
type AdminSettings struct {
	StartingCash    float64         `json:"starting_cash"`
	TotalYears      int             `json:"total_years"`
	StartYear       int             `json:"start_year"` // calendar year for price lookups
	MonthDurationMs int             `json:"month_duration_ms"`
	LifeEventsCount int             `json:"life_events_count"`
	PauseForIntro   bool            `json:"pause_for_intro"`
	SelectedAssets  SelectedAssets  `json:"selected_assets"`
	UnlockSchedule  json.RawMessage `json:"unlock_schedule"`
	FlavorQuotes    json.RawMessage `json:"flavor_quotes"`
	QuizIndexMap    json.RawMessage `json:"quiz_index_map"`
}

// GameState is the clock and pause state embedded in a room.
//
// Invariants: Paused is true iff PauseReason != PauseNone, and QuizWaiting is
// non-empty iff PauseReason == PauseQuiz.
type GameState struct {
	Started      bool                   `json:"started"`
	Ended        bool                   `json:"ended"`
	Paused       bool                   `json:"paused"`
	PauseReason  PauseReason            `json:"pause_reason"`
	CurrentYear  int                    `json:"current_year"`
	CurrentMonth int                    `json:"current_month"`
	QuizWaiting  []string               `json:"quiz_waiting"`
	LifeEvents   map[string][]LifeEvent `json:"-"`
}

// Room is one isolated multiplayer session. All mutation goes through the
// rooms.Registry so the invariants stay centrally enforced.
type Room struct {
	Code      string
	HostID    string
	Players   map[string]*PlayerInfo
	JoinOrder []string // roster insertion order, used for stable leaderboard ties
	Settings  *AdminSettings
	State     GameState
	CreatedAt time.Time
	Timer     TimerHandle // present only while the session is running
}

// TimerHandle is the opaque handle to a room's running tick timer.
type TimerHandle interface {
	Stop()
}

// PriceSnapshot maps market symbols to one simulated month's authoritative
// prices.
type PriceSnapshot map[string]float64

// FixedDeposit is a term deposit submitted by a client for valuation.
type FixedDeposit struct {
	Amount         float64 `json:"amount"`
	AnnualRate     float64 `json:"annual_rate"` // percent, e.g. 7.0
	DurationMonths int     `json:"duration_months"`
	StartYear      int     `json:"start_year"`  // simulated year
	StartMonth     int     `json:"start_month"` // simulated month
}

// Holdings maps asset category -> symbol -> quantity held.
type Holdings map[string]map[string]float64
