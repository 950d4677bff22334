package lifeevents

import (
	"Moneta/models/game"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
)

// Generator produces the scheduled one-shot gains and losses applied to a
// single player over the game horizon. Implementations may fail; callers
// degrade a failed player to an empty list.
type Generator interface {
	GenerateLifeEvents(count int, unlockSchedule json.RawMessage, totalYears int) ([]game.LifeEvent, error)
}

var ErrNoHorizon = errors.New("game horizon not configured")

type template struct {
	message string
	isGain  bool
	min     float64
	max     float64
}

var templates = []template{
	{"You received a year-end bonus at work", true, 5000, 40000},
	{"A relative left you a small inheritance", true, 10000, 80000},
	{"You won a local lottery prize", true, 2000, 20000},
	{"Your side project got acquired", true, 15000, 60000},
	{"Your car broke down and needed major repairs", false, -30000, -4000},
	{"An unexpected medical bill arrived", false, -50000, -8000},
	{"Your apartment needed emergency plumbing work", false, -15000, -2000},
	{"You had to help a family member financially", false, -25000, -5000},
}

// RandomGenerator draws events from a fixed template pool and schedules them
// uniformly inside the game horizon, skipping year 1 month 1 so nothing fires
// on the opening tick.
type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) GenerateLifeEvents(count int, unlockSchedule json.RawMessage, totalYears int) ([]game.LifeEvent, error) {
	if totalYears < 1 {
		return nil, ErrNoHorizon
	}

	// The unlock schedule is opaque curriculum content: it is validated as
	// JSON and otherwise passed through untouched.
	if len(unlockSchedule) > 0 && !json.Valid(unlockSchedule) {
		return nil, errors.New("unlock schedule is not valid JSON")
	}

	events := make([]game.LifeEvent, 0, count)
	for i := 0; i < count; i++ {
		t := templates[rand.Intn(len(templates))]
		amount := t.min + rand.Float64()*(t.max-t.min)

		year := 1 + rand.Intn(totalYears)
		month := 1 + rand.Intn(12)
		if year == 1 && month == 1 {
			month = 2
		}

		events = append(events, game.LifeEvent{
			ID:      fmt.Sprintf("evt-%d-%d", year*100+month, rand.Intn(1000000)),
			IsGain:  t.isGain,
			Message: t.message,
			Amount:  float64(int(amount)), // whole currency units
			Year:    year,
			Month:   month,
		})
	}
	return events, nil
}
