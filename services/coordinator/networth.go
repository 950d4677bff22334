package coordinator

import (
	"Moneta/models/game"
	"Moneta/services/roomcrypto"
	"Moneta/services/rooms"
	"Moneta/services/valuation"
	"log"

	"github.com/gin-gonic/gin"
)

// NetworthClaim is a client's self-reported valuation with the raw positions
// the server needs to recompute it.
type NetworthClaim struct {
	NetWorth      float64             `json:"net_worth"`
	Cash          float64             `json:"cash"`
	Savings       float64             `json:"savings"`
	FixedDeposits []game.FixedDeposit `json:"fixed_deposits"`
	Holdings      game.Holdings       `json:"holdings"`
}

// ValidateNetworthClaim recomputes a player's net worth from their submitted
// positions and the server's own prices at the room's current simulated
// date, and compares the claim against it. Out-of-tolerance claims are
// flagged in the response and logged, not rejected: enforcement is a policy
// decision left to callers.
func (c *Coordinator) ValidateNetworthClaim(roomCode, playerID string, claim NetworthClaim) (gin.H, error) {
	clock, ok := c.registry.ClockState(roomCode)
	if !ok || !clock.Started {
		return nil, rooms.ErrGameNotStarted
	}
	settings, ok := c.registry.Settings(roomCode)
	if !ok {
		return nil, rooms.ErrGameNotStarted
	}
	state, keys := c.keys.Lookup(roomCode)
	if state != roomcrypto.KeysReady {
		return nil, ErrKeysUnavailable
	}

	calendarYear := settings.StartYear + clock.Year - 1
	prices, err := c.market.GetPricesForDate(keys.Symbols, calendarYear, clock.Month)
	if err != nil {
		return nil, err
	}

	total, breakdown := valuation.CalculateServerNetworth(
		claim.Cash, claim.Savings, claim.FixedDeposits, claim.Holdings, prices,
		clock.Year, clock.Month)
	result := valuation.ValidateNetworth(claim.NetWorth, total)

	if !result.Valid {
		log.Printf("[NETWORTH-FLAG] Player %s in room %s claimed %.2f, server computed %.2f (%.2f%% off)",
			playerID, roomCode, claim.NetWorth, total, result.Deviation)
	}

	return gin.H{
		"valid":            result.Valid,
		"deviation":        result.Deviation,
		"server_net_worth": total,
		"server_breakdown": breakdown,
	}, nil
}
