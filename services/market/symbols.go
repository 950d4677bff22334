package market

import (
	"Moneta/models/game"
	"sort"
)

// Symbols every session always tracks, independent of the host's selection.
var alwaysOnSymbols = []string{"GOLD"}

// GetGameSymbols returns the deduplicated, deterministically ordered symbol
// set for a session: the always-on symbols plus everything the host selected.
func GetGameSymbols(assets game.SelectedAssets) []string {
	seen := make(map[string]bool)
	var symbols []string

	add := func(list []string) {
		for _, s := range list {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			symbols = append(symbols, s)
		}
	}

	add(alwaysOnSymbols)
	add(assets.Stocks)
	add(assets.Funds)
	add(assets.Crypto)
	add(assets.Commodities)
	add(assets.REITs)

	sort.Strings(symbols)
	return symbols
}
