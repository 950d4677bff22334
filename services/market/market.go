package market

import (
	"Moneta/models/game"
	"Moneta/models/postgres"
	redissvc "Moneta/services/redis"
	"fmt"
	"log"

	"gorm.io/gorm"
)

// PriceSource supplies authoritative prices to the session coordinator.
type PriceSource interface {
	GetPricesForDate(symbols []string, calendarYear, calendarMonth int) (game.PriceSnapshot, error)
	PreloadPricesForGame(symbols []string, startYear, totalYears int)
}

// Service reads the historical price repository through GORM with a
// redis-backed month cache in front of it.
type Service struct {
	db    *gorm.DB
	cache *redissvc.RedisClient
}

func NewService(db *gorm.DB, cache *redissvc.RedisClient) *Service {
	return &Service{db: db, cache: cache}
}

// GetPricesForDate returns one month's prices for the requested symbols.
// Symbols with no price row for that month are simply absent from the
// snapshot; the crypto layer encodes them as the 0.0 sentinel.
func (s *Service) GetPricesForDate(symbols []string, calendarYear, calendarMonth int) (game.PriceSnapshot, error) {
	month, err := s.monthSnapshot(calendarYear, calendarMonth)
	if err != nil {
		return nil, err
	}

	snapshot := make(game.PriceSnapshot, len(symbols))
	for _, symbol := range symbols {
		if price, ok := month[symbol]; ok {
			snapshot[symbol] = price
		}
	}
	if len(snapshot) == 0 {
		return nil, fmt.Errorf("no price data for %d-%02d", calendarYear, calendarMonth)
	}
	return snapshot, nil
}

// monthSnapshot loads a full calendar month, cache first.
func (s *Service) monthSnapshot(year, month int) (game.PriceSnapshot, error) {
	if s.cache != nil {
		cached, err := s.cache.GetMonthPrices(year, month)
		if err != nil {
			log.Printf("[MARKET-CACHE-ERROR] %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	var rows []postgres.HistoricalPrice
	if err := s.db.Where("year = ? AND month = ?", year, month).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error reading prices for %d-%02d: %v", year, month, err)
	}

	snapshot := make(game.PriceSnapshot, len(rows))
	for _, row := range rows {
		snapshot[row.Symbol] = row.Price
	}

	if s.cache != nil && len(snapshot) > 0 {
		if err := s.cache.SaveMonthPrices(year, month, snapshot); err != nil {
			log.Printf("[MARKET-CACHE-ERROR] Error caching prices for %d-%02d: %v", year, month, err)
		}
	}
	return snapshot, nil
}

// PreloadPricesForGame warms the month cache for the whole game horizon.
// Best effort: failures are logged, never fatal, and no caller depends on it.
func (s *Service) PreloadPricesForGame(symbols []string, startYear, totalYears int) {
	for year := startYear; year < startYear+totalYears; year++ {
		for month := 1; month <= 12; month++ {
			if _, err := s.monthSnapshot(year, month); err != nil {
				log.Printf("[MARKET-PRELOAD] Skipping %d-%02d: %v", year, month, err)
			}
		}
	}
	log.Printf("[MARKET-PRELOAD] Warmed price cache for %d years from %d (%d symbols)",
		totalYears, startYear, len(symbols))
}
