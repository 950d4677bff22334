package postgres

/*
 * 'HistoricalPrice' is one symbol's authoritative valuation for one calendar
 * month. The price repository is read-only from the coordinator's point of
 * view; rows are loaded by an external ingestion job.
 */
type HistoricalPrice struct {
	ID     uint    `gorm:"primaryKey"`
	Symbol string  `gorm:"size:20;index:idx_prices_symbol_date,priority:1;not null"`
	Year   int     `gorm:"index:idx_prices_symbol_date,priority:2;not null"`
	Month  int     `gorm:"index:idx_prices_symbol_date,priority:3;not null"`
	Price  float64 `gorm:"not null"`
}
