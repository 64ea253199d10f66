package models

import "sort"

// SectorMap maps a sector name to its benchmark ETF symbol. It is built once
// at startup and injected into the services that need it; components never
// reach for a package-level map.
type SectorMap map[string]string

// DefaultSectorMap returns the standard 11-sector US benchmark mapping.
func DefaultSectorMap() SectorMap {
	return SectorMap{
		"Technology":             "XLK",
		"Financial Services":     "XLF",
		"Healthcare":             "XLV",
		"Energy":                 "XLE",
		"Consumer Defensive":     "XLP",
		"Consumer Cyclical":      "XLY",
		"Industrials":            "XLI",
		"Utilities":              "XLU",
		"Basic Materials":        "XLB",
		"Real Estate":            "XLRE",
		"Communication Services": "XLC",
	}
}

// ETF resolves the benchmark ETF symbol for a sector.
func (m SectorMap) ETF(sector string) (string, bool) {
	etf, ok := m[sector]
	return etf, ok
}

// ETFs returns all benchmark ETF symbols, sorted.
func (m SectorMap) ETFs() []string {
	etfs := make([]string, 0, len(m))
	for _, etf := range m {
		etfs = append(etfs, etf)
	}
	sort.Strings(etfs)
	return etfs
}

// Merge returns a copy of the map with overrides applied on top. The receiver
// is not modified.
func (m SectorMap) Merge(overrides map[string]string) SectorMap {
	merged := make(SectorMap, len(m)+len(overrides))
	for sector, etf := range m {
		merged[sector] = etf
	}
	for sector, etf := range overrides {
		merged[sector] = etf
	}
	return merged
}
