package domain

import (
	"math"
	"time"
)

// DashboardStats is the flat snapshot shown on the admin dashboard.
type DashboardStats struct {
	AccountsTotal         int64          `json:"accounts_total"`
	AccountsByRole        map[Role]int64 `json:"accounts_by_role"`
	ActiveAccounts        int64          `json:"active_accounts"`
	MoviesTotal           int64          `json:"movies_total"`
	PublishedMovies       int64          `json:"published_movies"`
	DevicesTotal          int64          `json:"devices_total"`
	RevenueCents          int64          `json:"revenue_cents"`
	RevenueThisPeriod     int64          `json:"revenue_this_period"`
	RevenuePrevPeriod     int64          `json:"revenue_prev_period"`
	RevenueDeltaPct       float64        `json:"revenue_delta_pct"`
	NewAccountsThisPeriod int64          `json:"new_accounts_this_period"`
	NewAccountsPrevPeriod int64          `json:"new_accounts_prev_period"`
	NewAccountsDeltaPct   float64        `json:"new_accounts_delta_pct"`
	GeneratedAt           time.Time      `json:"generated_at"`
}

// PercentDelta returns the change from prev to cur in percent, rounded to one
// decimal. A zero baseline yields 100 when anything was gained and 0 otherwise.
func PercentDelta(cur, prev int64) float64 {
	if prev == 0 {
		if cur > 0 {
			return 100
		}
		return 0
	}
	pct := float64(cur-prev) / float64(prev) * 100
	return math.Round(pct*10) / 10
}
