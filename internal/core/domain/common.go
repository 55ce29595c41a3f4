package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID Reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID Reference
}

// Period is a closed date interval [From, To].
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// IsValid reports whether From is not after To.
func (p Period) IsValid() bool {
	return !p.To.Before(p.From)
}

// Contains reports whether t falls within the closed interval.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.From) && !t.After(p.To)
}

// EndOfDay returns the last instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// Inclusive returns a copy of p whose To covers the whole last day.
// Budget periods are stored as calendar dates.
func (p Period) Inclusive() Period {
	return Period{From: p.From, To: EndOfDay(p.To)}
}
