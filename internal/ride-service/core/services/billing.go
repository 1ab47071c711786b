package services

import "time"

// Billing periods run Saturday 00:00:00 through Friday 23:59:59.999 in the
// service's local time zone. The Saturday anchor is a business rule, not a
// default; do not "fix" it to Monday.

// BillingPeriod returns the Saturday-to-Friday week enclosing t. Both
// boundaries are wall-clock times: a DST transition inside the week changes
// its duration, never its calendar edges.
func BillingPeriod(t time.Time) (weekStart, weekEnd time.Time) {
	// days elapsed since the most recent Saturday
	sinceSaturday := (int(t.Weekday()) + 1) % 7
	y, m, d := t.AddDate(0, 0, -sinceSaturday).Date()
	weekStart = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	ey, em, ed := weekStart.AddDate(0, 0, 6).Date()
	weekEnd = time.Date(ey, em, ed, 23, 59, 59, int(999*time.Millisecond), t.Location())
	return weekStart, weekEnd
}

// BillingDate renders a period boundary as a calendar date.
func BillingDate(t time.Time) string {
	return t.Format("2006-01-02")
}
