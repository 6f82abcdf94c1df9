package core

import "time"

// DeliveryStatus labels an expected delivery date relative to today.
type DeliveryStatus string

const (
	DeliveryToday        DeliveryStatus = "Today"
	DeliveryTomorrow     DeliveryStatus = "Tomorrow"
	DeliveryOverdue      DeliveryStatus = "Overdue"
	DeliveryFuture       DeliveryStatus = "Future Date"
	DeliveryNotSpecified DeliveryStatus = "Not Specified"
)

// Display tones consumed by renderers.
const (
	ToneInfo    = "info"
	ToneWarning = "warning"
	ToneDanger  = "danger"
	ToneMuted   = "muted"
)

// ClassifyDelivery labels the expected delivery date by calendar day in now's location.
// A recognised label precomputed by the server wins over the local computation.
// The result affects display only, never whether receiving is allowed.
func ClassifyDelivery(expected *string, precomputed string, now time.Time) DeliveryStatus {
	switch s := DeliveryStatus(precomputed); s {
	case DeliveryToday, DeliveryTomorrow, DeliveryOverdue, DeliveryFuture, DeliveryNotSpecified:
		return s
	}

	if expected == nil || len(*expected) < len(DateLayout) {
		return DeliveryNotSpecified
	}
	date, err := time.ParseInLocation(DateLayout, DateOnly(*expected), now.Location())
	if err != nil {
		return DeliveryNotSpecified
	}

	today := startOfDay(now)
	switch {
	case date.Before(today):
		return DeliveryOverdue
	case date.Equal(today):
		return DeliveryToday
	case date.Equal(today.AddDate(0, 0, 1)):
		return DeliveryTomorrow
	default:
		return DeliveryFuture
	}
}

// Tone maps the status to a display tone.
func (s DeliveryStatus) Tone() string {
	switch s {
	case DeliveryToday:
		return ToneWarning
	case DeliveryTomorrow:
		return ToneInfo
	case DeliveryOverdue:
		return ToneDanger
	case DeliveryFuture:
		return ToneInfo
	default:
		return ToneMuted
	}
}

// DateOnly reduces a date or timestamp string to its YYYY-MM-DD prefix.
func DateOnly(s string) string {
	if len(s) > len(DateLayout) {
		return s[:len(DateLayout)]
	}
	return s
}
