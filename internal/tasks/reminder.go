package tasks

import "strings"

const (
	reminderAtNine = "TRIGGER:P0DT9H0M0S"
	reminderOnTime = "TRIGGER:PT0S"
)

// ParseReminder maps a short reminder phrase to a TickTick trigger.
// "0" and "now" fire at the due time; anything else, including "9:00" and
// "9am", fires at 09:00 on the due day. Strings that already are triggers
// pass through.
func ParseReminder(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "trigger:"):
		return strings.ToUpper(s)
	case s == "0" || s == "now":
		return reminderOnTime
	default:
		return reminderAtNine
	}
}
