package service

import (
	"strings"
	"time"

	"github.com/noah-isme/tutorpay-api/internal/models"
)

// DayMatch pairs one scheduled calendar day inside an assignment window with
// the earliest session link delivered that day, if any.
type DayMatch struct {
	Date      time.Time           `json:"date"`
	Scheduled time.Time           `json:"scheduled"`
	Event     *models.SessionLink `json:"event,omitempty"`
}

var clockLayouts = []string{"15:04:05", "15:04", "3:04 PM", "3:04PM", "3 PM"}

// ParseClockTime converts a stored time-slot string into its offset from
// midnight. Accepts the forms assignments are recorded with ("9:00 AM",
// "09:00", "14:00"); anything unparseable falls back to midnight rather than
// failing the computation.
func ParseClockTime(slot string) time.Duration {
	slot = strings.TrimSpace(slot)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(slot)); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
		}
	}
	return 0
}

// MatchWindow walks every calendar day the window covers inside [from, to)
// and associates at most one session link per day: the one with the earliest
// SentAt for the window's student. Events must be ordered by (sent_at, id)
// so ties resolve deterministically.
func MatchWindow(window models.AssignmentWindow, events []models.SessionLink, from, to time.Time) []DayMatch {
	start, end, ok := window.Clip(from, to)
	if !ok {
		return nil
	}
	earliest := make(map[time.Time]*models.SessionLink)
	for i := range events {
		event := events[i]
		if event.StudentID != window.StudentID {
			continue
		}
		day := event.Day()
		if _, seen := earliest[day]; !seen {
			earliest[day] = &events[i]
		}
	}

	offset := ParseClockTime(window.TimeSlot)
	var matches []DayMatch
	// Matching resolves at calendar-day granularity: the clipped start is
	// rounded down to midnight, and any event on that day counts even when
	// its SentAt precedes the clip instant.
	for day := dayOf(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		matches = append(matches, DayMatch{
			Date:      day,
			Scheduled: day.Add(offset),
			Event:     earliest[day],
		})
	}
	return matches
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
