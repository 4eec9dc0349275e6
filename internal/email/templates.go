package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

type TeamChangeDetails struct {
	PlayerName string
	EventTitle string
	FieldName  string
	Date       string
	TimeRange  string
	// Group is the human label of the new group: "Team A", "Team B" or
	// "the reserve".
	Group string
}

type KickoffReminderDetails struct {
	PlayerName string
	EventTitle string
	FieldName  string
	Date       string
	TimeRange  string
	Team       string
}

// FormatDateTimeRange renders an event's date and kickoff window in the
// event's location.
func FormatDateTimeRange(start, end time.Time) (string, string) {
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s %s", start.Format("3:04 PM"), end.Format("3:04 PM"), start.Format("MST"))
	return date, timeRange
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func BuildTeamChangeEmail(details TeamChangeDetails) Message {
	title := orDefault(details.EventTitle, "your match")
	group := orDefault(details.Group, "a new group")

	var headline string
	if group == "the reserve" {
		headline = fmt.Sprintf("You have been moved to the reserve for %s.", title)
	} else {
		headline = fmt.Sprintf("You are playing for %s in %s.", group, title)
	}

	lines := []string{
		fmt.Sprintf("Hi %s,", orDefault(details.PlayerName, "there")),
		"",
		headline,
		"",
		fmt.Sprintf("Field: %s", orDefault(details.FieldName, "TBD")),
		fmt.Sprintf("Date: %s", orDefault(details.Date, "TBD")),
		fmt.Sprintf("Kickoff: %s", orDefault(details.TimeRange, "TBD")),
	}

	return Message{
		Subject: fmt.Sprintf("Team change - %s", title),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildKickoffReminderEmail(details KickoffReminderDetails) Message {
	title := orDefault(details.EventTitle, "your match")

	lines := []string{
		fmt.Sprintf("Hi %s,", orDefault(details.PlayerName, "there")),
		"",
		fmt.Sprintf("Reminder: %s kicks off soon.", title),
		"",
		fmt.Sprintf("Field: %s", orDefault(details.FieldName, "TBD")),
		fmt.Sprintf("Date: %s", orDefault(details.Date, "TBD")),
		fmt.Sprintf("Kickoff: %s", orDefault(details.TimeRange, "TBD")),
	}
	if team := strings.TrimSpace(details.Team); team != "" {
		lines = append(lines, fmt.Sprintf("Team: %s", team))
	}

	return Message{
		Subject: fmt.Sprintf("Kickoff reminder - %s", title),
		Body:    strings.Join(lines, "\n"),
	}
}
