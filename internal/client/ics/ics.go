// Package ics generates iCalendar files with book return reminders. The
// output layout is byte-compatible with what the browser front end
// produces, so events import identically in calendar apps.
package ics

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// test seam
var timeNow = time.Now

var filenameSanitizeRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// reminder describes one scheduled notice ahead of the due date.
type reminder struct {
	Days    int
	Title   string
	Urgency string
}

var multiReminders = []reminder{
	{Days: 7, Title: "Book Return Notice", Urgency: "First Notice"},
	{Days: 3, Title: "Book Return Reminder", Urgency: "Important"},
	{Days: 1, Title: "Book Due Tomorrow", Urgency: "URGENT"},
}

// formatDate renders a timestamp in the compact UTC form calendar apps
// expect: YYYYMMDDTHHMMSSZ.
func formatDate(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func newUID() string {
	fragment := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%d-%s@library-app.com", timeNow().UnixMilli(), fragment)
}

// vevent assembles one VEVENT block with a display alarm firing
// alarmMinutes before the event.
func vevent(title, description string, start, end time.Time, alarmMinutes int) []string {
	return []string{
		"BEGIN:VEVENT",
		"UID:" + newUID(),
		"DTSTAMP:" + formatDate(timeNow()),
		"DTSTART:" + formatDate(start),
		"DTEND:" + formatDate(end),
		"SUMMARY:" + title,
		"DESCRIPTION:" + description,
		"LOCATION:University Library",
		"STATUS:CONFIRMED",
		"TRANSP:OPAQUE",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"DESCRIPTION:" + title,
		fmt.Sprintf("TRIGGER:-PT%dM", alarmMinutes),
		"END:VALARM",
		"END:VEVENT",
	}
}

func calendar(prodID string, events []string) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		prodID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	lines = append(lines, events...)
	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n")
}

// reminderSlot returns the event window for a notice N days before the
// due date: 09:00 to 10:00 local time.
func reminderSlot(dueDate time.Time, daysBefore int) (time.Time, time.Time) {
	day := dueDate.AddDate(0, 0, -daysBefore)
	start := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, day.Location())
	end := start.Add(time.Hour)
	return start, end
}

// BookReminder builds a single-event calendar: one notice three days
// before the due date.
func BookReminder(bookTitle, author string, dueDate time.Time) string {
	start, end := reminderSlot(dueDate, 3)

	title := "Book Return Reminder: " + bookTitle
	description := strings.Join([]string{
		"Book: " + bookTitle,
		"Author: " + author,
		"Due Date: " + dueDate.Format("1/2/2006"),
		"",
		"This book is due in 3 days!",
		"Please return it to the library on time to avoid late fees.",
		"",
		"Location: University Library",
		"Contact: library@university.edu",
	}, "\\n")

	event := vevent(title, description, start, end, 60)
	return calendar("PRODID:-//Library App//Book Reminder//EN", event)
}

// BookReminders builds a calendar with escalating notices 7, 3 and 1 days
// before the due date.
func BookReminders(bookTitle, author string, dueDate time.Time) string {
	var events []string
	for _, r := range multiReminders {
		start, end := reminderSlot(dueDate, r.Days)

		plural := "s"
		if r.Days == 1 {
			plural = ""
		}
		title := r.Title + ": " + bookTitle
		description := strings.Join([]string{
			"Book: " + bookTitle,
			"Author: " + author,
			"Due Date: " + dueDate.Format("1/2/2006"),
			"Priority: " + r.Urgency,
			"",
			fmt.Sprintf("This book is due in %d day%s!", r.Days, plural),
			"Please return it to the library on time to avoid late fees.",
			"",
			"Location: University Library",
			"Contact: library@university.edu",
		}, "\\n")

		events = append(events, vevent(title, description, start, end, 60)...)
	}

	return calendar("PRODID:-//Library App//Book Reminders//EN", events)
}

// ReminderFilename names the single-reminder calendar file.
func ReminderFilename(bookTitle string) string {
	return "book-reminder-" + filenameSanitizeRe.ReplaceAllString(bookTitle, "-") + ".ics"
}

// RemindersFilename names the multi-reminder calendar file.
func RemindersFilename(bookTitle string) string {
	return "book-reminders-" + filenameSanitizeRe.ReplaceAllString(bookTitle, "-") + ".ics"
}

// WriteFile saves calendar content next to the working directory.
func WriteFile(filename, content string) error {
	return os.WriteFile(filename, []byte(content), 0o644)
}
