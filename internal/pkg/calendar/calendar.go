// Package calendar renders roster entries as an iCalendar (RFC 5545) feed.
package calendar

import (
	"time"

	ics "github.com/arran4/golang-ical"
)

const productID = "-//cmlabs-hris//roster-backend-go//EN"

type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Created     time.Time
}

// Render builds a PUBLISH calendar with one VEVENT per event. stamp is written as DTSTAMP.
func Render(name string, events []Event, stamp time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, e := range events {
		event := cal.AddEvent(e.UID)
		event.SetDtStampTime(stamp.UTC())
		event.SetCreatedTime(e.Created.UTC())
		event.SetStartAt(e.Start.UTC())
		event.SetEndAt(e.End.UTC())
		event.SetSummary(e.Summary)
		if e.Description != "" {
			event.SetDescription(e.Description)
		}
		if e.Location != "" {
			event.SetLocation(e.Location)
		}
	}

	return []byte(cal.Serialize())
}
