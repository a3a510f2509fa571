package quotes

import (
	"fmt"
	"time"

	"quotes-backend/internal/shared/util"
)

// Follow-up reminders are anchored at this hour of the salesperson's
// calendar time zone before the fixed offsets are applied. A quotation
// issued on day D yields reminders at 09:00 on D+2 and D+3.
const anchorHour = 9

// Each reminder blocks ten minutes on the calendar, matching the original
// CRM's events.
const eventDuration = 10 * time.Minute

var followupOffsets = []struct {
	tag    string
	offset time.Duration
}{
	{tag: "48h", offset: 48 * time.Hour},
	{tag: "72h", offset: 72 * time.Hour},
}

// FollowupEvent is one planned reminder. Key is the idempotency key: a
// stable hash of (quote number, vendor, tag) that doubles as the calendar
// event ID, so duplicate submissions collapse onto the same event.
type FollowupEvent struct {
	Tag     string
	Key     string
	Subject string
	Body    string
	Start   time.Time
	End     time.Time
}

// FollowupPlan holds exactly two planned reminders for one quotation.
type FollowupPlan struct {
	QuoteNumber string
	VendorID    string
	Events      []FollowupEvent
}

// Plan derives the two follow-up events from a validated record. It is a
// pure function of the record and the calendar time zone and never fails.
func Plan(rec QuoteRecord, loc *time.Location) FollowupPlan {
	anchor := time.Date(
		rec.IssueDate.Year(), rec.IssueDate.Month(), rec.IssueDate.Day(),
		anchorHour, 0, 0, 0, loc,
	)

	body := fmt.Sprintf(
		"Cliente: %s\nVendedor: %s\nFecha emisión: %s\nTotal: %s\n\nAcción: contactar y avanzar cierre.",
		rec.Customer,
		rec.Salesperson,
		rec.IssueDate.Format("02/01/2006"),
		rec.Total,
	)

	plan := FollowupPlan{
		QuoteNumber: rec.QuoteNumber,
		VendorID:    rec.VendorID,
		Events:      make([]FollowupEvent, 0, len(followupOffsets)),
	}
	for _, fo := range followupOffsets {
		start := anchor.Add(fo.offset)
		plan.Events = append(plan.Events, FollowupEvent{
			Tag:     fo.tag,
			Key:     EventKey(rec.QuoteNumber, rec.VendorID, fo.tag),
			Subject: fmt.Sprintf("Seguimiento %s - Cotización %s - %s", fo.tag, rec.QuoteNumber, rec.Customer),
			Body:    body,
			Start:   start,
			End:     start.Add(eventDuration),
		})
	}
	return plan
}

// EventKey derives the idempotency key for one reminder. The sha256 hex
// output is valid in Google Calendar's event-ID alphabet, so the key is
// used directly as the event ID.
func EventKey(quoteNumber, vendorID, tag string) string {
	return util.HashKey(quoteNumber + "|" + vendorID + "|" + tag)
}
