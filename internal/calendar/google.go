package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleClient talks to Google Calendar v3. It holds no per-vendor state;
// each call carries the delegated credentials of the target calendar.
type GoogleClient struct{}

func NewGoogleClient() *GoogleClient {
	return &GoogleClient{}
}

func (c *GoogleClient) service(ctx context.Context, auth Auth) (*gcalendar.Service, error) {
	svc, err := gcalendar.NewService(ctx, option.WithTokenSource(auth.Tokens))
	if err != nil {
		return nil, fmt.Errorf("build calendar service: %w", err)
	}
	return svc, nil
}

// Find fetches the event stored under key, if any.
func (c *GoogleClient) Find(ctx context.Context, auth Auth, key string) (Created, bool, error) {
	svc, err := c.service(ctx, auth)
	if err != nil {
		return Created{}, false, err
	}
	ev, err := svc.Events.Get(auth.CalendarID, key).Context(ctx).Do()
	if err != nil {
		if statusIs(err, 404) {
			return Created{}, false, nil
		}
		return Created{}, false, fmt.Errorf("get event %s: %w", key, err)
	}
	// A cancelled event still occupies its ID; treat it as absent so the
	// caller can recreate it.
	if ev.Status == "cancelled" {
		return Created{}, false, nil
	}
	return Created{EventID: ev.Id, HTMLLink: ev.HtmlLink}, true, nil
}

// Insert creates the reminder under its idempotency key.
func (c *GoogleClient) Insert(ctx context.Context, auth Auth, ev Event) (Created, error) {
	svc, err := c.service(ctx, auth)
	if err != nil {
		return Created{}, err
	}

	body := &gcalendar.Event{
		Id:          ev.Key,
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcalendar.EventDateTime{DateTime: ev.Start.Format(time.RFC3339)},
		End:         &gcalendar.EventDateTime{DateTime: ev.End.Format(time.RFC3339)},
		Reminders: &gcalendar.EventReminders{
			UseDefault: false,
			Overrides: []*gcalendar.EventReminder{
				{Method: "popup", Minutes: 0},
			},
			ForceSendFields: []string{"UseDefault"},
		},
		ExtendedProperties: &gcalendar.EventExtendedProperties{
			Private: map[string]string{
				"followupTag": ev.Tag,
				"followupKey": ev.Key,
			},
		},
	}

	created, err := svc.Events.Insert(auth.CalendarID, body).Context(ctx).Do()
	if err != nil {
		if statusIs(err, 409) {
			return Created{}, ErrConflict
		}
		return Created{}, fmt.Errorf("insert event %s: %w", ev.Key, err)
	}
	return Created{EventID: created.Id, HTMLLink: created.HtmlLink}, nil
}

// Delete removes a reminder. Missing or already-cancelled events count as
// deleted.
func (c *GoogleClient) Delete(ctx context.Context, auth Auth, eventID string) error {
	svc, err := c.service(ctx, auth)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete(auth.CalendarID, eventID).Context(ctx).Do(); err != nil {
		if statusIs(err, 404) || statusIs(err, 410) {
			return nil
		}
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

func statusIs(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

var _ Client = (*GoogleClient)(nil)
