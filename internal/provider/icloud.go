package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"

	model "github.com/calhub/calendar-service-go/internal/db"
)

const ICloudCalDAVEndpoint = "https://caldav.icloud.com/"

// basicAuthTransport adds the Apple ID and app-specific password to each request.
type basicAuthTransport struct {
	username  string
	password  string
	transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.username, t.password)
	req.Header.Set("User-Agent", "calhub/1.0")
	return t.transport.RoundTrip(req)
}

type ICloudProvider struct {
	endpoint string
	sealer   *Sealer
	timeout  time.Duration
}

func NewICloudProvider(endpoint string, sealer *Sealer, timeout time.Duration) *ICloudProvider {
	return &ICloudProvider{
		endpoint: endpoint,
		sealer:   sealer,
		timeout:  timeout,
	}
}

func (p *ICloudProvider) newClient(username string, password string) (*caldav.Client, error) {
	httpClient := &http.Client{
		Timeout: p.timeout,
		Transport: &basicAuthTransport{
			username:  username,
			password:  password,
			transport: http.DefaultTransport,
		},
	}

	client, err := caldav.NewClient(httpClient, p.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return client, nil
}

func (p *ICloudProvider) clientFor(account *model.Account) (*caldav.Client, error) {
	if account.EncryptedPassword == nil {
		return nil, errors.New("icloud account has no stored password")
	}

	password, err := p.sealer.Open(*account.EncryptedPassword)
	if err != nil {
		return nil, err
	}

	username := account.UserID
	if account.ExternalEmail != nil && *account.ExternalEmail != "" {
		username = *account.ExternalEmail
	}

	return p.newClient(username, password)
}

// Verify checks the credentials by resolving the current user principal.
func (p *ICloudProvider) Verify(ctx context.Context, username string, password string) error {
	client, err := p.newClient(username, password)
	if err != nil {
		return err
	}

	if _, err := client.FindCurrentUserPrincipal(ctx); err != nil {
		return fmt.Errorf("icloud rejected the credentials: %w", err)
	}
	return nil
}

func (p *ICloudProvider) Seal(password string) (string, error) {
	return p.sealer.Seal(password)
}

func supportsEvents(cal caldav.Calendar) bool {
	if len(cal.SupportedComponentSet) == 0 {
		return true
	}
	for _, comp := range cal.SupportedComponentSet {
		if strings.EqualFold(comp, ical.CompEvent) {
			return true
		}
	}
	return false
}

func (p *ICloudProvider) eventCalendars(ctx context.Context, client *caldav.Client) ([]caldav.Calendar, error) {
	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendars: %w", err)
	}

	out := make([]caldav.Calendar, 0, len(calendars))
	for _, cal := range calendars {
		if supportsEvents(cal) {
			out = append(out, cal)
		}
	}
	return out, nil
}

func (p *ICloudProvider) GetCalendarEvents(ctx context.Context, account *model.Account, from time.Time, to time.Time) ([]Event, error) {
	client, err := p.clientFor(account)
	if err != nil {
		return nil, err
	}

	calendars, err := p.eventCalendars(ctx, client)
	if err != nil {
		return nil, err
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     ical.CompCalendar,
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: from.UTC(),
				End:   to.UTC(),
			}},
		},
	}

	events := make([]Event, 0)
	for _, cal := range calendars {
		objects, err := client.QueryCalendar(ctx, cal.Path, query)
		if err != nil {
			return nil, fmt.Errorf("failed to query calendar %q: %w", cal.Name, err)
		}

		for _, obj := range objects {
			events = append(events, fromICalendar(obj.Data)...)
		}
	}

	return events, nil
}

func (p *ICloudProvider) CreateEvent(ctx context.Context, account *model.Account, event Event) (*Event, error) {
	client, err := p.clientFor(account)
	if err != nil {
		return nil, err
	}

	calendars, err := p.eventCalendars(ctx, client)
	if err != nil {
		return nil, err
	}
	if len(calendars) == 0 {
		return nil, errors.New("icloud account has no event calendar")
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	objectPath := path.Join(calendars[0].Path, event.ID+".ics")
	if _, err := client.PutCalendarObject(ctx, objectPath, toICalendar(event, time.Now().UTC())); err != nil {
		return nil, fmt.Errorf("failed to create icloud event: %w", err)
	}

	return &event, nil
}

func fromICalendar(cal *ical.Calendar) []Event {
	if cal == nil {
		return nil
	}

	out := make([]Event, 0, 1)
	for _, ev := range cal.Events() {
		start, err := ev.DateTimeStart(time.UTC)
		if err != nil {
			continue
		}
		end, err := ev.DateTimeEnd(time.UTC)
		if err != nil || end.IsZero() {
			end = start
		}

		allDay := false
		if prop := ev.Props.Get(ical.PropDateTimeStart); prop != nil && prop.ValueType() == ical.ValueDate {
			allDay = true
		}

		uid, _ := ev.Props.Text(ical.PropUID)
		summary, _ := ev.Props.Text(ical.PropSummary)
		description, _ := ev.Props.Text(ical.PropDescription)
		location, _ := ev.Props.Text(ical.PropLocation)

		attendees := make([]string, 0)
		for _, prop := range ev.Props.Values(ical.PropAttendee) {
			email := strings.TrimPrefix(strings.TrimPrefix(prop.Value, "mailto:"), "MAILTO:")
			if email != "" {
				attendees = append(attendees, email)
			}
		}

		out = append(out, Event{
			ID:          uid,
			Title:       summary,
			Description: description,
			Location:    location,
			Start:       start,
			End:         end,
			AllDay:      allDay,
			Attendees:   attendees,
		})
	}

	return out
}

func toICalendar(event Event, stamp time.Time) *ical.Calendar {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.ID)
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)

	if event.AllDay {
		ve.Props.SetDate(ical.PropDateTimeStart, event.Start)
		ve.Props.SetDate(ical.PropDateTimeEnd, event.End)
	} else {
		ve.Props.SetDateTime(ical.PropDateTimeStart, event.Start.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, event.End.UTC())
	}

	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}
	for _, attendee := range event.Attendees {
		prop := ical.NewProp(ical.PropAttendee)
		prop.SetText("mailto:" + attendee)
		ve.Props.Add(prop)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calhub//EN")
	cal.Children = append(cal.Children, ve)
	return cal
}
