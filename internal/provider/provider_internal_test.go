package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"

	model "github.com/calhub/calendar-service-go/internal/db"
)

func strPtr(s string) *string { return &s }

func TestFromGoogleEvent(t *testing.T) {
	cases := []struct {
		name   string
		in     *calendar.Event
		ok     bool
		allDay bool
		start  time.Time
	}{
		{
			name: "timed",
			in: &calendar.Event{
				Id:        "e1",
				Summary:   "Standup",
				Start:     &calendar.EventDateTime{DateTime: "2025-01-02T09:00:00Z"},
				End:       &calendar.EventDateTime{DateTime: "2025-01-02T09:15:00Z"},
				Attendees: []*calendar.EventAttendee{{Email: "a@x.com"}, {Email: ""}},
			},
			ok:    true,
			start: time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "all day",
			in: &calendar.Event{
				Id:    "e2",
				Start: &calendar.EventDateTime{Date: "2025-01-03"},
				End:   &calendar.EventDateTime{Date: "2025-01-04"},
			},
			ok:     true,
			allDay: true,
			start:  time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "cancelled",
			in:   &calendar.Event{Id: "e3", Status: "cancelled", Start: &calendar.EventDateTime{Date: "2025-01-03"}},
		},
		{
			name: "no start",
			in:   &calendar.Event{Id: "e4"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := fromGoogleEvent(tc.in)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if !ok {
				return
			}
			if got.AllDay != tc.allDay {
				t.Fatalf("expected allDay=%v, got %v", tc.allDay, got.AllDay)
			}
			if !got.Start.Equal(tc.start) {
				t.Fatalf("expected start %v, got %v", tc.start, got.Start)
			}
		})
	}

	got, _ := fromGoogleEvent(cases[0].in)
	if len(got.Attendees) != 1 || got.Attendees[0] != "a@x.com" {
		t.Fatalf("expected one attendee, got %v", got.Attendees)
	}
}

func TestToGoogleEvent(t *testing.T) {
	start := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	timed := toGoogleEvent(Event{Title: "Sync", Start: start, End: start.Add(time.Hour), Attendees: []string{"b@x.com"}})
	if timed.Start.DateTime != "2025-01-02T09:00:00Z" || timed.Start.Date != "" {
		t.Fatalf("unexpected start %+v", timed.Start)
	}
	if len(timed.Attendees) != 1 || timed.Attendees[0].Email != "b@x.com" {
		t.Fatalf("unexpected attendees %+v", timed.Attendees)
	}

	allDay := toGoogleEvent(Event{Title: "Holiday", Start: start, End: start.AddDate(0, 0, 1), AllDay: true})
	if allDay.Start.Date != "2025-01-02" || allDay.End.Date != "2025-01-03" {
		t.Fatalf("unexpected all-day range %+v %+v", allDay.Start, allDay.End)
	}
}

func TestGoogleProviderListsAndRefreshes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
		case strings.HasSuffix(r.URL.Path, "/calendars/primary/events"):
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{"id": "e1", "summary": "Standup", "start": map[string]string{"dateTime": "2025-01-02T09:00:00Z"}, "end": map[string]string{"dateTime": "2025-01-02T09:15:00Z"}},
					{"id": "e2", "status": "cancelled", "start": map[string]string{"date": "2025-01-02"}},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var mu sync.Mutex
	var refreshed string
	cfg := &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
	}
	p := NewGoogleProvider(cfg, func(ctx context.Context, account *model.Account, accessToken string, refreshToken string, expiry time.Time) {
		mu.Lock()
		defer mu.Unlock()
		refreshed = accessToken
	}, 2*time.Second)
	p.endpoint = srv.URL + "/"

	expired := time.Now().Add(-time.Hour)
	account := &model.Account{
		ID:           1,
		UserID:       "g-1",
		Provider:     model.ProviderGoogle,
		AccessToken:  strPtr("stale"),
		RefreshToken: strPtr("refresh"),
		TokenExpiry:  &expired,
	}

	events, err := p.GetCalendarEvents(context.Background(), account, time.Now(), time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Standup" {
		t.Fatalf("expected only the standup, got %+v", events)
	}

	mu.Lock()
	defer mu.Unlock()
	if refreshed != "fresh" {
		t.Fatalf("expected refreshed token to be reported, got %q", refreshed)
	}
}

func TestGoogleProviderRequiresCredentials(t *testing.T) {
	p := NewGoogleProvider(&oauth2.Config{}, nil, time.Second)
	_, err := p.GetCalendarEvents(context.Background(), &model.Account{UserID: "g-1"}, time.Now(), time.Now())
	if err == nil {
		t.Fatalf("expected error without credentials")
	}
}

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:ev-1\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"SUMMARY:Dinner\r\n" +
	"LOCATION:Home\r\n" +
	"DTSTART:20250102T180000Z\r\n" +
	"DTEND:20250102T200000Z\r\n" +
	"ATTENDEE:mailto:b@x.com\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:ev-2\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"SUMMARY:Trip\r\n" +
	"DTSTART;VALUE=DATE:20250105\r\n" +
	"DTEND;VALUE=DATE:20250107\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestFromICalendar(t *testing.T) {
	cal, err := ical.NewDecoder(strings.NewReader(sampleICS)).Decode()
	if err != nil {
		t.Fatalf("failed to decode sample, err: %v", err)
	}

	events := fromICalendar(cal)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	dinner := events[0]
	if dinner.ID != "ev-1" || dinner.Title != "Dinner" || dinner.Location != "Home" || dinner.AllDay {
		t.Fatalf("unexpected event %+v", dinner)
	}
	if !dinner.Start.Equal(time.Date(2025, 1, 2, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", dinner.Start)
	}
	if len(dinner.Attendees) != 1 || dinner.Attendees[0] != "b@x.com" {
		t.Fatalf("unexpected attendees %v", dinner.Attendees)
	}

	if !events[1].AllDay {
		t.Fatalf("expected all-day trip")
	}

	if got := fromICalendar(nil); got != nil {
		t.Fatalf("expected nil for nil calendar")
	}
}

func TestToICalendarRoundTrip(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	cal := toICalendar(Event{
		ID:        "new-1",
		Title:     "Coffee",
		Location:  "Cafe",
		Start:     start,
		End:       start.Add(30 * time.Minute),
		Attendees: []string{"c@x.com"},
	}, start)

	var sb strings.Builder
	if err := ical.NewEncoder(&sb).Encode(cal); err != nil {
		t.Fatalf("failed to encode, err: %v", err)
	}

	decoded, err := ical.NewDecoder(strings.NewReader(sb.String())).Decode()
	if err != nil {
		t.Fatalf("failed to decode, err: %v", err)
	}

	events := fromICalendar(decoded)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	got := events[0]
	if got.ID != "new-1" || got.Title != "Coffee" || !got.Start.Equal(start) || !got.End.Equal(start.Add(30*time.Minute)) {
		t.Fatalf("unexpected event %+v", got)
	}
	if len(got.Attendees) != 1 || got.Attendees[0] != "c@x.com" {
		t.Fatalf("unexpected attendees %v", got.Attendees)
	}
}

func TestICloudProviderRequiresPassword(t *testing.T) {
	p := NewICloudProvider(ICloudCalDAVEndpoint, NewSealer("test-credentials-key"), time.Second)
	_, err := p.GetCalendarEvents(context.Background(), &model.Account{UserID: "a@icloud.com"}, time.Now(), time.Now())
	if err == nil {
		t.Fatalf("expected error without stored password")
	}
}

func TestBasicAuthTransport(t *testing.T) {
	var user, pass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ = r.BasicAuth()
	}))
	defer srv.Close()

	client := &http.Client{Transport: &basicAuthTransport{username: "a@icloud.com", password: "app-pass", transport: http.DefaultTransport}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	_ = resp.Body.Close()

	if user != "a@icloud.com" || pass != "app-pass" {
		t.Fatalf("expected basic auth, got %q/%q", user, pass)
	}
}

func TestFromBrokerEvent(t *testing.T) {
	cases := []struct {
		name   string
		in     brokerEvent
		ok     bool
		allDay bool
		end    time.Time
	}{
		{
			name: "timespan",
			in:   brokerEvent{ID: "o1", Title: "Review", When: brokerWhen{StartTime: 1735808400, EndTime: 1735812000}},
			ok:   true,
			end:  time.Unix(1735812000, 0).UTC(),
		},
		{
			name:   "date",
			in:     brokerEvent{ID: "o2", When: brokerWhen{Date: "2025-01-02"}},
			ok:     true,
			allDay: true,
			end:    time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "datespan",
			in:     brokerEvent{ID: "o3", When: brokerWhen{StartDate: "2025-01-02", EndDate: "2025-01-04"}},
			ok:     true,
			allDay: true,
			end:    time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "cancelled",
			in:   brokerEvent{ID: "o4", Status: "cancelled", When: brokerWhen{StartTime: 1}},
		},
		{
			name: "no time",
			in:   brokerEvent{ID: "o5"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := fromBrokerEvent(tc.in)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if !ok {
				return
			}
			if got.AllDay != tc.allDay || !got.End.Equal(tc.end) {
				t.Fatalf("unexpected event %+v", got)
			}
		})
	}
}

func TestToBrokerEventAllDay(t *testing.T) {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	got := toBrokerEvent(Event{Title: "Off", Start: start, End: start.AddDate(0, 0, 1), AllDay: true})
	if got.When.StartDate != "2025-01-02" || got.When.EndDate != "2025-01-02" {
		t.Fatalf("unexpected when %+v", got.When)
	}
}
