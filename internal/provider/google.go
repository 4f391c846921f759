package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/calhub/calendar-service-go/internal/config"
	model "github.com/calhub/calendar-service-go/internal/db"
)

const googleDateLayout = "2006-01-02"

// TokenRefreshFunc receives a token that oauth2 refreshed during a call.
type TokenRefreshFunc func(ctx context.Context, account *model.Account, accessToken string, refreshToken string, expiry time.Time)

func GoogleOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientId,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectUri,
		Scopes:       []string{"openid", "email", "profile", calendar.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}
}

type GoogleProvider struct {
	oauthConfig *oauth2.Config
	onRefresh   TokenRefreshFunc
	timeout     time.Duration
	// endpoint overrides the API base URL; empty means Google's.
	endpoint string
}

func NewGoogleProvider(oauthConfig *oauth2.Config, onRefresh TokenRefreshFunc, timeout time.Duration) *GoogleProvider {
	return &GoogleProvider{
		oauthConfig: oauthConfig,
		onRefresh:   onRefresh,
		timeout:     timeout,
	}
}

// refreshWatcher reports tokens that differ from the one the account already stores.
type refreshWatcher struct {
	mu      sync.Mutex
	base    oauth2.TokenSource
	current string
	changed func(*oauth2.Token)
}

func (w *refreshWatcher) Token() (*oauth2.Token, error) {
	tok, err := w.base.Token()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if tok.AccessToken != w.current {
		w.current = tok.AccessToken
		w.changed(tok)
	}

	return tok, nil
}

func (p *GoogleProvider) service(ctx context.Context, account *model.Account) (*calendar.Service, error) {
	if account.AccessToken == nil && account.RefreshToken == nil {
		return nil, errors.New("google account has no stored credentials")
	}

	stored := &oauth2.Token{}
	if account.AccessToken != nil {
		stored.AccessToken = *account.AccessToken
	}
	if account.RefreshToken != nil {
		stored.RefreshToken = *account.RefreshToken
	}
	if account.TokenExpiry != nil {
		stored.Expiry = *account.TokenExpiry
	}

	baseCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: p.timeout})
	watcher := &refreshWatcher{
		base:    p.oauthConfig.TokenSource(baseCtx, stored),
		current: stored.AccessToken,
		changed: func(tok *oauth2.Token) {
			if p.onRefresh != nil {
				p.onRefresh(ctx, account, tok.AccessToken, tok.RefreshToken, tok.Expiry)
			}
		},
	}

	httpClient := oauth2.NewClient(baseCtx, watcher)
	httpClient.Timeout = p.timeout

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return svc, nil
}

func (p *GoogleProvider) GetCalendarEvents(ctx context.Context, account *model.Account, from time.Time, to time.Time) ([]Event, error) {
	svc, err := p.service(ctx, account)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0)
	pageToken := ""
	for {
		call := svc.Events.List("primary").
			ShowDeleted(false).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(from.UTC().Format(time.RFC3339)).
			TimeMax(to.UTC().Format(time.RFC3339)).
			MaxResults(250).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve google events: %w", err)
		}

		for _, item := range resp.Items {
			if ev, ok := fromGoogleEvent(item); ok {
				events = append(events, ev)
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return events, nil
}

func (p *GoogleProvider) CreateEvent(ctx context.Context, account *model.Account, event Event) (*Event, error) {
	svc, err := p.service(ctx, account)
	if err != nil {
		return nil, err
	}

	created, err := svc.Events.Insert("primary", toGoogleEvent(event)).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create google event: %w", err)
	}

	ev, ok := fromGoogleEvent(created)
	if !ok {
		return nil, errors.New("google returned an event without a start time")
	}

	return &ev, nil
}

func parseGoogleTime(t *calendar.EventDateTime) (time.Time, bool, error) {
	if t == nil {
		return time.Time{}, false, errors.New("missing time")
	}
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		return parsed, false, err
	}
	if t.Date != "" {
		parsed, err := time.Parse(googleDateLayout, t.Date)
		return parsed, true, err
	}
	return time.Time{}, false, errors.New("empty time")
}

func fromGoogleEvent(item *calendar.Event) (Event, bool) {
	if item == nil || item.Status == "cancelled" {
		return Event{}, false
	}

	start, allDay, err := parseGoogleTime(item.Start)
	if err != nil {
		return Event{}, false
	}
	end, _, err := parseGoogleTime(item.End)
	if err != nil {
		end = start
	}

	attendees := make([]string, 0, len(item.Attendees))
	for _, a := range item.Attendees {
		if a.Email != "" {
			attendees = append(attendees, a.Email)
		}
	}

	return Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Attendees:   attendees,
	}, true
}

func toGoogleEvent(event Event) *calendar.Event {
	out := &calendar.Event{
		Summary:     event.Title,
		Description: event.Description,
		Location:    event.Location,
	}

	if event.AllDay {
		out.Start = &calendar.EventDateTime{Date: event.Start.Format(googleDateLayout)}
		out.End = &calendar.EventDateTime{Date: event.End.Format(googleDateLayout)}
	} else {
		out.Start = &calendar.EventDateTime{DateTime: event.Start.Format(time.RFC3339)}
		out.End = &calendar.EventDateTime{DateTime: event.End.Format(time.RFC3339)}
	}

	for _, email := range event.Attendees {
		out.Attendees = append(out.Attendees, &calendar.EventAttendee{Email: email})
	}

	return out
}
