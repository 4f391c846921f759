package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	model "github.com/calhub/calendar-service-go/internal/db"
)

// OutlookProvider talks to Outlook calendars through the hosted broker's grant API.
type OutlookProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewOutlookProvider(baseURL string, apiKey string, timeout time.Duration) *OutlookProvider {
	return &OutlookProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type brokerWhen struct {
	Object    string `json:"object,omitempty"`
	StartTime int64  `json:"start_time,omitempty"`
	EndTime   int64  `json:"end_time,omitempty"`
	Date      string `json:"date,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

type brokerParticipant struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brokerEvent struct {
	ID           string              `json:"id,omitempty"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	Location     string              `json:"location,omitempty"`
	Status       string              `json:"status,omitempty"`
	When         brokerWhen          `json:"when"`
	Participants []brokerParticipant `json:"participants,omitempty"`
}

type brokerListResponse struct {
	Data       []brokerEvent `json:"data"`
	NextCursor string        `json:"next_cursor"`
}

type brokerEventResponse struct {
	Data brokerEvent `json:"data"`
}

type BrokerError struct {
	StatusCode int
	Body       string
}

func (e *BrokerError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if len(msg) > 500 {
		msg = msg[:500] + "..."
	}
	return fmt.Sprintf("outlook broker http %d: %s", e.StatusCode, msg)
}

func grantID(account *model.Account) (string, error) {
	if account.BrokerGrantID != nil && *account.BrokerGrantID != "" {
		return *account.BrokerGrantID, nil
	}
	if account.UserID != "" {
		return account.UserID, nil
	}
	return "", errors.New("outlook account has no grant")
}

func (p *OutlookProvider) do(ctx context.Context, method string, path string, query url.Values, body any, out any) error {
	if p.apiKey == "" {
		return errors.New("outlook broker is not configured")
	}

	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
		reader = &buf
	}

	u := p.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &BrokerError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Verify confirms the grant exists and belongs to this application.
func (p *OutlookProvider) Verify(ctx context.Context, grant string) error {
	return p.do(ctx, http.MethodGet, "/v3/grants/"+url.PathEscape(grant), nil, nil, nil)
}

func (p *OutlookProvider) GetCalendarEvents(ctx context.Context, account *model.Account, from time.Time, to time.Time) ([]Event, error) {
	grant, err := grantID(account)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0)
	cursor := ""
	for {
		query := url.Values{}
		query.Set("calendar_id", "primary")
		query.Set("start", strconv.FormatInt(from.Unix(), 10))
		query.Set("end", strconv.FormatInt(to.Unix(), 10))
		query.Set("limit", "200")
		if cursor != "" {
			query.Set("page_token", cursor)
		}

		var resp brokerListResponse
		if err := p.do(ctx, http.MethodGet, "/v3/grants/"+url.PathEscape(grant)+"/events", query, nil, &resp); err != nil {
			return nil, fmt.Errorf("failed to retrieve outlook events: %w", err)
		}

		for _, item := range resp.Data {
			if ev, ok := fromBrokerEvent(item); ok {
				events = append(events, ev)
			}
		}

		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	return events, nil
}

func (p *OutlookProvider) CreateEvent(ctx context.Context, account *model.Account, event Event) (*Event, error) {
	grant, err := grantID(account)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("calendar_id", "primary")
	query.Set("notify_participants", "true")

	var resp brokerEventResponse
	if err := p.do(ctx, http.MethodPost, "/v3/grants/"+url.PathEscape(grant)+"/events", query, toBrokerEvent(event), &resp); err != nil {
		return nil, fmt.Errorf("failed to create outlook event: %w", err)
	}

	created, ok := fromBrokerEvent(resp.Data)
	if !ok {
		return nil, errors.New("outlook broker returned an event without a time")
	}
	return &created, nil
}

func fromBrokerEvent(item brokerEvent) (Event, bool) {
	if item.Status == "cancelled" {
		return Event{}, false
	}

	ev := Event{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Location:    item.Location,
	}

	switch {
	case item.When.StartTime != 0:
		ev.Start = time.Unix(item.When.StartTime, 0).UTC()
		ev.End = ev.Start
		if item.When.EndTime != 0 {
			ev.End = time.Unix(item.When.EndTime, 0).UTC()
		}
	case item.When.Date != "":
		day, err := time.Parse(googleDateLayout, item.When.Date)
		if err != nil {
			return Event{}, false
		}
		ev.Start, ev.End, ev.AllDay = day, day.AddDate(0, 0, 1), true
	case item.When.StartDate != "":
		start, err := time.Parse(googleDateLayout, item.When.StartDate)
		if err != nil {
			return Event{}, false
		}
		end, err := time.Parse(googleDateLayout, item.When.EndDate)
		if err != nil {
			end = start
		}
		ev.Start, ev.End, ev.AllDay = start, end.AddDate(0, 0, 1), true
	default:
		return Event{}, false
	}

	for _, participant := range item.Participants {
		if participant.Email != "" {
			ev.Attendees = append(ev.Attendees, participant.Email)
		}
	}

	return ev, true
}

func toBrokerEvent(event Event) brokerEvent {
	out := brokerEvent{
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
	}

	if event.AllDay {
		out.When = brokerWhen{
			StartDate: event.Start.Format(googleDateLayout),
			EndDate:   event.End.AddDate(0, 0, -1).Format(googleDateLayout),
		}
		if out.When.EndDate < out.When.StartDate {
			out.When.EndDate = out.When.StartDate
		}
	} else {
		out.When = brokerWhen{StartTime: event.Start.Unix(), EndTime: event.End.Unix()}
	}

	for _, email := range event.Attendees {
		out.Participants = append(out.Participants, brokerParticipant{Email: email})
	}

	return out
}
