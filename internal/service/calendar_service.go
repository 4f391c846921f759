package service

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	appError "github.com/calhub/calendar-service-go/internal/app_error"
	model "github.com/calhub/calendar-service-go/internal/db"
	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/provider"
	"github.com/calhub/calendar-service-go/internal/repository"
)

const (
	MaxCalendarRange   = 92 * 24 * time.Hour
	DefaultCalendarDay = 7
	maxParallelFetches = 4
)

type CalendarService struct {
	Dep         *dependency.Dependency
	Accounts    repository.AccountRepository
	Connections repository.ConnectionRepository
	Providers   *provider.Registry
}

func NewCalendarService(dep *dependency.Dependency, accounts repository.AccountRepository, connections repository.ConnectionRepository, providers *provider.Registry) *CalendarService {
	if accounts == nil || connections == nil || providers == nil {
		panic("CalendarService: dependencies are nil")
	}

	return &CalendarService{
		Dep:         dep,
		Accounts:    accounts,
		Connections: connections,
		Providers:   providers,
	}
}

// AccountEvents is the outcome of fetching one linked account.
type AccountEvents struct {
	Provider     string
	AccountEmail string
	Events       []dto.EventResponse
	Err          error
}

// ResolveRange applies the default window and rejects inverted or oversized ranges.
func ResolveRange(from time.Time, to time.Time, now time.Time) (time.Time, time.Time, error) {
	if from.IsZero() {
		from = now
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, DefaultCalendarDay)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, appError.NewBadRequest("to must be after from")
	}
	if to.Sub(from) > MaxCalendarRange {
		return time.Time{}, time.Time{}, appError.NewBadRequest("range must not exceed 92 days")
	}
	return from, to, nil
}

func accountEmail(account *model.Account) string {
	if account.ExternalEmail != nil {
		return *account.ExternalEmail
	}
	return account.UserID
}

func toEventResponse(ev provider.Event, providerName string, email string) dto.EventResponse {
	return dto.EventResponse{
		ID:           ev.ID,
		Provider:     providerName,
		AccountEmail: email,
		Title:        ev.Title,
		Description:  ev.Description,
		Location:     ev.Location,
		Start:        ev.Start,
		End:          ev.End,
		AllDay:       ev.AllDay,
	}
}

func (s *CalendarService) fetchAccount(ctx context.Context, account *model.Account, from time.Time, to time.Time) AccountEvents {
	result := AccountEvents{Provider: account.Provider, AccountEmail: accountEmail(account)}

	p, err := s.Providers.Get(account.Provider)
	if err != nil {
		result.Err = err
		return result
	}

	events, err := p.GetCalendarEvents(ctx, account, from, to)
	if err != nil {
		result.Err = err
		return result
	}

	provider.SortEvents(events)
	result.Events = make([]dto.EventResponse, 0, len(events))
	for _, ev := range events {
		result.Events = append(result.Events, toEventResponse(ev, account.Provider, result.AccountEmail))
	}
	return result
}

// StreamEvents fetches every linked account concurrently and calls emit once per
// account as soon as it finishes. emit is never called concurrently.
func (s *CalendarService) StreamEvents(ctx context.Context, primaryUserID string, from time.Time, to time.Time, emit func(AccountEvents)) error {
	accounts, err := s.Accounts.FindByPrimaryUserID(ctx, primaryUserID)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)

	for i := range accounts {
		account := &accounts[i]
		g.Go(func() error {
			result := s.fetchAccount(gctx, account, from, to)
			if result.Err != nil {
				s.Dep.Logger.Warn("failed to fetch calendar events", "provider", result.Provider, "account", result.AccountEmail, "err", result.Err)
			}

			mu.Lock()
			defer mu.Unlock()
			emit(result)
			return nil
		})
	}

	return g.Wait()
}

// GetEvents merges events of all linked accounts. A failing account is reported in
// Errors and does not fail the call.
func (s *CalendarService) GetEvents(ctx context.Context, primaryUserID string, from time.Time, to time.Time) (*dto.EventsResponse, error) {
	resp := &dto.EventsResponse{
		Events: make([]dto.EventResponse, 0),
		Errors: make([]dto.AccountFetchError, 0),
	}

	err := s.StreamEvents(ctx, primaryUserID, from, to, func(result AccountEvents) {
		if result.Err != nil {
			resp.Errors = append(resp.Errors, dto.AccountFetchError{
				Provider:     result.Provider,
				AccountEmail: result.AccountEmail,
				Error:        result.Err.Error(),
			})
			return
		}
		resp.Events = append(resp.Events, result.Events...)
	})
	if err != nil {
		return nil, err
	}

	SortEventResponses(resp.Events)
	return resp, nil
}

// SortEventResponses orders events by start, then end, then title.
func SortEventResponses(events []dto.EventResponse) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if !a.End.Equal(b.End) {
			return a.End.Before(b.End)
		}
		return a.Title < b.Title
	})
}

// MergeBusy collapses overlapping or touching intervals into sorted blocks.
func MergeBusy(blocks []dto.BusyBlock) []dto.BusyBlock {
	merged := make([]dto.BusyBlock, 0, len(blocks))
	if len(blocks) == 0 {
		return merged
	}

	sorted := append([]dto.BusyBlock(nil), blocks...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	current := sorted[0]
	for _, b := range sorted[1:] {
		if !b.Start.After(current.End) {
			if b.End.After(current.End) {
				current.End = b.End
			}
			continue
		}
		merged = append(merged, current)
		current = b
	}
	return append(merged, current)
}

func (s *CalendarService) CreateEvent(ctx context.Context, primaryUserID string, request *dto.CreateEventRequest) (*dto.EventResponse, error) {
	account, err := s.Accounts.FindLinked(ctx, primaryUserID, request.Provider)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, appError.NewNotFound("no linked " + request.Provider + " account")
	}

	p, err := s.Providers.Get(account.Provider)
	if err != nil {
		return nil, appError.NewBadRequest(err.Error())
	}

	created, err := p.CreateEvent(ctx, account, provider.Event{
		Title:       request.Title,
		Description: request.Description,
		Location:    request.Location,
		Start:       request.Start,
		End:         request.End,
		AllDay:      request.AllDay,
		Attendees:   request.Attendees,
	})
	if err != nil {
		s.Dep.Logger.Warn("failed to create event", "provider", account.Provider, "userID", primaryUserID, "err", err)
		return nil, appError.NewAppError(http.StatusBadGateway, "calendar provider rejected the event")
	}

	resp := toEventResponse(*created, account.Provider, accountEmail(account))
	return &resp, nil
}

// FriendBusy returns merged busy intervals of an accepted friend. Event details are
// never exposed.
func (s *CalendarService) FriendBusy(ctx context.Context, ownerID string, connectionID uint, from time.Time, to time.Time) (*dto.FriendCalendarResponse, error) {
	conn, err := s.Connections.FindByIDForOwner(ctx, connectionID, ownerID)
	if err != nil {
		return nil, err
	}
	if conn == nil || conn.Status != model.StatusAccepted || conn.FriendUserID == nil {
		return nil, appError.NewNotFound("friend not found")
	}

	// the friend's own row must agree before their calendar is shared
	mirror, err := s.Connections.FindAccepted(ctx, *conn.FriendUserID, ownerID)
	if err != nil {
		return nil, err
	}
	if mirror == nil {
		return nil, appError.NewNotFound("friend not found")
	}

	friend, err := s.Accounts.FindByUserID(ctx, *conn.FriendUserID)
	if err != nil {
		return nil, err
	}

	intervals := make([]dto.BusyBlock, 0)
	err = s.StreamEvents(ctx, *conn.FriendUserID, from, to, func(result AccountEvents) {
		for _, ev := range result.Events {
			intervals = append(intervals, dto.BusyBlock{Start: ev.Start, End: ev.End})
		}
	})
	if err != nil {
		return nil, err
	}

	return &dto.FriendCalendarResponse{
		FriendEmail: conn.FriendEmail,
		FriendName:  displayName(friend, conn.FriendEmail),
		Busy:        MergeBusy(intervals),
	}, nil
}
