package provider

import (
	"context"
	"fmt"
	"sort"
	"time"

	model "github.com/calhub/calendar-service-go/internal/db"
	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/repository"
)

// Event is a calendar entry independent of the provider it came from.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Attendees   []string
}

type CalendarProvider interface {
	GetCalendarEvents(ctx context.Context, account *model.Account, from time.Time, to time.Time) ([]Event, error)
	CreateEvent(ctx context.Context, account *model.Account, event Event) (*Event, error)
}

type Registry struct {
	providers map[string]CalendarProvider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]CalendarProvider)}
}

// NewDefaultRegistry wires the three supported providers. Refreshed google
// tokens are written back through accounts.
func NewDefaultRegistry(dep *dependency.Dependency, accounts repository.AccountRepository) *Registry {
	sealer := NewSealer(dep.Cfg.CredentialsKey)
	timeout := time.Duration(dep.Cfg.ProviderTimeoutInSec) * time.Second

	onRefresh := func(ctx context.Context, account *model.Account, accessToken string, refreshToken string, expiry time.Time) {
		if err := accounts.UpdateTokens(ctx, account.ID, accessToken, refreshToken, expiry); err != nil {
			dep.Logger.Warn("failed to persist refreshed google token", "accountID", account.ID, "err", err)
		}
	}

	r := NewRegistry()
	r.Register(model.ProviderGoogle, NewGoogleProvider(GoogleOAuthConfig(dep.Cfg), onRefresh, timeout))
	r.Register(model.ProviderICloud, NewICloudProvider(ICloudCalDAVEndpoint, sealer, timeout))
	r.Register(model.ProviderOutlook, NewOutlookProvider(dep.Cfg.OutlookBrokerURL, dep.Cfg.OutlookBrokerAPIKey, timeout))
	return r
}

func (r *Registry) Register(name string, p CalendarProvider) {
	r.providers[name] = p
}

func (r *Registry) Get(name string) (CalendarProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unsupported provider %q", name)
	}
	return p, nil
}

// SortEvents orders by start, then end, then title.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		if !events[i].End.Equal(events[j].End) {
			return events[i].End.Before(events[j].End)
		}
		return events[i].Title < events[j].Title
	})
}
