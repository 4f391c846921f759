package routers

import (
	model "github.com/calhub/calendar-service-go/internal/db"
	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/notify"
	"github.com/calhub/calendar-service-go/internal/provider"
	"github.com/calhub/calendar-service-go/internal/repository"
	"github.com/calhub/calendar-service-go/internal/service"
	"github.com/calhub/calendar-service-go/internal/store"
)

type Services struct {
	Friends  *service.FriendService
	Auth     *service.AuthService
	Accounts *service.AccountService
	Calendar *service.CalendarService
	Drafts   *service.DraftService
	Notifier *notify.Notifier
}

// NewServices wires repositories, providers and services on top of dep.
func NewServices(dep *dependency.Dependency) *Services {
	accounts := repository.NewAccountRepository(dep.DB)
	connections := repository.NewConnectionRepository(dep.DB)
	return NewServicesWithRegistry(dep, accounts, connections, provider.NewDefaultRegistry(dep, accounts))
}

func NewServicesWithRegistry(dep *dependency.Dependency, accounts repository.AccountRepository, connections repository.ConnectionRepository, registry *provider.Registry) *Services {
	notifier := notify.NewNotifier(dep)

	var icloud service.ICloudLinker
	if p, err := registry.Get(model.ProviderICloud); err == nil {
		icloud, _ = p.(service.ICloudLinker)
	}
	var outlook service.OutlookLinker
	if p, err := registry.Get(model.ProviderOutlook); err == nil {
		outlook, _ = p.(service.OutlookLinker)
	}

	return &Services{
		Friends:  service.NewFriendService(dep, connections, accounts, notifier),
		Auth:     service.NewAuthService(dep, accounts, store.NewCodeStore(dep)),
		Accounts: service.NewAccountService(dep, accounts, icloud, outlook),
		Calendar: service.NewCalendarService(dep, accounts, connections, registry),
		Drafts:   service.NewDraftService(dep, service.NewDefaultTextGenerator(dep)),
		Notifier: notifier,
	}
}
