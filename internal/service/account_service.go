package service

import (
	"context"

	"gorm.io/datatypes"

	appError "github.com/calhub/calendar-service-go/internal/app_error"
	model "github.com/calhub/calendar-service-go/internal/db"
	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/repository"
)

type ICloudLinker interface {
	Verify(ctx context.Context, username string, password string) error
	Seal(password string) (string, error)
}

type OutlookLinker interface {
	Verify(ctx context.Context, grant string) error
}

type AccountService struct {
	Dep      *dependency.Dependency
	Accounts repository.AccountRepository
	ICloud   ICloudLinker
	Outlook  OutlookLinker
}

func NewAccountService(dep *dependency.Dependency, accounts repository.AccountRepository, icloud ICloudLinker, outlook OutlookLinker) *AccountService {
	if accounts == nil {
		panic("AccountService: account repository is nil")
	}

	return &AccountService{
		Dep:      dep,
		Accounts: accounts,
		ICloud:   icloud,
		Outlook:  outlook,
	}
}

func (s *AccountService) ListAccounts(ctx context.Context, primaryUserID string) (*dto.AccountsResponse, error) {
	accounts, err := s.Accounts.FindByPrimaryUserID(ctx, primaryUserID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, accountToResponse(&accounts[i]))
	}

	return &dto.AccountsResponse{Accounts: out}, nil
}

// ensureLinkable rejects an external identity that already belongs to someone else,
// and a second account of the same provider under one primary.
func (s *AccountService) ensureLinkable(ctx context.Context, primaryUserID string, provider string, externalUserID string, email string) error {
	owner, err := s.Accounts.FindByExternalEmail(ctx, email)
	if err != nil {
		return err
	}
	if owner != nil && owner.PrimaryID() != primaryUserID {
		return appError.NewConflict("this account is already linked to another user")
	}

	existing, err := s.Accounts.FindLinked(ctx, primaryUserID, provider)
	if err != nil {
		return err
	}
	if existing != nil && existing.UserID != externalUserID {
		return appError.NewConflict("another " + provider + " account is already linked; unlink it first")
	}

	return nil
}

func (s *AccountService) LinkICloud(ctx context.Context, primaryUserID string, request *dto.LinkICloudRequest) (*dto.AccountResponse, error) {
	if s.ICloud == nil {
		return nil, appError.NewServiceUnavailable("icloud linking is not available")
	}

	err := s.ensureLinkable(ctx, primaryUserID, model.ProviderICloud, request.Email, request.Email)
	if err != nil {
		return nil, err
	}

	err = s.ICloud.Verify(ctx, request.Email, request.AppPassword)
	if err != nil {
		s.Dep.Logger.Info("icloud credential check failed", "userID", primaryUserID, "err", err)
		return nil, appError.NewBadRequest("could not verify iCloud credentials")
	}

	sealed, err := s.ICloud.Seal(request.AppPassword)
	if err != nil {
		return nil, err
	}

	email := request.Email
	account := &model.Account{
		UserID:            email,
		Provider:          model.ProviderICloud,
		ExternalEmail:     &email,
		EncryptedPassword: &sealed,
		PrimaryUserID:     &primaryUserID,
		Metadata:          datatypes.NewJSONType(model.AccountMetadata{Name: email}),
	}

	err = s.Accounts.Upsert(ctx, account)
	if err != nil {
		return nil, err
	}

	resp := accountToResponse(account)
	return &resp, nil
}

func (s *AccountService) LinkOutlook(ctx context.Context, primaryUserID string, request *dto.LinkOutlookRequest) (*dto.AccountResponse, error) {
	if s.Outlook == nil {
		return nil, appError.NewServiceUnavailable("outlook linking is not available")
	}

	err := s.ensureLinkable(ctx, primaryUserID, model.ProviderOutlook, request.GrantID, request.Email)
	if err != nil {
		return nil, err
	}

	err = s.Outlook.Verify(ctx, request.GrantID)
	if err != nil {
		s.Dep.Logger.Info("outlook grant check failed", "userID", primaryUserID, "err", err)
		return nil, appError.NewBadRequest("could not verify Outlook grant")
	}

	grant := request.GrantID
	email := request.Email
	account := &model.Account{
		UserID:        grant,
		Provider:      model.ProviderOutlook,
		ExternalEmail: &email,
		BrokerGrantID: &grant,
		PrimaryUserID: &primaryUserID,
		Metadata:      datatypes.NewJSONType(model.AccountMetadata{Name: email}),
	}

	err = s.Accounts.Upsert(ctx, account)
	if err != nil {
		return nil, err
	}

	resp := accountToResponse(account)
	return &resp, nil
}

func (s *AccountService) UnlinkAccount(ctx context.Context, primaryUserID string, provider string) error {
	switch provider {
	case model.ProviderGoogle:
		return appError.NewBadRequest("cannot unlink the primary google account")
	case model.ProviderICloud, model.ProviderOutlook:
	default:
		return appError.NewBadRequest("unknown provider")
	}

	rows, err := s.Accounts.DeleteLinked(ctx, primaryUserID, provider)
	if err != nil {
		return err
	}
	if rows == 0 {
		return appError.NewNotFound("linked account not found")
	}

	return nil
}
