package service_test

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/calhub/calendar-service-go/internal/db"
	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/repository"
	"github.com/calhub/calendar-service-go/internal/service"
	"github.com/calhub/calendar-service-go/internal/testutil"
)

type fakeICloud struct {
	verifyErr error
	verified  []string
}

func (f *fakeICloud) Verify(ctx context.Context, username string, password string) error {
	f.verified = append(f.verified, username)
	return f.verifyErr
}

func (f *fakeICloud) Seal(password string) (string, error) {
	return "sealed:" + password, nil
}

type fakeOutlook struct {
	verifyErr error
}

func (f *fakeOutlook) Verify(ctx context.Context, grant string) error {
	return f.verifyErr
}

func newTestAccountService(t *testing.T, icloud service.ICloudLinker, outlook service.OutlookLinker) (*service.AccountService, *gorm.DB) {
	t.Helper()

	myDB := testutil.NewTestDB(t)
	dep := testutil.NewTestDependency(nil, myDB, nil, nil)
	testutil.CreateGoogleAccount(t, myDB, "A", "a@x.com", "Alice")
	testutil.CreateGoogleAccount(t, myDB, "B", "b@x.com", "Bob")

	return service.NewAccountService(dep, repository.NewAccountRepository(myDB), icloud, outlook), myDB
}

func TestLinkICloud(t *testing.T) {
	ctx := context.Background()

	t.Run("links and seals the password", func(t *testing.T) {
		icloud := &fakeICloud{}
		svc, myDB := newTestAccountService(t, icloud, nil)

		got, err := svc.LinkICloud(ctx, "A", &dto.LinkICloudRequest{Email: "a.apple@icloud.com", AppPassword: "abcd-efgh-ijkl"})
		if err != nil {
			t.Fatalf("unexpected error, err: %v", err)
		}
		if got.Provider != db.ProviderICloud || got.PrimaryUserID == nil || *got.PrimaryUserID != "A" {
			t.Fatalf("unexpected account %+v", got)
		}

		stored, _ := repository.NewAccountRepository(myDB).FindLinked(ctx, "A", db.ProviderICloud)
		if stored == nil || stored.EncryptedPassword == nil || *stored.EncryptedPassword != "sealed:abcd-efgh-ijkl" {
			t.Fatalf("expected sealed password, got %+v", stored)
		}
	})

	t.Run("relinking the same apple id refreshes the password", func(t *testing.T) {
		svc, myDB := newTestAccountService(t, &fakeICloud{}, nil)
		req := &dto.LinkICloudRequest{Email: "a.apple@icloud.com", AppPassword: "first-password"}
		if _, err := svc.LinkICloud(ctx, "A", req); err != nil {
			t.Fatalf("unexpected error, err: %v", err)
		}

		req.AppPassword = "second-password"
		if _, err := svc.LinkICloud(ctx, "A", req); err != nil {
			t.Fatalf("unexpected error, err: %v", err)
		}

		stored, _ := repository.NewAccountRepository(myDB).FindLinked(ctx, "A", db.ProviderICloud)
		if *stored.EncryptedPassword != "sealed:second-password" {
			t.Fatalf("expected refreshed password, got %s", *stored.EncryptedPassword)
		}
	})

	t.Run("failed verification", func(t *testing.T) {
		svc, myDB := newTestAccountService(t, &fakeICloud{verifyErr: errors.New("401")}, nil)

		_, err := svc.LinkICloud(ctx, "A", &dto.LinkICloudRequest{Email: "a.apple@icloud.com", AppPassword: "wrong-password"})
		assertAppError(t, err, 400)

		stored, _ := repository.NewAccountRepository(myDB).FindLinked(ctx, "A", db.ProviderICloud)
		if stored != nil {
			t.Fatalf("expected nothing stored, got %+v", stored)
		}
	})

	t.Run("email owned by another user", func(t *testing.T) {
		icloud := &fakeICloud{}
		svc, myDB := newTestAccountService(t, icloud, nil)
		testutil.CreateLinkedAccount(t, myDB, "B", db.ProviderICloud, "shared@icloud.com", "shared@icloud.com")

		_, err := svc.LinkICloud(ctx, "A", &dto.LinkICloudRequest{Email: "shared@icloud.com", AppPassword: "abcd-efgh-ijkl"})
		assertAppError(t, err, 409)
		if len(icloud.verified) != 0 {
			t.Fatalf("expected no credential check, got %v", icloud.verified)
		}
	})

	t.Run("second apple id", func(t *testing.T) {
		svc, myDB := newTestAccountService(t, &fakeICloud{}, nil)
		testutil.CreateLinkedAccount(t, myDB, "A", db.ProviderICloud, "first@icloud.com", "first@icloud.com")

		_, err := svc.LinkICloud(ctx, "A", &dto.LinkICloudRequest{Email: "second@icloud.com", AppPassword: "abcd-efgh-ijkl"})
		assertAppError(t, err, 409)
	})

	t.Run("not configured", func(t *testing.T) {
		svc, _ := newTestAccountService(t, nil, nil)

		_, err := svc.LinkICloud(ctx, "A", &dto.LinkICloudRequest{Email: "a.apple@icloud.com", AppPassword: "abcd-efgh-ijkl"})
		assertAppError(t, err, 503)
	})
}

func TestLinkOutlook(t *testing.T) {
	ctx := context.Background()

	t.Run("links the grant", func(t *testing.T) {
		svc, myDB := newTestAccountService(t, nil, &fakeOutlook{})

		got, err := svc.LinkOutlook(ctx, "A", &dto.LinkOutlookRequest{GrantID: "grant-1", Email: "alice@outlook.com"})
		if err != nil {
			t.Fatalf("unexpected error, err: %v", err)
		}
		if got.UserID != "grant-1" {
			t.Fatalf("expected grant as user id, got %+v", got)
		}

		stored, _ := repository.NewAccountRepository(myDB).FindLinked(ctx, "A", db.ProviderOutlook)
		if stored == nil || stored.BrokerGrantID == nil || *stored.BrokerGrantID != "grant-1" {
			t.Fatalf("expected stored grant, got %+v", stored)
		}
	})

	t.Run("rejected grant", func(t *testing.T) {
		svc, _ := newTestAccountService(t, nil, &fakeOutlook{verifyErr: errors.New("404")})

		_, err := svc.LinkOutlook(ctx, "A", &dto.LinkOutlookRequest{GrantID: "grant-1", Email: "alice@outlook.com"})
		assertAppError(t, err, 400)
	})
}

func TestListAndUnlinkAccounts(t *testing.T) {
	ctx := context.Background()
	svc, myDB := newTestAccountService(t, nil, nil)
	testutil.CreateLinkedAccount(t, myDB, "A", db.ProviderICloud, "a@icloud.com", "a@icloud.com")

	got, err := svc.ListAccounts(ctx, "A")
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if len(got.Accounts) != 2 || got.Accounts[0].Provider != db.ProviderGoogle {
		t.Fatalf("expected google first then icloud, got %+v", got.Accounts)
	}

	assertAppError(t, svc.UnlinkAccount(ctx, "A", db.ProviderGoogle), 400)
	assertAppError(t, svc.UnlinkAccount(ctx, "A", "yahoo"), 400)
	assertAppError(t, svc.UnlinkAccount(ctx, "A", db.ProviderOutlook), 404)

	if err := svc.UnlinkAccount(ctx, "A", db.ProviderICloud); err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}

	got, _ = svc.ListAccounts(ctx, "A")
	if len(got.Accounts) != 1 {
		t.Fatalf("expected only the google account, got %+v", got.Accounts)
	}
}
