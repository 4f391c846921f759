package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/calhub/calendar-service-go/internal/db"
	"github.com/calhub/calendar-service-go/internal/repository"
	"github.com/calhub/calendar-service-go/internal/testutil"
)

func mustCreate(t *testing.T, repo *repository.GormConnectionRepository, owner, email string, friendID *string, status db.ConnectionStatus) *db.Connection {
	t.Helper()

	conn := &db.Connection{UserID: owner, FriendEmail: email, FriendUserID: friendID, Status: status}
	if err := repo.Create(context.Background(), conn); err != nil {
		t.Fatalf("failed to create connection, err: %v", err)
	}
	return conn
}

func TestConnectionRepositoryCreate(t *testing.T) {
	repo := repository.NewConnectionRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	mustCreate(t, repo, "a", "b@x.com", nil, db.StatusPending)

	err := repo.Create(ctx, &db.Connection{UserID: "a", FriendEmail: "b@x.com", Status: db.StatusPending})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	created, err := repo.CreateIfAbsent(ctx, &db.Connection{UserID: "a", FriendEmail: "b@x.com", Status: db.StatusIncoming})
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if created {
		t.Fatalf("expected existing row to be kept")
	}

	existing, err := repo.FindByOwnerAndEmail(ctx, "a", "b@x.com")
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if existing.Status != db.StatusPending {
		t.Fatalf("expected pending untouched, got %s", existing.Status)
	}

	created, err = repo.CreateIfAbsent(ctx, &db.Connection{UserID: "b", FriendEmail: "a@x.com", Status: db.StatusIncoming})
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if !created {
		t.Fatalf("expected new row")
	}
}

func TestConnectionRepositoryOwnership(t *testing.T) {
	repo := repository.NewConnectionRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	conn := mustCreate(t, repo, "a", "b@x.com", nil, db.StatusPending)

	got, err := repo.FindByIDForOwner(ctx, conn.ID, "a")
	if err != nil || got == nil {
		t.Fatalf("expected row, got %+v, %v", got, err)
	}

	got, err = repo.FindByIDForOwner(ctx, conn.ID, "someone-else")
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if got != nil {
		t.Fatalf("expected foreign row to read as missing, got %+v", got)
	}
}

func TestConnectionRepositoryPromote(t *testing.T) {
	repo := repository.NewConnectionRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	conn := mustCreate(t, repo, "a", "b@x.com", nil, db.StatusPending)

	pending, err := repo.ListUnresolvedPending(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(pending))
	}

	ok, err := repo.Promote(ctx, conn.ID, "b")
	if err != nil || !ok {
		t.Fatalf("expected promotion, got %v, %v", ok, err)
	}

	ok, err = repo.Promote(ctx, conn.ID, "b")
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if ok {
		t.Fatalf("expected second promotion to be a no-op")
	}

	got, _ := repo.FindByIDForOwner(ctx, conn.ID, "a")
	if got.Status != db.StatusRequested || got.FriendUserID == nil || *got.FriendUserID != "b" {
		t.Fatalf("expected requested with friend b, got %+v", got)
	}

	pending, _ = repo.ListUnresolvedPending(ctx, "a")
	if len(pending) != 0 {
		t.Fatalf("expected no pending, got %d", len(pending))
	}
}

func TestConnectionRepositoryPeerUpdates(t *testing.T) {
	repo := repository.NewConnectionRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	a, b := "a", "b"
	mustCreate(t, repo, a, "b@x.com", &b, db.StatusRequested)
	mustCreate(t, repo, b, "a@x.com", &a, db.StatusIncoming)

	n, err := repo.UpdatePeerStatus(ctx, a, b, db.StatusPending, db.StatusAccepted)
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected status guard to skip row, got %d", n)
	}

	n, err = repo.UpdatePeerStatus(ctx, a, b, db.StatusRequested, db.StatusAccepted)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 updated row, got %d, %v", n, err)
	}

	n, err = repo.DeletePeer(ctx, b, a, db.StatusRequested)
	if err != nil || n != 0 {
		t.Fatalf("expected 0 deleted rows, got %d, %v", n, err)
	}

	n, err = repo.DeletePeer(ctx, b, a, db.StatusIncoming)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted row, got %d, %v", n, err)
	}

	accepted, err := repo.FindAccepted(ctx, a, b)
	if err != nil || accepted == nil {
		t.Fatalf("expected accepted row, got %+v, %v", accepted, err)
	}
}

func TestConnectionRepositoryList(t *testing.T) {
	repo := repository.NewConnectionRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	mustCreate(t, repo, "a", "p@x.com", nil, db.StatusPending)
	mustCreate(t, repo, "a", "i@x.com", strPtr("i"), db.StatusIncoming)
	mustCreate(t, repo, "a", "f@x.com", strPtr("f"), db.StatusAccepted)
	mustCreate(t, repo, "other", "z@x.com", nil, db.StatusPending)

	friends, err := repo.ListByOwner(ctx, "a", false)
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if len(friends) != 2 {
		t.Fatalf("expected 2 non-incoming rows, got %d", len(friends))
	}
	for _, f := range friends {
		if f.Status == db.StatusIncoming {
			t.Fatalf("incoming row leaked into friends list")
		}
	}

	incoming, err := repo.ListByOwner(ctx, "a", true)
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if len(incoming) != 1 || incoming[0].FriendEmail != "i@x.com" {
		t.Fatalf("expected only i@x.com, got %+v", incoming)
	}

	n, err := repo.DeleteByOwnerAndEmail(ctx, "a", "f@x.com")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted row, got %d, %v", n, err)
	}
	n, err = repo.DeleteByID(ctx, incoming[0].ID)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted row, got %d, %v", n, err)
	}
}

func TestConnectionRepositoryListPendingOwners(t *testing.T) {
	repo := repository.NewConnectionRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	mustCreate(t, repo, "b", "x@x.com", nil, db.StatusPending)
	mustCreate(t, repo, "b", "y@x.com", nil, db.StatusPending)
	mustCreate(t, repo, "a", "z@x.com", nil, db.StatusPending)
	mustCreate(t, repo, "c", "f@x.com", strPtr("f"), db.StatusRequested)

	owners, err := repo.ListPendingOwners(ctx)
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if len(owners) != 2 || owners[0] != "a" || owners[1] != "b" {
		t.Fatalf("expected [a b], got %v", owners)
	}
}

func TestConnectionRepositoryByFriendUserID(t *testing.T) {
	repo := repository.NewConnectionRepository(testutil.NewTestDB(t))
	ctx := context.Background()
	a, b := "a", "b"

	mustCreate(t, repo, a, "bob@icloud.com", &b, db.StatusAccepted)
	mustCreate(t, repo, a, "c@x.com", nil, db.StatusPending)

	found, err := repo.FindByOwnerAndFriendUserID(ctx, a, b)
	if err != nil {
		t.Fatalf("unexpected error, err: %v", err)
	}
	if found == nil || found.FriendEmail != "bob@icloud.com" {
		t.Fatalf("expected the icloud row, got %+v", found)
	}

	missing, err := repo.FindByOwnerAndFriendUserID(ctx, b, a)
	if err != nil || missing != nil {
		t.Fatalf("expected no row, got %+v, err: %v", missing, err)
	}

	n, err := repo.DeleteByOwnerAndFriendUserID(ctx, a, b)
	if err != nil || n != 1 {
		t.Fatalf("expected one deleted row, got %d, err: %v", n, err)
	}

	rest, err := repo.FindByOwnerAndEmail(ctx, a, "c@x.com")
	if err != nil || rest == nil {
		t.Fatalf("expected unrelated row untouched, got %+v, err: %v", rest, err)
	}
}
