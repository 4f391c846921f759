package service

import (
	"context"
	"errors"
	"strings"

	"github.com/cespare/xxhash/v2"

	appError "github.com/calhub/calendar-service-go/internal/app_error"
	model "github.com/calhub/calendar-service-go/internal/db"
	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/notify"
	"github.com/calhub/calendar-service-go/internal/repository"
)

const (
	MsgAwaitingAccept = "They need to accept your request."
	MsgAwaitingSignup = "They'll see your request when they sign up."
)

var FriendPalette = [8]string{
	"#4F46E5",
	"#0891B2",
	"#059669",
	"#CA8A04",
	"#DC2626",
	"#DB2777",
	"#7C3AED",
	"#EA580C",
}

// FriendColor maps an email onto FriendPalette. The result only depends on the
// lower-cased email.
func FriendColor(email string) string {
	h := xxhash.Sum64String(strings.ToLower(strings.TrimSpace(email)))
	return FriendPalette[h%uint64(len(FriendPalette))]
}

type FriendService struct {
	Dep         *dependency.Dependency
	Connections repository.ConnectionRepository
	Accounts    repository.AccountRepository
	Notifier    *notify.Notifier
}

func NewFriendService(dep *dependency.Dependency, connections repository.ConnectionRepository, accounts repository.AccountRepository, notifier *notify.Notifier) *FriendService {
	if connections == nil || accounts == nil {
		panic("FriendService: repositories are nil")
	}

	if notifier == nil {
		panic("FriendService: notifier is nil")
	}

	return &FriendService{
		Dep:         dep,
		Connections: connections,
		Accounts:    accounts,
		Notifier:    notifier,
	}
}

func conflictForStatus(status model.ConnectionStatus) error {
	switch status {
	case model.StatusAccepted:
		return appError.NewConflict("already friends")
	case model.StatusIncoming:
		return appError.NewConflict("you have an incoming request from this user")
	default:
		return appError.NewConflict("friend request already pending")
	}
}

func displayName(account *model.Account, fallback string) string {
	if account != nil {
		if name := strings.TrimSpace(account.Metadata.Data().Name); name != "" {
			return name
		}
	}
	return fallback
}

func connectionToResponse(conn *model.Connection, friendName string) dto.ConnectionResponse {
	return dto.ConnectionResponse{
		ID:           conn.ID,
		FriendEmail:  conn.FriendEmail,
		FriendUserID: conn.FriendUserID,
		FriendName:   friendName,
		FriendColor:  FriendColor(conn.FriendEmail),
		Status:       string(conn.Status),
		CreatedAt:    conn.CreatedAt.Unix(),
	}
}

// ownerDisplayName is only used for notification text, so lookup failures fall back to the email.
func (s *FriendService) ownerDisplayName(ctx context.Context, ownerID string, ownerEmail string) string {
	owner, err := s.Accounts.FindByUserID(ctx, ownerID)
	if err != nil {
		s.Dep.Logger.Warn("failed to load owner account for notification", "userID", ownerID, "err", err)
	}
	return displayName(owner, ownerEmail)
}

// resolveFriend returns the primary account behind email, or nil when nobody has signed up with it.
func (s *FriendService) resolveFriend(ctx context.Context, email string) (*model.Account, error) {
	account, err := s.Accounts.FindByExternalEmail(ctx, email)
	if err != nil || account == nil {
		return nil, err
	}

	if account.Provider == model.ProviderGoogle {
		return account, nil
	}

	primary, err := s.Accounts.FindByUserID(ctx, account.PrimaryID())
	if err != nil {
		return nil, err
	}
	if primary == nil {
		return account, nil
	}

	return primary, nil
}

func (s *FriendService) isOwnEmail(ctx context.Context, ownerID string, ownerEmail string, email string) (bool, error) {
	if strings.EqualFold(ownerEmail, email) {
		return true, nil
	}

	emails, err := s.Accounts.FindAllEmailsByPrimaryUserID(ctx, ownerID)
	if err != nil {
		return false, err
	}

	for _, e := range emails {
		if strings.EqualFold(e, email) {
			return true, nil
		}
	}

	return false, nil
}

func (s *FriendService) RequestFriend(ctx context.Context, ownerID string, ownerEmail string, friendEmail string) (*dto.FriendRequestResponse, error) {
	friendEmail = strings.ToLower(strings.TrimSpace(friendEmail))
	ownerEmail = strings.ToLower(strings.TrimSpace(ownerEmail))

	if !dto.IsValidEmail(friendEmail) {
		return nil, appError.NewBadRequest("invalid email")
	}

	own, err := s.isOwnEmail(ctx, ownerID, ownerEmail, friendEmail)
	if err != nil {
		return nil, err
	}
	if own {
		return nil, appError.NewBadRequest("cannot add yourself as a friend")
	}

	existing, err := s.Connections.FindByOwnerAndEmail(ctx, ownerID, friendEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflictForStatus(existing.Status)
	}

	friend, err := s.resolveFriend(ctx, friendEmail)
	if err != nil {
		return nil, err
	}
	if friend != nil && friend.UserID == ownerID {
		return nil, appError.NewBadRequest("cannot add yourself as a friend")
	}

	// same person reached through another of their linked emails
	if friend != nil {
		existing, err = s.Connections.FindByOwnerAndFriendUserID(ctx, ownerID, friend.UserID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, conflictForStatus(existing.Status)
		}
	}

	conn := model.Connection{
		UserID:      ownerID,
		FriendEmail: friendEmail,
		Status:      model.StatusPending,
	}
	if friend != nil {
		friendID := friend.UserID
		conn.FriendUserID = &friendID
		conn.Status = model.StatusRequested
	}

	err = s.Connections.Create(ctx, &conn)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, s.conflictAfterRace(ctx, ownerID, friendEmail)
		}
		return nil, err
	}

	if friend != nil {
		err = s.createPeerIncoming(ctx, friend.UserID, ownerID, ownerEmail)
		if err != nil {
			return nil, err
		}
	}

	ownerName := s.ownerDisplayName(ctx, ownerID, ownerEmail)
	friendName := displayName(friend, friendEmail)

	message := MsgAwaitingSignup
	if friend != nil {
		message = MsgAwaitingAccept
		s.Notifier.FriendRequest(friendEmail, ownerName)
	} else {
		s.Notifier.Invite(friendEmail, ownerName)
	}

	return &dto.FriendRequestResponse{
		Connection: connectionToResponse(&conn, friendName),
		FriendName: friendName,
		Message:    message,
	}, nil
}

// conflictAfterRace reports the status of the row that won a concurrent insert.
func (s *FriendService) conflictAfterRace(ctx context.Context, ownerID string, friendEmail string) error {
	existing, err := s.Connections.FindByOwnerAndEmail(ctx, ownerID, friendEmail)
	if err != nil || existing == nil {
		return appError.NewConflict("friend request already pending")
	}
	return conflictForStatus(existing.Status)
}

// createPeerIncoming never overwrites a row the peer already has for the owner.
func (s *FriendService) createPeerIncoming(ctx context.Context, peerID string, ownerID string, ownerEmail string) error {
	if ownerEmail == "" {
		return nil
	}

	owner := ownerID
	created, err := s.Connections.CreateIfAbsent(ctx, &model.Connection{
		UserID:       peerID,
		FriendEmail:  ownerEmail,
		FriendUserID: &owner,
		Status:       model.StatusIncoming,
	})
	if err != nil {
		return err
	}
	if !created {
		s.Dep.Logger.Debug("peer connection already present", "peerID", peerID, "ownerID", ownerID)
	}

	return nil
}

func (s *FriendService) primaryEmail(ctx context.Context, ownerID string) (string, error) {
	owner, err := s.Accounts.FindByUserID(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if owner == nil || owner.ExternalEmail == nil {
		return "", nil
	}
	return strings.ToLower(*owner.ExternalEmail), nil
}

// SyncPendingForOwner promotes pending rows whose email now belongs to an account.
func (s *FriendService) SyncPendingForOwner(ctx context.Context, ownerID string) (int, error) {
	pending, err := s.Connections.ListUnresolvedPending(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	ownerEmail, err := s.primaryEmail(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, conn := range pending {
		friend, err := s.resolveFriend(ctx, conn.FriendEmail)
		if err != nil {
			return promoted, err
		}
		if friend == nil || friend.UserID == ownerID {
			continue
		}

		known, err := s.Connections.FindByOwnerAndFriendUserID(ctx, ownerID, friend.UserID)
		if err != nil {
			return promoted, err
		}
		if known != nil {
			s.Dep.Logger.Debug("pending request targets an existing friend", "userID", ownerID, "id", conn.ID, "existingID", known.ID)
			continue
		}

		ok, err := s.Connections.Promote(ctx, conn.ID, friend.UserID)
		if err != nil {
			return promoted, err
		}
		if !ok {
			continue
		}

		err = s.createPeerIncoming(ctx, friend.UserID, ownerID, ownerEmail)
		if err != nil {
			return promoted, err
		}

		promoted++
	}

	if promoted > 0 {
		s.Dep.Logger.Info("promoted pending friend requests", "userID", ownerID, "count", promoted)
	}

	return promoted, nil
}

// SyncAllPending runs SyncPendingForOwner for every owner with unresolved rows.
// A failing owner is logged and skipped.
func (s *FriendService) SyncAllPending(ctx context.Context) (int, error) {
	owners, err := s.Connections.ListPendingOwners(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, owner := range owners {
		n, err := s.SyncPendingForOwner(ctx, owner)
		total += n
		if err != nil {
			s.Dep.Logger.Warn("failed to sync pending requests", "userID", owner, "err", err)
		}
	}

	return total, nil
}

func (s *FriendService) findIncoming(ctx context.Context, ownerID string, id uint) (*model.Connection, error) {
	conn, err := s.Connections.FindByIDForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if conn == nil || conn.Status != model.StatusIncoming {
		return nil, appError.NewNotFound("friend request not found")
	}
	return conn, nil
}

func (s *FriendService) AcceptRequest(ctx context.Context, ownerID string, id uint) (*dto.ConnectionResponse, error) {
	conn, err := s.findIncoming(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	err = s.Connections.UpdateStatus(ctx, conn.ID, model.StatusAccepted)
	if err != nil {
		return nil, err
	}
	conn.Status = model.StatusAccepted

	var requester *model.Account
	if conn.FriendUserID != nil {
		rows, err := s.Connections.UpdatePeerStatus(ctx, *conn.FriendUserID, ownerID, model.StatusRequested, model.StatusAccepted)
		if err != nil {
			s.Dep.Logger.Warn("failed to accept peer connection", "ownerID", ownerID, "peerID", *conn.FriendUserID, "err", err)
		} else if rows == 0 {
			s.Dep.Logger.Warn("no peer connection to accept", "ownerID", ownerID, "peerID", *conn.FriendUserID)
		}

		requester, err = s.Accounts.FindByUserID(ctx, *conn.FriendUserID)
		if err != nil {
			s.Dep.Logger.Warn("failed to load requester account", "peerID", *conn.FriendUserID, "err", err)
		}
	}

	ownerEmail, err := s.primaryEmail(ctx, ownerID)
	if err != nil {
		s.Dep.Logger.Warn("failed to load owner email for notification", "userID", ownerID, "err", err)
	}
	s.Notifier.Accepted(conn.FriendEmail, s.ownerDisplayName(ctx, ownerID, ownerEmail))

	resp := connectionToResponse(conn, displayName(requester, conn.FriendEmail))
	return &resp, nil
}

func (s *FriendService) RejectRequest(ctx context.Context, ownerID string, id uint) error {
	conn, err := s.findIncoming(ctx, ownerID, id)
	if err != nil {
		return err
	}

	_, ownerErr := s.Connections.DeleteByID(ctx, conn.ID)
	if ownerErr != nil {
		s.Dep.Logger.Error("failed to delete rejected connection", "id", conn.ID, "err", ownerErr)
	}

	if conn.FriendUserID != nil {
		_, err = s.Connections.DeletePeer(ctx, *conn.FriendUserID, ownerID, model.StatusRequested)
		if err != nil {
			s.Dep.Logger.Warn("failed to delete peer of rejected connection", "ownerID", ownerID, "peerID", *conn.FriendUserID, "err", err)
		}
	}

	return ownerErr
}

// RemoveFriend deletes the owner's row and, when the friend is known, the friend's row
// pointing back at the owner. Rows left over from before the peer row carried
// friend_user_id are matched by ownerEmail, resolved from the primary account when empty.
func (s *FriendService) RemoveFriend(ctx context.Context, ownerID string, ownerEmail string, id uint) error {
	conn, err := s.Connections.FindByIDForOwner(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if conn == nil {
		return appError.NewNotFound("connection not found")
	}

	_, err = s.Connections.DeleteByID(ctx, conn.ID)
	if err != nil {
		return err
	}

	if conn.FriendUserID == nil {
		return nil
	}
	peerID := *conn.FriendUserID

	rows, err := s.Connections.DeleteByOwnerAndFriendUserID(ctx, peerID, ownerID)
	if err != nil {
		s.Dep.Logger.Warn("failed to delete peer connection", "ownerID", ownerID, "peerID", peerID, "err", err)
		return nil
	}
	if rows > 0 {
		return nil
	}

	ownerEmail = strings.ToLower(strings.TrimSpace(ownerEmail))
	if ownerEmail == "" {
		ownerEmail, err = s.primaryEmail(ctx, ownerID)
		if err != nil {
			s.Dep.Logger.Warn("failed to resolve owner email for peer removal", "userID", ownerID, "err", err)
			return nil
		}
	}

	if ownerEmail != "" {
		_, err = s.Connections.DeleteByOwnerAndEmail(ctx, peerID, ownerEmail)
		if err != nil {
			s.Dep.Logger.Warn("failed to delete peer connection", "ownerID", ownerID, "peerID", peerID, "err", err)
		}
	}

	return nil
}

func (s *FriendService) ListFriends(ctx context.Context, ownerID string) (*dto.FriendsResponse, error) {
	return s.list(ctx, ownerID, false)
}

func (s *FriendService) ListIncoming(ctx context.Context, ownerID string) (*dto.FriendsResponse, error) {
	return s.list(ctx, ownerID, true)
}

func (s *FriendService) list(ctx context.Context, ownerID string, incoming bool) (*dto.FriendsResponse, error) {
	conns, err := s.Connections.ListByOwner(ctx, ownerID, incoming)
	if err != nil {
		return nil, err
	}

	friendIDs := make([]string, 0, len(conns))
	for _, c := range conns {
		if c.FriendUserID != nil {
			friendIDs = append(friendIDs, *c.FriendUserID)
		}
	}

	accounts, err := s.Accounts.FindByUserIDs(ctx, friendIDs)
	if err != nil {
		return nil, err
	}

	friends := make([]dto.ConnectionResponse, 0, len(conns))
	for i := range conns {
		var account *model.Account
		if conns[i].FriendUserID != nil {
			account = accounts[*conns[i].FriendUserID]
		}
		friends = append(friends, connectionToResponse(&conns[i], displayName(account, conns[i].FriendEmail)))
	}

	return &dto.FriendsResponse{Friends: friends}, nil
}
