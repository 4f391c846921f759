package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	model "github.com/calhub/calendar-service-go/internal/db"
)

var ErrDuplicate = errors.New("connection already exists")

// ConnectionRepository persists friend-graph rows. Each row is owned by UserID;
// ownership is always part of the lookup so foreign rows read as missing.
type ConnectionRepository interface {
	FindByOwnerAndEmail(ctx context.Context, ownerID string, friendEmail string) (*model.Connection, error)
	FindByIDForOwner(ctx context.Context, id uint, ownerID string) (*model.Connection, error)
	FindAccepted(ctx context.Context, ownerID string, friendUserID string) (*model.Connection, error)
	FindByOwnerAndFriendUserID(ctx context.Context, ownerID string, friendUserID string) (*model.Connection, error)
	Create(ctx context.Context, conn *model.Connection) error
	CreateIfAbsent(ctx context.Context, conn *model.Connection) (bool, error)
	UpdateStatus(ctx context.Context, id uint, status model.ConnectionStatus) error
	Promote(ctx context.Context, id uint, friendUserID string) (bool, error)
	UpdatePeerStatus(ctx context.Context, peerOwnerID string, friendUserID string, from model.ConnectionStatus, to model.ConnectionStatus) (int, error)
	DeletePeer(ctx context.Context, peerOwnerID string, friendUserID string, status model.ConnectionStatus) (int, error)
	DeleteByID(ctx context.Context, id uint) (int, error)
	DeleteByOwnerAndEmail(ctx context.Context, ownerID string, friendEmail string) (int, error)
	DeleteByOwnerAndFriendUserID(ctx context.Context, ownerID string, friendUserID string) (int, error)
	ListByOwner(ctx context.Context, ownerID string, incoming bool) ([]model.Connection, error)
	ListUnresolvedPending(ctx context.Context, ownerID string) ([]model.Connection, error)
	ListPendingOwners(ctx context.Context) ([]string, error)
}

type GormConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *GormConnectionRepository {
	return &GormConnectionRepository{db: db}
}

func connectionOrNil(conn model.Connection, err error) (*model.Connection, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (r *GormConnectionRepository) FindByOwnerAndEmail(ctx context.Context, ownerID string, friendEmail string) (*model.Connection, error) {
	conn, err := gorm.G[model.Connection](r.db).Where("user_id = ? AND friend_email = ?", ownerID, friendEmail).First(ctx)
	return connectionOrNil(conn, err)
}

func (r *GormConnectionRepository) FindByIDForOwner(ctx context.Context, id uint, ownerID string) (*model.Connection, error) {
	conn, err := gorm.G[model.Connection](r.db).Where("id = ? AND user_id = ?", id, ownerID).First(ctx)
	return connectionOrNil(conn, err)
}

func (r *GormConnectionRepository) FindAccepted(ctx context.Context, ownerID string, friendUserID string) (*model.Connection, error) {
	conn, err := gorm.G[model.Connection](r.db).
		Where("user_id = ? AND friend_user_id = ? AND status = ?", ownerID, friendUserID, model.StatusAccepted).
		First(ctx)
	return connectionOrNil(conn, err)
}

// FindByOwnerAndFriendUserID matches on the resolved identity, so a row created
// through any of the friend's linked emails is found.
func (r *GormConnectionRepository) FindByOwnerAndFriendUserID(ctx context.Context, ownerID string, friendUserID string) (*model.Connection, error) {
	conn, err := gorm.G[model.Connection](r.db).
		Where("user_id = ? AND friend_user_id = ?", ownerID, friendUserID).
		Order("id").
		First(ctx)
	return connectionOrNil(conn, err)
}

func (r *GormConnectionRepository) Create(ctx context.Context, conn *model.Connection) error {
	err := gorm.G[model.Connection](r.db).Create(ctx, conn)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("create connection: %w", err)
	}

	return nil
}

// CreateIfAbsent inserts conn unless (user_id, friend_email) already exists.
// An existing row is left untouched.
func (r *GormConnectionRepository) CreateIfAbsent(ctx context.Context, conn *model.Connection) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(conn)
	if res.Error != nil {
		return false, fmt.Errorf("create connection if absent: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

func (r *GormConnectionRepository) UpdateStatus(ctx context.Context, id uint, status model.ConnectionStatus) error {
	_, err := gorm.G[model.Connection](r.db).Where("id = ?", id).Update(ctx, "status", status)
	if err != nil {
		return fmt.Errorf("update connection status: %w", err)
	}

	return nil
}

// Promote moves an unresolved pending row to requested. It reports false when the
// row was already resolved by a concurrent caller.
func (r *GormConnectionRepository) Promote(ctx context.Context, id uint, friendUserID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Connection{}).
		Where("id = ? AND status = ? AND friend_user_id IS NULL", id, model.StatusPending).
		Updates(map[string]any{
			"status":         model.StatusRequested,
			"friend_user_id": friendUserID,
		})
	if res.Error != nil {
		return false, fmt.Errorf("promote connection: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

func (r *GormConnectionRepository) UpdatePeerStatus(ctx context.Context, peerOwnerID string, friendUserID string, from model.ConnectionStatus, to model.ConnectionStatus) (int, error) {
	rows, err := gorm.G[model.Connection](r.db).
		Where("user_id = ? AND friend_user_id = ? AND status = ?", peerOwnerID, friendUserID, from).
		Update(ctx, "status", to)
	if err != nil {
		return 0, fmt.Errorf("update peer connection status: %w", err)
	}

	return rows, nil
}

func (r *GormConnectionRepository) DeletePeer(ctx context.Context, peerOwnerID string, friendUserID string, status model.ConnectionStatus) (int, error) {
	rows, err := gorm.G[model.Connection](r.db).
		Where("user_id = ? AND friend_user_id = ? AND status = ?", peerOwnerID, friendUserID, status).
		Delete(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete peer connection: %w", err)
	}

	return rows, nil
}

func (r *GormConnectionRepository) DeleteByID(ctx context.Context, id uint) (int, error) {
	rows, err := gorm.G[model.Connection](r.db).Where("id = ?", id).Delete(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete connection: %w", err)
	}

	return rows, nil
}

func (r *GormConnectionRepository) DeleteByOwnerAndEmail(ctx context.Context, ownerID string, friendEmail string) (int, error) {
	rows, err := gorm.G[model.Connection](r.db).Where("user_id = ? AND friend_email = ?", ownerID, friendEmail).Delete(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete connection by email: %w", err)
	}

	return rows, nil
}

func (r *GormConnectionRepository) DeleteByOwnerAndFriendUserID(ctx context.Context, ownerID string, friendUserID string) (int, error) {
	rows, err := gorm.G[model.Connection](r.db).Where("user_id = ? AND friend_user_id = ?", ownerID, friendUserID).Delete(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete connection by friend: %w", err)
	}

	return rows, nil
}

// ListByOwner lists incoming rows when incoming is true, every other row otherwise.
func (r *GormConnectionRepository) ListByOwner(ctx context.Context, ownerID string, incoming bool) ([]model.Connection, error) {
	q := gorm.G[model.Connection](r.db).Where("user_id = ?", ownerID)
	if incoming {
		q = q.Where("status = ?", model.StatusIncoming)
	} else {
		q = q.Where("status <> ?", model.StatusIncoming)
	}

	conns, err := q.Order("created_at DESC").Order("id DESC").Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	return conns, nil
}

func (r *GormConnectionRepository) ListUnresolvedPending(ctx context.Context, ownerID string) ([]model.Connection, error) {
	conns, err := gorm.G[model.Connection](r.db).
		Where("user_id = ? AND status = ? AND friend_user_id IS NULL", ownerID, model.StatusPending).
		Order("id").
		Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending connections: %w", err)
	}

	return conns, nil
}

// ListPendingOwners returns every owner holding at least one unresolved pending row.
func (r *GormConnectionRepository) ListPendingOwners(ctx context.Context) ([]string, error) {
	var owners []string
	err := r.db.WithContext(ctx).
		Model(&model.Connection{}).
		Where("status = ? AND friend_user_id IS NULL", model.StatusPending).
		Distinct().
		Order("user_id").
		Pluck("user_id", &owners).Error
	if err != nil {
		return nil, fmt.Errorf("list pending owners: %w", err)
	}

	return owners, nil
}
