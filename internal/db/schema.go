package db

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ProviderGoogle  = "google"
	ProviderICloud  = "icloud"
	ProviderOutlook = "outlook"
)

type ConnectionStatus string

const (
	// Owner requested a friend who has no account yet; no peer row exists.
	StatusPending ConnectionStatus = "pending"
	// Owner requested a friend who has an account; the peer holds an incoming row.
	StatusRequested ConnectionStatus = "requested"
	// Someone requested the owner, who has not responded yet.
	StatusIncoming ConnectionStatus = "incoming"
	// Both rows are accepted.
	StatusAccepted ConnectionStatus = "accepted"
)

type AccountMetadata struct {
	Name   string  `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// Account is one linked calendar account. The google row is the primary identity;
// icloud and outlook rows point at it through PrimaryUserID.
type Account struct {
	ID                uint    `gorm:"primaryKey"`
	UserID            string  `gorm:"not null;uniqueIndex:idx_accounts_user_provider"`
	Provider          string  `gorm:"type:varchar(20);not null;uniqueIndex:idx_accounts_user_provider"`
	ExternalEmail     *string `gorm:"index"`
	AccessToken       *string
	RefreshToken      *string
	TokenExpiry       *time.Time
	EncryptedPassword *string
	BrokerGrantID     *string
	PrimaryUserID     *string `gorm:"index"`
	Metadata          datatypes.JSONType[AccountMetadata]
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PrimaryID is the identity this account belongs to.
func (a *Account) PrimaryID() string {
	if a.PrimaryUserID != nil && *a.PrimaryUserID != "" {
		return *a.PrimaryUserID
	}
	return a.UserID
}

// Connection is one directed edge of the friend graph, owned by UserID.
type Connection struct {
	ID           uint             `gorm:"primaryKey"`
	UserID       string           `gorm:"not null;uniqueIndex:idx_connections_owner_friend"`
	FriendEmail  string           `gorm:"not null;uniqueIndex:idx_connections_owner_friend"`
	FriendUserID *string          `gorm:"index"`
	Status       ConnectionStatus `gorm:"type:varchar(20);not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func Models() []any {
	return []any{
		&Account{},
		&Connection{},
	}
}
