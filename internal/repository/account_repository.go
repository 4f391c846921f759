package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	model "github.com/calhub/calendar-service-go/internal/db"
)

// AccountRepository reads and writes linked calendar accounts.
// Find* methods return (nil, nil) when nothing matches.
type AccountRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Account, error)
	FindByExternalEmail(ctx context.Context, email string) (*model.Account, error)
	FindAllEmailsByPrimaryUserID(ctx context.Context, primaryUserID string) ([]string, error)
	FindByPrimaryUserID(ctx context.Context, primaryUserID string) ([]model.Account, error)
	FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.Account, error)
	FindLinked(ctx context.Context, primaryUserID string, provider string) (*model.Account, error)
	Upsert(ctx context.Context, account *model.Account) error
	UpdateTokens(ctx context.Context, accountID uint, accessToken string, refreshToken string, expiry time.Time) error
	DeleteLinked(ctx context.Context, primaryUserID string, provider string) (int, error)
}

type GormAccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// google rows sort first so a user id shared across providers resolves to the primary.
const googleFirst = "CASE WHEN provider = 'google' THEN 0 ELSE 1 END"

func firstOrNil(account model.Account, err error) (*model.Account, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *GormAccountRepository) FindByUserID(ctx context.Context, userID string) (*model.Account, error) {
	account, err := gorm.G[model.Account](r.db).Where("user_id = ?", userID).Order(googleFirst).First(ctx)
	return firstOrNil(account, err)
}

func (r *GormAccountRepository) FindByExternalEmail(ctx context.Context, email string) (*model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}

	account, err := gorm.G[model.Account](r.db).Where("external_email = ?", email).Order(googleFirst).First(ctx)
	return firstOrNil(account, err)
}

func (r *GormAccountRepository) FindAllEmailsByPrimaryUserID(ctx context.Context, primaryUserID string) ([]string, error) {
	accounts, err := r.FindByPrimaryUserID(ctx, primaryUserID)
	if err != nil {
		return nil, err
	}

	emails := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a.ExternalEmail != nil && *a.ExternalEmail != "" {
			emails = append(emails, strings.ToLower(*a.ExternalEmail))
		}
	}

	return emails, nil
}

// FindByPrimaryUserID returns the primary google row plus every account linked under it.
func (r *GormAccountRepository) FindByPrimaryUserID(ctx context.Context, primaryUserID string) ([]model.Account, error) {
	accounts, err := gorm.G[model.Account](r.db).
		Where("(user_id = ? AND provider = ?) OR primary_user_id = ?", primaryUserID, model.ProviderGoogle, primaryUserID).
		Order(googleFirst).
		Order("id").
		Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("find accounts by primary user id: %w", err)
	}

	return accounts, nil
}

// FindByUserIDs resolves primary google accounts for a batch of user ids.
func (r *GormAccountRepository) FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.Account, error) {
	result := make(map[string]*model.Account, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	accounts, err := gorm.G[model.Account](r.db).
		Where("user_id IN ? AND provider = ?", userIDs, model.ProviderGoogle).
		Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("find accounts by user ids: %w", err)
	}

	for i := range accounts {
		result[accounts[i].UserID] = &accounts[i]
	}

	return result, nil
}

func (r *GormAccountRepository) FindLinked(ctx context.Context, primaryUserID string, provider string) (*model.Account, error) {
	if provider == model.ProviderGoogle {
		account, err := gorm.G[model.Account](r.db).Where("user_id = ? AND provider = ?", primaryUserID, provider).First(ctx)
		return firstOrNil(account, err)
	}

	account, err := gorm.G[model.Account](r.db).Where("primary_user_id = ? AND provider = ?", primaryUserID, provider).First(ctx)
	return firstOrNil(account, err)
}

// Upsert inserts the account or refreshes credentials, email and metadata of the
// existing (user_id, provider) row.
func (r *GormAccountRepository) Upsert(ctx context.Context, account *model.Account) error {
	if account.ExternalEmail != nil {
		lowered := strings.ToLower(*account.ExternalEmail)
		account.ExternalEmail = &lowered
	}

	columns := []string{"external_email", "metadata", "primary_user_id", "updated_at"}
	if account.AccessToken != nil {
		columns = append(columns, "access_token", "token_expiry")
	}
	// Google omits the refresh token on repeat consent; keep the stored one.
	if account.RefreshToken != nil {
		columns = append(columns, "refresh_token")
	}
	if account.EncryptedPassword != nil {
		columns = append(columns, "encrypted_password")
	}
	if account.BrokerGrantID != nil {
		columns = append(columns, "broker_grant_id")
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "provider"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(account).Error
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}

	// On conflict the returned id may be zero; reload the stored row.
	stored, err := gorm.G[model.Account](r.db).Where("user_id = ? AND provider = ?", account.UserID, account.Provider).First(ctx)
	if err != nil {
		return fmt.Errorf("reload account: %w", err)
	}
	*account = stored

	return nil
}

func (r *GormAccountRepository) UpdateTokens(ctx context.Context, accountID uint, accessToken string, refreshToken string, expiry time.Time) error {
	updates := map[string]any{
		"access_token": accessToken,
		"token_expiry": expiry,
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}

	err := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", accountID).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("update account tokens: %w", err)
	}

	return nil
}

func (r *GormAccountRepository) DeleteLinked(ctx context.Context, primaryUserID string, provider string) (int, error) {
	rows, err := gorm.G[model.Account](r.db).Where("primary_user_id = ? AND provider = ?", primaryUserID, provider).Delete(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete linked account: %w", err)
	}

	return rows, nil
}
