package billing

import (
	"context"
	"errors"
	"time"

	"github.com/PostPilotHQ/PostPilot/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventKey identifies one normalized event in the processed-event log.
type EventKey struct {
	Provider    string
	EventID     string
	EventType   string
	PayloadJSON string
}

// Repository is the persistence adapter for the webhook core. ProcessEvent is
// the only write entry point used during delivery handling: it runs fn and
// the processed-event log insert in one transaction, so a state mutation and
// its log row land together or not at all.
type Repository interface {
	GetAccountByExternalCustomerID(ctx context.Context, customerID string) (*models.Account, error)
	GetSubscriptionByExternalID(ctx context.Context, externalSubscriptionID string) (*models.SubscriptionRecord, error)
	GetSubscriptionByExternalCustomerID(ctx context.Context, customerID string) (*models.SubscriptionRecord, error)
	SaveSubscription(ctx context.Context, rec *models.SubscriptionRecord) error
	GetPlatformConnection(ctx context.Context, platform, platformUserID string) (*models.PlatformConnection, error)
	SavePlatformConnection(ctx context.Context, conn *models.PlatformConnection) error

	// ProcessEvent returns ErrDuplicateEvent without calling fn when the
	// (provider, event id) pair already has a log row. On success the row
	// is stamped with fn's outcome and processed_at.
	ProcessEvent(ctx context.Context, key EventKey, fn func(tx Repository) (string, error)) (string, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetAccountByExternalCustomerID(ctx context.Context, customerID string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("external_customer_id = ?", customerID).First(&account).Error
	if err != nil {
		return nil, translateErr("account lookup", err)
	}
	return &account, nil
}

func (r *gormRepository) GetSubscriptionByExternalID(ctx context.Context, externalSubscriptionID string) (*models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_subscription_id = ?", externalSubscriptionID).
		First(&rec).Error
	if err != nil {
		return nil, translateErr("subscription lookup", err)
	}
	return &rec, nil
}

func (r *gormRepository) GetSubscriptionByExternalCustomerID(ctx context.Context, customerID string) (*models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	err := r.db.WithContext(ctx).
		Where("external_customer_id = ?", customerID).
		Order("updated_at DESC").
		First(&rec).Error
	if err != nil {
		return nil, translateErr("subscription lookup by customer", err)
	}
	return &rec, nil
}

func (r *gormRepository) SaveSubscription(ctx context.Context, rec *models.SubscriptionRecord) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "external_subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_id",
			"tier",
			"status",
			"external_customer_id",
			"external_price_id",
			"current_period_end",
			"cancel_at_period_end",
			"has_byok",
			"last_applied_provider_ts",
			"raw_payload_json",
			"updated_at",
		}),
	}).Create(rec).Error; err != nil {
		return translateErr("subscription save", err)
	}

	// Ensure ID is populated after upsert.
	err := r.db.WithContext(ctx).
		Where("external_subscription_id = ?", rec.ExternalSubscriptionID).
		First(rec).Error
	return translateErr("subscription reload", err)
}

func (r *gormRepository) GetPlatformConnection(ctx context.Context, platform, platformUserID string) (*models.PlatformConnection, error) {
	var conn models.PlatformConnection
	err := r.db.WithContext(ctx).
		Where("platform = ? AND platform_user_id = ?", platform, platformUserID).
		First(&conn).Error
	if err != nil {
		return nil, translateErr("platform connection lookup", err)
	}
	return &conn, nil
}

func (r *gormRepository) SavePlatformConnection(ctx context.Context, conn *models.PlatformConnection) error {
	return translateErr("platform connection save", r.db.WithContext(ctx).Save(conn).Error)
}

func (r *gormRepository) ProcessEvent(ctx context.Context, key EventKey, fn func(tx Repository) (string, error)) (string, error) {
	var outcome string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event := models.WebhookEvent{
			Provider:        key.Provider,
			ProviderEventID: key.EventID,
			EventType:       key.EventType,
			PayloadJSON:     key.PayloadJSON,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "provider"},
				{Name: "provider_event_id"},
			},
			DoNothing: true,
		}).Create(&event)
		if res.Error != nil {
			return &TransientError{Op: "event log insert", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateEvent
		}

		var fnErr error
		outcome, fnErr = fn(&gormRepository{db: tx})
		if fnErr != nil {
			return fnErr
		}

		now := time.Now()
		if err := tx.Model(&models.WebhookEvent{}).
			Where("provider = ? AND provider_event_id = ?", key.Provider, key.EventID).
			Updates(map[string]interface{}{
				"outcome":      outcome,
				"processed_at": &now,
			}).Error; err != nil {
			return &TransientError{Op: "event log update", Err: err}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

func translateErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	default:
		return &TransientError{Op: op, Err: err}
	}
}
