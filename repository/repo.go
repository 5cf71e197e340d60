package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"onboarding-media/constant"
	"onboarding-media/entities"
)

type MediaRepository interface {
	Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error
	GetDB() *gorm.DB
	FindModelByUserId(ctx context.Context, userId string) (*entities.Model, error)
	CreateMedia(ctx context.Context, record *entities.MediaRecord) error
	FindMediaById(ctx context.Context, id uuid.UUID) (*entities.MediaRecord, error)
	FindTerminalByModelAndRole(ctx context.Context, modelId uuid.UUID, role constant.MediaRole) (*entities.MediaRecord, error)
	CountByModelAndRole(ctx context.Context, modelId uuid.UUID, role constant.MediaRole) (int64, error)
	ListByModel(ctx context.Context, modelId uuid.UUID) ([]*entities.MediaRecord, error)
	FinalizeSuccess(ctx context.Context, id uuid.UUID, mediaUrl, posterUrl string) error
	FinalizeFailure(ctx context.Context, id uuid.UUID, message string) error
	DeleteMedia(ctx context.Context, id uuid.UUID) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) MediaRepository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return r.GetDB().Transaction(func(tx *gorm.DB) error {
		err := callback(ctx)
		if err != nil {
			return err
		}
		return nil
	}, opts...)
}

func (r *repo) FindModelByUserId(ctx context.Context, userId string) (*entities.Model, error) {
	model := &entities.Model{}
	err := r.GetDB().WithContext(ctx).First(model, "user_id = ?", userId).Error
	if err != nil {
		return nil, err
	}

	return model, nil
}

func (r *repo) CreateMedia(ctx context.Context, record *entities.MediaRecord) error {
	return r.GetDB().WithContext(ctx).Create(record).Error
}

func (r *repo) FindMediaById(ctx context.Context, id uuid.UUID) (*entities.MediaRecord, error) {
	record := &entities.MediaRecord{}
	err := r.GetDB().WithContext(ctx).First(record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return record, nil
}

// FindTerminalByModelAndRole returns the non-processing record for the pair,
// gorm.ErrRecordNotFound when none exists.
func (r *repo) FindTerminalByModelAndRole(ctx context.Context, modelId uuid.UUID, role constant.MediaRole) (*entities.MediaRecord, error) {
	record := &entities.MediaRecord{}
	err := r.GetDB().WithContext(ctx).
		Where("model_id = ? AND media_role = ? AND processing = false", modelId, role).
		Order("created_at DESC").
		First(record).Error
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (r *repo) CountByModelAndRole(ctx context.Context, modelId uuid.UUID, role constant.MediaRole) (int64, error) {
	var count int64
	err := r.GetDB().WithContext(ctx).
		Model(&entities.MediaRecord{}).
		Where("model_id = ? AND media_role = ?", modelId, role).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *repo) ListByModel(ctx context.Context, modelId uuid.UUID) ([]*entities.MediaRecord, error) {
	var records []*entities.MediaRecord
	err := r.GetDB().WithContext(ctx).
		Where("model_id = ?", modelId).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// FinalizeSuccess moves a record to its terminal success state. Repeating
// the same update is a no-op.
func (r *repo) FinalizeSuccess(ctx context.Context, id uuid.UUID, mediaUrl, posterUrl string) error {
	updates := map[string]interface{}{
		"processing":       false,
		"processing_error": "",
		"media_url":        mediaUrl,
		"poster_url":       posterUrl,
	}
	return r.GetDB().WithContext(ctx).
		Model(&entities.MediaRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repo) FinalizeFailure(ctx context.Context, id uuid.UUID, message string) error {
	updates := map[string]interface{}{
		"processing":       false,
		"processing_error": message,
		"media_url":        "",
		"poster_url":       "",
	}
	return r.GetDB().WithContext(ctx).
		Model(&entities.MediaRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repo) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	return r.GetDB().WithContext(ctx).Delete(&entities.MediaRecord{}, "id = ?", id).Error
}
