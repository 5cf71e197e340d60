package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
	"onboarding-media/constant"
	"onboarding-media/dto"
	"onboarding-media/entities"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return callback(ctx)
}

func (m *RepoMock) GetDB() *gorm.DB {
	return nil
}

func (m *RepoMock) FindModelByUserId(ctx context.Context, userId string) (*entities.Model, error) {
	args := m.Called(ctx, userId)
	if v := args.Get(0); v != nil {
		return v.(*entities.Model), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RepoMock) CreateMedia(ctx context.Context, record *entities.MediaRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *RepoMock) FindMediaById(ctx context.Context, id uuid.UUID) (*entities.MediaRecord, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*entities.MediaRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RepoMock) FindTerminalByModelAndRole(ctx context.Context, modelId uuid.UUID, role constant.MediaRole) (*entities.MediaRecord, error) {
	args := m.Called(ctx, modelId, role)
	if v := args.Get(0); v != nil {
		return v.(*entities.MediaRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RepoMock) CountByModelAndRole(ctx context.Context, modelId uuid.UUID, role constant.MediaRole) (int64, error) {
	args := m.Called(ctx, modelId, role)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) ListByModel(ctx context.Context, modelId uuid.UUID) ([]*entities.MediaRecord, error) {
	args := m.Called(ctx, modelId)
	if v := args.Get(0); v != nil {
		return v.([]*entities.MediaRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RepoMock) FinalizeSuccess(ctx context.Context, id uuid.UUID, mediaUrl, posterUrl string) error {
	args := m.Called(ctx, id, mediaUrl, posterUrl)
	return args.Error(0)
}

func (m *RepoMock) FinalizeFailure(ctx context.Context, id uuid.UUID, message string) error {
	args := m.Called(ctx, id, message)
	return args.Error(0)
}

func (m *RepoMock) DeleteMedia(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type QueueMock struct {
	jobs []dto.TranscodeJob
}

func (q *QueueMock) Enqueue(job dto.TranscodeJob) {
	q.jobs = append(q.jobs, job)
}

// NormalizerFake stands in for the image pipeline: it moves the raw file to
// the destination, mimicking the cleanup contract of the real one.
type NormalizerFake struct {
	Fail error
}

func (f *NormalizerFake) Normalize(ctx context.Context, rawPath string, legacy bool, destPath string) error {
	if f.Fail != nil {
		return f.Fail
	}
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return err
	}
	return os.Rename(rawPath, destPath)
}
