package service

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"onboarding-media/constant"
	"onboarding-media/dto"
	"onboarding-media/entities"
	"onboarding-media/pkg/storage"
	"onboarding-media/repository"
)

// JobQueue hands transcode jobs to the background worker pool.
type JobQueue interface {
	Enqueue(job dto.TranscodeJob)
}

// IngestionService is the single entry point coordinating validation,
// capacity policy, the pipelines and the record store per upload.
type IngestionService interface {
	Upload(ctx context.Context, userId string, role string, file *multipart.FileHeader) (*dto.UploadResult, error)
	List(ctx context.Context, modelId uuid.UUID) ([]dto.MediaItem, error)
	Delete(ctx context.Context, userId string, mediaId uuid.UUID) error
}

type ingestionService struct {
	repo      repository.MediaRepository
	layout    storage.Layout
	validator *Validator
	images    ImageNormalizer
	videos    JobQueue
	clock     func() time.Time
	idGen     func() uuid.UUID
}

func NewIngestionService(
	repo repository.MediaRepository,
	layout storage.Layout,
	validator *Validator,
	images ImageNormalizer,
	videos JobQueue,
) IngestionService {
	return &ingestionService{
		repo:      repo,
		layout:    layout,
		validator: validator,
		images:    images,
		videos:    videos,
		clock:     time.Now,
		idGen:     uuid.New,
	}
}

func (s *ingestionService) Upload(ctx context.Context, userId string, roleValue string, file *multipart.FileHeader) (result *dto.UploadResult, err error) {
	role, ok := constant.ParseRole(roleValue)
	if !ok {
		return nil, ErrInvalidRole
	}
	if file == nil || file.Size == 0 {
		return nil, ErrMissingFile
	}

	// Content is judged before any profile lookup, so a junk upload reads
	// as a bad request even when the caller has no profile yet.
	validation, err := s.validator.Validate(file, role.MediaType())
	if err != nil {
		return nil, err
	}

	model, err := s.repo.FindModelByUserId(ctx, userId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnerProfileNotFound
		}
		return nil, err
	}

	if err = s.enforceRoleLimit(ctx, model.ID, role); err != nil {
		return nil, err
	}

	rawPath, err := s.stageUpload(model.ID, role, file)
	if err != nil {
		return nil, err
	}
	// Any synchronous failure must leave no raw file behind.
	defer func() {
		if err != nil {
			if removeErr := os.Remove(rawPath); removeErr != nil && !os.IsNotExist(removeErr) {
				zerolog.Ctx(ctx).Warn().Err(removeErr).Str("path", rawPath).Msg("failed to remove raw upload")
			}
		}
	}()

	record := &entities.MediaRecord{
		ID:         s.idGen(),
		ModelId:    model.ID,
		MediaType:  role.MediaType(),
		MediaRole:  role,
		Processing: true,
		CreatedAt:  s.clock(),
	}
	if err = s.repo.CreateMedia(ctx, record); err != nil {
		return nil, err
	}

	if role.MediaType() == constant.MediaTypeVideo {
		s.videos.Enqueue(dto.TranscodeJob{
			RecordId: record.ID,
			RawPath:  rawPath,
			FinalDir: s.layout.RoleDir(model.ID, role),
		})

		return &dto.UploadResult{Id: record.ID, Processing: true}, nil
	}

	url, normErr := s.normalizeImage(ctx, model.ID, role, rawPath, validation.Legacy)
	if normErr != nil {
		// Record stays behind terminally failed rather than vanishing, the
		// same contract the video pipeline gives pollers.
		if updateErr := s.repo.FinalizeFailure(ctx, record.ID, normErr.Error()); updateErr != nil {
			zerolog.Ctx(ctx).Error().Err(updateErr).Str("record_id", record.ID.String()).Msg("failed to finalize record")
		}
		return nil, normErr
	}

	if err = s.repo.FinalizeSuccess(ctx, record.ID, url, ""); err != nil {
		return nil, err
	}

	return &dto.UploadResult{Id: record.ID, Processing: false, Url: url}, nil
}

func (s *ingestionService) normalizeImage(ctx context.Context, modelId uuid.UUID, role constant.MediaRole, rawPath string, legacy bool) (string, error) {
	destPath, err := s.layout.NewArtifactPath(modelId, role, ".jpg")
	if err != nil {
		return "", err
	}

	if err := s.images.Normalize(ctx, rawPath, legacy, destPath); err != nil {
		os.Remove(destPath)
		return "", err
	}

	return s.layout.PublicUrl(destPath)
}

func (s *ingestionService) stageUpload(modelId uuid.UUID, role constant.MediaRole, file *multipart.FileHeader) (string, error) {
	rawPath, err := s.layout.NewRawPath(modelId, role, filepath.Ext(file.Filename))
	if err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(rawPath)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(rawPath)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(rawPath)
		return "", err
	}

	return rawPath, nil
}

func (s *ingestionService) List(ctx context.Context, modelId uuid.UUID) ([]dto.MediaItem, error) {
	records, err := s.repo.ListByModel(ctx, modelId)
	if err != nil {
		return nil, err
	}

	items := make([]dto.MediaItem, 0, len(records))
	for _, record := range records {
		items = append(items, dto.MediaItem{
			Id:              record.ID,
			MediaType:       record.MediaType,
			MediaRole:       record.MediaRole,
			MediaUrl:        record.MediaUrl,
			PosterUrl:       record.PosterUrl,
			Processing:      record.Processing,
			ProcessingError: record.ProcessingError,
			SortOrder:       record.SortOrder,
			CreatedAt:       record.CreatedAt,
		})
	}

	return items, nil
}

func (s *ingestionService) Delete(ctx context.Context, userId string, mediaId uuid.UUID) error {
	model, err := s.repo.FindModelByUserId(ctx, userId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOwnerProfileNotFound
		}
		return err
	}

	record, err := s.repo.FindMediaById(ctx, mediaId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if record.ModelId != model.ID {
		return ErrOwnershipMismatch
	}

	if err := s.layout.RemoveUrl(record.MediaUrl); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("url", record.MediaUrl).Msg("failed to remove artifact")
	}
	if err := s.layout.RemoveUrl(record.PosterUrl); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("url", record.PosterUrl).Msg("failed to remove poster")
	}

	return s.repo.DeleteMedia(ctx, record.ID)
}
