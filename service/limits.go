package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"onboarding-media/constant"
)

// enforceRoleLimit applies the per-role capacity policy before any
// processing commits. Singleton roles replace: the prior record and its
// artifacts are removed up front. Capped roles reject at the cap.
//
// The check and the subsequent insert are not one atomic step; two
// concurrent uploads to the same singleton pair can both pass the lookup.
// The onboarding UI drives uploads sequentially, so the window is accepted
// rather than serialized here.
func (s *ingestionService) enforceRoleLimit(ctx context.Context, modelId uuid.UUID, role constant.MediaRole) error {
	if role.Singleton() {
		existing, err := s.repo.FindTerminalByModelAndRole(ctx, modelId, role)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := s.layout.RemoveUrl(existing.MediaUrl); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("url", existing.MediaUrl).Msg("failed to remove replaced artifact")
		}
		if err := s.layout.RemoveUrl(existing.PosterUrl); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("url", existing.PosterUrl).Msg("failed to remove replaced poster")
		}
		if err := s.repo.DeleteMedia(ctx, existing.ID); err != nil {
			return err
		}

		zerolog.Ctx(ctx).Info().Str("record_id", existing.ID.String()).Str("role", role.String()).Msg("replaced prior singleton record")
		return nil
	}

	count, err := s.repo.CountByModelAndRole(ctx, modelId, role)
	if err != nil {
		return err
	}
	if count >= int64(role.Cap()) {
		return fmt.Errorf("%w: %s holds %d of %d", ErrCapacityExceeded, role, count, role.Cap())
	}

	return nil
}
