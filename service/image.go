package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	// registers the webp decoder for imaging.Open
	_ "golang.org/x/image/webp"
)

const (
	imageMaxWidth    = 1920
	imageMaxHeight   = 1080
	imageJPEGQuality = 82
)

// ImageNormalizer produces one canonical JPEG from a validated raw image,
// synchronously with respect to the upload request.
type ImageNormalizer interface {
	Normalize(ctx context.Context, rawPath string, legacy bool, destPath string) error
}

type imageNormalizer struct {
	ffmpegPath string
}

func NewImageNormalizer() ImageNormalizer {
	return &imageNormalizer{ffmpegPath: "ffmpeg"}
}

func (n *imageNormalizer) Normalize(ctx context.Context, rawPath string, legacy bool, destPath string) error {
	inputPath := rawPath
	// The working input never outlives the call, success or failure; after a
	// legacy conversion it is the intermediate JPEG, which the caller's raw
	// cleanup cannot see.
	defer func() {
		if removeErr := os.Remove(inputPath); removeErr != nil && !os.IsNotExist(removeErr) {
			zerolog.Ctx(ctx).Warn().Err(removeErr).Str("path", inputPath).Msg("failed to remove raw image")
		}
	}()

	if legacy {
		converted, err := n.convertLegacy(ctx, rawPath)
		if err != nil {
			return err
		}
		inputPath = converted
	}

	img, err := imaging.Open(inputPath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > imageMaxWidth || bounds.Dy() > imageMaxHeight {
		// Fit scales down to the bounding box, preserving aspect ratio;
		// smaller inputs pass through untouched.
		img = imaging.Fit(img, imageMaxWidth, imageMaxHeight, imaging.Lanczos)
	}

	if err := imaging.Save(img, destPath, imaging.JPEGQuality(imageJPEGQuality)); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}

	return nil
}

// convertLegacy re-encodes a HEIC/HEIF container to an intermediate JPEG.
// -q:v 2 matches the reference quality of roughly 0.9. The original is
// removed on success; on decode failure the upload fails and the client is
// told to convert before uploading.
func (n *imageNormalizer) convertLegacy(ctx context.Context, rawPath string) (string, error) {
	intermediate := strings.TrimSuffix(rawPath, filepath.Ext(rawPath)) + "-converted.jpg"

	args := []string{
		"-i", rawPath,
		"-q:v", "2",
		"-y",
		intermediate,
	}
	cmd := exec.CommandContext(ctx, n.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("ffmpeg_output", string(output)).Msg("legacy image conversion failed")
		os.Remove(intermediate)
		return "", errors.Join(ErrUnsupportedLegacyFormat, err)
	}

	if err := os.Remove(rawPath); err != nil && !os.IsNotExist(err) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", rawPath).Msg("failed to remove legacy original")
	}

	return intermediate, nil
}
