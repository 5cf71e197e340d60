package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"onboarding-media/dto"
	"onboarding-media/pkg/storage"
	"onboarding-media/repository"
)

const (
	videoMaxHeight  = 1080
	posterWidth     = 640
	posterTimestamp = "1"
	transcodePreset = "veryfast"
	transcodeCRF    = "23"
)

// VideoTranscoder runs the background video pipeline: probe, conditional
// transcode, poster extraction, terminal state write. One job per record,
// no retries.
type VideoTranscoder interface {
	Process(ctx context.Context, job dto.TranscodeJob) error
}

type videoTranscoder struct {
	repo        repository.MediaRepository
	layout      storage.Layout
	ffmpegPath  string
	ffprobePath string
}

func NewVideoTranscoder(repo repository.MediaRepository, layout storage.Layout) VideoTranscoder {
	return &videoTranscoder{
		repo:        repo,
		layout:      layout,
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
	}
}

type probeResult struct {
	Width    int
	Height   int
	Duration float64
}

type ffprobeOutput struct {
	Streams []struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		Duration string `json:"duration"`
	} `json:"streams"`
}

// Process always leaves the record in a terminal state: every failure path
// funnels through the deferred failure write before the error is swallowed.
func (s *videoTranscoder) Process(ctx context.Context, job dto.TranscodeJob) (err error) {
	zerolog.Ctx(ctx).Info().Str("record_id", job.RecordId.String()).Str("raw", job.RawPath).Msg("processing transcode job")

	var artifacts []string
	defer func() {
		if err == nil {
			return
		}
		if updateErr := s.repo.FinalizeFailure(ctx, job.RecordId, err.Error()); updateErr != nil {
			zerolog.Ctx(ctx).Error().Err(updateErr).Str("record_id", job.RecordId.String()).Msg("failed to finalize record")
		}
		for _, p := range artifacts {
			if removeErr := os.Remove(p); removeErr != nil && !os.IsNotExist(removeErr) {
				zerolog.Ctx(ctx).Warn().Err(removeErr).Str("path", p).Msg("failed to remove partial artifact")
			}
		}
		if removeErr := os.Remove(job.RawPath); removeErr != nil && !os.IsNotExist(removeErr) {
			zerolog.Ctx(ctx).Warn().Err(removeErr).Str("path", job.RawPath).Msg("failed to remove raw video")
		}
	}()

	probe, err := s.probe(ctx, job.RawPath)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to probe video")
		return fmt.Errorf("probe: %w", err)
	}

	var finalPath string
	if probe.Height <= videoMaxHeight {
		// Already compliant: copy verbatim, no needless re-encode.
		finalPath = filepath.Join(job.FinalDir, finalName(job.RawPath, filepath.Ext(job.RawPath)))
		artifacts = append(artifacts, finalPath)
		if err = copyFile(job.RawPath, finalPath); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to copy video")
			return fmt.Errorf("copy: %w", err)
		}
	} else {
		finalPath = filepath.Join(job.FinalDir, finalName(job.RawPath, ".mp4"))
		artifacts = append(artifacts, finalPath)
		if err = s.transcode(ctx, job.RawPath, finalPath); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("failed to transcode video")
			return fmt.Errorf("transcode: %w", err)
		}
	}

	posterPath := strings.TrimSuffix(finalPath, filepath.Ext(finalPath)) + "-poster.jpg"
	artifacts = append(artifacts, posterPath)
	if err = s.extractPoster(ctx, finalPath, posterPath); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to extract poster")
		return fmt.Errorf("poster: %w", err)
	}

	mediaUrl, err := s.layout.PublicUrl(finalPath)
	if err != nil {
		return err
	}
	posterUrl, err := s.layout.PublicUrl(posterPath)
	if err != nil {
		return err
	}

	if err = s.repo.FinalizeSuccess(ctx, job.RecordId, mediaUrl, posterUrl); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to finalize record")
		return err
	}

	if removeErr := os.Remove(job.RawPath); removeErr != nil && !os.IsNotExist(removeErr) {
		zerolog.Ctx(ctx).Warn().Err(removeErr).Str("path", job.RawPath).Msg("failed to remove raw video")
	}

	zerolog.Ctx(ctx).Info().Str("record_id", job.RecordId.String()).Str("media_url", mediaUrl).Msg("transcode job completed")

	return nil
}

func (s *videoTranscoder) probe(ctx context.Context, path string) (probeResult, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,duration",
		"-of", "json",
		path,
	}
	cmd := exec.CommandContext(ctx, s.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		// Output only captures stdout; the diagnostic lands on stderr, and
		// the bare exit status is useless in processing_error without it.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			zerolog.Ctx(ctx).Error().Str("ffprobe_output", string(exitErr.Stderr)).Msg("ffprobe failed")
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return probeResult{}, errors.Join(ErrTranscodeFailure, fmt.Errorf("ffprobe failed: %w", err))
	}

	result, err := parseProbeOutput(output)
	if err != nil {
		return probeResult{}, errors.Join(ErrTranscodeFailure, err)
	}

	return result, nil
}

func parseProbeOutput(raw []byte) (probeResult, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return probeResult{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return probeResult{}, fmt.Errorf("no video stream found")
	}

	stream := out.Streams[0]
	result := probeResult{
		Width:  stream.Width,
		Height: stream.Height,
	}
	if stream.Duration != "" {
		if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
			result.Duration = d
		}
	}
	if result.Height == 0 {
		return probeResult{}, fmt.Errorf("video stream has no height")
	}

	return result, nil
}

func (s *videoTranscoder) transcode(ctx context.Context, inputPath, outputPath string) error {
	// Height bounded at 1080, width scaled to keep aspect; -2 keeps it even
	// for the encoder. faststart relocates the moov atom for web playback.
	args := []string{
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=-2:%d", videoMaxHeight),
		"-c:v", "libx264",
		"-preset", transcodePreset,
		"-crf", transcodeCRF,
		"-profile:v", "high",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-c:a", "aac",
		"-b:a", "128k",
		"-y",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("ffmpeg_output", string(output)).Msg("ffmpeg transcode failed")
		return errors.Join(ErrTranscodeFailure, err)
	}

	return nil
}

func (s *videoTranscoder) extractPoster(ctx context.Context, videoPath, posterPath string) error {
	args := []string{
		"-ss", posterTimestamp,
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", posterWidth),
		"-y",
		posterPath,
	}

	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("ffmpeg_output", string(output)).Msg("ffmpeg poster extraction failed")
		return errors.Join(ErrTranscodeFailure, err)
	}

	return nil
}

func finalName(rawPath, ext string) string {
	stem := strings.TrimSuffix(filepath.Base(rawPath), filepath.Ext(rawPath))
	return stem + ext
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
