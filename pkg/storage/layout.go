package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"onboarding-media/constant"
)

// Layout owns the on-disk artifact tree and its public URL mapping. The
// static file server publishes Root under PublicBaseUrl, so the prefix
// substitution between the two must stay bit-exact.
type Layout struct {
	Root          string
	PublicBaseUrl string
}

func NewLayout(root, publicBaseUrl string) Layout {
	return Layout{
		Root:          filepath.Clean(root),
		PublicBaseUrl: strings.TrimSuffix(publicBaseUrl, "/"),
	}
}

// RoleDir is where finalized artifacts for one (model, role) pair live.
func (l Layout) RoleDir(modelId uuid.UUID, role constant.MediaRole) string {
	return filepath.Join(l.Root, "models", modelId.String(), "onboarding", role.String())
}

// RawDir isolates staged uploads from finalized artifacts so a failed job
// never clobbers a previously succeeded one.
func (l Layout) RawDir(modelId uuid.UUID, role constant.MediaRole) string {
	return filepath.Join(l.RoleDir(modelId, role), "raw")
}

// NewRawPath creates the raw staging directory if absent and returns a fresh
// file path inside it. Names combine the upload timestamp with a random
// suffix so same-millisecond uploads never collide.
func (l Layout) NewRawPath(modelId uuid.UUID, role constant.MediaRole, ext string) (string, error) {
	dir := l.RawDir(modelId, role)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), randomSuffix(), normalizeExt(ext))
	return filepath.Join(dir, name), nil
}

// NewArtifactPath returns a fresh path in the finalized area for the pair.
func (l Layout) NewArtifactPath(modelId uuid.UUID, role constant.MediaRole, ext string) (string, error) {
	dir := l.RoleDir(modelId, role)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), randomSuffix(), normalizeExt(ext))
	return filepath.Join(dir, name), nil
}

// PublicUrl maps an on-disk path under Root to its published location.
func (l Layout) PublicUrl(path string) (string, error) {
	rel, err := filepath.Rel(l.Root, filepath.Clean(path))
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside storage root %q", path, l.Root)
	}

	return l.PublicBaseUrl + "/" + filepath.ToSlash(rel), nil
}

// PathFromUrl inverts PublicUrl.
func (l Layout) PathFromUrl(url string) (string, error) {
	if !strings.HasPrefix(url, l.PublicBaseUrl+"/") {
		return "", fmt.Errorf("url %q is not under %q", url, l.PublicBaseUrl)
	}
	rel := strings.TrimPrefix(url, l.PublicBaseUrl+"/")
	return filepath.Join(l.Root, filepath.FromSlash(rel)), nil
}

// RemoveUrl deletes the backing file of a published URL. Missing files are
// not an error; the record is the authoritative signal.
func (l Layout) RemoveUrl(url string) error {
	if url == "" {
		return nil
	}
	path, err := l.PathFromUrl(url)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return hex.EncodeToString(buf)
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}
