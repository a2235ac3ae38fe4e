package infrastructure

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"application-intake/domain"
)

var videoFilenamePattern = regexp.MustCompile(`^video_[0-9]+_[0-9a-f]{32}\.[a-z0-9]+$`)

// ErrVideoNotFound is returned by Path for names that were never generated
// by this storage or no longer exist.
var ErrVideoNotFound = errors.New("video not found")

// VideoStorage keeps uploaded videos in one directory under generated names.
type VideoStorage struct {
	dir     string
	allowed map[string]struct{}
	maxSize int64
	now     func() time.Time
}

func NewVideoStorage(cfg UploadConfig) *VideoStorage {
	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &VideoStorage{
		dir:     cfg.Dir,
		allowed: allowed,
		maxSize: cfg.MaxFileSize,
		now:     time.Now,
	}
}

func (s *VideoStorage) Dir() string {
	return s.dir
}

// EnsureDir creates the storage directory and its parents if needed.
func (s *VideoStorage) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", s.dir, err)
	}
	return nil
}

// Extension returns the lowercased extension of filename when it is an
// allowed video type.
func (s *VideoStorage) Extension(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := s.allowed[ext]; !ok || ext == "" {
		return "", domain.ErrInvalidVideoFormat
	}
	return ext, nil
}

// GenerateVideoFilename returns video_<unix seconds>_<128 random bits as hex>.<ext>.
func GenerateVideoFilename(now time.Time, ext string) string {
	id := uuid.New()
	return fmt.Sprintf("video_%d_%s.%s", now.Unix(), hex.EncodeToString(id[:]), ext)
}

// Save writes src to a new generated file and returns its name and size.
// A file larger than the configured limit is removed again and
// domain.ErrFileTooLarge is returned.
func (s *VideoStorage) Save(src io.Reader, ext string) (string, int64, error) {
	name := GenerateVideoFilename(s.now(), ext)
	path := filepath.Join(s.dir, name)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("close %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > s.maxSize {
		if err := os.Remove(path); err != nil {
			return "", 0, fmt.Errorf("remove oversized %s: %w", path, err)
		}
		return "", info.Size(), domain.ErrFileTooLarge
	}

	return name, info.Size(), nil
}

// Path resolves a stored video name to its location on disk. Only names
// in the generated format are accepted.
func (s *VideoStorage) Path(name string) (string, error) {
	if !videoFilenamePattern.MatchString(name) {
		return "", ErrVideoNotFound
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrVideoNotFound
	}
	return path, nil
}
