// Package images keeps uploaded product images in a single directory.
package images

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"storefront/errs"
	"storefront/models"

	"github.com/djherbis/times"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// URLPrefix is where the static mount serves the directory.
	URLPrefix = "/uploads/"

	DefaultMaxSize = 5 << 20
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Upload is one file taken from a multipart form.
type Upload struct {
	Field    string
	Filename string
	Size     int64
	Content  io.Reader
}

type Store struct {
	dir     string
	maxSize int64
	log     *logrus.Logger
	now     func() time.Time
}

// NewStore creates dir if it does not exist.
func NewStore(dir string, maxSize int64, logger *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Store{dir: dir, maxSize: maxSize, log: logger, now: time.Now}, nil
}

func (s *Store) Dir() string { return s.dir }

func allowed(filename string) bool {
	_, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// ContentType maps a filename to the type served for it. Unknown
// extensions get application/octet-stream.
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Save writes the upload under a fresh name and returns its /uploads/ path.
func (s *Store) Save(upload *Upload) (string, error) {
	if upload == nil || upload.Content == nil {
		return "", errs.Validation("Image file is required")
	}
	if !allowed(upload.Filename) {
		return "", errs.Validation("Only image files are allowed!")
	}
	if upload.Size > s.maxSize {
		return "", errs.Validation("File too large: images must be at most %d bytes", s.maxSize)
	}

	field := upload.Field
	if field == "" {
		field = "image"
	}
	ext := filepath.Ext(upload.Filename)

	file, name, err := s.create(field, ext)
	if err != nil {
		return "", err
	}

	written, err := io.Copy(file, io.LimitReader(upload.Content, s.maxSize+1))
	closeErr := file.Close()
	if err == nil && written > s.maxSize {
		err = errs.Validation("File too large: images must be at most %d bytes", s.maxSize)
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		if errs.Classified(err) {
			return "", err
		}
		s.log.Errorf("Failed to write upload %s: %v", name, err)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	s.log.WithFields(logrus.Fields{"file": name, "size": written}).Info("Stored uploaded image")
	return URLPrefix + name, nil
}

// create opens a new file exclusively, retrying on the rare name clash.
func (s *Store) create(field, ext string) (*os.File, string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		name := fmt.Sprintf("%s-%d-%s%s", field, s.now().UnixMilli(), uuid.NewString(), ext)
		file, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("failed to create file: %w", err)
		}
	}
	return nil, "", fmt.Errorf("failed to create file: name collisions exhausted")
}

// List returns the stored images sorted by filename. baseURL prefixes the
// fullUrl field, e.g. "http://localhost:3000".
func (s *Store) List(baseURL string) ([]models.Image, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read uploads directory: %w", err)
	}
	images := []models.Image{}
	for _, entry := range entries {
		if entry.IsDir() || !allowed(entry.Name()) {
			continue
		}
		images = append(images, describe(entry.Name(), baseURL))
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Filename < images[j].Filename })
	return images, nil
}

func describe(filename, baseURL string) models.Image {
	return models.Image{
		Filename: filename,
		URL:      URLPrefix + filename,
		FullURL:  strings.TrimSuffix(baseURL, "/") + URLPrefix + filename,
	}
}

// path resolves filename inside the directory. Anything that is not a plain
// file name is reported as not found.
func (s *Store) path(filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." ||
		strings.ContainsAny(filename, `/\`) || filepath.Base(filename) != filename {
		return "", errs.NotFound("Image not found")
	}
	full := filepath.Join(s.dir, filename)
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", errs.NotFound("Image not found")
	}
	return full, nil
}

func (s *Store) Details(filename, baseURL string) (*models.ImageDetails, error) {
	full, err := s.path(filename)
	if err != nil {
		return nil, err
	}
	ts, err := times.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}

	created := ts.ModTime()
	switch {
	case ts.HasBirthTime():
		created = ts.BirthTime()
	case ts.HasChangeTime():
		created = ts.ChangeTime()
	}
	return &models.ImageDetails{
		Image:    describe(filename, baseURL),
		Size:     info.Size(),
		Created:  created,
		Modified: info.ModTime(),
	}, nil
}

// Open returns the file contents for streaming along with its content type
// and size. Any extension is served here, not just the upload allow-list.
func (s *Store) Open(filename string) (io.ReadCloser, string, int64, error) {
	full, err := s.path(filename)
	if err != nil {
		return nil, "", 0, err
	}
	file, err := os.Open(full)
	if err != nil {
		return nil, "", 0, fmt.Errorf("open image: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, "", 0, fmt.Errorf("open image: %w", err)
	}
	return file, ContentType(filename), info.Size(), nil
}
