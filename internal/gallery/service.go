// Package gallery owns the image upload saga and signed retrieval links.
package gallery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/bimg"

	"github.com/tqpictures/studio/internal/cache"
	"github.com/tqpictures/studio/internal/metrics"
	"github.com/tqpictures/studio/models"
)

const (
	linkExpiry = time.Hour
	// Cached links expire before the storage-side bound so a cache hit
	// is never staler than the URL it holds.
	cacheSlack = 5 * time.Minute

	thumbWidth = 480
)

type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type ImageStore interface {
	CreateWithAssignments(ctx context.Context, img *models.Image, profileIDs []string) error
	ListAssigned(ctx context.Context, profileID string) ([]models.Image, error)
}

type Service struct {
	images  ImageStore
	objects ObjectStore
	cache   cache.LinkCache
	metrics *metrics.Metrics
	log     *slog.Logger

	// Thumbnailer renders the small gallery rendition. Replaceable in
	// tests to keep libvips out of the test binary's hot path.
	Thumbnailer func(data []byte) ([]byte, error)
}

func New(images ImageStore, objects ObjectStore, c cache.LinkCache, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		images:      images,
		objects:     objects,
		cache:       c,
		metrics:     m,
		log:         log,
		Thumbnailer: renderThumbnail,
	}
}

func renderThumbnail(data []byte) ([]byte, error) {
	return bimg.NewImage(data).Process(bimg.Options{Width: thumbWidth, Type: bimg.JPEG})
}

// UploadFile is one selected local file, fully read into memory.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadBatch processes files strictly in order. Each file runs its own
// saga: upload original, upload thumbnail, then commit metadata and
// assignments in one transaction; any later step failing deletes the
// objects already uploaded for that file. The first failing file aborts
// the batch, leaving earlier files committed.
func (s *Service) UploadBatch(ctx context.Context, uploaderID string, files []UploadFile, profileIDs []string) ([]*models.Image, error) {
	var committed []*models.Image
	for _, f := range files {
		img, err := s.uploadOne(ctx, uploaderID, f, profileIDs)
		if err != nil {
			s.metrics.UploadFailures.Inc()
			return committed, fmt.Errorf("gallery: upload %s: %w", f.Name, err)
		}
		s.metrics.ImagesUploaded.Inc()
		committed = append(committed, img)
	}
	return committed, nil
}

func (s *Service) uploadOne(ctx context.Context, uploaderID string, f UploadFile, profileIDs []string) (*models.Image, error) {
	ext := strings.ToLower(filepath.Ext(f.Name))
	key := uuid.NewString() + ext

	if err := s.objects.Upload(ctx, key, f.ContentType, bytes.NewReader(f.Data)); err != nil {
		return nil, err
	}

	thumbData, err := s.Thumbnailer(f.Data)
	if err != nil {
		s.compensate(ctx, key)
		return nil, fmt.Errorf("thumbnail: %w", err)
	}
	thumbKey := "thumbs/" + strings.TrimSuffix(key, ext) + ".jpg"
	if err := s.objects.Upload(ctx, thumbKey, "image/jpeg", bytes.NewReader(thumbData)); err != nil {
		s.compensate(ctx, key)
		return nil, err
	}

	img := &models.Image{
		FilePath:    key,
		ThumbPath:   thumbKey,
		FileName:    f.Name,
		ContentType: f.ContentType,
		Size:        int64(len(f.Data)),
		UploadedBy:  uploaderID,
	}
	if err := s.images.CreateWithAssignments(ctx, img, profileIDs); err != nil {
		s.compensate(ctx, key, thumbKey)
		return nil, err
	}
	return img, nil
}

// compensate removes objects left behind by a failed saga. Failures here
// are logged only; there is nothing further to unwind.
func (s *Service) compensate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.objects.Delete(ctx, key); err != nil {
			s.log.Error("gallery: compensation delete", "key", key, "error", err)
		}
	}
}

// Links holds the signed retrieval URLs for one image.
type Links struct {
	URL      string
	ThumbURL string
}

// Assigned lists the profile's visible images.
func (s *Service) Assigned(ctx context.Context, profileID string) ([]models.Image, error) {
	return s.images.ListAssigned(ctx, profileID)
}

// SignedLinks issues one-hour links for the image and its thumbnail,
// serving from the cache when possible. Expired links are never renewed
// in place; a reload simply signs fresh ones.
func (s *Service) SignedLinks(ctx context.Context, img models.Image) (Links, error) {
	url, err := s.linkFor(ctx, img.ID, img.FilePath)
	if err != nil {
		return Links{}, err
	}
	l := Links{URL: url}
	if img.ThumbPath != "" {
		if thumb, err := s.linkFor(ctx, "thumb:"+img.ID, img.ThumbPath); err == nil {
			l.ThumbURL = thumb
		}
	}
	return l, nil
}

func (s *Service) linkFor(ctx context.Context, cacheKey, path string) (string, error) {
	if url, ok := s.cache.Get(ctx, cacheKey); ok {
		s.metrics.SignedLinks.WithLabelValues("hit").Inc()
		return url, nil
	}
	url, err := s.objects.SignedURL(ctx, path, linkExpiry)
	if err != nil {
		return "", err
	}
	s.cache.Set(ctx, cacheKey, url, linkExpiry-cacheSlack)
	s.metrics.SignedLinks.WithLabelValues("miss").Inc()
	return url, nil
}
