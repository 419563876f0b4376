package resume

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/huntier-api/internal/domain"
	"github.com/huntier-api/internal/pkg/clock"
	"github.com/huntier-api/internal/pkg/id"
)

// MaxSize is the largest resume accepted, in bytes.
const MaxSize = 10 << 20

// sniffLen is how much of the upload is inspected to detect its real type.
const sniffLen = 3072

// allowed maps accepted extensions to the content types their bytes may sniff as.
var allowed = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
}

var canonicalType = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type UploadInput struct {
	Reader   io.Reader
	Filename string
	Size     int64
	UserID   string
}

// Download is a short-lived link to a resume file.
type Download struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service interface {
	Upload(ctx context.Context, in UploadInput) (*domain.Resume, error)
	List(ctx context.Context, userID string) ([]domain.Resume, error)
	Get(ctx context.Context, userID, resumeID string) (*domain.Resume, error)
	DownloadURL(ctx context.Context, userID, resumeID string) (*Download, error)
	Delete(ctx context.Context, userID, resumeID string) error
}

type resumeStore interface {
	Create(ctx context.Context, r *domain.Resume) error
	Get(ctx context.Context, resumeID string) (*domain.Resume, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Resume, error)
	SoftDelete(ctx context.Context, resumeID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type ServiceDeps struct {
	ResumeRepo resumeStore
	Objects    objectStore
	PresignTTL time.Duration
	Clock      clock.Clock
}

type service struct {
	repo       resumeStore
	objects    objectStore
	presignTTL time.Duration
	clock      clock.Clock
}

func NewService(deps ServiceDeps) Service {
	c := deps.Clock
	if c == nil {
		c = clock.System()
	}
	ttl := deps.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &service{repo: deps.ResumeRepo, objects: deps.Objects, presignTTL: ttl, clock: c}
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*domain.Resume, error) {
	if in.Size <= 0 {
		return nil, fmt.Errorf("empty file: %w", domain.ErrBadRequest)
	}
	if in.Size > MaxSize {
		return nil, fmt.Errorf("file exceeds %d MiB: %w", MaxSize>>20, domain.ErrBadRequest)
	}
	safeName := sanitizeFilename(in.Filename)
	ext := strings.ToLower(path.Ext(safeName))
	accepted, ok := allowed[ext]
	if !ok {
		return nil, fmt.Errorf("only PDF, DOC and DOCX resumes are accepted: %w", domain.ErrBadRequest)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	detected := mimetype.Detect(head)
	if !matches(detected, accepted) {
		return nil, fmt.Errorf("file content is %s, not %s: %w", detected.String(), ext, domain.ErrBadRequest)
	}

	resumeID := id.NewUUID()
	key := fmt.Sprintf("resumes/%s/%s-%s", in.UserID, resumeID, safeName)
	hasher := sha256.New()
	body := io.TeeReader(io.MultiReader(bytes.NewReader(head), in.Reader), hasher)
	if err := s.objects.Upload(ctx, key, body, in.Size, canonicalType[ext]); err != nil {
		return nil, err
	}

	r := &domain.Resume{
		ResumeID:    resumeID,
		UserID:      in.UserID,
		Object:      key,
		Name:        safeName,
		ContentType: canonicalType[ext],
		Size:        in.Size,
		Hash:        hex.EncodeToString(hasher.Sum(nil)),
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			slog.Warn("failed to remove orphaned resume object", "key", key, "err", delErr)
		}
		return nil, err
	}
	slog.Info("resume uploaded", "user_id", in.UserID, "resume_id", resumeID, "size", in.Size)
	return r, nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.Resume, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns a resume owned by userID. Other users' resumes are reported as missing.
func (s *service) Get(ctx context.Context, userID, resumeID string) (*domain.Resume, error) {
	if !id.IsUUID(resumeID) {
		return nil, fmt.Errorf("resume not found: %w", domain.ErrNotFound)
	}
	r, err := s.repo.Get(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, fmt.Errorf("resume not found: %w", domain.ErrNotFound)
	}
	return r, nil
}

func (s *service) DownloadURL(ctx context.Context, userID, resumeID string) (*Download, error) {
	r, err := s.Get(ctx, userID, resumeID)
	if err != nil {
		return nil, err
	}
	url, err := s.objects.PresignedURL(ctx, r.Object, r.Name, s.presignTTL)
	if err != nil {
		return nil, err
	}
	return &Download{URL: url, ExpiresAt: s.clock.Now().UTC().Add(s.presignTTL)}, nil
}

// Delete hides the resume first so it disappears even if S3 is unavailable.
func (s *service) Delete(ctx context.Context, userID, resumeID string) error {
	r, err := s.Get(ctx, userID, resumeID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, r.ResumeID); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, r.Object); err != nil {
		slog.Warn("failed to delete resume object", "key", r.Object, "err", err)
	}
	return nil
}

func matches(mt *mimetype.MIME, accepted []string) bool {
	for m := mt; m != nil; m = m.Parent() {
		for _, a := range accepted {
			if m.Is(a) {
				return true
			}
		}
	}
	return false
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	result := b.String()
	if len(result) > 120 {
		ext := path.Ext(result)
		if len(ext) > 10 {
			ext = ""
		}
		result = result[:120-len(ext)] + ext
	}
	if result != "" && result != "." && result != "/" {
		return result
	}
	return "_"
}
