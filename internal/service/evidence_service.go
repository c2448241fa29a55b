package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gate-violation-api/internal/dto"
)

// Evidence failure reasons, used as metric labels.
const (
	EvidenceTooLarge    = "too_large"
	EvidenceBadMIME     = "unsupported_mime"
	EvidenceUndecodable = "undecodable"
	EvidenceReadFailed  = "read_failed"
	EvidenceWriteFailed = "write_failed"
)

// EvidenceError explains why an evidence image was dropped.
type EvidenceError struct {
	Reason string
	Err    error
}

func (e *EvidenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evidence %s: %v", e.Reason, e.Err)
	}
	return "evidence " + e.Reason
}

func (e *EvidenceError) Unwrap() error { return e.Err }

type evidenceStore interface {
	Save(filename string, data []byte) (string, error)
	URL(filename string) string
}

// EvidenceConfig bounds accepted uploads.
type EvidenceConfig struct {
	MaxBytes     int64
	AllowedMIMEs []string
	Namespace    string
}

// EvidenceService validates and persists evidence images on the public disk.
type EvidenceService struct {
	store  evidenceStore
	cfg    EvidenceConfig
	logger *zap.Logger
	now    func() time.Time
	suffix func() string
}

// NewEvidenceService constructs an EvidenceService with defaults for empty config values.
func NewEvidenceService(store evidenceStore, cfg EvidenceConfig, logger *zap.Logger) *EvidenceService {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png"}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "violations"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvidenceService{store: store, cfg: cfg, logger: logger, now: time.Now, suffix: randomSuffix}
}

// Store checks size, sniffed MIME type and decodability, then writes the image.
// It returns the public reference, e.g. "storage/violations/2024-05-02_hs0099_ab12cd34.jpg".
func (s *EvidenceService) Store(ctx context.Context, file *dto.EvidenceFile, cardCode string) (string, error) {
	if file == nil || file.Reader == nil {
		return "", nil
	}
	if file.Size > s.cfg.MaxBytes {
		return "", &EvidenceError{Reason: EvidenceTooLarge, Err: fmt.Errorf("%d bytes exceeds %d", file.Size, s.cfg.MaxBytes)}
	}
	data, err := io.ReadAll(io.LimitReader(file.Reader, s.cfg.MaxBytes+1))
	if err != nil {
		return "", &EvidenceError{Reason: EvidenceReadFailed, Err: err}
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return "", &EvidenceError{Reason: EvidenceTooLarge, Err: fmt.Errorf("upload exceeds %d bytes", s.cfg.MaxBytes)}
	}
	if err := ctx.Err(); err != nil {
		return "", &EvidenceError{Reason: EvidenceReadFailed, Err: err}
	}

	mime := mimetype.Detect(data)
	if !mimeAllowed(mime, s.cfg.AllowedMIMEs) {
		return "", &EvidenceError{Reason: EvidenceBadMIME, Err: fmt.Errorf("detected %s", mime.String())}
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return "", &EvidenceError{Reason: EvidenceUndecodable, Err: err}
	}

	filename := fmt.Sprintf("%s_%s_%s%s", s.now().Format("2006-01-02"), slugify(cardCode), s.suffix(), extensionFor(mime))
	rel := path.Join(s.cfg.Namespace, filename)
	if _, err := s.store.Save(rel, data); err != nil {
		return "", &EvidenceError{Reason: EvidenceWriteFailed, Err: err}
	}
	s.logger.Debug("evidence stored", zap.String("path", rel), zap.Int("bytes", len(data)), zap.String("mime", mime.String()))
	return s.store.URL(rel), nil
}

func mimeAllowed(mime *mimetype.MIME, allowed []string) bool {
	for _, candidate := range allowed {
		if mime.Is(candidate) {
			return true
		}
	}
	return false
}

func extensionFor(mime *mimetype.MIME) string {
	if ext := mime.Extension(); ext != "" {
		return ext
	}
	return ".bin"
}

func slugify(value string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "card"
	}
	return slug
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
