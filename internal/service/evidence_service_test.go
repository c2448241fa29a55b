package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-violation-api/internal/dto"
)

type memoryStore struct {
	files   map[string][]byte
	saveErr error
}

func (m *memoryStore) Save(filename string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[filename] = data
	return filename, nil
}

func (m *memoryStore) URL(filename string) string {
	return "storage/" + filename
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func evidenceFile(data []byte) *dto.EvidenceFile {
	return &dto.EvidenceFile{Filename: "frame.jpg", Size: int64(len(data)), Reader: bytes.NewReader(data)}
}

func newTestEvidence(store *memoryStore, cfg EvidenceConfig) *EvidenceService {
	svc := NewEvidenceService(store, cfg, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC) }
	svc.suffix = func() string { return "ab12cd34" }
	return svc
}

func TestEvidenceServiceStoresImage(t *testing.T) {
	store := &memoryStore{}
	svc := newTestEvidence(store, EvidenceConfig{})

	ref, err := svc.Store(context.Background(), evidenceFile(pngBytes(t)), "HS 0099/x")
	require.NoError(t, err)
	assert.Equal(t, "storage/violations/2024-05-02_hs-0099-x_ab12cd34.png", ref)
	assert.Contains(t, store.files, "violations/2024-05-02_hs-0099-x_ab12cd34.png")
}

func TestEvidenceServiceRejections(t *testing.T) {
	valid := pngBytes(t)
	cases := []struct {
		name   string
		data   []byte
		cfg    EvidenceConfig
		store  *memoryStore
		reason string
	}{
		{"corrupt image", append(append([]byte{}, valid[:32]...), 0, 0, 0), EvidenceConfig{}, &memoryStore{}, EvidenceUndecodable},
		{"text upload", []byte("definitely not an image"), EvidenceConfig{}, &memoryStore{}, EvidenceBadMIME},
		{"too large", valid, EvidenceConfig{MaxBytes: 16}, &memoryStore{}, EvidenceTooLarge},
		{"png not allowed", valid, EvidenceConfig{AllowedMIMEs: []string{"image/jpeg"}}, &memoryStore{}, EvidenceBadMIME},
		{"disk failure", valid, EvidenceConfig{}, &memoryStore{saveErr: errors.New("disk full")}, EvidenceWriteFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestEvidence(tc.store, tc.cfg)
			ref, err := svc.Store(context.Background(), evidenceFile(tc.data), "HS0099")
			require.Error(t, err)
			assert.Empty(t, ref)
			var evErr *EvidenceError
			require.True(t, errors.As(err, &evErr))
			assert.Equal(t, tc.reason, evErr.Reason)
			assert.Empty(t, tc.store.files)
		})
	}
}

func TestEvidenceServiceNoFile(t *testing.T) {
	ref, err := newTestEvidence(&memoryStore{}, EvidenceConfig{}).Store(context.Background(), nil, "HS0099")
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hs0099", slugify("HS0099"))
	assert.Equal(t, "card", slugify("  ///  "))
	assert.Equal(t, "a-b", slugify("a  b"))
	assert.Len(t, randomSuffix(), 8)
}
