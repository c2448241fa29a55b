package storage

import (
	"os"
	"path/filepath"
	"strings"
)

// ImageResolver maps stored evidence references to files on disk. A reference may be
// "storage/violations/x.jpg", "/storage/violations/x.jpg" or "violations/x.jpg".
type ImageResolver struct {
	publicDir   string
	storageRoot string
	urlPrefix   string
}

// NewImageResolver checks publicDir first and then storageRoot.
func NewImageResolver(publicDir, storageRoot, urlPrefix string) *ImageResolver {
	return &ImageResolver{
		publicDir:   publicDir,
		storageRoot: storageRoot,
		urlPrefix:   strings.Trim(urlPrefix, "/"),
	}
}

// Resolve returns the absolute path of an existing file, or "" when none matches.
func (r *ImageResolver) Resolve(ref string) string {
	rel := strings.TrimLeft(filepath.ToSlash(strings.TrimSpace(ref)), "/")
	if rel == "" || hasParentSegment(rel) {
		return ""
	}

	candidates := make([]string, 0, 2)
	if r.publicDir != "" {
		candidates = append(candidates, filepath.Join(r.publicDir, filepath.FromSlash(rel)))
	}
	if r.storageRoot != "" {
		stripped := rel
		if r.urlPrefix != "" {
			stripped = strings.TrimPrefix(rel, r.urlPrefix+"/")
		}
		candidates = append(candidates, filepath.Join(r.storageRoot, filepath.FromSlash(stripped)))
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			if abs, err := filepath.Abs(candidate); err == nil {
				return abs
			}
			return candidate
		}
	}
	return ""
}

// Read loads the resolved file. ok is false when the reference cannot be resolved or read.
func (r *ImageResolver) Read(ref string) ([]byte, bool) {
	path := r.Resolve(ref)
	if path == "" {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

func hasParentSegment(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
