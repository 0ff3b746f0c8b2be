package manifest

import (
	"encoding/json"
	"mime"
	"strings"

	"github.com/wharfd/wharfd/pkg/errdefs"
	"github.com/wharfd/wharfd/pkg/ocispec"
)

const expectedSchemaVersion = 2

// NormalizeContentType strips parameters from an HTTP Content-Type value,
// returning the bare media type.
func NormalizeContentType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	return mt
}

// ParseImage decodes and validates an image manifest pushed with the given
// Content-Type. The content type must be one of the accepted image manifest
// types; fat manifest types are recognized but rejected with
// ErrUnsupportedType by IsIndexType callers before reaching here.
func ParseImage(contentType string, data []byte) (*Image, error) {
	contentType = NormalizeContentType(contentType)
	if !ocispec.IsImageManifest(contentType) {
		return nil, errdefs.Newf(ErrUnsupportedType, "content type %q is not an accepted image manifest type", contentType)
	}

	var m Image
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errdefs.NewE(ErrInvalidSchema, err)
	}
	if err := m.validate(contentType); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseIndex decodes and validates a fat manifest (image index).
func ParseIndex(contentType string, data []byte) (*Index, error) {
	contentType = NormalizeContentType(contentType)
	if !ocispec.IsImageIndex(contentType) {
		return nil, errdefs.Newf(ErrUnsupportedType, "content type %q is not an accepted image index type", contentType)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errdefs.NewE(ErrInvalidSchema, err)
	}
	if idx.SchemaVersion != expectedSchemaVersion {
		return nil, errdefs.Newf(ErrInvalidSchema, "expected schema version %d, got %d", expectedSchemaVersion, idx.SchemaVersion)
	}
	if idx.MediaType != "" && !ocispec.IsImageIndex(idx.MediaType) {
		return nil, errdefs.Newf(ErrInvalidSchema, "unexpected index media type %q", idx.MediaType)
	}
	return &idx, nil
}

// IsIndexType reports whether the Content-Type announces a fat manifest.
func IsIndexType(contentType string) bool {
	return ocispec.IsImageIndex(NormalizeContentType(contentType))
}

func (m *Image) validate(contentType string) error {
	if m.SchemaVersion != expectedSchemaVersion {
		return errdefs.Newf(ErrInvalidSchema, "expected schema version %d, got %d", expectedSchemaVersion, m.SchemaVersion)
	}
	if m.MediaType != "" {
		if m.MediaType != contentType {
			return errdefs.Newf(ErrInvalidSchema, "manifest media type %q does not match content type %q", m.MediaType, contentType)
		}
		if !strings.HasPrefix(m.MediaType, "application/") {
			return errdefs.Newf(ErrInvalidSchema, "expected media type starting with application/, got %q", m.MediaType)
		}
	}
	if !ocispec.IsImageConfig(m.Config.MediaType) {
		return errdefs.Newf(ErrInvalidSchema, "unsupported config media type %q", m.Config.MediaType)
	}
	for _, layer := range m.Layers {
		if !ocispec.IsImageLayer(layer.MediaType) {
			return errdefs.Newf(ErrInvalidSchema, "unsupported layer media type %q", layer.MediaType)
		}
	}
	return nil
}
