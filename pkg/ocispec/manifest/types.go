// Package manifest parses and validates the image manifests the registry
// accepts on push.
package manifest

import (
	imgspecv1 "github.com/opencontainers/image-spec/specs-go/v1"
)

// Image is a Docker schema 2 or OCI image manifest: the config blob plus the
// ordered layer blobs.
type Image struct {
	SchemaVersion int    `json:"schemaVersion"`
	MediaType     string `json:"mediaType,omitempty"`

	Config  imgspecv1.Descriptor   `json:"config"`
	Layers  []imgspecv1.Descriptor `json:"layers"`
	Subject *imgspecv1.Descriptor  `json:"subject,omitempty"`
}

// Index is a fat manifest: an image index referencing per-platform image
// manifests. Parsing is supported; the registry does not persist these.
type Index struct {
	SchemaVersion int    `json:"schemaVersion"`
	MediaType     string `json:"mediaType,omitempty"`

	Manifests []imgspecv1.Descriptor `json:"manifests"`
}
