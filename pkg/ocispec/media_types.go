// Package ocispec defines the OCI and Docker media types the registry
// accepts and helpers to classify them.
package ocispec

import (
	"github.com/samber/lo"
)

const (
	// DefaultMediaType is the media type used when no media type is specified.
	DefaultMediaType = "application/octet-stream"

	// MediaTypeBlob is the media type blobs are served with.
	MediaTypeBlob = "application/gzip"
)

// OCI image media types.
//
// See https://github.com/opencontainers/image-spec/blob/v1.1.0/media-types.md
const (
	// MediaTypeImageIndex specifies the media type for an image index.
	MediaTypeImageIndex = "application/vnd.oci.image.index.v1+json"

	// MediaTypeImageManifest specifies the media type for an image manifest.
	MediaTypeImageManifest = "application/vnd.oci.image.manifest.v1+json"

	// MediaTypeImageConfig specifies the media type for the image configuration.
	MediaTypeImageConfig = "application/vnd.oci.image.config.v1+json"

	// MediaTypeImageLayer is the media type used for uncompressed layers.
	MediaTypeImageLayer = "application/vnd.oci.image.layer.v1.tar"

	// MediaTypeImageLayerGzip is the media type used for gzipped layers.
	MediaTypeImageLayerGzip = "application/vnd.oci.image.layer.v1.tar+gzip"

	// MediaTypeImageLayerNonDistributable is the media type for layers with
	// distribution restrictions.
	MediaTypeImageLayerNonDistributable = "application/vnd.oci.image.layer.nondistributable.v1.tar"

	// MediaTypeImageLayerNonDistributableGzip is the media type for gzipped
	// layers with distribution restrictions.
	MediaTypeImageLayerNonDistributableGzip = "application/vnd.oci.image.layer.nondistributable.v1.tar+gzip"
)

// Docker v2 schema 2 media types.
//
// See https://docker-docs.uclv.cu/registry/spec/manifest-v2-2/
const (
	// MediaTypeDockerManifestList specifies the media type for manifest lists
	// (fat manifests).
	MediaTypeDockerManifestList = "application/vnd.docker.distribution.manifest.list.v2+json"

	// MediaTypeDockerManifest specifies the media type for Docker image
	// manifests.
	MediaTypeDockerManifest = "application/vnd.docker.distribution.manifest.v2+json"

	// MediaTypeDockerImageConfig specifies the media type for the Docker image
	// configuration.
	MediaTypeDockerImageConfig = "application/vnd.docker.container.image.v1+json"

	// MediaTypeDockerImageLayerGzip is the media type used for Docker gzipped
	// layers.
	MediaTypeDockerImageLayerGzip = "application/vnd.docker.image.rootfs.diff.tar.gzip"
)

var (
	imageIndexTypes = []string{
		MediaTypeImageIndex,
		MediaTypeDockerManifestList,
	}

	imageManifestTypes = []string{
		MediaTypeImageManifest,
		MediaTypeDockerManifest,
	}

	imageConfigTypes = []string{
		MediaTypeImageConfig,
		MediaTypeDockerImageConfig,
	}

	imageLayerTypes = []string{
		MediaTypeDockerImageLayerGzip,
		MediaTypeImageLayer,
		MediaTypeImageLayerGzip,
		MediaTypeImageLayerNonDistributable,
		MediaTypeImageLayerNonDistributableGzip,
	}
)

// IsImageIndex reports whether the media type is an accepted image index
// (fat manifest) type.
func IsImageIndex(mediaType string) bool {
	return lo.Contains(imageIndexTypes, mediaType)
}

// IsImageManifest reports whether the media type is an accepted image
// manifest type.
func IsImageManifest(mediaType string) bool {
	return lo.Contains(imageManifestTypes, mediaType)
}

// IsImageConfig reports whether the media type is an accepted image config
// type.
func IsImageConfig(mediaType string) bool {
	return lo.Contains(imageConfigTypes, mediaType)
}

// IsImageLayer reports whether the media type is an accepted layer type.
func IsImageLayer(mediaType string) bool {
	return lo.Contains(imageLayerTypes, mediaType)
}
