package index

import (
	"time"

	"github.com/google/uuid"
)

// Owner is a user that pushed at least one image. Created lazily on first
// push, never deleted by the registry.
type Owner struct {
	ID        uuid.UUID
	Username  string
	CreatedAt time.Time
}

// Repository is a named collection of manifests and blobs, identified by its
// namespace (e.g. "library/hello").
type Repository struct {
	ID        uuid.UUID
	Owner     uuid.UUID
	Namespace string
	CreatedAt time.Time
}

// RepositoryWithOwner joins a repository with its owner's username for the
// browse surface.
type RepositoryWithOwner struct {
	Namespace string
	Username  string
	CreatedAt time.Time
}

// UploadSession is one node in an upload chain. The root node is created by
// POST create-session; every chunk append turns the terminal open node into a
// chunked one and inserts a fresh open successor.
type UploadSession struct {
	ID                uuid.UUID
	Repository        string
	PreviousSession   *uuid.UUID
	Digest            *string
	StartingByteIndex int64
	IsFinished        bool
	CreatedAt         time.Time
}

// Blob is one repository's reference to a content-addressed file. Multiple
// rows may share a digest across repositories; the file survives as long as
// any row references it.
type Blob struct {
	ID         uuid.UUID
	Repository string
	Digest     string
	CreatedAt  time.Time
}

// Manifest is a stored image manifest. Tag is nil for manifests pushed by
// digest or after an untag.
type Manifest struct {
	ID             uuid.UUID
	Repository     string
	Tag            *string
	BlobID         uuid.UUID
	Digest         string
	ContentTypeTop string
	ContentTypeSub string
	CreatedAt      time.Time
}

// ContentType reassembles the manifest's stored media type.
func (m Manifest) ContentType() string {
	return m.ContentTypeTop + "/" + m.ContentTypeSub
}

// ManifestLayer links a manifest to one of its layer blobs.
type ManifestLayer struct {
	ManifestID uuid.UUID
	BlobID     uuid.UUID
	MediaType  string
	Size       int64
	CreatedAt  time.Time
}
