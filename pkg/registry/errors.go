package registry

import (
	"github.com/wharfd/wharfd/pkg/errdefs"
)

// Operation-level error kinds. Each wraps an errdefs base so callers can
// branch on either the kind or the class with errors.Is. The HTTP shell maps
// these to status codes and OCI error bodies.
var (
	// ErrSessionNotFound signals an unknown, foreign or already finished
	// upload session.
	ErrSessionNotFound = errdefs.Newf(errdefs.ErrNotFound, "session not found")

	// ErrInvalidSessionID signals a session reference that is not a UUID.
	ErrInvalidSessionID = errdefs.Newf(errdefs.ErrInvalidParameter, "invalid session id")

	// ErrInvalidStartIndex signals a chunk whose declared start does not
	// match the session's starting byte index.
	ErrInvalidStartIndex = errdefs.Newf(errdefs.ErrInvalidParameter, "invalid start index")

	// ErrBlobPartAlreadyUploaded signals a chunk append on a session node
	// that already holds a chunk.
	ErrBlobPartAlreadyUploaded = errdefs.Newf(errdefs.ErrConflict, "blob part already uploaded")

	// ErrInvalidContentLength signals a declared length that disagrees with
	// the body size.
	ErrInvalidContentLength = errdefs.Newf(errdefs.ErrInvalidParameter, "invalid content length")

	// ErrInvalidContentRange signals an unparseable Content-Range value.
	ErrInvalidContentRange = errdefs.Newf(errdefs.ErrInvalidParameter, "invalid content range")

	// ErrUnsupportedDigest signals a digest whose algorithm is not sha256.
	ErrUnsupportedDigest = errdefs.Newf(errdefs.ErrUnsupported, "unsupported digest algorithm")

	// ErrInvalidDigest signals a malformed digest, a digest mismatch, or a
	// manifest referencing a blob digest that does not exist.
	ErrInvalidDigest = errdefs.Newf(errdefs.ErrInvalidParameter, "invalid digest")

	// ErrBlobNotFound signals that no blob row matches the digest.
	ErrBlobNotFound = errdefs.Newf(errdefs.ErrNotFound, "blob not found")

	// ErrBlobFileNotFound signals a blob row whose file is missing from the
	// content store.
	ErrBlobFileNotFound = errdefs.Newf(errdefs.ErrNotFound, "blob file not found")

	// ErrBlobManifestStillExists guards blob deletion while a manifest in
	// the repository still references the blob.
	ErrBlobManifestStillExists = errdefs.Newf(errdefs.ErrConflict, "blob is still referenced by a manifest")

	// ErrManifestNotFound signals that no manifest matches the reference.
	ErrManifestNotFound = errdefs.Newf(errdefs.ErrNotFound, "manifest not found")

	// ErrManifestFileNotFound signals a manifest row whose document is
	// missing from the content store.
	ErrManifestFileNotFound = errdefs.Newf(errdefs.ErrNotFound, "manifest file not found")

	// ErrFailedToDeleteTag signals an untag request for a tag that does not
	// exist in the repository.
	ErrFailedToDeleteTag = errdefs.Newf(errdefs.ErrNotFound, "failed to delete tag")
)
