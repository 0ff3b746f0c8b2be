// Package registry implements the operation-level API of the image registry:
// upload sessions, blob reads and deletes, manifest storage, and tag listing.
// The HTTP shell adapts request framing to these operations and maps the
// error kinds in errors.go to status codes; no HTTP or auth logic lives here.
//
// Every operation runs inside a single index transaction. Content-store
// writes happen before commit, so a crash can leave orphan files whose
// digest has no index row; they are harmless and sweepable. Content-store
// deletes happen after the transaction's final confirming read.
package registry

import (
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/wharfd/wharfd/pkg/errdefs"
	"github.com/wharfd/wharfd/pkg/registry/content"
	"github.com/wharfd/wharfd/pkg/registry/index"
)

// Registry exposes the registry operations over an index and a content store.
// It is safe for concurrent use.
type Registry struct {
	idx   *index.Index
	store *content.Store
}

// New returns a Registry over the given index and content store.
func New(idx *index.Index, store *content.Store) *Registry {
	return &Registry{idx: idx, store: store}
}

// parseDigest validates a client-supplied digest reference. Only sha256 is
// supported.
func parseDigest(raw string) (digest.Digest, error) {
	if !strings.HasPrefix(raw, digest.SHA256.String()+":") {
		return "", errdefs.Newf(ErrUnsupportedDigest, "digest %q does not use sha256", raw)
	}
	d, err := digest.Parse(raw)
	if err != nil {
		return "", errdefs.Newf(ErrInvalidDigest, "digest %q: %v", raw, err)
	}
	return d, nil
}

// isDigestReference reports whether a manifest reference addresses by digest
// rather than by tag.
func isDigestReference(reference string) bool {
	return strings.HasPrefix(reference, digest.SHA256.String()+":")
}
