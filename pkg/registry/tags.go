package registry

import (
	"context"

	"github.com/samber/lo"

	"github.com/wharfd/wharfd/pkg/registry/index"
)

// TagList is the tags/list response body.
type TagList struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// ListTags returns the repository's tags in ascending order. When last is
// non-empty only tags strictly greater are returned; when n is positive the
// result is capped at n entries. Untagged manifests contribute their digest
// instead of a tag.
func (r *Registry) ListTags(ctx context.Context, repository string, n int, last string) (TagList, error) {
	tx, err := r.idx.Begin(ctx)
	if err != nil {
		return TagList{}, err
	}
	defer func() { _ = tx.Rollback() }()

	manifests, err := tx.ListManifests(ctx, repository, n, last)
	if err != nil {
		return TagList{}, err
	}
	tags := lo.Map(manifests, func(m index.Manifest, _ int) string {
		if m.Tag != nil {
			return *m.Tag
		}
		return m.Digest
	})
	return TagList{Name: repository, Tags: tags}, nil
}
