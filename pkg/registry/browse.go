package registry

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/wharfd/wharfd/pkg/registry/index"
)

// RepositorySummary is one repository in the browse listing.
type RepositorySummary struct {
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// ImageSummary is one stored manifest in the browse listing. Tag is null for
// manifests pushed by digest or untagged since.
type ImageSummary struct {
	Tag       *string   `json:"tag"`
	Digest    string    `json:"digest"`
	CreatedAt time.Time `json:"created_at"`
}

// ListRepositories returns all repositories with their owner's username,
// ordered by name.
func (r *Registry) ListRepositories(ctx context.Context) ([]RepositorySummary, error) {
	tx, err := r.idx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	repos, err := tx.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(repos, func(repo index.RepositoryWithOwner, _ int) RepositorySummary {
		return RepositorySummary{Name: repo.Namespace, Owner: repo.Username, CreatedAt: repo.CreatedAt}
	}), nil
}

// ListImages returns the repository's stored manifests ordered by tag.
func (r *Registry) ListImages(ctx context.Context, repository string) ([]ImageSummary, error) {
	tx, err := r.idx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	manifests, err := tx.ListManifests(ctx, repository, 0, "")
	if err != nil {
		return nil, err
	}
	return lo.Map(manifests, func(m index.Manifest, _ int) ImageSummary {
		return ImageSummary{Tag: m.Tag, Digest: m.Digest, CreatedAt: m.CreatedAt}
	}), nil
}
