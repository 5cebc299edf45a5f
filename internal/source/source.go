// Package source resolves fetchable URLs for hub setup archives.
//
// The pipeline downloads archives on the hub itself, so a source must
// produce URLs that work without credentials on the remote side:
// public endpoints for GitHub, presigned requests for object storage.
package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Ref identifies a branch of a source repository.
type Ref struct {
	Owner  string
	Repo   string
	Branch string
}

// Validate checks that all parts of the ref are present.
func (r Ref) Validate() error {
	if r.Owner == "" {
		return fmt.Errorf("source owner cannot be empty")
	}
	if r.Repo == "" {
		return fmt.Errorf("source repo cannot be empty")
	}
	if r.Branch == "" {
		return fmt.Errorf("source branch cannot be empty")
	}
	return nil
}

// String returns the conventional owner/repo@branch form.
func (r Ref) String() string {
	return fmt.Sprintf("%s/%s@%s", r.Owner, r.Repo, r.Branch)
}

// Source produces fetchable URLs for a repository ref.
type Source interface {
	// ArchiveURL returns a URL serving the ref as a gzipped tarball.
	ArchiveURL(ctx context.Context, ref Ref) (string, error)

	// FileURL returns a URL serving a single file from the ref.
	FileURL(ctx context.Context, ref Ref, path string) (string, error)
}

// GitHub serves refs through the public github.com download endpoints.
// It needs no credentials and works for any public repository.
type GitHub struct{}

// ArchiveURL implements Source.
func (GitHub) ArchiveURL(_ context.Context, ref Ref) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://codeload.github.com/%s/%s/tar.gz/refs/heads/%s",
		url.PathEscape(ref.Owner), url.PathEscape(ref.Repo), url.PathEscape(ref.Branch)), nil
}

// FileURL implements Source.
func (GitHub) FileURL(_ context.Context, ref Ref, path string) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s",
		url.PathEscape(ref.Owner), url.PathEscape(ref.Repo), url.PathEscape(ref.Branch),
		escapePath(path)), nil
}

// escapePath escapes each segment of a slash-separated path while
// keeping the separators intact.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
