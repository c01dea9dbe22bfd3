// Package fetch downloads release listings, checksum manifests and archives
// from the upstream sources. Every single request is retried on transient
// failures; a failed source falls back to the next one.
package fetch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/patricktcoakley/gdvm-sub001/internal/release"
)

// Source is one upstream service serving release files.
type Source interface {
	Name() string
	ListReleases(ctx context.Context) ([]string, error)
	GetFile(ctx context.Context, rel release.Release, file string, sink Sink) error
}

// Fetcher tries its sources in order, each at most once per call.
type Fetcher struct {
	sources []Source
	cache   *Cache
	logger  *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithCache enables the release list cache.
func WithCache(c *Cache) FetcherOption {
	return func(f *Fetcher) { f.cache = c }
}

// WithFetcherLogger sets the logger for fallback and cache notices.
func WithFetcherLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher returns a Fetcher over sources, primary first.
func NewFetcher(sources []Source, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{sources: sources, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// firstSuccess runs op against every source until one succeeds.
// Cancellation is returned as is; otherwise all failures are aggregated.
func firstSuccess[T any](ctx context.Context, f *Fetcher, resource string, op func(context.Context, Source) (T, error)) (T, error) {
	var zero T
	var errs []NetworkError
	for _, src := range f.sources {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		res, err := op(ctx, src)
		if err == nil {
			return res, nil
		}
		if IsCancellation(err) {
			return zero, err
		}
		f.logger.Warn("source failed", "source", src.Name(), "resource", resource, "error", err)
		errs = append(errs, normalize(src.Name(), err))
	}
	return zero, &AllSourcesFailed{Resource: resource, Errors: errs}
}

// GetFile downloads file of rel into sink.
func (f *Fetcher) GetFile(ctx context.Context, rel release.Release, file string, sink Sink) error {
	_, err := firstSuccess(ctx, f, file, func(ctx context.Context, src Source) (struct{}, error) {
		return struct{}{}, src.GetFile(ctx, rel, file, sink)
	})
	return err
}

// GetArchive downloads the artifact of rel into sink.
func (f *Fetcher) GetArchive(ctx context.Context, rel release.Release, artifact string, sink Sink) error {
	return f.GetFile(ctx, rel, artifact, sink)
}

// GetChecksumFile returns rel's checksum manifest. Mono artifacts are listed
// in the same manifest as the standard ones.
func (f *Fetcher) GetChecksumFile(ctx context.Context, rel release.Release) ([]byte, error) {
	var buf BufferSink
	if err := f.GetFile(ctx, rel.WithRuntime(release.Standard), ChecksumFile, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetChecksumSignature returns the detached signature of rel's manifest.
func (f *Fetcher) GetChecksumSignature(ctx context.Context, rel release.Release) ([]byte, error) {
	var buf BufferSink
	if err := f.GetFile(ctx, rel.WithRuntime(release.Standard), ChecksumSignatureFile, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetChecksum returns the SHA-512 hex digest of artifact from rel's manifest.
func (f *Fetcher) GetChecksum(ctx context.Context, rel release.Release, artifact string) (string, error) {
	manifest, err := f.GetChecksumFile(ctx, rel)
	if err != nil {
		return "", err
	}
	return FindChecksum(manifest, artifact)
}

// ListReleases returns the known release names, served from the cache
// while it is fresh.
func (f *Fetcher) ListReleases(ctx context.Context) ([]string, error) {
	if f.cache != nil {
		names, fresh, err := f.cache.Load()
		if err == nil && fresh {
			f.logger.Debug("release list served from cache")
			return names, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("ignoring unreadable release cache", "error", err)
		}
	}
	return f.RefreshReleases(ctx)
}

// RefreshReleases asks the sources for the release list and updates the
// cache. When every source fails a stale cache is still served.
func (f *Fetcher) RefreshReleases(ctx context.Context) ([]string, error) {
	names, err := firstSuccess(ctx, f, "release list", func(ctx context.Context, src Source) ([]string, error) {
		return src.ListReleases(ctx)
	})
	if err != nil {
		if f.cache != nil && !IsCancellation(err) {
			if stale, _, cerr := f.cache.Load(); cerr == nil {
				f.logger.Warn("serving stale release list", "error", err)
				return stale, nil
			}
		}
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.Store(names); err != nil {
			f.logger.Warn("could not update release cache", "error", err)
		}
	}
	return names, nil
}
