// Package library stores named, decoded audio buffers. Assets are loaded
// from a URL or local path, decoded once, and kept in memory until the
// library is torn down; there is no eviction.
package library

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"earshot/logger"
	"earshot/search"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
	gocache "github.com/patrickmn/go-cache"
)

// Asset is a decoded, named audio buffer ready for playback.
// Immutable after creation.
type Asset struct {
	Name     string
	Buffer   *beep.Buffer
	Format   beep.Format
	Duration time.Duration
}

// Streamer returns a fresh streamer over the whole buffer. Each call is
// independent, so the same asset can play concurrently.
func (a *Asset) Streamer() beep.StreamSeeker {
	return a.Buffer.Streamer(0, a.Buffer.Len())
}

// Library is the named-buffer store. Concurrent loads are allowed; a name
// collision is last-writer-wins, not guarded.
type Library struct {
	store      *gocache.Cache
	httpClient *http.Client
	searcher   *search.Client
	logger     *slog.Logger
}

// Option configures a Library.
type Option func(*Library)

// WithHTTPClient overrides the HTTP client used to fetch remote sources.
func WithHTTPClient(h *http.Client) Option {
	return func(l *Library) { l.httpClient = h }
}

// WithSearch attaches a content-search provider for LoadSearch.
func WithSearch(c *search.Client) Option {
	return func(l *Library) { l.searcher = c }
}

// New creates an empty Library.
func New(opts ...Option) *Library {
	l := &Library{
		store:      gocache.New(gocache.NoExpiration, 0),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.WithComponent("library"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches raw bytes from source (an http(s) URL or a local path),
// decodes them, and registers the asset under name, overwriting any
// previous asset with the same name. Returns a *LoadError on fetch or
// decode failure; failures are not retried.
func (l *Library) Load(ctx context.Context, name, source string) (*Asset, error) {
	data, err := l.fetch(ctx, source)
	if err != nil {
		return nil, &LoadError{Name: name, Source: source, Err: err}
	}

	buffer, format, err := decode(data, source)
	if err != nil {
		return nil, &LoadError{Name: name, Source: source, Err: err}
	}

	asset := &Asset{
		Name:     name,
		Buffer:   buffer,
		Format:   format,
		Duration: format.SampleRate.D(buffer.Len()),
	}
	l.store.Set(name, asset, gocache.NoExpiration)

	l.logger.Debug("loaded sound",
		slog.String("name", name),
		slog.String("source", source),
		slog.Duration("duration", asset.Duration))

	return asset, nil
}

// LoadSearch resolves query through the content-search provider, then
// loads the best match under name. Returns a *LookupError when the
// provider finds nothing or the network call fails.
func (l *Library) LoadSearch(ctx context.Context, name, query string) (*Asset, error) {
	if l.searcher == nil {
		return nil, &LookupError{Name: name, Query: query, Err: fmt.Errorf("no search provider configured")}
	}

	res, err := l.searcher.FindSound(ctx, query)
	if err != nil {
		return nil, &LookupError{Name: name, Query: query, Err: err}
	}

	l.logger.Info("found sound",
		slog.String("name", name),
		slog.String("title", res.Name),
		slog.String("author", res.Author),
		slog.String("license", res.License),
		slog.String("url", res.SourceURL))

	return l.Load(ctx, name, res.PreviewURL)
}

// Get returns the asset registered under name. Never blocks on I/O.
func (l *Library) Get(name string) (*Asset, bool) {
	v, ok := l.store.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Asset), true
}

// Names returns the identifiers of all registered assets.
func (l *Library) Names() []string {
	items := l.store.Items()
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	return names
}

func (l *Library) fetch(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(source)
}

// decode picks a decoder by source extension (wav or mp3, mp3 being the
// default since search previews are mp3) and buffers the whole stream.
func decode(data []byte, source string) (*beep.Buffer, beep.Format, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)

	switch sourceExt(source) {
	case ".wav":
		streamer, format, err = wav.Decode(bytes.NewReader(data))
	default:
		streamer, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	}
	if err != nil {
		return nil, beep.Format{}, err
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	streamer.Close()

	return buffer, format, nil
}

func sourceExt(source string) string {
	if u, err := url.Parse(source); err == nil && u.Scheme != "" {
		return strings.ToLower(path.Ext(u.Path))
	}
	return strings.ToLower(path.Ext(source))
}
