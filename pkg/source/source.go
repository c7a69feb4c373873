// Package source loads creator networks from the places the backend keeps
// them.
//
// Every backend implements [Source]. [Open] picks one from a spec string:
//
//	file:testdata/network.json     a JSON or YAML file ({platform} is substituted)
//	http://localhost:8000          the backend's /api/creators/network route
//	mongodb://localhost:27017/xhs  the latest creator_networks document
//	sqlite:networks.db             an offline snapshot table
//
// A platform that has no network yet yields an empty payload, not an error,
// matching the backend's empty reply.
package source

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/network"
)

// DefaultPlatform is used when a caller passes no platform.
const DefaultPlatform = "xiaohongshu"

// Source produces creator networks.
type Source interface {
	// Load returns the latest network for platform.
	Load(ctx context.Context, platform string) (network.Payload, error)
	// Name identifies the source in logs and cache keys.
	Name() string
	Close() error
}

// Options configures [Open]. Zero values take defaults.
type Options struct {
	// Timeout bounds HTTP requests and database round trips.
	Timeout time.Duration
	// Database overrides the MongoDB database named in the URI.
	Database string
	// Collection overrides the collection or table name.
	Collection string
	Logger     *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.Collection == "" {
		o.Collection = "creator_networks"
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Open returns the source described by spec.
func Open(ctx context.Context, spec string, opts Options) (Source, error) {
	opts = opts.withDefaults()
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty source")
	case strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		return NewHTTP(spec, opts)
	case strings.HasPrefix(spec, "mongodb://"), strings.HasPrefix(spec, "mongodb+srv://"):
		return NewMongo(ctx, spec, opts)
	case strings.HasPrefix(spec, "sqlite:"):
		return NewSQLite(ctx, strings.TrimPrefix(spec, "sqlite:"), opts)
	case strings.HasPrefix(spec, "file:"):
		return NewFile(strings.TrimPrefix(spec, "file:"))
	case strings.Contains(spec, "://"):
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported source %q", redact(spec))
	default:
		return NewFile(spec)
	}
}

func platformOrDefault(p string) (string, error) {
	if p == "" {
		return DefaultPlatform, nil
	}
	if err := errors.ValidatePlatform(p); err != nil {
		return "", err
	}
	return p, nil
}

// redact hides the userinfo of a URL-like spec.
func redact(spec string) string {
	scheme, rest, ok := strings.Cut(spec, "://")
	if !ok {
		return spec
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 && at < strings.IndexAny(rest+"/", "/?") {
		rest = "***@" + rest[at+1:]
	}
	return scheme + "://" + rest
}
