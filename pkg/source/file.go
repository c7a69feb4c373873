package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/network"
)

// File reads networks from a JSON or YAML file. A "{platform}" placeholder
// in the path is replaced by the requested platform.
type File struct {
	path string
}

// NewFile returns a file source.
func NewFile(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "network file path cannot be empty")
	}
	return &File{path: path}, nil
}

func (f *File) Load(ctx context.Context, platform string) (network.Payload, error) {
	platform, err := platformOrDefault(platform)
	if err != nil {
		return network.Payload{}, err
	}
	if err := ctx.Err(); err != nil {
		return network.Payload{}, err
	}
	return network.ReadFile(f.resolve(platform))
}

func (f *File) resolve(platform string) string {
	return strings.ReplaceAll(f.path, "{platform}", platform)
}

func (f *File) Name() string { return "file:" + f.path }

func (f *File) Close() error { return nil }

// Save writes p to the file for platform, creating it if needed.
func (f *File) Save(ctx context.Context, platform string, p network.Payload) error {
	platform, err := platformOrDefault(platform)
	if err != nil {
		return err
	}
	path := f.resolve(platform)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return network.WriteFile(p, path)
}
