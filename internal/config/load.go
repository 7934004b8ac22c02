package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/sitenav/internal/foundation/errors"
	"git.home.luguber.info/inful/sitenav/internal/logfields"
)

// DefaultFile is the configuration file name looked up when none is given.
const DefaultFile = "mkdocs.yml"

// LoadFile reads and parses the configuration at path. Unless disabled with
// WithEnvFiles(false), .env and .env.local next to the file are read on every
// call so !ENV tags can refer to them.
func LoadFile(path string, opts ...Option) (*SiteConfig, error) {
	o := newOptions(opts)

	if o.envFiles {
		vars, read, err := readEnvFiles(filepath.Dir(path))
		if err != nil {
			return nil, withPath(err, path)
		}
		for _, f := range read {
			slog.Debug("Read environment file", logfields.Path(f))
		}
		o.lookupEnv = withFileVars(o.lookupEnv, vars)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.WrapError(err, ferrors.CategoryNotFound, "configuration file not found").
				Fatal().
				UserAction().
				WithContext(ContextConfigPath, path).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read configuration file").
			WithContext(ContextConfigPath, path).
			Build()
	}

	cfg, err := parse(data, o)
	if err != nil {
		return nil, withPath(err, path)
	}
	return cfg, nil
}

func withPath(err error, path string) error {
	if classified, ok := ferrors.AsClassified(err); ok {
		return classified.WithContext(ContextConfigPath, path)
	}
	return err
}

// BaseDir returns the directory relative paths in the configuration at path
// are resolved against.
func BaseDir(path string) string {
	dir := filepath.Dir(path)
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// DocsPath returns the absolute docs directory for a config loaded from baseDir.
func (c *SiteConfig) DocsPath(baseDir string) string {
	if filepath.IsAbs(c.DocsDir) {
		return filepath.Clean(c.DocsDir)
	}
	return filepath.Join(baseDir, c.DocsDir)
}
