package keymgt

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magiconair/properties"
)

const (
	// EnvConfigFile names the environment variable that overrides the
	// configuration file name.
	EnvConfigFile = "KEYMGT_CONFIG"

	// DefaultConfigFile is used when EnvConfigFile is unset or empty.
	DefaultConfigFile = "keymgt.properties"
)

// Resolver locates and parses the key manager configuration source.
//
// The file name is taken from the EnvConfigFile environment variable, falling
// back to DefaultConfigFile. The working directory is searched first, then
// the resource search path. The first match wins; sources are never merged.
//
// A Resolver performs no caching; lazy-once construction is the Registry's
// responsibility.
type Resolver struct {
	// Getenv reads environment variables. Defaults to os.Getenv.
	Getenv func(string) string

	// WorkDir is the primary search location. Defaults to the current
	// working directory.
	WorkDir string

	// Resources is the fallback search location, analogous to a resource
	// path lookup. Defaults to the directory containing the executable.
	// May be nil, in which case only WorkDir is searched.
	Resources fs.FS
}

// NewResolver returns a Resolver with the default search locations.
func NewResolver() *Resolver {
	return &Resolver{
		Getenv:    os.Getenv,
		WorkDir:   ".",
		Resources: executableDirFS(),
	}
}

// Resolve locates the configuration source, parses it, and validates the
// result. It returns ErrConfigNotFound when no source exists in either
// search location and ErrConfigParse when a source exists but is malformed.
func (r *Resolver) Resolve() (*Config, error) {
	name := r.sourceName()

	raw, err := r.readSource(name)
	if err != nil {
		return nil, err
	}

	p, err := properties.Load(raw, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, name, err)
	}

	cfg, err := configFromProperties(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// sourceName returns the configuration file name, honoring the override
// variable when present and non-empty.
func (r *Resolver) sourceName() string {
	if r.Getenv != nil {
		if name := strings.TrimSpace(r.Getenv(EnvConfigFile)); name != "" {
			return name
		}
	}
	return DefaultConfigFile
}

// readSource reads the named file from the working directory, then from the
// resource search path.
func (r *Resolver) readSource(name string) ([]byte, error) {
	workDir := r.WorkDir
	if workDir == "" {
		workDir = "."
	}

	if raw, err := os.ReadFile(filepath.Join(workDir, name)); err == nil {
		return raw, nil
	}

	if r.Resources != nil {
		if raw, err := fs.ReadFile(r.Resources, name); err == nil {
			return raw, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
}

// executableDirFS returns the executable's directory as a resource
// filesystem, or nil if the executable path cannot be determined.
func executableDirFS() fs.FS {
	exe, err := os.Executable()
	if err != nil {
		return nil
	}
	return os.DirFS(filepath.Dir(exe))
}
