package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/pgtools/replctl/internal/lock"
)

// Topology file keys, compatible with libpq-style DSN values.
const (
	keySource      = "SOURCE_DB_DSN"
	keyDestination = "DEST_DB_DSN"
)

// DefaultPath is the topology file written into the working directory.
const DefaultPath = ".env"

// ErrNotConfigured is returned when the topology file is missing or does not
// contain both DSNs. The operator must run `replctl configure` first.
var ErrNotConfigured = errors.New("topology not configured (run `replctl configure`)")

// ConfigurationError marks any topology-store failure so callers can map it
// to a distinct exit code.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string { return e.Err.Error() }
func (e *ConfigurationError) Unwrap() error { return e.Err }

func cfgErr(err error) error {
	if err == nil {
		return nil
	}
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return err
	}
	return &ConfigurationError{Err: err}
}

// Role tags an endpoint as the publishing or the subscribing side.
type Role string

const (
	RoleSource      Role = "source"
	RoleDestination Role = "destination"
)

// Endpoint is one side of the replication pair.
type Endpoint struct {
	Role Role
	DSN  string
}

// Topology is the ordered (source, destination) pair. It is immutable for a
// single invocation; the Store mutates it across invocations.
type Topology struct {
	Source      Endpoint
	Destination Endpoint
}

// Swapped returns the topology with the two DSNs exchanged. Roles stay with
// their position: the former destination DSN becomes the source.
func (t Topology) Swapped() Topology {
	return Topology{
		Source:      Endpoint{Role: RoleSource, DSN: t.Destination.DSN},
		Destination: Endpoint{Role: RoleDestination, DSN: t.Source.DSN},
	}
}

// Store persists the topology to a key=value file. All writes go through a
// file lock so concurrent invocations cannot interleave a load/save pair, and
// through a temp-file+rename so a partially written topology is never
// observable.
type Store struct {
	path string
	lk   *lock.FileLock
}

// NewStore returns a store over the given file path.
func NewStore(path string) *Store {
	return &Store{path: path, lk: lock.New(path)}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads the topology. Returns ErrNotConfigured when the file is absent
// or either DSN is missing.
func (s *Store) Load() (Topology, error) {
	env, err := godotenv.Read(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Topology{}, cfgErr(fmt.Errorf("%s: %w", s.path, ErrNotConfigured))
		}
		return Topology{}, cfgErr(fmt.Errorf("read topology %s: %w", s.path, err))
	}
	src, dest := env[keySource], env[keyDestination]
	if src == "" || dest == "" {
		return Topology{}, cfgErr(fmt.Errorf("%s: %w", s.path, ErrNotConfigured))
	}
	return Topology{
		Source:      Endpoint{Role: RoleSource, DSN: src},
		Destination: Endpoint{Role: RoleDestination, DSN: dest},
	}, nil
}

// Save persists the topology, overwriting any prior value.
func (s *Store) Save(t Topology) error {
	if err := s.lk.Lock(); err != nil {
		return cfgErr(fmt.Errorf("lock topology %s: %w", s.path, err))
	}
	defer func() { _ = s.lk.Unlock() }()
	return cfgErr(s.save(t))
}

// Swap exchanges source and destination as a single locked unit and returns
// the new topology.
func (s *Store) Swap() (Topology, error) {
	if err := s.lk.Lock(); err != nil {
		return Topology{}, cfgErr(fmt.Errorf("lock topology %s: %w", s.path, err))
	}
	defer func() { _ = s.lk.Unlock() }()

	t, err := s.Load()
	if err != nil {
		return Topology{}, err
	}
	swapped := t.Swapped()
	if err := s.save(swapped); err != nil {
		return Topology{}, cfgErr(err)
	}
	return swapped, nil
}

// save writes via a temp file in the same directory and renames over the
// target, so readers see either the old or the new topology, never a torn one.
func (s *Store) save(t Topology) error {
	content, err := godotenv.Marshal(map[string]string{
		keySource:      t.Source.DSN,
		keyDestination: t.Destination.DSN,
	})
	if err != nil {
		return fmt.Errorf("marshal topology: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("write topology %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content + "\n"); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write topology %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write topology %s: %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace topology %s: %w", s.path, err)
	}
	return nil
}
