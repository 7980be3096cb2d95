package domain

import (
	"net/url"
	"strings"
	"time"
)

// DependencyKind selects the checker used for a dependency
type DependencyKind string

const (
	DependencyPostgres DependencyKind = "postgres"
	DependencyRedis    DependencyKind = "redis"
	DependencySQLite   DependencyKind = "sqlite"
	DependencyTCP      DependencyKind = "tcp"
)

// IsValid checks if the kind is valid
func (k DependencyKind) IsValid() bool {
	switch k {
	case DependencyPostgres, DependencyRedis, DependencySQLite, DependencyTCP:
		return true
	}
	return false
}

// Dependency is an external resource that must accept connections before setup runs
type Dependency struct {
	Name    string         `json:"name" yaml:"name"`
	Kind    DependencyKind `json:"kind" yaml:"kind"`
	Target  string         `json:"target" yaml:"target"`
	Timeout time.Duration  `json:"timeout" yaml:"timeout"`
}

// Validate checks the dependency definition
func (d *Dependency) Validate() error {
	if !d.Kind.IsValid() {
		return ErrInvalidDependencyKind
	}
	if d.Target == "" {
		return ErrInvalidTarget
	}
	if d.Name == "" {
		d.Name = string(d.Kind)
	}
	return nil
}

// DependencyFromURL infers a dependency from a connection URL such as DATABASE_URL.
func DependencyFromURL(name, raw string, timeout time.Duration) (*Dependency, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	var kind DependencyKind
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		kind = DependencyPostgres
	case "redis", "rediss":
		kind = DependencyRedis
	case "sqlite", "sqlite3":
		kind = DependencySQLite
	case "tcp":
		kind = DependencyTCP
	default:
		return nil, ErrInvalidDependencyKind
	}

	dep := &Dependency{Name: name, Kind: kind, Target: raw, Timeout: timeout}
	if err := dep.Validate(); err != nil {
		return nil, err
	}
	return dep, nil
}

// SQLitePath extracts the file path from a sqlite:// URL, read the way Django's
// DATABASE_URL parsers read it: sqlite:///db.sqlite3 is relative to the working
// directory and sqlite:////data/db.sqlite3 is absolute.
func SQLitePath(target string) string {
	for _, prefix := range []string{"sqlite3://", "sqlite://"} {
		if rest, ok := strings.CutPrefix(target, prefix); ok {
			return strings.TrimPrefix(rest, "/")
		}
	}
	return target
}

// TCPAddress extracts host:port from a tcp:// URL or returns target unchanged.
func TCPAddress(target string) string {
	if rest, ok := strings.CutPrefix(target, "tcp://"); ok {
		return rest
	}
	return target
}
