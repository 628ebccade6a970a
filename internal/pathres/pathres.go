// Package pathres maps virtual paths (logical names) to physical paths.
//
// Resolvers are pure: the same input always yields the same output and no
// state is kept between calls. Sharded is the default policy; it spreads
// files over 256x256 buckets so no directory grows unbounded.
package pathres

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
)

// ErrUnknownResolver is returned by ByName for unrecognized policy names.
var ErrUnknownResolver = errors.New("unknown path resolver")

// Resolver converts a virtual path to a physical path relative to a root.
type Resolver interface {
	Resolve(virtualPath string) string
}

// Policy names accepted by ByName.
const (
	NameIdentity = "identity"
	NameSHA1     = "sha1"
	NameSharded  = "sharded"
)

// Identity returns the virtual path unchanged.
type Identity struct{}

// Resolve implements Resolver.
func (Identity) Resolve(virtualPath string) string {
	return virtualPath
}

// SHA1 returns the 40-character hex SHA-1 digest of the virtual path,
// keeping every file in one directory.
type SHA1 struct{}

// Resolve implements Resolver.
func (SHA1) Resolve(virtualPath string) string {
	sum := sha1.Sum([]byte(virtualPath))
	return hex.EncodeToString(sum[:])
}

// Sharded returns "<h[0:2]>/<h[2:4]>/<h>" where h is the hex SHA-256 digest
// of the virtual path.
type Sharded struct{}

// Resolve implements Resolver.
func (Sharded) Resolve(virtualPath string) string {
	h := SHA256Hex(virtualPath)
	return filepath.Join(h[0:2], h[2:4], h)
}

// SHA256Hex returns the lowercase hex SHA-256 digest of s.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Default returns the sharded resolver.
func Default() Resolver {
	return Sharded{}
}

// ByName returns the resolver registered under name.
func ByName(name string) (Resolver, error) {
	switch name {
	case NameIdentity:
		return Identity{}, nil
	case NameSHA1:
		return SHA1{}, nil
	case NameSharded, "":
		return Sharded{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownResolver, name)
	}
}
