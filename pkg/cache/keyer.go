package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// FormatVersion is bumped whenever the cached representation of a parse
// changes.
const FormatVersion = 1

// Kinds of cached parse results.
const (
	KindStackUsage = "su"
	KindCallGraph  = "cgraph"
)

// Keyer builds cache keys.
type Keyer interface {
	// ScanKey returns the key for the parse of one input file of the given
	// kind, identified by the hash of its contents.
	ScanKey(kind, contentHash string) string
}

// DefaultKeyer builds unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ScanKey returns "scan:<kind>:<digest>" where digest covers the kind, the
// content hash and [FormatVersion].
func (DefaultKeyer) ScanKey(kind, contentHash string) string {
	digest := Hash([]byte(strings.Join([]string{"v" + strconv.Itoa(FormatVersion), kind, contentHash}, "\x00")))
	return "scan:" + kind + ":" + digest
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Prefixed is a [Keyer] that prepends Prefix to every key of Keyer, so
// several projects can share one Redis database.
type Prefixed struct {
	Keyer
	Prefix string
}

// NewScopedKeyer returns a [Prefixed] keyer. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return Prefixed{Keyer: inner, Prefix: prefix}
}

// ScanKey returns the inner keyer's key with Prefix prepended.
func (p Prefixed) ScanKey(kind, contentHash string) string {
	return p.Prefix + p.Keyer.ScanKey(kind, contentHash)
}
