package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"
)

// Keyer builds cache keys for the pipeline stages.
type Keyer interface {
	// LayoutKey returns the key of a settled layout of an outline.
	LayoutKey(outlineHash string, opts LayoutKeyOpts) string

	// ArtifactKey returns the key of a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the simulation parameters a settled layout depends on.
type LayoutKeyOpts struct {
	Width     float64       `json:"width"`
	Height    float64       `json:"height"`
	Threshold float64       `json:"threshold"`
	Timeout   time.Duration `json:"timeout"`
	Tick      time.Duration `json:"tick"`
}

// ArtifactKeyOpts are the render options an artifact depends on.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Margin   float64 `json:"margin,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Links    bool    `json:"links,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
}

// DefaultKeyer hashes the key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(outlineHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", outlineHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "<kind>:" followed by the digest of the JSON encoding of
// parts. Option structs encode in field order, so equal options give equal
// keys.
func hashKey(kind string, parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		panic("cache: unencodable key parts: " + err.Error())
	}
	return kind + ":" + Hash(data)
}
