package config

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a stable hash of the canonical encoding. Two configs
// with the same fingerprint describe the same site, whatever the layout,
// key order or plugin list style of their source files.
func (c *SiteConfig) Fingerprint() string {
	if c == nil {
		return ""
	}
	data, err := Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
