// Package version computes template version fingerprints and persists the
// fingerprint registry that maps each one back to the exact tier chain of
// template versions that produced it.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FingerprintLen is the number of hex characters kept from the SHA-256 digest.
// Short hashes favor readable identifiers; the registry's collision check is
// the actual uniqueness guarantee, not the hash alone.
const FingerprintLen = 8

// baseMarker is the internal naming marker on shared ancestor templates
// (e.g. "docs/_base_document"). It is stripped from the hashed string so
// registry records stay readable.
const baseMarker = "_base_"

// TierEntry is one (template, version) pair in an inheritance chain, ordered
// least- to most-specific.
type TierEntry struct {
	TemplateID string `json:"template_id"`
	Version    string `json:"version"`
}

// Fingerprint computes the deterministic short hash for an artifact type and
// its resolved template chain. The artifact type prefixes the hashed string so
// two artifact kinds sharing an identical chain still get distinct
// fingerprints. The concrete template's version must come from that template's
// own embedded metadata; passing a placeholder here would make two revisions
// of the same template hash identically and break provenance.
func Fingerprint(artifactType, concreteID, concreteVersion string, chain []TierEntry) string {
	parts := make([]string, 0, len(chain)+2)
	parts = append(parts, artifactType)
	for _, tier := range chain {
		parts = append(parts, normalizeID(tier.TemplateID)+"@"+tier.Version)
	}
	parts = append(parts, normalizeID(concreteID)+"@"+concreteVersion)

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:FingerprintLen]
}

// normalizeID strips the base marker from the final path segment.
func normalizeID(id string) string {
	slash := strings.LastIndex(id, "/")
	head, tail := "", id
	if slash >= 0 {
		head, tail = id[:slash+1], id[slash+1:]
	}
	return head + strings.TrimPrefix(tail, baseMarker)
}
