package version

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// HashAlgorithm names the digest used for fingerprints, recorded on every
// registry entry so future algorithm changes stay distinguishable.
const HashAlgorithm = "sha256-8"

// PlaceholderVersion is stored for tiers whose version is not separately
// tracked at save time.
const PlaceholderVersion = "untracked"

// legacyFileName is the flat-format store written by earlier releases. It is
// migrated forward exactly once, only when the current store is absent.
const legacyFileName = "template_versions.json"

// Record is one immutable fingerprint entry: which artifact type and which
// tier-chain versions produced the fingerprint.
type Record struct {
	ArtifactType  string               `json:"artifact_type"`
	Created       string               `json:"created"`
	HashAlgorithm string               `json:"hash_algorithm"`
	Tiers         map[string]TierEntry `json:"tiers"`
}

// document is the full persisted registry file.
type document struct {
	Version         int               `json:"version"`
	VersionHashes   map[string]Record `json:"version_hashes"`
	CurrentVersions map[string]string `json:"current_versions"`
	Templates       map[string]string `json:"templates"`
	LastUpdated     string            `json:"last_updated"`
}

// legacyEntry is one row of the legacy flat-format store.
type legacyEntry struct {
	ArtifactType string `json:"artifact_type"`
	TemplateID   string `json:"template"`
	Version      string `json:"version"`
	Created      string `json:"created"`
}

// CollisionError reports a fingerprint already registered with a different
// artifact type or tier chain. This is an invariant violation, never retried.
type CollisionError struct {
	Fingerprint  string
	ExistingType string
	NewType      string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("fingerprint %s collision: already registered for artifact type %q, refusing save for %q with a different tier chain",
		e.Fingerprint, e.ExistingType, e.NewType)
}

// Registry persists fingerprint records in a single JSON document. Every save
// is a full read-modify-write of the document; an in-process mutex serializes
// writers. Multi-process deployments need single-writer discipline.
type Registry struct {
	mu   sync.Mutex
	path string
}

// NewRegistry creates a registry backed by the given document path. The file
// is created lazily on first save. If the document is absent but a legacy
// flat-format store sits next to it, the legacy store is migrated forward and
// renamed out of the way.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.migrateLegacy(); err != nil {
		return nil, fmt.Errorf("migrate legacy version store: %w", err)
	}
	return r, nil
}

// SaveVersion records a fingerprint and makes it the current version for the
// artifact type. Repeating an identical save is a silent no-op; the same
// fingerprint with a different artifact type or tier chain fails with a
// CollisionError and leaves the stored document untouched.
func (r *Registry) SaveVersion(artifactType, fingerprint string, tiers []TierEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}

	rec := Record{
		ArtifactType:  artifactType,
		Created:       time.Now().UTC().Format(time.RFC3339),
		HashAlgorithm: HashAlgorithm,
		Tiers:         tierMap(tiers),
	}

	if existing, ok := doc.VersionHashes[fingerprint]; ok {
		if existing.ArtifactType == artifactType && sameTiers(existing.Tiers, rec.Tiers) {
			return nil // idempotent repeat
		}
		return &CollisionError{
			Fingerprint:  fingerprint,
			ExistingType: existing.ArtifactType,
			NewType:      artifactType,
		}
	}

	doc.VersionHashes[fingerprint] = rec
	doc.CurrentVersions[artifactType] = fingerprint
	doc.LastUpdated = rec.Created

	return r.write(doc)
}

// LookupHash returns the record for a fingerprint, or nil if unseen.
func (r *Registry) LookupHash(fingerprint string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	rec, ok := doc.VersionHashes[fingerprint]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// CurrentVersion returns the current fingerprint for an artifact type, or ""
// if the type has never been scaffolded.
func (r *Registry) CurrentVersion(artifactType string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return "", err
	}
	return doc.CurrentVersions[artifactType], nil
}

// CurrentVersions returns the full artifact-type to fingerprint map.
func (r *Registry) CurrentVersions() (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(doc.CurrentVersions))
	for k, v := range doc.CurrentVersions {
		out[k] = v
	}
	return out, nil
}

func (r *Registry) load() (*document, error) {
	doc := &document{
		Version:         1,
		VersionHashes:   map[string]Record{},
		CurrentVersions: map[string]string{},
		Templates:       map[string]string{},
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, fmt.Errorf("read version registry: %w", err)
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse version registry %s: %w", r.path, err)
	}
	return doc, nil
}

// write persists the whole document atomically: temp file in the same
// directory, then rename over the target.
func (r *Registry) write(doc *document) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode version registry: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write version registry: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace version registry: %w", err)
	}
	return nil
}

// migrateLegacy imports a legacy flat-format store into the current document
// format, then renames the legacy file. Runs only when the current store does
// not exist yet.
func (r *Registry) migrateLegacy() error {
	if _, err := os.Stat(r.path); err == nil {
		return nil // current store present, legacy ignored
	}
	legacyPath := filepath.Join(filepath.Dir(r.path), legacyFileName)
	data, err := os.ReadFile(legacyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var legacy map[string]legacyEntry
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("parse legacy store %s: %w", legacyPath, err)
	}

	doc := &document{
		Version:         1,
		VersionHashes:   map[string]Record{},
		CurrentVersions: map[string]string{},
		Templates:       map[string]string{},
		LastUpdated:     time.Now().UTC().Format(time.RFC3339),
	}
	for fp, entry := range legacy {
		doc.VersionHashes[fp] = Record{
			ArtifactType:  entry.ArtifactType,
			Created:       entry.Created,
			HashAlgorithm: HashAlgorithm,
			Tiers: map[string]TierEntry{
				"concrete": {TemplateID: entry.TemplateID, Version: entry.Version},
			},
		}
		doc.CurrentVersions[entry.ArtifactType] = fp
	}
	if err := r.write(doc); err != nil {
		return err
	}
	return os.Rename(legacyPath, legacyPath+".migrated")
}

// tierMap keys ordered tiers as tier_1..tier_N with the final entry named
// "concrete".
func tierMap(tiers []TierEntry) map[string]TierEntry {
	m := make(map[string]TierEntry, len(tiers))
	for i, t := range tiers {
		name := fmt.Sprintf("tier_%d", i+1)
		if i == len(tiers)-1 {
			name = "concrete"
		}
		m[name] = t
	}
	return m
}

func sameTiers(a, b map[string]TierEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		if vb, ok := b[k]; !ok || va != vb {
			return false
		}
	}
	return true
}
