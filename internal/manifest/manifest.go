// Package manifest records which versions a build session produced and
// where their output lives.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docversions/internal/buildinfo"
	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
	"git.home.luguber.info/inful/docversions/internal/fsutil"
	"git.home.luguber.info/inful/docversions/internal/versioning"
)

// FileName is the manifest's name inside the output root.
const FileName = "manifest.json"

// Manifest is the ordered list of versions one session built successfully.
type Manifest struct {
	RunID            string    `json:"run_id"`
	Repository       string    `json:"repository"`
	URL              string    `json:"url,omitempty"`
	OutputRoot       string    `json:"output_root"`
	Builder          string    `json:"builder,omitempty"`
	GeneratorVersion string    `json:"generator_version"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	Versions         []Entry   `json:"versions"`
}

// Entry describes one built version.
type Entry struct {
	Slug        string          `json:"slug"`
	Type        versioning.Type `json:"type"`
	Path        string          `json:"path"` // relative to the output root, slash separated
	DisplayName string          `json:"display_name"`
	Commit      string          `json:"commit,omitempty"`
	ConfigPath  string          `json:"config_path,omitempty"`
	Reused      bool            `json:"reused"`
}

// New starts a manifest with a fresh run id.
func New(repository, url, outputRoot, generatorVersion string) *Manifest {
	return &Manifest{
		RunID:            uuid.NewString(),
		Repository:       repository,
		URL:              url,
		OutputRoot:       outputRoot,
		GeneratorVersion: generatorVersion,
		StartedAt:        time.Now().UTC(),
		Versions:         []Entry{},
	}
}

// Add appends the result of a successful task. Type, slug and output path are
// required; reading them unset is a contract violation.
func (m *Manifest) Add(info *buildinfo.Info) error {
	typ, err := info.Type.Get()
	if err != nil {
		return err
	}
	slug, err := info.Slug.Get()
	if err != nil {
		return err
	}
	out, err := info.OutputPath.Get()
	if err != nil {
		return err
	}
	rel := out
	if r, relErr := filepath.Rel(m.OutputRoot, out); relErr == nil {
		rel = r
	}
	m.Versions = append(m.Versions, Entry{
		Slug:        slug,
		Type:        typ,
		Path:        filepath.ToSlash(rel),
		DisplayName: versioning.DisplayName(versioning.Version{Type: typ, Slug: slug}),
		Commit:      info.Commit.GetOr(""),
		ConfigPath:  info.ConfigPath.GetOr(""),
		Reused:      info.Reused.GetOr(false),
	})
	return nil
}

// Finish stamps the completion time.
func (m *Manifest) Finish() { m.FinishedAt = time.Now().UTC() }

// Duration is the wall time between start and finish.
func (m *Manifest) Duration() time.Duration {
	if m.FinishedAt.IsZero() {
		return 0
	}
	return m.FinishedAt.Sub(m.StartedAt)
}

// Reused counts versions served from the cache.
func (m *Manifest) Reused() int {
	n := 0
	for _, v := range m.Versions {
		if v.Reused {
			n++
		}
	}
	return n
}

// ToJSON serializes the manifest to JSON.
func (m *Manifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash of the repository and the built
// versions. Two runs over unchanged refs hash the same.
func (m *Manifest) Hash() (string, error) {
	type hashEntry struct {
		Slug   string          `json:"slug"`
		Type   versioning.Type `json:"type"`
		Commit string          `json:"commit"`
	}
	hashInput := struct {
		Repository string      `json:"repository"`
		Versions   []hashEntry `json:"versions"`
	}{Repository: m.Repository, Versions: make([]hashEntry, 0, len(m.Versions))}
	for _, v := range m.Versions {
		hashInput.Versions = append(hashInput.Versions, hashEntry{Slug: v.Slug, Type: v.Type, Commit: v.Commit})
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// Write stores the manifest at <output root>/manifest.json and returns the path.
func (m *Manifest) Write() (string, error) {
	data, err := m.ToJSON()
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to encode manifest").Build()
	}
	path := filepath.Join(m.OutputRoot, FileName)
	if err := os.MkdirAll(m.OutputRoot, 0o750); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to create output root").
			WithContext("path", m.OutputRoot).
			Build()
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to write manifest").
			WithContext("path", path).
			Build()
	}
	return path, nil
}

// Read loads a manifest file.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 - caller supplied manifest path
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read manifest").
			WithContext("path", path).
			Build()
	}
	return FromJSON(data)
}
