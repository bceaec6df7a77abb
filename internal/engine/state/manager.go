// Package state implements the incremental-build state manager (§4.3): a
// thread-safe store of per-target ArtifactRecords, a content-hash cache, and
// the prioritized dirty-check algorithm the scheduler drives execution from.
package state

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"aria.build/aria/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Manager is the StateManager (C4). Reads (dirty checks) vastly outnumber
// writes, so the record table is guarded by a reader/writer lock; the hash
// cache has its own, separate lock (§5).
type Manager struct {
	mu      sync.RWMutex
	records map[string]domain.ArtifactRecord
	dirty   map[string]bool // propagated-dirty flags set via MarkDirty

	// saved is the toolchain identity the current manifest was built with
	// (populated only by Load, per §4.3). current is the identity set_toolchain
	// records for this run; toolchain_changed compares the two.
	saved      domain.ToolchainIdentity
	savedSet   bool
	current    domain.ToolchainIdentity
	currentSet bool

	hashes *hashCache
}

// NewManager returns an empty Manager with no loaded state.
func NewManager() *Manager {
	return &Manager{
		records: make(map[string]domain.ArtifactRecord),
		dirty:   make(map[string]bool),
		hashes:  newHashCache(),
	}
}

// Load reads a manifest from path. An absent file is success with empty
// state (§4.3). A record that fails to deserialize is skipped rather than
// aborting the whole load.
func (m *Manager) Load(path string) error {
	raw, err := os.ReadFile(path) //nolint:gosec // path is operator-controlled
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to read state manifest"), "path", path)
	}

	// Records are decoded one by one so a single malformed record cannot
	// abort the whole load.
	var manifest struct {
		Toolchain domain.ToolchainIdentity `yaml:"toolchain"`
		Targets   map[string]yaml.Node     `yaml:"targets"`
	}
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to parse state manifest"), "path", path)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]domain.ArtifactRecord, len(manifest.Targets))
	for name, node := range manifest.Targets {
		var rec domain.ArtifactRecord
		if err := node.Decode(&rec); err != nil || rec.TargetName == "" {
			continue // malformed record; skip rather than fail the load
		}
		m.records[name] = rec
	}
	m.saved = manifest.Toolchain
	m.savedSet = !manifest.Toolchain.IsZero()
	return nil
}

// Save serializes the current state to path, writing to a temp file in the
// same directory first and renaming it into place so readers never observe
// a partially written manifest (§4.3).
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	manifest := domain.NewStateManifest()
	if m.currentSet {
		manifest.Toolchain = m.current
	} else {
		manifest.Toolchain = m.saved
	}
	for name, rec := range m.records {
		manifest.Targets[name] = rec
	}
	m.mu.RUnlock()

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return zerr.Wrap(err, "failed to marshal state manifest")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.Wrap(err, "failed to create state directory")
	}

	tmp, err := os.CreateTemp(dir, ".aria_build_state-*.tmp")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp state file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return zerr.Wrap(err, "failed to write temp state file")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to close temp state file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace state manifest"), "path", path)
	}
	return nil
}

// Clear drops all records, propagated-dirty flags, toolchain bookkeeping,
// and cached hashes.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.records = make(map[string]domain.ArtifactRecord)
	m.dirty = make(map[string]bool)
	m.saved = domain.ToolchainIdentity{}
	m.savedSet = false
	m.current = domain.ToolchainIdentity{}
	m.currentSet = false
	m.mu.Unlock()
	m.hashes.clear()
}

// MarkDirty records that name is dirty by propagation, independent of its
// own check_dirty computation (§4.3). Consumed by the priority-3 check.
func (m *Manager) MarkDirty(name string) {
	m.mu.Lock()
	m.dirty[name] = true
	m.mu.Unlock()
}

// ClearDirtyMarks drops every propagated-dirty flag, so a fresh scheduler
// run starts from a clean propagation slate.
func (m *Manager) ClearDirtyMarks() {
	m.mu.Lock()
	m.dirty = make(map[string]bool)
	m.mu.Unlock()
}

// Invalidate removes name's record and marks it dirty.
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	delete(m.records, name)
	m.dirty[name] = true
	m.mu.Unlock()
}

// SetToolchain records id as the current run's toolchain identity. If no
// toolchain has ever been saved (fresh project), it also seeds saved so a
// first build doesn't spuriously report ToolchainChanged (§4.3).
func (m *Manager) SetToolchain(id domain.ToolchainIdentity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = id
	m.currentSet = true
	if !m.savedSet {
		m.saved = id
		m.savedSet = true
	}
}

// GetToolchain returns the saved toolchain identity (the one the persisted
// state was built with).
func (m *Manager) GetToolchain() domain.ToolchainIdentity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saved
}

// ToolchainChanged reports whether the current run's toolchain (as set by
// SetToolchain) differs from the saved one.
func (m *Manager) ToolchainChanged() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentSet && !m.saved.Equal(m.current)
}

// HashFile returns the cached content digest of path, recomputing it if the
// file's mtime has changed since it was last hashed.
func (m *Manager) HashFile(path string) (string, error) {
	return m.hashes.hash(path)
}

// HashFiles returns the combined digest of paths, hashed individually (via
// the cache, concurrently since the cache guards itself with its own
// reader/writer lock, §5) and concatenated in the declared order (§4.3, §9).
func (m *Manager) HashFiles(paths []string) (string, error) {
	digests := make([]string, len(paths))
	g, _ := errgroup.WithContext(context.Background())
	for i, p := range paths {
		g.Go(func() error {
			d, err := m.hashes.hash(p)
			if err != nil {
				return err
			}
			digests[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return hashCombinedSources(digests), nil
}

// HashFlags returns the digest of an ordered flag list.
func (m *Manager) HashFlags(flags []string) string {
	return hashFlags(flags)
}

// InvalidateHashCache drops path's cached digest.
func (m *Manager) InvalidateHashCache(path string) {
	m.hashes.invalidate(path)
}

// ClearHashCache drops every cached digest.
func (m *Manager) ClearHashCache() {
	m.hashes.clear()
}

// UpdateRecord inserts or replaces name's ArtifactRecord after a successful
// build, and clears any propagated-dirty mark for it (§4.3).
func (m *Manager) UpdateRecord(name, outputPath string, sources []string, directDeps []domain.DependencyDigest, implicitDeps []string, flags []string, duration time.Duration) error {
	sourceHash, err := m.HashFiles(sources)
	if err != nil {
		return err
	}

	rec := domain.ArtifactRecord{
		TargetName:           name,
		OutputPath:           outputPath,
		SourceHash:           sourceHash,
		CommandHash:          m.HashFlags(flags),
		DirectDependencies:   directDeps,
		ImplicitDependencies: implicitDeps,
		SourceTimestamp:      domain.Now(),
		BuildTimestamp:       domain.Now(),
		BuildDurationMs:      duration.Milliseconds(),
	}

	m.mu.Lock()
	m.records[name] = rec
	delete(m.dirty, name)
	m.mu.Unlock()
	return nil
}

// Record returns name's current ArtifactRecord and whether one exists.
func (m *Manager) Record(name string) (domain.ArtifactRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[name]
	return rec, ok
}

// CheckDirty runs the nine-step prioritized dirty-check algorithm of §4.3
// for a single target. Toolchain comparison uses whatever identity the most
// recent SetToolchain call recorded as "current".
func (m *Manager) CheckDirty(name, outputPath string, sources []string, flags []string) (domain.DirtyReason, error) {
	if _, err := os.Stat(outputPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.MissingArtifact, nil
		}
		return domain.Clean, zerr.With(zerr.Wrap(err, "failed to stat output artifact"), "path", outputPath)
	}

	rec, ok := m.Record(name)
	if !ok {
		return domain.MissingRecord, nil
	}

	m.mu.RLock()
	propagated := m.dirty[name]
	m.mu.RUnlock()
	if propagated {
		return domain.DependencyDirty, nil
	}

	if m.ToolchainChanged() {
		return domain.ToolchainChanged, nil
	}

	if m.HashFlags(flags) != rec.CommandHash {
		return domain.FlagsChanged, nil
	}

	sourceHash, err := m.HashFiles(sources)
	if err != nil {
		return domain.Clean, err
	}
	if sourceHash != rec.SourceHash {
		return domain.SourceChanged, nil
	}

	for _, dep := range rec.DirectDependencies {
		current, err := m.HashFile(dep.Path)
		if err != nil {
			return domain.DependencyChanged, nil //nolint:nilerr // a vanished dependency file counts as changed
		}
		if current != dep.Hash {
			return domain.DependencyChanged, nil
		}
	}

	for _, dep := range rec.ImplicitDependencies {
		info, err := os.Stat(dep)
		if err != nil {
			return domain.ImplicitDepChanged, nil
		}
		if info.ModTime().Unix() > rec.BuildTimestamp {
			return domain.ImplicitDepChanged, nil
		}
	}

	return domain.Clean, nil
}
