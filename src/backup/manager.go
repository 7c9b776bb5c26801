package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"webstack-optimizer/src/tag"
)

// Manager snapshots a fixed list of watched files into <root>/<tag>/ and
// restores them by tag.
type Manager struct {
	root  string
	base  string
	files []string
	now   func() time.Time
	host  string
	log   *zap.Logger
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func WithLogger(log *zap.Logger) Option { return func(m *Manager) { m.log = log } }

func WithHost(host string) Option { return func(m *Manager) { m.host = host } }

// New returns a Manager storing backups under root. Relative watched files are
// resolved against base.
func New(root, base string, files []string, opts ...Option) *Manager {
	m := &Manager{root: root, base: base, files: append([]string(nil), files...), now: time.Now, log: zap.NewNop()}
	if h, err := os.Hostname(); err == nil {
		m.host = h
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Root returns the directory holding all backup tags.
func (m *Manager) Root() string { return m.root }

// Path returns the directory for tag without checking that it exists.
func (m *Manager) Path(t string) string { return filepath.Join(m.root, t) }

// Create copies every watched file that exists into the tag directory and
// writes metadata.json and checksums.txt. An empty tag is derived from the
// current local time. Returns the backup directory.
func (m *Manager) Create(raw string) (string, error) {
	t := raw
	if strings.TrimSpace(t) == "" {
		t = tag.New(m.now())
	} else {
		var err error
		if t, err = tag.Parse(raw); err != nil {
			return "", err
		}
	}
	dir := m.Path(t)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	copied := make([]string, 0, len(m.files))
	for _, f := range m.files {
		src := m.resolve(f)
		info, err := os.Stat(src)
		if errors.Is(err, fs.ErrNotExist) {
			m.log.Debug("watched file missing, skipping", zap.String("file", f))
			continue
		}
		if err != nil {
			return "", err
		}
		if info.IsDir() {
			m.log.Warn("watched path is a directory, skipping", zap.String("file", f))
			continue
		}
		name := m.storedName(f)
		if err := copyFile(src, filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			return "", fmt.Errorf("backup %s: %w", f, err)
		}
		copied = append(copied, name)
	}

	rec := Record{ID: uuid.NewString(), Tag: t, BackupTime: m.now(), Host: m.host, Files: copied}
	if err := writeJSON(filepath.Join(dir, MetadataFile), rec); err != nil {
		return "", err
	}
	if err := writeChecksums(dir, append(append([]string(nil), copied...), MetadataFile)); err != nil {
		return "", err
	}
	m.log.Info("backup created", zap.String("tag", t), zap.String("dir", dir), zap.Strings("files", copied))
	return dir, nil
}

// Restore copies every file recorded under tag back to its original
// location. A missing tag directory yields ErrNotFound and touches nothing.
func (m *Manager) Restore(raw string) (RestoreResult, error) {
	t, names, err := m.restorePlan(raw)
	if err != nil {
		return RestoreResult{}, err
	}
	dir := m.Path(t)
	res := RestoreResult{Tag: t}
	for _, name := range names {
		src := filepath.Join(dir, filepath.FromSlash(name))
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			res.Skipped = append(res.Skipped, name)
			continue
		} else if err != nil {
			return res, err
		}
		if err := copyFile(src, m.sourcePath(name)); err != nil {
			return res, fmt.Errorf("restore %s: %w", name, err)
		}
		res.Restored = append(res.Restored, name)
	}
	m.log.Info("backup restored", zap.String("tag", t), zap.Strings("restored", res.Restored), zap.Strings("skipped", res.Skipped))
	return res, nil
}

// Preview reports what Restore would copy back without touching any file.
func (m *Manager) Preview(raw string) (RestoreResult, error) {
	t, names, err := m.restorePlan(raw)
	if err != nil {
		return RestoreResult{}, err
	}
	res := RestoreResult{Tag: t}
	for _, name := range names {
		_, err := os.Stat(filepath.Join(m.Path(t), filepath.FromSlash(name)))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			res.Skipped = append(res.Skipped, name)
		case err != nil:
			return res, err
		default:
			res.Restored = append(res.Restored, name)
		}
	}
	return res, nil
}

// restorePlan validates tag, checks that its directory exists and returns
// the safe stored names to restore.
func (m *Manager) restorePlan(raw string) (string, []string, error) {
	t, err := tag.Parse(raw)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(m.Path(t))
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return "", nil, fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	if err != nil {
		return "", nil, err
	}
	var names []string
	for _, name := range m.restoreList(t) {
		if !validStoredName(name) {
			m.log.Warn("ignoring unsafe file name in metadata", zap.String("tag", t), zap.String("file", name))
			continue
		}
		names = append(names, name)
	}
	return t, names, nil
}

// Load reads the metadata record of tag.
func (m *Manager) Load(raw string) (Record, error) {
	t, err := tag.Parse(raw)
	if err != nil {
		return Record{}, err
	}
	b, err := os.ReadFile(filepath.Join(m.Path(t), MetadataFile))
	if errors.Is(err, fs.ErrNotExist) {
		if _, statErr := os.Stat(m.Path(t)); errors.Is(statErr, fs.ErrNotExist) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, t)
		}
		return Record{}, err
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, fmt.Errorf("parse %s: %w", MetadataFile, err)
	}
	return rec, nil
}

// Remove deletes the tag directory.
func (m *Manager) Remove(raw string) error {
	t, err := tag.Parse(raw)
	if err != nil {
		return err
	}
	dir := m.Path(t)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	m.log.Info("backup removed", zap.String("tag", t))
	return nil
}

// restoreList prefers the metadata record and falls back to the watch list
// when the record is unreadable.
func (m *Manager) restoreList(t string) []string {
	rec, err := m.Load(t)
	if err == nil {
		return rec.Files
	}
	m.log.Warn("metadata unreadable, using watched files", zap.String("tag", t), zap.Error(err))
	names := make([]string, 0, len(m.files))
	for _, f := range m.files {
		names = append(names, m.storedName(f))
	}
	return names
}

func (m *Manager) resolve(f string) string {
	if filepath.IsAbs(f) {
		return f
	}
	return filepath.Join(m.base, f)
}

// storedName maps a watched file to its slash-separated path inside a tag
// directory. Files outside the project directory keep their absolute path
// under absPrefix.
func (m *Manager) storedName(f string) string {
	abs := m.resolve(f)
	if base, err := filepath.Abs(m.base); err == nil {
		if a, err := filepath.Abs(abs); err == nil {
			if rel, err := filepath.Rel(base, a); err == nil && filepath.IsLocal(rel) {
				return filepath.ToSlash(rel)
			}
			abs = a
		}
	}
	return absPrefix + strings.TrimPrefix(filepath.ToSlash(abs), "/")
}

func (m *Manager) sourcePath(name string) string {
	if rest, ok := strings.CutPrefix(name, absPrefix); ok {
		return string(filepath.Separator) + filepath.FromSlash(rest)
	}
	return filepath.Join(m.base, filepath.FromSlash(name))
}

func validStoredName(name string) bool {
	return name != "" && name != MetadataFile && name != ChecksumsFile && filepath.IsLocal(filepath.FromSlash(name))
}
