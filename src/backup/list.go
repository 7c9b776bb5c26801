package backup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"webstack-optimizer/src/tag"
)

// List returns every backup under the root, oldest first. A missing root is
// not an error.
func (m *Manager) List() ([]Entry, error) {
	names, err := readDirNames(m.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		e := Entry{Tag: name, Path: m.Path(name)}
		rec, err := m.Load(name)
		switch {
		case err == nil:
			e.CreatedAt = rec.BackupTime
			e.Files = rec.Files
		default:
			m.log.Debug("backup without readable metadata", zap.String("tag", name), zap.Error(err))
			if ts, ok := tag.Time(name); ok {
				e.CreatedAt = ts
			} else if info, statErr := os.Stat(e.Path); statErr == nil {
				e.CreatedAt = info.ModTime()
			}
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Tag < b.Tag
	})
	return entries, nil
}

// PruneCandidates returns the backups that would be removed to keep only the
// newest keep entries, oldest first.
func (m *Manager) PruneCandidates(keep int) ([]Entry, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep must be >= 0, got %d", keep)
	}
	entries, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(entries) <= keep {
		return nil, nil
	}
	return entries[:len(entries)-keep], nil
}

// Verify re-hashes the files of tag against its checksums.txt.
func (m *Manager) Verify(raw string) (VerifyResult, error) {
	t, err := tag.Parse(raw)
	if err != nil {
		return VerifyResult{}, err
	}
	dir := m.Path(t)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return VerifyResult{}, fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	res := VerifyResult{Tag: t, Path: dir}
	res.Status, res.Problems = verifyDir(dir)
	return res, nil
}

// VerifyAll verifies every backup, a few at a time. Results follow List order.
func (m *Manager) VerifyAll(ctx context.Context) ([]VerifyResult, error) {
	entries, err := m.List()
	if err != nil {
		return nil, err
	}
	out := make([]VerifyResult, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			status, problems := verifyDir(e.Path)
			out[i] = VerifyResult{Tag: e.Tag, Status: status, Problems: problems, Path: e.Path}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func verifyDir(dir string) (string, []string) {
	f, err := os.Open(filepath.Join(dir, ChecksumsFile))
	if err != nil {
		return StatusMissing, []string{err.Error()}
	}
	defer f.Close()
	var problems []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// <sha256>  <name>
		want, name, ok := strings.Cut(line, "  ")
		if !ok {
			problems = append(problems, "malformed line: "+line)
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			problems = append(problems, "unsafe path: "+name)
			continue
		}
		sum, err := sha256File(filepath.Join(dir, filepath.FromSlash(name)))
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
		case !strings.EqualFold(want, sum):
			problems = append(problems, name+": checksum mismatch")
		}
	}
	if err := scanner.Err(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return StatusMismatch, problems
	}
	return StatusOK, nil
}

func readDirNames(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		// skip hidden
		if strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
