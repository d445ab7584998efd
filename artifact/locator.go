package artifact

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// Locator decides which artifact root inference reads from.
//
// With an explicit root it is the only candidate. Otherwise the candidates,
// in priority order, are <cwd>/artifacts, <executable dir>/artifacts and
// <nearest ancestor of cwd holding go.mod>/artifacts. Candidates are resolved
// once, when the Locator is built.
type Locator struct {
	Candidates []string
}

// NewLocator resolves candidate roots. explicit may be empty.
func NewLocator(explicit string) (*Locator, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve artifact root %s", explicit)
		}
		return &Locator{Candidates: []string{abs}}, nil
	}

	var roots []string
	cwd, cwdErr := os.Getwd()
	if cwdErr == nil {
		roots = append(roots, filepath.Join(cwd, DirName))
	}
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		roots = append(roots, filepath.Join(filepath.Dir(exe), DirName))
	}
	if cwdErr == nil {
		if proj, ok := ProjectRoot(cwd); ok {
			roots = append(roots, filepath.Join(proj, DirName))
		}
	}
	if len(roots) == 0 {
		return nil, errors.Wrap(cwdErr, "no artifact root candidates")
	}
	return &Locator{Candidates: dedupe(roots)}, nil
}

// NewLocatorWithCandidates builds a Locator over a fixed candidate list.
func NewLocatorWithCandidates(roots ...string) *Locator {
	return &Locator{Candidates: dedupe(roots)}
}

// Locate returns the first candidate root that holds every named file.
// When none does, the ArtifactNotFoundError lists every file path searched.
func (l *Locator) Locate(names ...string) (Store, error) {
	var searched []string
	for _, root := range l.Candidates {
		s := NewStore(root)
		if s.Has(names...) {
			return s, nil
		}
		for _, n := range names {
			searched = append(searched, s.Path(n))
		}
	}
	return Store{}, errors.NewArtifactNotFoundError(strings.Join(names, ", "), searched)
}

// RootStatus describes one candidate root for diagnostics.
type RootStatus struct {
	Root   string
	Exists bool
	Files  []string
}

// Diagnose lists every candidate root and the files it contains.
func (l *Locator) Diagnose() []RootStatus {
	out := make([]RootStatus, 0, len(l.Candidates))
	for _, root := range l.Candidates {
		st := RootStatus{Root: root}
		entries, err := os.ReadDir(root)
		if err == nil {
			st.Exists = true
			for _, e := range entries {
				if !e.IsDir() {
					st.Files = append(st.Files, e.Name())
				}
			}
			sort.Strings(st.Files)
		}
		out = append(out, st)
	}
	return out
}

// ProjectRoot walks up from dir to the nearest directory holding go.mod.
func ProjectRoot(dir string) (string, bool) {
	dir = filepath.Clean(dir)
	for {
		if info, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func dedupe(roots []string) []string {
	seen := make(map[string]bool, len(roots))
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		r = filepath.Clean(r)
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
