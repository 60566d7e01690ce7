package miner

import (
	"log/slog"
	"sort"
	"time"

	"github.com/archlens/adl-diff-miner/pkg/gitlib"
)

// Config holds the Record Assembler's tunable behavior, sourced from
// internal/config.
type Config struct {
	ADLPath        string
	CodeExtensions []string
	ContextDays    int
}

// Assembler orchestrates per-commit record construction.
type Assembler struct {
	repo    *gitlib.Repository
	matcher matcher
	exts    map[string]struct{}
	days    int
	logger  *slog.Logger
	metrics MetricsSink
	now     func() time.Time
}

// NewAssembler builds an Assembler over repo using cfg. logger receives
// per-item warnings; it must not be nil. metrics receives a Warning
// observation alongside every warning logged; pass NoopMetrics when no
// metrics backend is wired in.
func NewAssembler(repo *gitlib.Repository, cfg Config, logger *slog.Logger, metrics MetricsSink) *Assembler {
	exts := make(map[string]struct{}, len(cfg.CodeExtensions))
	for _, ext := range cfg.CodeExtensions {
		exts[normalizeExtension(ext)] = struct{}{}
	}

	return &Assembler{
		repo:    repo,
		matcher: newExactPathMatcher(cfg.ADLPath),
		exts:    exts,
		days:    cfg.ContextDays,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// warn logs a per-item warning and records it on the metrics sink.
func (a *Assembler) warn(msg string, args ...any) {
	a.logger.Warn(msg, args...)
	a.metrics.Warning()
}

func normalizeExtension(ext string) string {
	if ext == "" {
		return ext
	}

	if ext[0] != '.' {
		ext = "." + ext
	}

	return toLowerASCII(ext)
}

func toLowerASCII(s string) string {
	b := []byte(s)

	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}

	return string(b)
}

// Assemble builds a Record for commit, or reports that it should be skipped.
// A non-nil error indicates an unrecoverable failure reading the repository;
// skip decisions driven by the invariants in the record schema are reported
// via the boolean return, not an error.
func (a *Assembler) Assemble(commit *gitlib.Commit) (*Record, bool, error) {
	if commit.NumParents() == 0 {
		a.logger.Info("root commit skipped", "hash", commit.Hash().String())

		return nil, false, nil
	}

	parent, err := commit.Parent(0)
	if err != nil {
		return nil, false, err
	}
	defer parent.Free()

	isMerge := commit.NumParents() > 1

	patches, err := a.repo.Patch(parent, commit)
	if err != nil {
		return nil, false, err
	}

	lookup := contentLookupFor(a.repo, parent, commit)

	var adlCandidates []FileChange

	var codeDiffs []FileChange

	for _, fp := range patches {
		switch {
		case a.matcher.Match(fp.NewPath) || a.matcher.Match(fp.OldPath):
			result := normalizeFilePatch(fp, lookup)
			if result.Skipped {
				a.warn("skipping undecodable ADL patch", "commit", commit.Hash().String(), "path", fp.NewPath)

				continue
			}

			adlCandidates = append(adlCandidates, result.Change)
		case a.acceptsExtension(fp):
			result := normalizeFilePatch(fp, lookup)
			if result.Skipped {
				a.warn("skipping undecodable code patch", "commit", commit.Hash().String(), "path", fp.NewPath)

				continue
			}

			codeDiffs = append(codeDiffs, result.Change)
		}
	}

	if len(adlCandidates) == 0 {
		a.logger.Info("commit has no usable ADL change", "hash", commit.Hash().String())

		return nil, false, nil
	}

	adlDiff := selectADLChange(adlCandidates)
	if len(adlCandidates) > 1 {
		a.warn("multiple ADL patches matched, selected first by path", "commit", commit.Hash().String(), "selected", adlDiff.Path)
	}

	if len(adlDiff.Hunks) == 0 || (adlDiff.Stats == (Stats{}) && len(codeDiffs) == 0) {
		a.warn("skipping commit whose ADL patch yields no content", "commit", commit.Hash().String(), "path", adlDiff.Path)

		return nil, false, nil
	}

	filesAnalyzed := dedupPaths(codeDiffs)

	signals := buildContextSignals(a.repo, parent, filesAnalyzed, a.days, func(pe pathAnalysisError) {
		a.warn("context analysis failed for path, zero-filling", "commit", commit.Hash().String(), "path", pe.Path, "err", pe.Err)
	})

	if codeDiffs == nil {
		codeDiffs = []FileChange{}
	}

	author := commit.Author()
	committer := commit.Committer()

	record := &Record{
		Commit: CommitRef{
			Hash:        commit.Hash().String(),
			ParentHash:  parent.Hash().String(),
			AuthoredAt:  timestamp(author.When),
			CommittedAt: timestamp(committer.When),
			Author:      Person{Name: author.Name, Email: author.Email},
			Committer:   personOrFallback(committer, author),
			IsMerge:     isMerge,
			Message:     commit.Message(),
		},
		Intent: Intent{
			Message: commit.Message(),
			Source:  IntentSource{Type: "commit_message"},
		},
		ADLDiff:        adlDiff,
		CodeDiffs:      codeDiffs,
		ContextSignals: signals,
		Metadata: Metadata{
			DatasetVersion: datasetVersion,
			GeneratedAt:    timestamp(a.now()),
		},
	}

	return record, true, nil
}

// personOrFallback returns committer, or author when committer is entirely
// empty (missing committer identity falls back to the commit's author).
func personOrFallback(committer, author gitlib.Signature) Person {
	if committer.Name == "" && committer.Email == "" {
		return Person{Name: author.Name, Email: author.Email}
	}

	return Person{Name: committer.Name, Email: committer.Email}
}

func (a *Assembler) acceptsExtension(fp gitlib.FilePatch) bool {
	path := fp.NewPath
	if path == "" {
		path = fp.OldPath
	}

	_, ok := a.exts[extensionOf(path)]

	return ok
}

// selectADLChange picks the first ADL candidate by ascending path.
func selectADLChange(candidates []FileChange) FileChange {
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Path < candidates[j].Path
	})

	return candidates[0]
}

// dedupPaths returns the ordered, deduplicated post-image paths of changes.
func dedupPaths(changes []FileChange) []string {
	seen := make(map[string]struct{}, len(changes))
	paths := make([]string, 0, len(changes))

	for _, c := range changes {
		if _, ok := seen[c.Path]; ok {
			continue
		}

		seen[c.Path] = struct{}{}

		paths = append(paths, c.Path)
	}

	return paths
}

// contentLookupFor builds a content lookup that prefers the child commit's
// tree (added/modified files) and falls back to the parent's tree (deleted
// files), returning false when the path cannot be found in either.
func contentLookupFor(repo *gitlib.Repository, parent, child *gitlib.Commit) func(path string) ([]byte, bool) {
	return func(path string) ([]byte, bool) {
		if data, ok := blobContentAt(repo, child, path); ok {
			return data, true
		}

		if data, ok := blobContentAt(repo, parent, path); ok {
			return data, true
		}

		return nil, false
	}
}

func blobContentAt(repo *gitlib.Repository, commit *gitlib.Commit, path string) ([]byte, bool) {
	if commit == nil {
		return nil, false
	}

	file, err := commit.File(path)
	if err != nil {
		return nil, false
	}

	// Cache the blob rather than reading it through repo.LookupBlob directly:
	// the diff-level Binary flag on the FilePatch describes the hunk libgit2
	// rendered, not necessarily the exact blob handed to language detection
	// here (the lookup can fall back to the parent tree for deleted files),
	// so IsBinary is re-checked against the actual bytes before they reach enry.
	cached, err := gitlib.NewCachedBlobFromRepo(repo, file.Hash)
	if err != nil {
		return nil, false
	}

	if cached.IsBinary() {
		return nil, false
	}

	return cached.Data, true
}
