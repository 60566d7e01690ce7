package miner

import (
	"bufio"
	"strings"
	"unicode/utf8"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/src-d/enry/v2"

	"github.com/archlens/adl-diff-miner/pkg/gitlib"
)

// normalizeResult carries a normalized FileChange plus whether the patch was
// skipped as undecodable, since the caller (Assembler) needs to warn on
// decode failure without the Normalizer depending on a logger.
type normalizeResult struct {
	Change FileChange
	// Skipped is true when the patch text could not be decoded as UTF-8; the
	// Assembler must drop the file and surface a warning.
	Skipped bool
}

// normalizeFilePatch converts a raw gitlib.FilePatch into a FileChange. It
// never returns an error: undecodable patches and unavailable content are
// signaled through the result's fields rather than failing the caller.
func normalizeFilePatch(fp gitlib.FilePatch, contentLookup func(path string) ([]byte, bool)) normalizeResult {
	path := fp.NewPath
	if path == "" {
		path = fp.OldPath
	}

	change := FileChange{
		Path:      path,
		Status:    statusForDelta(fp),
		Extension: extensionOf(path),
	}

	if fp.Status == git2go.DeltaRenamed && fp.OldPath != fp.NewPath {
		change.PreviousPath = fp.OldPath
	}

	if fp.Binary {
		change.Hunks = []Hunk{}
		change.Stats = Stats{}

		return normalizeResult{Change: change}
	}

	if !utf8.ValidString(fp.Hunks) {
		return normalizeResult{Skipped: true}
	}

	hunks, stats := parseHunks(fp.Hunks)
	change.Hunks = hunks
	change.Stats = stats

	if contentLookup != nil {
		lookupPath := path
		if content, ok := contentLookup(lookupPath); ok {
			if lang, ok := detectLanguage(lookupPath, content); ok {
				change.Language = &lang
			}
		}
	}

	return normalizeResult{Change: change}
}

// detectLanguage derives a language name from a basename and its content,
// returning false when enry cannot make a determination.
func detectLanguage(path string, content []byte) (string, bool) {
	base := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		base = path[idx+1:]
	}

	lang := enry.GetLanguage(base, content)
	if lang == "" {
		return "", false
	}

	return lang, true
}

// statusForDelta maps a libgit2 delta status to the record's status enum.
func statusForDelta(fp gitlib.FilePatch) string {
	switch fp.Status {
	case git2go.DeltaAdded, git2go.DeltaCopied:
		return StatusAdded
	case git2go.DeltaDeleted:
		return StatusDeleted
	case git2go.DeltaRenamed:
		return StatusRenamed
	default:
		return StatusModified
	}
}

// extensionOf returns the lowercase suffix of path, including the leading
// dot, or "" when path has no extension.
func extensionOf(path string) string {
	base := path

	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		base = path[idx+1:]
	}

	idx := strings.LastIndexByte(base, '.')
	if idx <= 0 {
		return ""
	}

	return strings.ToLower(base[idx:])
}

// parseHunks splits unified diff text into structured Hunk values, counting
// added/removed lines as it goes.
func parseHunks(text string) ([]Hunk, Stats) {
	hunks := make([]Hunk, 0)

	var stats Stats

	var current *Hunk

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "@@"):
			hunks = append(hunks, Hunk{Header: line})
			current = &hunks[len(hunks)-1]
		case current == nil:
			// Lines before the first hunk header (file headers, "diff --git"
			// preamble) are not part of any hunk's content.
			continue
		case strings.HasPrefix(line, "+"):
			current.Added = append(current.Added, line)
			stats.Additions++
		case strings.HasPrefix(line, "-"):
			current.Removed = append(current.Removed, line)
			stats.Deletions++
		default:
			current.Context = append(current.Context, line)
		}
	}

	for i := range hunks {
		if hunks[i].Added == nil {
			hunks[i].Added = []string{}
		}

		if hunks[i].Removed == nil {
			hunks[i].Removed = []string{}
		}

		if hunks[i].Context == nil {
			hunks[i].Context = []string{}
		}
	}

	return hunks, stats
}
