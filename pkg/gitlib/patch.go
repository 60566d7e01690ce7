package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// FilePatch is one file's entry in the diff between two commits: its identity
// (old/new path, rename/copy status) and, for non-binary files, the unified
// diff hunks as produced by libgit2.
type FilePatch struct {
	OldPath string
	NewPath string
	Status  git2go.Delta
	Binary  bool
	// Hunks holds the unified diff text (the "@@ ... @@" hunks and their
	// +/-/space lines), empty for binary files.
	Hunks string
}

// Patch computes the per-file patches between parent and child. parent may be
// nil, in which case every file in child's tree is reported as added. Rename
// and copy detection use git's default similarity threshold.
func (r *Repository) Patch(parent, child *Commit) ([]FilePatch, error) {
	var oldTree *Tree

	if parent != nil {
		tree, err := parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("get parent tree: %w", err)
		}
		defer tree.Free()

		oldTree = tree
	}

	newTree, err := child.Tree()
	if err != nil {
		return nil, fmt.Errorf("get child tree: %w", err)
	}
	defer newTree.Free()

	diff, err := r.DiffTreeToTree(oldTree, newTree)
	if err != nil {
		return nil, err
	}
	defer diff.Free()

	numDeltas, err := diff.NumDeltas()
	if err != nil {
		return nil, fmt.Errorf("get num deltas: %w", err)
	}

	patches := make([]FilePatch, 0, numDeltas)

	for i := range numDeltas {
		delta, deltaErr := diff.diff.Delta(i)
		if deltaErr != nil {
			continue
		}

		fp := FilePatch{
			OldPath: delta.OldFile.Path,
			NewPath: delta.NewFile.Path,
			Status:  delta.Status,
			Binary:  delta.Flags&git2go.DiffFlagBinary != 0,
		}

		if !fp.Binary {
			text, textErr := patchText(diff.diff, i)
			if textErr != nil {
				return nil, textErr
			}

			fp.Hunks = text
		}

		patches = append(patches, fp)
	}

	return patches, nil
}

// patchText renders the unified diff text for the delta at index i.
func patchText(diff *git2go.Diff, index int) (string, error) {
	patch, err := diff.Patch(index)
	if err != nil {
		return "", fmt.Errorf("build patch for delta %d: %w", index, err)
	}
	defer patch.Free()

	text, err := patch.String()
	if err != nil {
		return "", fmt.Errorf("render patch for delta %d: %w", index, err)
	}

	return text, nil
}
