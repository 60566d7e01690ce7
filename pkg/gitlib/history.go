package gitlib

import (
	"fmt"
	"time"

	git2go "github.com/libgit2/git2go/v34"
)

// HistoryForPath returns the commits, newest first, that touched path along
// the first-parent chain reachable from anchor, restricted to the closed
// window [since, until] (both ends included). Renames are followed backward: once a commit is
// found to have renamed path from an older name, older commits are matched
// against that older name instead.
func (r *Repository) HistoryForPath(anchor *Commit, path string, since, until time.Time) ([]*Commit, error) {
	walk, err := r.Walk()
	if err != nil {
		return nil, err
	}
	defer walk.Free()

	if pushErr := walk.Push(anchor.Hash()); pushErr != nil {
		return nil, pushErr
	}

	walk.Sorting(git2go.SortTime | git2go.SortTopological)
	walk.SimplifyFirstParent()

	currentPath := path

	var commits []*Commit

	for {
		hash, nextErr := walk.Next()
		if nextErr != nil {
			break
		}

		wrapped, lookupErr := r.LookupCommit(hash)
		if lookupErr != nil {
			continue
		}

		when := wrapped.Committer().When
		if when.After(until) {
			wrapped.Free()

			continue
		}

		if when.Before(since) {
			wrapped.Free()

			break
		}

		touched, renamedFrom, touchErr := r.pathTouchedIn(wrapped, currentPath)
		if touchErr != nil {
			wrapped.Free()

			return nil, touchErr
		}

		if !touched {
			wrapped.Free()

			continue
		}

		commits = append(commits, wrapped)

		if renamedFrom != "" {
			currentPath = renamedFrom
		}
	}

	return commits, nil
}

// pathTouchedIn reports whether commit's first-parent diff touches path, and
// if the touch is a rename, the path's name before the rename.
func (r *Repository) pathTouchedIn(commit *Commit, path string) (touched bool, renamedFrom string, err error) {
	var parentTree *Tree

	if commit.NumParents() > 0 {
		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return false, "", parentErr
		}
		defer parent.Free()

		tree, treeErr := parent.Tree()
		if treeErr != nil {
			return false, "", fmt.Errorf("get parent tree: %w", treeErr)
		}
		defer tree.Free()

		parentTree = tree
	}

	tree, err := commit.Tree()
	if err != nil {
		return false, "", fmt.Errorf("get commit tree: %w", err)
	}
	defer tree.Free()

	var changes Changes

	if parentTree == nil {
		changes, err = InitialTreeChanges(r, tree)
	} else {
		changes, err = TreeDiff(r, parentTree, tree)
	}

	if err != nil {
		return false, "", err
	}

	for _, change := range changes {
		if change.To.Name != path {
			continue
		}

		if change.Status == git2go.DeltaRenamed && change.From.Name != path {
			return true, change.From.Name, nil
		}

		return true, "", nil
	}

	return false, "", nil
}
