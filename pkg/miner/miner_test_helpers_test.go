package miner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"

	"github.com/archlens/adl-diff-miner/pkg/gitlib"
)

// testRepo builds real on-disk repositories for integration-style tests,
// mirroring pkg/gitlib's own test harness.
type testRepo struct {
	t      *testing.T
	path   string
	native *git2go.Repository
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &testRepo{t: t, path: dir, native: repo}
}

func (tr *testRepo) writeFile(name, content string) {
	tr.t.Helper()

	path := filepath.Join(tr.path, name)
	dir := filepath.Dir(path)

	if dir != tr.path {
		require.NoError(tr.t, os.MkdirAll(dir, 0o755))
	}

	require.NoError(tr.t, os.WriteFile(path, []byte(content), 0o644))
}

func (tr *testRepo) removeFile(name string) {
	tr.t.Helper()

	require.NoError(tr.t, os.Remove(filepath.Join(tr.path, name)))
}

// commitAt creates a commit with author/committer time `when`.
func (tr *testRepo) commitAt(message string, when time.Time) gitlib.Hash {
	tr.t.Helper()

	index, err := tr.native.Index()
	require.NoError(tr.t, err)

	defer index.Free()

	require.NoError(tr.t, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
	require.NoError(tr.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(tr.t, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.t, err)

	defer tree.Free()

	sig := &git2go.Signature{Name: "Test User", Email: "test@example.com", When: when}

	var parents []*git2go.Commit

	head, headErr := tr.native.Head()
	if headErr == nil {
		parentCommit, lookupErr := tr.native.LookupCommit(head.Target())
		require.NoError(tr.t, lookupErr)

		parents = append(parents, parentCommit)

		defer parentCommit.Free()

		head.Free()
	}

	oid, err := tr.native.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(tr.t, err)

	return gitlib.HashFromOid(oid)
}

func (tr *testRepo) commit(message string) gitlib.Hash {
	tr.t.Helper()

	return tr.commitAt(message, time.Now())
}

// commitWithParents creates a commit whose parents are exactly the given
// commits, for exercising merge-commit handling.
func (tr *testRepo) commitWithParents(message string, parents ...*gitlib.Commit) gitlib.Hash {
	tr.t.Helper()

	index, err := tr.native.Index()
	require.NoError(tr.t, err)

	defer index.Free()

	require.NoError(tr.t, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
	require.NoError(tr.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(tr.t, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.t, err)

	defer tree.Free()

	sig := &git2go.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()}

	nativeParents := make([]*git2go.Commit, len(parents))
	for i, p := range parents {
		nativeParents[i] = p.Native()
	}

	oid, err := tr.native.CreateCommit("HEAD", sig, sig, message, tree, nativeParents...)
	require.NoError(tr.t, err)

	return gitlib.HashFromOid(oid)
}

func (tr *testRepo) openRepo() *gitlib.Repository {
	tr.t.Helper()

	repo, err := gitlib.OpenRepository(tr.path)
	require.NoError(tr.t, err)

	tr.t.Cleanup(repo.Free)

	return repo
}
