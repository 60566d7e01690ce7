package gitlib_test

import (
	"strings"
	"testing"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/adl-diff-miner/pkg/gitlib"
)

func TestRepositoryPatchModified(t *testing.T) {
	tr := newTestRepo(t)
	defer tr.cleanup()

	tr.createFile("file.txt", "line one\nline two\n")
	firstHash := tr.commit("first")

	tr.createFile("file.txt", "line one\nline two changed\n")
	secondHash := tr.commit("second")

	repo, err := gitlib.OpenRepository(tr.path)
	require.NoError(t, err)

	defer repo.Free()

	first, err := repo.LookupCommit(firstHash)
	require.NoError(t, err)

	defer first.Free()

	second, err := repo.LookupCommit(secondHash)
	require.NoError(t, err)

	defer second.Free()

	patches, err := repo.Patch(first, second)
	require.NoError(t, err)
	require.Len(t, patches, 1)

	fp := patches[0]
	assert.Equal(t, "file.txt", fp.NewPath)
	assert.False(t, fp.Binary)
	assert.Contains(t, fp.Hunks, "@@")
}

func TestRepositoryPatchRootCommit(t *testing.T) {
	tr := newTestRepo(t)
	defer tr.cleanup()

	tr.createFile("a.txt", "a")
	tr.createFile("b.txt", "b")
	commitHash := tr.commit("initial")

	repo, err := gitlib.OpenRepository(tr.path)
	require.NoError(t, err)

	defer repo.Free()

	commit, err := repo.LookupCommit(commitHash)
	require.NoError(t, err)

	defer commit.Free()

	patches, err := repo.Patch(nil, commit)
	require.NoError(t, err)
	assert.Len(t, patches, 2)

	for _, fp := range patches {
		assert.Equal(t, git2go.DeltaAdded, fp.Status)
	}
}

func TestRepositoryPatchBinary(t *testing.T) {
	tr := newTestRepo(t)
	defer tr.cleanup()

	tr.createFile("data.bin", "binary\x00content")
	commitHash := tr.commit("add binary")

	repo, err := gitlib.OpenRepository(tr.path)
	require.NoError(t, err)

	defer repo.Free()

	commit, err := repo.LookupCommit(commitHash)
	require.NoError(t, err)

	defer commit.Free()

	patches, err := repo.Patch(nil, commit)
	require.NoError(t, err)
	require.Len(t, patches, 1)

	assert.True(t, patches[0].Binary)
	assert.Empty(t, patches[0].Hunks)
}

func TestRepositoryPatchRename(t *testing.T) {
	tr := newTestRepo(t)
	defer tr.cleanup()

	content := strings.Repeat("stable content line\n", 20)
	tr.createFile("old_name.txt", content)
	firstHash := tr.commit("first")

	tr.deleteFile("old_name.txt")
	tr.createFile("new_name.txt", content)
	secondHash := tr.commit("second")

	repo, err := gitlib.OpenRepository(tr.path)
	require.NoError(t, err)

	defer repo.Free()

	first, err := repo.LookupCommit(firstHash)
	require.NoError(t, err)

	defer first.Free()

	second, err := repo.LookupCommit(secondHash)
	require.NoError(t, err)

	defer second.Free()

	patches, err := repo.Patch(first, second)
	require.NoError(t, err)
	require.NotEmpty(t, patches)
}
