package miner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContextSignalsAggregates(t *testing.T) {
	tr := newTestRepo(t)

	base := time.Now().Add(-30 * 24 * time.Hour)

	tr.writeFile("svc/logging/config.py", "v1")
	tr.commitAt("initial", base)

	tr.writeFile("svc/logging/config.py", "v2")
	tr.commitAt("tweak", base.Add(10*24*time.Hour))

	tr.writeFile("svc/logging/config.py", "v3")
	parentHash := tr.commitAt("parent", base.Add(20*24*time.Hour))

	repo := tr.openRepo()

	parent, err := repo.LookupCommit(parentHash)
	require.NoError(t, err)

	defer parent.Free()

	var warnings []pathAnalysisError

	signals := buildContextSignals(repo, parent, []string{"svc/logging/config.py"}, 90, func(pe pathAnalysisError) {
		warnings = append(warnings, pe)
	})

	assert.Empty(t, warnings)
	assert.Equal(t, parent.Hash().String(), signals.AnalysisParentHash)
	assert.Equal(t, 90, signals.AnalysisTimespanDays)
	assert.Equal(t, []string{"svc/logging/config.py"}, signals.FilesAnalyzed)
	require.Len(t, signals.PerFileStats, 1)

	stat := signals.PerFileStats[0]
	assert.Equal(t, 3, stat.ChurnCount)
	assert.Equal(t, 1, stat.UniqueAuthors)
	assert.InDelta(t, 0, stat.LastModifiedDaysAgo, 0.01)
	assert.Equal(t, []string{"test@example.com"}, stat.TopAuthors)

	assert.Equal(t, 3, signals.AggregateStats.TotalCommits)
	assert.Equal(t, 1, signals.AggregateStats.TotalUniqueAuthors)
}

func TestBuildContextSignalsEmptyFiles(t *testing.T) {
	tr := newTestRepo(t)

	tr.writeFile("adl.yaml", "root")
	hash := tr.commit("root")

	repo := tr.openRepo()

	commit, err := repo.LookupCommit(hash)
	require.NoError(t, err)

	defer commit.Free()

	signals := buildContextSignals(repo, commit, []string{}, 90, nil)

	assert.Equal(t, []string{}, signals.FilesAnalyzed)
	assert.Empty(t, signals.PerFileStats)
	assert.Equal(t, AggregateStats{}, signals.AggregateStats)
}

func TestBuildContextSignalsNoHistoryForPath(t *testing.T) {
	tr := newTestRepo(t)

	tr.writeFile("adl.yaml", "root")
	hash := tr.commit("root")

	repo := tr.openRepo()

	commit, err := repo.LookupCommit(hash)
	require.NoError(t, err)

	defer commit.Free()

	signals := buildContextSignals(repo, commit, []string{"never_touched.py"}, 90, nil)

	require.Len(t, signals.PerFileStats, 1)
	assert.Equal(t, 0, signals.PerFileStats[0].ChurnCount)
	assert.Equal(t, []string{}, signals.PerFileStats[0].TopAuthors)
	assert.Equal(t, AggregateStats{}, signals.AggregateStats)
}
