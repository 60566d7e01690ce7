package miner

import (
	"sort"
	"time"

	"github.com/archlens/adl-diff-miner/pkg/gitlib"
)

// pathAnalysisError records the failure of a single path's context analysis
// so the caller can zero-fill that entry and surface a warning without
// aborting the record.
type pathAnalysisError struct {
	Path string
	Err  error
}

// buildContextSignals computes the ContextSignals for the ordered set of
// filesAnalyzed, anchored at anchor and scoped to the [contextDays]-day
// look-back window ending at anchor's commit time.
//
// Any failure analyzing a single path is caught at that path's boundary: the
// entry is zero-filled and reported through onError, and analysis of the
// remaining paths continues.
func buildContextSignals(
	repo *gitlib.Repository,
	anchor *gitlib.Commit,
	filesAnalyzed []string,
	contextDays int,
	onError func(pathAnalysisError),
) ContextSignals {
	until := anchor.Committer().When
	since := until.AddDate(0, 0, -contextDays)

	perFile := make([]PerFileStat, len(filesAnalyzed))

	authorSets := make([]map[string]struct{}, len(filesAnalyzed))

	totalCommits := 0
	haveRecent := false
	mostRecentDaysAgo := 0.0

	allAuthors := make(map[string]struct{})

	for i, path := range filesAnalyzed {
		stat, authors, err := analyzePath(repo, anchor, path, since, until)
		if err != nil {
			if onError != nil {
				onError(pathAnalysisError{Path: path, Err: err})
			}

			perFile[i] = PerFileStat{Path: path, TopAuthors: []string{}}
			authorSets[i] = map[string]struct{}{}

			continue
		}

		perFile[i] = stat
		authorSets[i] = authors

		totalCommits += stat.ChurnCount

		for email := range authors {
			allAuthors[email] = struct{}{}
		}

		if stat.ChurnCount > 0 {
			if !haveRecent || stat.LastModifiedDaysAgo < mostRecentDaysAgo {
				mostRecentDaysAgo = stat.LastModifiedDaysAgo
				haveRecent = true
			}
		}
	}

	if !haveRecent {
		mostRecentDaysAgo = 0
	}

	return ContextSignals{
		AnalysisParentHash:   anchor.Hash().String(),
		AnalysisTimespanDays: contextDays,
		FilesAnalyzed:        filesAnalyzed,
		PerFileStats:         perFile,
		AggregateStats: AggregateStats{
			TotalCommits:            totalCommits,
			TotalUniqueAuthors:      len(allAuthors),
			MostRecentChangeDaysAgo: mostRecentDaysAgo,
		},
	}
}

// analyzePath computes churn/authorship/recency for a single path.
func analyzePath(
	repo *gitlib.Repository,
	anchor *gitlib.Commit,
	path string,
	since, until time.Time,
) (PerFileStat, map[string]struct{}, error) {
	history, err := repo.HistoryForPath(anchor, path, since, until)
	if err != nil {
		return PerFileStat{}, nil, err
	}

	defer func() {
		for _, c := range history {
			c.Free()
		}
	}()

	stat := PerFileStat{Path: path, TopAuthors: []string{}}

	if len(history) == 0 {
		return stat, map[string]struct{}{}, nil
	}

	stat.ChurnCount = len(history)

	counts := make(map[string]int)
	authors := make(map[string]struct{})

	var mostRecent time.Time

	for _, c := range history {
		email := c.Author().Email
		authors[email] = struct{}{}
		counts[email]++

		when := c.Committer().When
		if when.After(mostRecent) {
			mostRecent = when
		}
	}

	stat.UniqueAuthors = len(authors)
	stat.LastModifiedDaysAgo = until.Sub(mostRecent).Seconds() / secondsPerDay
	stat.TopAuthors = topAuthors(counts)

	return stat, authors, nil
}

// secondsPerDay converts a duration in seconds to fractional days.
const secondsPerDay = 86400

// topAuthors ranks author emails by descending commit count, breaking ties
// by ascending email, truncated to topAuthorsCap.
func topAuthors(counts map[string]int) []string {
	emails := make([]string, 0, len(counts))
	for email := range counts {
		emails = append(emails, email)
	}

	sort.Slice(emails, func(i, j int) bool {
		if counts[emails[i]] != counts[emails[j]] {
			return counts[emails[i]] > counts[emails[j]]
		}

		return emails[i] < emails[j]
	})

	if len(emails) > topAuthorsCap {
		emails = emails[:topAuthorsCap]
	}

	if emails == nil {
		emails = []string{}
	}

	return emails
}
