package miner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/archlens/adl-diff-miner/pkg/gitlib"
)

// ErrInvalidContextDays is returned when the configured look-back window is
// less than one day.
var ErrInvalidContextDays = errors.New("context-days must be >= 1")

// candidate pairs a commit hash with the ordering key extracted while
// scanning, so commits can be freed before the sort/assemble passes without
// re-walking history.
type candidate struct {
	hash        gitlib.Hash
	committedAt int64 // unix seconds, for the sort comparator only
}

// Run enumerates commits reachable from HEAD, retains those whose first-
// parent patch touches the configured ADL path, and streams the resulting
// records to emitter in (committed_at desc, hash asc) order. It stops early,
// without emitting a partial record, when ctx is canceled. metrics receives
// per-candidate counts and assembly timing; pass NoopMetrics when no
// metrics backend is wired in.
func Run(ctx context.Context, repo *gitlib.Repository, cfg Config, emitter *Emitter, logger *slog.Logger, metrics MetricsSink) error {
	if cfg.ContextDays < 1 {
		return ErrInvalidContextDays
	}

	if metrics == nil {
		metrics = NoopMetrics
	}

	assembler := NewAssembler(repo, cfg, logger, metrics)

	adlMatch := newExactPathMatcher(cfg.ADLPath)

	candidates, err := selectCandidates(repo, adlMatch, logger)
	if err != nil {
		return err
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].committedAt != candidates[j].committedAt {
			return candidates[i].committedAt > candidates[j].committedAt
		}

		return candidates[i].hash.String() < candidates[j].hash.String()
	})

	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("mining canceled: %w", err)
		}

		metrics.CandidateSelected()

		if err := processCandidate(repo, assembler, emitter, metrics, cand); err != nil {
			return err
		}
	}

	return nil
}

func processCandidate(repo *gitlib.Repository, assembler *Assembler, emitter *Emitter, metrics MetricsSink, cand candidate) error {
	commit, err := repo.LookupCommit(cand.hash)
	if err != nil {
		return fmt.Errorf("lookup candidate commit %s: %w", cand.hash.String(), err)
	}
	defer commit.Free()

	started := time.Now()

	record, ok, err := assembler.Assemble(commit)

	metrics.ObserveAssembleDuration(time.Since(started))

	if err != nil {
		return fmt.Errorf("assemble record for %s: %w", cand.hash.String(), err)
	}

	if !ok {
		metrics.RecordSkipped()

		return nil
	}

	if err := emitter.Write(*record); err != nil {
		return fmt.Errorf("emit record for %s: %w", cand.hash.String(), err)
	}

	metrics.RecordEmitted()

	return nil
}

// selectCandidates walks all commits reachable from HEAD and retains the
// hashes of those whose first-parent patch touches the ADL path. Root
// commits have no parent to diff against and are skipped, silently at info
// level, before ever reaching the Assembler.
func selectCandidates(repo *gitlib.Repository, adlMatch matcher, logger *slog.Logger) ([]candidate, error) {
	iter, err := repo.Commits()
	if err != nil {
		return nil, fmt.Errorf("enumerate commits: %w", err)
	}
	defer iter.Close()

	var candidates []candidate

	err = iter.ForEach(func(commit *gitlib.Commit) error {
		if commit.NumParents() == 0 {
			logger.Info("root commit skipped", "hash", commit.Hash().String())

			return nil
		}

		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return parentErr
		}
		defer parent.Free()

		patches, patchErr := repo.Patch(parent, commit)
		if patchErr != nil {
			return patchErr
		}

		for _, fp := range patches {
			if adlMatch.Match(fp.NewPath) || adlMatch.Match(fp.OldPath) {
				candidates = append(candidates, candidate{
					hash:        commit.Hash(),
					committedAt: commit.Committer().When.Unix(),
				})

				break
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan commits for ADL touches: %w", err)
	}

	return candidates, nil
}
