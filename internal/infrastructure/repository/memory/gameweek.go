package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fpl-dashboard/internal/domain/gameweek"
)

type recordKey struct {
	managerID int64
	gw        int
}

type GameweekRepository struct {
	mu      sync.RWMutex
	records map[recordKey]gameweek.Record
}

func NewGameweekRepository() *GameweekRepository {
	return &GameweekRepository{records: make(map[recordKey]gameweek.Record)}
}

func (r *GameweekRepository) Upsert(_ context.Context, rec gameweek.Record) error {
	key := recordKey{managerID: rec.ManagerID, gw: rec.Gameweek}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[key]; ok && existing.Finalized {
		if !existing.SameScoring(rec) {
			return fmt.Errorf("%w: manager %d gameweek %d",
				gameweek.ErrFinalizedConflict, rec.ManagerID, rec.Gameweek)
		}
		// Matching re-ingest of a finalized record: keep what we have,
		// except picks may be filled in after the fact.
		if len(existing.Picks) == 0 && len(rec.Picks) > 0 {
			existing.Picks = clonePicks(rec.Picks)
			existing.AutoSubs = cloneAutoSubs(rec.AutoSubs)
			r.records[key] = existing
		}
		return nil
	}

	stored := rec
	stored.Picks = clonePicks(rec.Picks)
	stored.AutoSubs = cloneAutoSubs(rec.AutoSubs)
	r.records[key] = stored
	return nil
}

func (r *GameweekRepository) Get(_ context.Context, managerID int64, gw int) (gameweek.Record, bool, error) {
	r.mu.RLock()
	rec, ok := r.records[recordKey{managerID: managerID, gw: gw}]
	r.mu.RUnlock()
	if !ok {
		return gameweek.Record{}, false, nil
	}
	rec.Picks = clonePicks(rec.Picks)
	rec.AutoSubs = cloneAutoSubs(rec.AutoSubs)
	return rec, true, nil
}

func (r *GameweekRepository) ListByManager(_ context.Context, managerID int64, from, to int) ([]gameweek.Record, error) {
	r.mu.RLock()
	var out []gameweek.Record
	for key, rec := range r.records {
		if key.managerID != managerID {
			continue
		}
		if from > 0 && key.gw < from {
			continue
		}
		if to > 0 && key.gw > to {
			continue
		}
		rec.Picks = clonePicks(rec.Picks)
		rec.AutoSubs = cloneAutoSubs(rec.AutoSubs)
		out = append(out, rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Gameweek < out[j].Gameweek })
	return out, nil
}

func clonePicks(picks []gameweek.Pick) []gameweek.Pick {
	if picks == nil {
		return nil
	}
	out := make([]gameweek.Pick, len(picks))
	copy(out, picks)
	return out
}

func cloneAutoSubs(subs []gameweek.AutoSub) []gameweek.AutoSub {
	if subs == nil {
		return nil
	}
	out := make([]gameweek.AutoSub, len(subs))
	copy(out, subs)
	return out
}
