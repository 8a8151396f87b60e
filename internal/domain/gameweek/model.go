package gameweek

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Chip is the one-time rule change a manager may play in a gameweek.
type Chip string

const (
	ChipNone          Chip = ""
	ChipWildcard      Chip = "wildcard"
	ChipFreeHit       Chip = "freehit"
	ChipBenchBoost    Chip = "bboost"
	ChipTripleCaptain Chip = "3xc"
)

// Chips lists the playable chips, in a stable order for reporting.
func Chips() []Chip {
	return []Chip{ChipWildcard, ChipFreeHit, ChipBenchBoost, ChipTripleCaptain}
}

func ParseChip(raw string) (Chip, error) {
	switch raw {
	case "":
		return ChipNone, nil
	case "wildcard":
		return ChipWildcard, nil
	case "freehit":
		return ChipFreeHit, nil
	case "bboost":
		return ChipBenchBoost, nil
	case "3xc":
		return ChipTripleCaptain, nil
	default:
		return ChipNone, fmt.Errorf("unknown chip %q", raw)
	}
}

// Pick is one squad slot for a gameweek. Points holds the player's score
// for that gameweek as captured at ingest time; zero when unknown.
type Pick struct {
	PlayerID      int64 `validate:"gt=0"`
	Position      int   `validate:"gt=0"`
	Multiplier    int   `validate:"gte=0"`
	IsCaptain     bool
	IsViceCaptain bool
	Points        int
}

// AutoSub is an automatic substitution applied by the upstream scorer.
type AutoSub struct {
	PlayerInID  int64 `validate:"gt=0"`
	PlayerOutID int64 `validate:"gt=0"`
}

// Record is the unit of historical truth: one manager's scoring for one
// gameweek. Once Finalized, scoring fields must never change; a re-ingest
// that disagrees is a conflict, not an update.
type Record struct {
	ManagerID    int64 `validate:"gt=0"`
	Gameweek     int   `validate:"gt=0"`
	Points       int   `validate:"gte=0"`
	TotalPoints  int   `validate:"gte=0"`
	OverallRank  int   `validate:"gte=0"`
	Bank         int   `validate:"gte=0"`
	SquadValue   int   `validate:"gte=0"`
	Transfers    int   `validate:"gte=0"`
	TransferCost int   `validate:"gte=0"`
	BenchPoints  int   `validate:"gte=0"`
	Picks        []Pick    `validate:"dive"`
	AutoSubs     []AutoSub `validate:"dive"`
	ChipPlayed   Chip
	Finalized    bool
}

var validate = validator.New()

func (r Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if _, err := ParseChip(string(r.ChipPlayed)); err != nil {
		return err
	}
	for _, p := range r.Picks {
		if p.IsCaptain && p.IsViceCaptain {
			return fmt.Errorf("pick %d cannot be both captain and vice-captain", p.PlayerID)
		}
	}

	return nil
}

// SameScoring reports whether two records agree on every field covered by
// the immutability-after-finalization guarantee.
func (r Record) SameScoring(other Record) bool {
	if r.Points != other.Points ||
		r.TotalPoints != other.TotalPoints ||
		r.OverallRank != other.OverallRank ||
		r.Bank != other.Bank ||
		r.SquadValue != other.SquadValue ||
		r.Transfers != other.Transfers ||
		r.TransferCost != other.TransferCost ||
		r.BenchPoints != other.BenchPoints ||
		r.ChipPlayed != other.ChipPlayed {
		return false
	}
	if len(r.Picks) != len(other.Picks) || len(r.AutoSubs) != len(other.AutoSubs) {
		// An empty pick list means picks were never ingested for this
		// record; filling them in later is not a scoring change.
		if len(r.Picks) == 0 || len(other.Picks) == 0 {
			return len(r.AutoSubs) == 0 || len(other.AutoSubs) == 0
		}
		return false
	}
	for i := range r.Picks {
		if r.Picks[i] != other.Picks[i] {
			return false
		}
	}
	for i := range r.AutoSubs {
		if r.AutoSubs[i] != other.AutoSubs[i] {
			return false
		}
	}

	return true
}

// Captain returns the pick wearing the armband, if picks were ingested.
func (r Record) Captain() (Pick, bool) {
	for _, p := range r.Picks {
		if p.IsCaptain {
			return p, true
		}
	}
	return Pick{}, false
}
