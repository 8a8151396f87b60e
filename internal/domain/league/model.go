package league

import "fmt"

type Type string

const (
	TypeClassic    Type = "classic"
	TypeHeadToHead Type = "h2h"
)

// League is a mini-league as known upstream; ID is the upstream league id.
type League struct {
	ID            int64
	Name          string
	Type          Type
	Scoring       string
	StartGameweek int
	Privacy       string
}

func (l League) Validate() error {
	if l.ID <= 0 {
		return fmt.Errorf("league id must be greater than zero")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if l.Type != TypeClassic && l.Type != TypeHeadToHead {
		return fmt.Errorf("unknown league type %q", l.Type)
	}
	if l.StartGameweek <= 0 {
		return fmt.Errorf("league start gameweek must be greater than zero")
	}

	return nil
}

// ParseType maps the upstream scoring code to a Type. Upstream encodes
// classic-vs-head-to-head in the scoring field; league_type carries
// provenance, not the scoring mode.
func ParseType(scoring string) (Type, error) {
	switch scoring {
	case "c", "classic":
		return TypeClassic, nil
	case "h", "h2h":
		return TypeHeadToHead, nil
	default:
		return "", fmt.Errorf("unknown league scoring %q", scoring)
	}
}

// ParsePrivacy resolves the privacy label. code_privacy wins when the
// endpoint supplies it; otherwise league_type "x" marks an invite league
// and "s" a public one.
func ParsePrivacy(leagueType, codePrivacy string) string {
	if codePrivacy != "" {
		return codePrivacy
	}
	switch leagueType {
	case "x":
		return "private"
	case "s":
		return "public"
	default:
		return leagueType
	}
}
