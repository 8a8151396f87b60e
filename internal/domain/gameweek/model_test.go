package gameweek

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValidate(t *testing.T) {
	t.Parallel()

	valid := Record{
		ManagerID:   7,
		Gameweek:    3,
		Points:      55,
		TotalPoints: 135,
		Picks: []Pick{
			{PlayerID: 5, Position: 1, Multiplier: 2, IsCaptain: true},
			{PlayerID: 6, Position: 2, Multiplier: 1, IsViceCaptain: true},
		},
	}
	require.NoError(t, valid.Validate())

	missingManager := valid
	missingManager.ManagerID = 0
	assert.Error(t, missingManager.Validate())

	doubleArmband := valid
	doubleArmband.Picks = []Pick{{PlayerID: 5, Position: 1, Multiplier: 2, IsCaptain: true, IsViceCaptain: true}}
	assert.Error(t, doubleArmband.Validate())

	badChip := valid
	badChip.ChipPlayed = Chip("benchboost")
	assert.Error(t, badChip.Validate())
}

func TestRecordSameScoring(t *testing.T) {
	t.Parallel()

	base := Record{
		ManagerID: 7, Gameweek: 3, Points: 55, TotalPoints: 135,
		Picks: []Pick{{PlayerID: 5, Position: 1, Multiplier: 2, IsCaptain: true, Points: 9}},
	}

	same := base
	assert.True(t, base.SameScoring(same))

	differentPoints := base
	differentPoints.Points = 56
	assert.False(t, base.SameScoring(differentPoints))

	pickBackfill := base
	pickBackfill.Picks = nil
	assert.True(t, base.SameScoring(pickBackfill), "absent picks are not a scoring change")

	differentPick := base
	differentPick.Picks = []Pick{{PlayerID: 6, Position: 1, Multiplier: 2, IsCaptain: true, Points: 9}}
	assert.False(t, base.SameScoring(differentPick))
}

func TestParseChip(t *testing.T) {
	t.Parallel()

	for _, chip := range Chips() {
		parsed, err := ParseChip(string(chip))
		require.NoError(t, err)
		assert.Equal(t, chip, parsed)
	}

	none, err := ParseChip("")
	require.NoError(t, err)
	assert.Equal(t, ChipNone, none)

	_, err = ParseChip("manager")
	assert.Error(t, err)
}
