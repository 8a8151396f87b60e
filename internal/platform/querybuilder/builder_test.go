package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectWithRange(t *testing.T) {
	t.Parallel()

	query, args, err := Select("gameweek", "points").
		From("gameweek_records").
		Where(Eq("manager_id", int64(7)), Gte("gameweek", 2), Lte("gameweek", 4)).
		OrderBy("gameweek ASC").
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT gameweek, points FROM gameweek_records WHERE manager_id = $1 AND gameweek >= $2 AND gameweek <= $3 ORDER BY gameweek ASC",
		query)
	assert.Equal(t, []any{int64(7), 2, 4}, args)
}

func TestSelectForUpdate(t *testing.T) {
	t.Parallel()

	query, _, err := Select("*").From("gameweek_records").
		Where(Eq("manager_id", int64(7))).
		ForUpdate().
		ToSQL()
	require.NoError(t, err)
	assert.Contains(t, query, "FOR UPDATE")
}

func TestInsertModelWithConflictSuffix(t *testing.T) {
	t.Parallel()

	type row struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
		skip string `db:"-"`
	}
	query, args, err := InsertModel("managers", row{ID: 7, Name: "Grace"},
		"ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name")
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO managers (id, name) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name",
		query)
	assert.Equal(t, []any{int64(7), "Grace"}, args)
}

func TestInEmptyListNeverMatches(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id").From("players").Where(In("id", nil)).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM players WHERE 1=0", query)
	assert.Empty(t, args)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	query, args, err := DeleteFrom("transfers").Where(Eq("manager_id", int64(7))).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM transfers WHERE manager_id = $1", query)
	assert.Equal(t, []any{int64(7)}, args)
}
