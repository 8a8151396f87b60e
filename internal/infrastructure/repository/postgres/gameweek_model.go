package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"fpl-dashboard/internal/domain/gameweek"
)

type gameweekRecordTableModel struct {
	ManagerID    int64     `db:"manager_id"`
	Gameweek     int       `db:"gameweek"`
	Points       int       `db:"points"`
	TotalPoints  int       `db:"total_points"`
	OverallRank  int       `db:"overall_rank"`
	Bank         int       `db:"bank"`
	SquadValue   int       `db:"squad_value"`
	Transfers    int       `db:"transfers"`
	TransferCost int       `db:"transfer_cost"`
	BenchPoints  int       `db:"bench_points"`
	Picks        []byte    `db:"picks"`
	AutoSubs     []byte    `db:"auto_subs"`
	Chip         string    `db:"chip"`
	Finalized    bool      `db:"finalized"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func newGameweekRecordModel(rec gameweek.Record) (gameweekRecordTableModel, error) {
	picks, err := sonic.Marshal(rec.Picks)
	if err != nil {
		return gameweekRecordTableModel{}, fmt.Errorf("marshal picks: %w", err)
	}
	autoSubs, err := sonic.Marshal(rec.AutoSubs)
	if err != nil {
		return gameweekRecordTableModel{}, fmt.Errorf("marshal auto subs: %w", err)
	}

	return gameweekRecordTableModel{
		ManagerID:    rec.ManagerID,
		Gameweek:     rec.Gameweek,
		Points:       rec.Points,
		TotalPoints:  rec.TotalPoints,
		OverallRank:  rec.OverallRank,
		Bank:         rec.Bank,
		SquadValue:   rec.SquadValue,
		Transfers:    rec.Transfers,
		TransferCost: rec.TransferCost,
		BenchPoints:  rec.BenchPoints,
		Picks:        picks,
		AutoSubs:     autoSubs,
		Chip:         string(rec.ChipPlayed),
		Finalized:    rec.Finalized,
		UpdatedAt:    time.Now().UTC(),
	}, nil
}

func (m gameweekRecordTableModel) toDomain() (gameweek.Record, error) {
	rec := gameweek.Record{
		ManagerID:    m.ManagerID,
		Gameweek:     m.Gameweek,
		Points:       m.Points,
		TotalPoints:  m.TotalPoints,
		OverallRank:  m.OverallRank,
		Bank:         m.Bank,
		SquadValue:   m.SquadValue,
		Transfers:    m.Transfers,
		TransferCost: m.TransferCost,
		BenchPoints:  m.BenchPoints,
		ChipPlayed:   gameweek.Chip(m.Chip),
		Finalized:    m.Finalized,
	}
	if len(m.Picks) > 0 {
		if err := sonic.Unmarshal(m.Picks, &rec.Picks); err != nil {
			return gameweek.Record{}, fmt.Errorf("unmarshal picks: %w", err)
		}
	}
	if len(m.AutoSubs) > 0 {
		if err := sonic.Unmarshal(m.AutoSubs, &rec.AutoSubs); err != nil {
			return gameweek.Record{}, fmt.Errorf("unmarshal auto subs: %w", err)
		}
	}

	return rec, nil
}
