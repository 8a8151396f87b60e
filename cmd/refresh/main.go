// Command refresh runs a one-shot ingestion of a league and prints the
// computed table. It is the batch entry point; serving dashboards over
// HTTP is out of scope here.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fpl-dashboard/internal/app"
	"fpl-dashboard/internal/config"
	"fpl-dashboard/internal/platform/logging"
)

func main() {
	leagueID := flag.Int64("league", 0, "classic league id to refresh")
	gw := flag.Int("gw", 0, "gameweek for the king-of-the-gameweek report (0 = current)")
	flag.Parse()

	if *leagueID <= 0 {
		fmt.Fprintln(os.Stderr, "usage: refresh -league <id> [-gw <n>]")
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *leagueID, *gw); err != nil {
		logger.Error("refresh failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logging.Logger, leagueID int64, gw int) error {
	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	report, err := a.Ingestion.RefreshLeague(ctx, leagueID)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "refresh complete",
		"league_id", report.LeagueID, "members", report.Members, "failed", report.Failed)

	if gw <= 0 {
		gw, err = a.Ingestion.CurrentGameweek(ctx)
		if err != nil {
			return err
		}
	}

	table, err := a.Analytics.LeagueTable(ctx, leagueID)
	if err != nil {
		return err
	}
	summary, err := a.Analytics.Summary(ctx, leagueID)
	if err != nil {
		return err
	}
	kings, err := a.Analytics.KingOfGameweek(ctx, leagueID, gw, gw)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%d managers, avg %.1f pts)\n\n", summary.League.Name, summary.Members, summary.AveragePoints)
	fmt.Printf("%-5s %-30s %-22s %8s %6s\n", "Rank", "Manager", "Team", "Total", "GW")
	for _, row := range table {
		fmt.Printf("%-5d %-30s %-22s %8d %6d\n",
			row.Rank, row.ManagerName, row.TeamName, row.TotalPoints, row.GameweekPoints)
	}

	fmt.Printf("\nKing of gameweek %d:\n", gw)
	for _, king := range kings {
		fmt.Printf("  %s (%s) with %d pts\n", king.ManagerName, king.TeamName, king.Points)
	}

	return nil
}
