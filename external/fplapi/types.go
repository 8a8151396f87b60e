package fplapi

// Decode targets for the upstream JSON. The shapes here mirror the FPL
// endpoints; mapping into usecase payload types happens in client.go so
// raw upstream shapes never leave this package.

type bootstrapEnvelope struct {
	Events []struct {
		ID        int  `json:"id"`
		IsCurrent bool `json:"is_current"`
		Finished  bool `json:"finished"`
	} `json:"events"`
	Teams []struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		ShortName string `json:"short_name"`
	} `json:"teams"`
	Elements []struct {
		ID          int64  `json:"id"`
		WebName     string `json:"web_name"`
		Team        int64  `json:"team"`
		ElementType int    `json:"element_type"`
		NowCost     int    `json:"now_cost"`
		SelectedBy  string `json:"selected_by_percent"`
		EventPoints int    `json:"event_points"`
		TotalPoints int    `json:"total_points"`
	} `json:"elements"`
}

type standingsEnvelope struct {
	League struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		LeagueType  string `json:"league_type"`
		Scoring     string `json:"scoring"`
		StartEvent  int    `json:"start_event"`
		CodePrivacy string `json:"code_privacy"`
	} `json:"league"`
	Standings struct {
		Page    int  `json:"page"`
		HasNext bool `json:"has_next"`
		Results []struct {
			Entry      int64  `json:"entry"`
			PlayerName string `json:"player_name"`
			EntryName  string `json:"entry_name"`
			Rank       int    `json:"rank"`
			Total      int    `json:"total"`
			EventTotal int    `json:"event_total"`
		} `json:"results"`
	} `json:"standings"`
}

type entryEnvelope struct {
	ID                   int64  `json:"id"`
	PlayerFirstName      string `json:"player_first_name"`
	PlayerLastName       string `json:"player_last_name"`
	Name                 string `json:"name"`
	PlayerRegionName     string `json:"player_region_name"`
	SummaryOverallPoints int    `json:"summary_overall_points"`
	SummaryOverallRank   int    `json:"summary_overall_rank"`
	CurrentEvent         int    `json:"current_event"`
}

type historyEnvelope struct {
	Current []struct {
		Event              int `json:"event"`
		Points             int `json:"points"`
		TotalPoints        int `json:"total_points"`
		OverallRank        int `json:"overall_rank"`
		Bank               int `json:"bank"`
		Value              int `json:"value"`
		EventTransfers     int `json:"event_transfers"`
		EventTransfersCost int `json:"event_transfers_cost"`
		PointsOnBench      int `json:"points_on_bench"`
	} `json:"current"`
	Chips []struct {
		Name  string `json:"name"`
		Event int    `json:"event"`
	} `json:"chips"`
}

type picksEnvelope struct {
	ActiveChip    string `json:"active_chip"`
	AutomaticSubs []struct {
		ElementIn  int64 `json:"element_in"`
		ElementOut int64 `json:"element_out"`
	} `json:"automatic_subs"`
	EntryHistory struct {
		Event int `json:"event"`
	} `json:"entry_history"`
	Picks []struct {
		Element       int64 `json:"element"`
		Position      int   `json:"position"`
		Multiplier    int   `json:"multiplier"`
		IsCaptain     bool  `json:"is_captain"`
		IsViceCaptain bool  `json:"is_vice_captain"`
	} `json:"picks"`
}

type transferEnvelope struct {
	Entry      int64 `json:"entry"`
	Event      int   `json:"event"`
	ElementIn  int64 `json:"element_in"`
	ElementOut int64 `json:"element_out"`
}
