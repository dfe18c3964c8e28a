package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/agent"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/dist"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/episode"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to episode database")
	last := flag.Int("last", 20, "show N most recent episodes")
	episodeID := flag.String("episode", "", "show per-cycle detail for one episode")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db episodes.db [--last N] [--episode ID] [--json]")
		os.Exit(2)
	}

	store, err := episode.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *episodeID != "" {
		err = runDetailMode(store, *episodeID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(store *episode.Store, last int, jsonOut bool) error {
	episodes, err := store.ListEpisodes(last)
	if err != nil {
		return err
	}
	if len(episodes) == 0 {
		fmt.Fprintln(os.Stderr, "no episodes found")
		return nil
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(episodes)
	}

	fmt.Printf("%-38s| %-20s| %-8s| %s\n", "Episode", "Label", "Cycles", "Created")
	for _, e := range episodes {
		label := e.Label
		if label == "" {
			label = "-"
		}
		fmt.Printf("%-38s| %-20s| %-8d| %s\n",
			e.EpisodeID, label, e.Cycles, e.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type cycleRow struct {
	Step        int         `json:"step"`
	Observation []int       `json:"observation"`
	Action      []int       `json:"action,omitempty"`
	BestPolicy  int         `json:"best_policy"`
	BestQPi     float64     `json:"best_q_pi"`
	BestG       float64     `json:"best_g"`
	Posterior   [][]float64 `json:"posterior,omitempty"`
}

func runDetailMode(store *episode.Store, episodeID string, jsonOut bool) error {
	cycles, err := store.Cycles(episodeID)
	if err != nil {
		return err
	}
	if len(cycles) == 0 {
		return fmt.Errorf("no cycles for episode %s", episodeID)
	}

	rows := make([]cycleRow, len(cycles))
	for i, c := range cycles {
		rows[i] = toRow(c, jsonOut)
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	fmt.Printf("%-6s| %-16s| %-12s| %-10s| %-10s| %s\n",
		"Step", "Observation", "Action", "BestQPi", "BestG", "Posterior[0]")
	for i, r := range rows {
		post := "-"
		if len(cycles[i].Posterior) > 0 {
			post = formatDist(cycles[i].Posterior[0])
		}
		fmt.Printf("%-6d| %-16v| %-12v| %-10.4f| %-10.4f| %s\n",
			r.Step, r.Observation, r.Action, r.BestQPi, r.BestG, post)
	}
	return nil
}

func toRow(c agent.Cycle, includePosterior bool) cycleRow {
	row := cycleRow{
		Step:        c.Step,
		Observation: c.Observation,
		Action:      c.Action,
	}
	if len(c.QPi) > 0 {
		row.BestPolicy = dist.ArgMax(c.QPi)
		row.BestQPi = c.QPi[row.BestPolicy]
		if row.BestPolicy < len(c.G) {
			row.BestG = c.G[row.BestPolicy]
		}
	}
	if includePosterior {
		row.Posterior = c.Posterior
	}
	return row
}

func formatDist(p []float64) string {
	out := "["
	for i, x := range p {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%.3f", x)
	}
	return out + "]"
}

// #endregion detail-mode
