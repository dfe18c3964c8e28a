package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/episode"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	dbPath := flag.String("db", "", "path to episode database (DB mode)")
	episodeID := flag.String("episode", "", "episode ID to replay (DB mode)")
	modelPath := flag.String("model", "", "model fixture JSON for DB mode")
	flag.Parse()

	fixtureMode := *fixturePath != ""
	dbMode := *dbPath != ""
	if fixtureMode == dbMode {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --db episodes.db --episode ID --model path/to/model.json")
		os.Exit(2)
	}

	var exitCode int
	if fixtureMode {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *episodeID, *modelPath)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results, err := replay.Replay(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}
	return printComparison(results)
}

// #endregion fixture-mode

// #region db-mode

// runDBMode rebuilds a fresh agent from the model file and replays the
// observation sequence recorded for one episode, comparing against the
// recorded actions.
func runDBMode(dbPath, episodeID, modelPath string) int {
	if episodeID == "" || modelPath == "" {
		fmt.Fprintln(os.Stderr, "DB mode requires --episode and --model")
		return 2
	}

	store, err := episode.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	cycles, err := store.Cycles(episodeID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load cycles: %v\n", err)
		return 2
	}
	if len(cycles) == 0 {
		fmt.Fprintf(os.Stderr, "no cycles recorded for episode %s\n", episodeID)
		return 2
	}

	f, err := replay.LoadFixture(modelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load model: %v\n", err)
		return 2
	}

	observations := make([][]int, len(cycles))
	expected := make([][]int, len(cycles))
	for i, c := range cycles {
		observations[i] = c.Observation
		expected[i] = c.Action
	}

	a, err := f.NewAgent()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build agent: %v\n", err)
		return 2
	}
	results, err := replay.Run(a, observations, expected)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}
	return printComparison(results)
}

// #endregion db-mode

// #region output

// printComparison outputs a per-step comparison table and returns the exit
// code: 0 on full match, 1 when any step diverged.
func printComparison(results []replay.Result) int {
	fmt.Printf("%-6s| %-16s| %-12s| %-12s| %s\n", "Step", "Observation", "Expected", "Replayed", "Match")
	fmt.Printf("%-6s+%-17s+%-13s+%-13s+%s\n",
		"------", "-----------------", "-------------", "-------------", "------")

	for _, r := range results {
		expected := "-"
		match := "SKIP"
		if r.Expected != nil {
			expected = fmt.Sprintf("%v", r.Expected)
			if r.Match {
				match = "OK"
			} else {
				match = "DIFF"
			}
		}
		fmt.Printf("%-6d| %-16v| %-12s| %-12v| %s\n", r.Step, r.Observation, expected, r.Action, match)
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d total, %d match, %d diverge, %d unchecked\n",
		s.TotalSteps, s.Matches, s.Diverged, s.Unchecked)

	if s.Diverged > 0 {
		return 1
	}
	return 0
}

// #endregion output
