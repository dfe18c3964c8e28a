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
	dbPath := flag.String("db", "", "path to episode database")
	episodeID := flag.String("episode", "", "episode ID to export")
	modelPath := flag.String("model", "", "model fixture JSON the episode was run with")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *episodeID == "" || *modelPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db episodes.db --episode ID --model model.json --out fixture.json")
		os.Exit(2)
	}

	if err := run(*dbPath, *episodeID, *modelPath, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

// run loads a recorded episode and writes it back out as a standalone replay
// fixture: the model and config from the model file plus the recorded
// observation sequence and selected actions as expectations.
func run(dbPath, episodeID, modelPath, outPath string) error {
	store, err := episode.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	cycles, err := store.Cycles(episodeID)
	if err != nil {
		return fmt.Errorf("load cycles: %w", err)
	}
	if len(cycles) == 0 {
		return fmt.Errorf("no cycles recorded for episode %s", episodeID)
	}

	f, err := replay.LoadFixture(modelPath)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	out := &replay.Fixture{
		Description: fmt.Sprintf("exported from episode %s", episodeID),
		Model:       f.Model,
		Config:      f.Config,
	}
	for _, c := range cycles {
		out.Observations = append(out.Observations, c.Observation)
		out.ExpectedActions = append(out.ExpectedActions, c.Action)
	}

	if err := replay.SaveFixture(outPath, out); err != nil {
		return err
	}
	fmt.Printf("wrote %d steps to %s\n", len(cycles), outPath)
	return nil
}

// #endregion export
