package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/dist"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/episode"
	"github.com/danielpatrickdp/active-inference/go-agent/internal/replay"
)

// #region main

func main() {
	modelPath := flag.String("model", "", "path to model fixture JSON")
	dbPath := flag.String("db", envOr("AGENT_DB", "episodes.db"), "path to episode database")
	label := flag.String("label", "", "episode label")
	flag.Parse()

	if *modelPath == "" {
		fmt.Fprintln(os.Stderr, "usage: agent --model path/to/model.json [--db episodes.db] [--label name]")
		os.Exit(2)
	}

	f, err := replay.LoadFixture(*modelPath)
	if err != nil {
		log.Fatalf("load model: %v", err)
	}
	a, err := f.NewAgent()
	if err != nil {
		log.Fatalf("build agent: %v", err)
	}

	store, err := episode.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	episodeID, err := store.BeginEpisode(*label)
	if err != nil {
		log.Fatalf("begin episode: %v", err)
	}

	numModalities := len(f.Model.NumObs)
	fmt.Println("Active Inference Agent ready.")
	fmt.Printf("  Model: %s | DB: %s | Episode: %s\n", *modelPath, *dbPath, episodeID)
	fmt.Printf("Enter %d observation index(es) per line (or 'quit'):\n", numModalities)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		obs, err := parseObservation(line, numModalities)
		if err != nil {
			log.Printf("[AGENT] bad observation: %v", err)
			continue
		}

		if _, err := a.InferStates(obs); err != nil {
			log.Printf("[AGENT] infer states: %v", err)
			continue
		}
		qpi, g, err := a.InferPolicies()
		if err != nil {
			log.Printf("[AGENT] infer policies: %v", err)
			continue
		}
		act, err := a.SelectAction()
		if err != nil {
			log.Printf("[AGENT] select action: %v", err)
			continue
		}

		best := dist.ArgMax(qpi)
		fmt.Printf("[step-%d] action=%v q_pi[best]=%.4f G[best]=%.4f\n",
			a.Step()-1, act, qpi[best], g[best])

		cycles := a.History().Cycles()
		if err := store.AppendCycle(episodeID, cycles[len(cycles)-1]); err != nil {
			log.Printf("[AGENT] persist cycle: %v", err)
		}
	}
}

// #endregion main

// #region helpers

// parseObservation reads one discrete index per modality from a
// space-separated line.
func parseObservation(line string, numModalities int) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) != numModalities {
		return nil, fmt.Errorf("got %d values, want %d", len(fields), numModalities)
	}
	obs := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", f, err)
		}
		obs[i] = v
	}
	return obs, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
