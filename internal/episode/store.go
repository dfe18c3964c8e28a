// Package episode persists the per-cycle record of an agent run in SQLite:
// one row per control cycle carrying the observation, prior, posterior,
// policy posterior, free energies, and selected action. The store exists for
// diagnostics and replay; the agent never reads it back for control
// decisions.
package episode

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/active-inference/go-agent/internal/agent"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	episode_id  TEXT PRIMARY KEY,
	label       TEXT,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cycles (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	episode_id   TEXT NOT NULL,
	step         INTEGER NOT NULL,
	observation  TEXT NOT NULL,
	prior        TEXT NOT NULL,
	posterior    TEXT NOT NULL,
	q_pi         BLOB,
	g            BLOB,
	action       TEXT,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (episode_id) REFERENCES episodes(episode_id)
);

CREATE INDEX IF NOT EXISTS idx_cycles_episode ON cycles(episode_id, step);
`

// #endregion schema

// #region store-struct

// Store manages episode logs in SQLite.
type Store struct {
	db *sql.DB
}

// EpisodeRecord is one row from the episodes table.
type EpisodeRecord struct {
	EpisodeID string
	Label     string
	CreatedAt time.Time
	Cycles    int
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by the cmd layer.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region begin-episode

// BeginEpisode creates a new episode row and returns its ID.
func (s *Store) BeginEpisode(label string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO episodes (episode_id, label, created_at) VALUES (?, ?, ?)`,
		id, nullIfEmpty(label), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert episode: %w", err)
	}
	return id, nil
}

// #endregion begin-episode

// #region append-cycle

// AppendCycle persists one completed control cycle.
func (s *Store) AppendCycle(episodeID string, c agent.Cycle) error {
	obsJSON, err := json.Marshal(c.Observation)
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}
	priorJSON, err := json.Marshal(c.Prior)
	if err != nil {
		return fmt.Errorf("marshal prior: %w", err)
	}
	postJSON, err := json.Marshal(c.Posterior)
	if err != nil {
		return fmt.Errorf("marshal posterior: %w", err)
	}

	var actionPtr interface{}
	if c.Action != nil {
		actJSON, err := json.Marshal(c.Action)
		if err != nil {
			return fmt.Errorf("marshal action: %w", err)
		}
		actionPtr = string(actJSON)
	}

	_, err = s.db.Exec(
		`INSERT INTO cycles (episode_id, step, observation, prior, posterior, q_pi, g, action, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		episodeID, c.Step, string(obsJSON), string(priorJSON), string(postJSON),
		encodeFloats(c.QPi), encodeFloats(c.G), actionPtr,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

// #endregion append-cycle

// #region cycles

// Cycles returns every recorded cycle of an episode, oldest first.
func (s *Store) Cycles(episodeID string) ([]agent.Cycle, error) {
	rows, err := s.db.Query(
		`SELECT step, observation, prior, posterior, q_pi, g, action
		 FROM cycles WHERE episode_id = ? ORDER BY step ASC, id ASC`, episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var out []agent.Cycle
	for rows.Next() {
		var c agent.Cycle
		var obsJSON, priorJSON, postJSON string
		var qpiBlob, gBlob []byte
		var actJSON sql.NullString

		if err := rows.Scan(&c.Step, &obsJSON, &priorJSON, &postJSON, &qpiBlob, &gBlob, &actJSON); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		if err := json.Unmarshal([]byte(obsJSON), &c.Observation); err != nil {
			return nil, fmt.Errorf("unmarshal observation: %w", err)
		}
		if err := json.Unmarshal([]byte(priorJSON), &c.Prior); err != nil {
			return nil, fmt.Errorf("unmarshal prior: %w", err)
		}
		if err := json.Unmarshal([]byte(postJSON), &c.Posterior); err != nil {
			return nil, fmt.Errorf("unmarshal posterior: %w", err)
		}
		c.QPi = decodeFloats(qpiBlob)
		c.G = decodeFloats(gBlob)
		if actJSON.Valid {
			if err := json.Unmarshal([]byte(actJSON.String), &c.Action); err != nil {
				return nil, fmt.Errorf("unmarshal action: %w", err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// #endregion cycles

// #region list-episodes

// ListEpisodes returns the most recent episodes with their cycle counts.
func (s *Store) ListEpisodes(limit int) ([]EpisodeRecord, error) {
	rows, err := s.db.Query(
		`SELECT e.episode_id, e.label, e.created_at, COUNT(c.id)
		 FROM episodes e LEFT JOIN cycles c ON c.episode_id = e.episode_id
		 GROUP BY e.episode_id ORDER BY e.created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var records []EpisodeRecord
	for rows.Next() {
		var rec EpisodeRecord
		var label sql.NullString
		var createdStr string
		if err := rows.Scan(&rec.EpisodeID, &label, &createdStr, &rec.Cycles); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		if label.Valid {
			rec.Label = label.String
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-episodes

// #region float-encoding

func encodeFloats(v []float64) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeFloats(b []byte) []float64 {
	if len(b) == 0 {
		return nil
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}

// #endregion float-encoding

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
