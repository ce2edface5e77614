// Package journal persists a ranking run as append-only JSONL files:
// generated idea batches, per-round standings, and the final ranking.
// Runs append rather than truncate, so a journal accumulates history
// across invocations and ideas can be reloaded from earlier runs.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/slushpile/slush/internal/domain"
)

// IdeaBatch is one journaled generation call: the prompt sent and the
// ideas parsed out of the reply.
type IdeaBatch struct {
	Timestamp time.Time `json:"timestamp"`
	Prompt    string    `json:"prompt,omitempty"`
	Ideas     []string  `json:"ideas"`
}

// RoundRecord is the standings snapshot after one tournament round.
type RoundRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	Round     int               `json:"round"`
	Survivors int               `json:"survivors"`
	Standings []domain.Standing `json:"standings"`
}

// FinalRecord is the journaled outcome of a completed run.
type FinalRecord struct {
	Timestamp      time.Time         `json:"timestamp"`
	Rounds         int               `json:"rounds"`
	JudgeCalls     int               `json:"judge_calls"`
	DegradedGroups int               `json:"degraded_groups"`
	Ranking        []domain.Standing `json:"ranking"`
}

// Writer appends JSON lines to a file. It is safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewWriter opens (creating if needed) path for appending.
func NewWriter(path string) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	return &Writer{file: file, enc: json.NewEncoder(file)}, nil
}

// Append writes v as one JSON line.
func (w *Writer) Append(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("appending to journal %s: %w", w.file.Name(), err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// LoadIdeas reads every journaled idea batch from path and returns the
// ideas in journal order, letting a run reuse ideas generated earlier.
func LoadIdeas(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening idea journal %s: %w", path, err)
	}
	defer file.Close()

	var ideas []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var batch IdeaBatch
		if err := json.Unmarshal(scanner.Bytes(), &batch); err != nil {
			return nil, fmt.Errorf("idea journal %s line %d: %w", path, line, err)
		}
		ideas = append(ideas, batch.Ideas...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading idea journal %s: %w", path, err)
	}
	return ideas, nil
}
