// Package storage handles the harvest checkpoint (JSONL) and the ephemeral
// SQLite query cache built from the corpus.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/clustergraph/internal/corpus"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (16MB per line).
// A single heavily-referenced paper can produce a long line.
const MaxJSONLLineCapacity = 16 * 1024 * 1024

// Checkpoint is the fetched reference list of one paper.
type Checkpoint struct {
	PaperID   string               `json:"paperId"`
	Citations []corpus.RawCitation `json:"citations"`
}

// ReadCheckpoints reads all checkpoint records from a JSONL file.
// A missing file yields no records. A later record for the same paper wins.
func ReadCheckpoints(path string) (map[string][]corpus.RawCitation, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]corpus.RawCitation{}, nil
		}
		return nil, fmt.Errorf("opening checkpoint file: %w", err)
	}
	defer f.Close()

	out := make(map[string][]corpus.RawCitation)
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var cp Checkpoint
		if err := json.Unmarshal(line, &cp); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		out[cp.PaperID] = cp.Citations
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checkpoint file: %w", err)
	}

	return out, nil
}

// AppendCheckpoint adds one paper's references to the end of a JSONL file.
func AppendCheckpoint(path string, cp Checkpoint) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening checkpoint file for append: %w", err)
	}
	defer f.Close()

	if cp.Citations == nil {
		cp.Citations = []corpus.RawCitation{}
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encoding checkpoint for %s: %w", cp.PaperID, err)
	}

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing checkpoint for %s: %w", cp.PaperID, err)
	}

	return nil
}
