package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/clustergraph/internal/corpus"
)

func ref(id string, influential bool) corpus.RawCitation {
	return corpus.RawCitation{
		CitedPaper:    corpus.PaperRef{PaperID: &id},
		Intents:       []string{"background"},
		IsInfluential: influential,
	}
}

func TestReadCheckpoints_NonExistentFile(t *testing.T) {
	got, err := ReadCheckpoints("/nonexistent/citations.jsonl")
	if err != nil {
		t.Fatalf("ReadCheckpoints() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadCheckpoints() = %v, want empty", got)
	}
}

func TestReadCheckpoints_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.jsonl")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadCheckpoints(path)
	if err != nil {
		t.Fatalf("ReadCheckpoints() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadCheckpoints() = %v, want empty", got)
	}
}

func TestAppendCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.jsonl")

	records := []Checkpoint{
		{PaperID: "A", Citations: []corpus.RawCitation{ref("B", true), ref("C", false)}},
		{PaperID: "B"},
		{PaperID: "A", Citations: []corpus.RawCitation{ref("C", false)}},
	}
	for _, cp := range records {
		if err := AppendCheckpoint(path, cp); err != nil {
			t.Fatalf("AppendCheckpoint(%s) error = %v", cp.PaperID, err)
		}
	}

	got, err := ReadCheckpoints(path)
	if err != nil {
		t.Fatalf("ReadCheckpoints() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d papers, want 2", len(got))
	}
	if len(got["A"]) != 1 || *got["A"][0].CitedPaper.PaperID != "C" {
		t.Errorf("A = %+v, want the later record to win", got["A"])
	}
	if refs, ok := got["B"]; !ok || len(refs) != 0 {
		t.Errorf("B = %+v, ok = %v, want present with no references", refs, ok)
	}
}

func TestReadCheckpoints_InvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.jsonl")
	content := `{"paperId":"A","citations":[]}
not json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadCheckpoints(path); err == nil {
		t.Error("ReadCheckpoints() expected error for invalid line")
	}
}
