package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPathFunctions(t *testing.T) {
	root := "/home/user/project"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"ConfigPath", ConfigPath, "/home/user/project/clustergraph.yml"},
		{"StatePath", StatePath, "/home/user/project/.clustergraph"},
		{"CachePath", CachePath, "/home/user/project/.clustergraph/cache"},
		{"DBPath", DBPath, "/home/user/project/.clustergraph/cache/corpus.db"},
		{"CheckpointPath", CheckpointPath, "/home/user/project/.clustergraph/citations.jsonl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(root); got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, root, got, tt.want)
			}
		})
	}
}

func TestFindProject(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(ConfigPath(root), []byte("threshold: 0.9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProject(nested)
	if err != nil {
		t.Fatalf("FindProject() error = %v", err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Errorf("FindProject() = %q, want %q", got, want)
	}
}

func TestFindProject_NotFound(t *testing.T) {
	_, err := FindProject(t.TempDir())
	if !errors.Is(err, ErrNoProject) {
		t.Errorf("FindProject() error = %v, want ErrNoProject", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Threshold != DefaultThreshold || cfg.MinDistinctTargets != DefaultMinDistinctTargets {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if cfg.Inputs.Points != "tnse.csv" || cfg.Output != "cluster_graph.png" {
		t.Errorf("Load() paths = %+v / %s", cfg.Inputs, cfg.Output)
	}
}

func TestLoad_Overrides(t *testing.T) {
	root := t.TempDir()
	content := `inputs:
  scores: expert/pc.csv
threshold: 0.9
palette:
  Viral: crimson
strict: true
`
	if err := os.WriteFile(ConfigPath(root), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Threshold != 0.9 || !cfg.Strict || cfg.Palette["Viral"] != "crimson" {
		t.Errorf("Load() = %+v", cfg)
	}
	// Fields not in the file keep their defaults.
	if cfg.Inputs.Scores != "expert/pc.csv" || cfg.Inputs.Papers != DefaultPapersFile {
		t.Errorf("Load() inputs = %+v", cfg.Inputs)
	}
	if cfg.MaxWeight != DefaultMaxWeight {
		t.Errorf("MaxWeight = %v, want %v", cfg.MaxWeight, DefaultMaxWeight)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"threshold above one", "threshold: 1.5\n"},
		{"zero min targets", "min_distinct_targets: 0\n"},
		{"empty palette color", "palette:\n  Viral: \"\"\n"},
		{"empty input", "inputs:\n  points: \"\"\n"},
		{"too much concurrency", "fetch_concurrency: 100\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if err := os.WriteFile(ConfigPath(root), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(root); !errors.Is(err, ErrInvalid) {
				t.Errorf("Load() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(ConfigPath(root), []byte("threshold: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(root); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.LabelWidth = 12
	cfg.Palette = map[string]string{"Toxin": "navy"}

	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.LabelWidth != 12 || loaded.Palette["Toxin"] != "navy" {
		t.Errorf("Load() = %+v", loaded)
	}
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.Inputs.Names = "/abs/clusters.csv"

	r := cfg.Resolve("/proj")
	if r.Inputs.Points != "/proj/tnse.csv" {
		t.Errorf("Points = %q", r.Inputs.Points)
	}
	if r.Inputs.Names != "/abs/clusters.csv" {
		t.Errorf("Names = %q, absolute paths must be kept", r.Inputs.Names)
	}
	if r.Output != "/proj/cluster_graph.png" {
		t.Errorf("Output = %q", r.Output)
	}
	if cfg.Inputs.Points != DefaultPointsFile {
		t.Error("Resolve() modified the receiver")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got := ExpandPath("~/data"); got != filepath.Join(home, "data") {
		t.Errorf("ExpandPath(~/data) = %q", got)
	}
	if got := ExpandPath("data"); got != "data" {
		t.Errorf("ExpandPath(data) = %q", got)
	}
}
