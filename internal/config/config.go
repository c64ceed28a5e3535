// Package config handles project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFile     = "clustergraph.yml"
	StateDir       = ".clustergraph"
	CacheDir       = "cache"
	DBFile         = "corpus.db"
	CheckpointFile = "citations.jsonl"
)

// Defaults matching the file names the upstream notebooks produce.
const (
	DefaultPointsFile    = "tnse.csv"
	DefaultPapersFile    = "allPapers.json"
	DefaultCitationsFile = "allCitations.json"
	DefaultScoresFile    = "pc.csv"
	DefaultNamesFile     = "clusters.csv"
	DefaultOutputFile    = "cluster_graph.png"

	DefaultThreshold          = 0.85
	DefaultMinDistinctTargets = 3
	DefaultMaxWeight          = 5.0
	DefaultLabelWidth         = 20
	DefaultQuery              = "bioterrorism"
	DefaultFetchConcurrency   = 4
)

var (
	// ErrNoProject is returned when no clustergraph.yml is found.
	ErrNoProject = errors.New("not in a clustergraph project (no clustergraph.yml found)")

	// ErrInvalid is returned when the configuration fails validation.
	ErrInvalid = errors.New("invalid configuration")
)

// Inputs names the five input files. Relative paths resolve against the project root.
type Inputs struct {
	Points    string `yaml:"points" json:"points" validate:"required"`
	Papers    string `yaml:"papers" json:"papers" validate:"required"`
	Citations string `yaml:"citations" json:"citations" validate:"required"`
	Scores    string `yaml:"scores" json:"scores" validate:"required"`
	Names     string `yaml:"names" json:"names" validate:"required"`
}

// Config represents project configuration stored in clustergraph.yml.
type Config struct {
	Inputs             Inputs            `yaml:"inputs" json:"inputs"`
	Output             string            `yaml:"output" json:"output" validate:"required"`
	Threshold          float64           `yaml:"threshold" json:"threshold" validate:"gte=0,lte=1"`
	MinDistinctTargets int               `yaml:"min_distinct_targets" json:"min_distinct_targets" validate:"gte=1"`
	MaxWeight          float64           `yaml:"max_weight" json:"max_weight" validate:"gt=0"`
	LabelWidth         int               `yaml:"label_width" json:"label_width" validate:"gte=0"`
	Palette            map[string]string `yaml:"palette,omitempty" json:"palette,omitempty" validate:"omitempty,dive,keys,required,endkeys,required"`
	Strict             bool              `yaml:"strict" json:"strict"`
	Query              string            `yaml:"query" json:"query" validate:"required"`
	FetchConcurrency   int               `yaml:"fetch_concurrency" json:"fetch_concurrency" validate:"gte=1,lte=32"`
}

var validate = validator.New()

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Inputs: Inputs{
			Points:    DefaultPointsFile,
			Papers:    DefaultPapersFile,
			Citations: DefaultCitationsFile,
			Scores:    DefaultScoresFile,
			Names:     DefaultNamesFile,
		},
		Output:             DefaultOutputFile,
		Threshold:          DefaultThreshold,
		MinDistinctTargets: DefaultMinDistinctTargets,
		MaxWeight:          DefaultMaxWeight,
		LabelWidth:         DefaultLabelWidth,
		Query:              DefaultQuery,
		FetchConcurrency:   DefaultFetchConcurrency,
	}
}

// ConfigPath returns the path to clustergraph.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, ConfigFile)
}

// StatePath returns the path to the .clustergraph directory from a root path.
func StatePath(root string) string {
	return filepath.Join(root, StateDir)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, StateDir, CacheDir)
}

// DBPath returns the path to corpus.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, StateDir, CacheDir, DBFile)
}

// CheckpointPath returns the path to the harvest checkpoint from a root path.
func CheckpointPath(root string) string {
	return filepath.Join(root, StateDir, CheckpointFile)
}

// IsProject checks if the given path contains a clustergraph.yml.
func IsProject(root string) bool {
	info, err := os.Stat(ConfigPath(root))
	return err == nil && !info.IsDir()
}

// FindProject walks up from the given path to find a clustergraph project.
// Returns the project root path or ErrNoProject.
func FindProject(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsProject(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNoProject
		}
		abs = parent
	}
}

// Load reads clustergraph.yml at root over the defaults and validates the result.
// A missing file yields the defaults.
func Load(root string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath(root))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to clustergraph.yml at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// Resolve returns a copy whose relative paths are anchored at root.
func (c *Config) Resolve(root string) *Config {
	out := *c
	abs := func(p string) string {
		p = ExpandPath(p)
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	out.Inputs = Inputs{
		Points:    abs(c.Inputs.Points),
		Papers:    abs(c.Inputs.Papers),
		Citations: abs(c.Inputs.Citations),
		Scores:    abs(c.Inputs.Scores),
		Names:     abs(c.Inputs.Names),
	}
	out.Output = abs(c.Output)
	return &out
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
