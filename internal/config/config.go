// Package config loads the report configuration: owner map, category policy, SLA
// thresholds, bin scheme and date bounds.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sla-overage-report/internal/errs"
	"sla-overage-report/internal/sla"
	"sla-overage-report/internal/task"
)

type Config struct {
	Owners       map[string]string `yaml:"owners"`
	SLADays      map[string]int    `yaml:"sla_days"`
	Categories   Categories        `yaml:"categories"`
	ActivityFrom string            `yaml:"activity_from"`
	ActivityTo   string            `yaml:"activity_to"`
	CreatedFrom  string            `yaml:"created_from"`
	Bins         Bins              `yaml:"bins"`
}

type Categories struct {
	Mode            string   `yaml:"mode"`
	Allow           []string `yaml:"allow"`
	ExcludePrefixes []string `yaml:"exclude_prefixes"`
}

type Bins struct {
	Upper  []int    `yaml:"upper_bounds"`
	Labels []string `yaml:"labels"`
}

// Resolved is a validated configuration in the types the pipeline consumes.
type Resolved struct {
	Filter task.FilterOptions
	SLA    sla.Table
	Scheme sla.Scheme
}

// Default returns the configuration of the original task report.
func Default() Config {
	return Config{
		Owners: map[string]string{
			"Nicole De Munck":  "005Hs00000CkSZ5IAN",
			"Rosella Colley":   "005OJ00000CQRVVYA5",
			"Client Relations": "005Hs00000BdOuBIAV",
			"Arigail Sepion":   "005Hs00000CkhEXIAZ",
		},
		SLADays: map[string]int{
			"CW":   3,
			"CD":   3,
			"NEW":  5,
			"TRO":  7,
			"TRIN": 15,
			"MC":   3,
			"RQ":   0,
		},
		Categories: Categories{
			Mode:  task.CategoryModeAllowlist,
			Allow: []string{"CW", "CD", "TRIN", "TRO", "RQ", "NEW", "MC", "FPC"},
		},
		ActivityTo:  "2025-12-03",
		CreatedFrom: "2025-11-01",
		Bins: Bins{
			Upper:  append([]int(nil), sla.DefaultScheme.Upper...),
			Labels: append([]string(nil), sla.DefaultScheme.Labels...),
		},
	}
}

// Load reads a YAML file over the defaults. Sections present in the file replace
// the default section as a whole. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Config{}, &errs.ConfigError{Field: "config", Err: err}
	}
	if overlay.Owners != nil {
		cfg.Owners = overlay.Owners
	}
	if overlay.SLADays != nil {
		cfg.SLADays = overlay.SLADays
	}
	if overlay.Categories.Mode != "" || overlay.Categories.Allow != nil || overlay.Categories.ExcludePrefixes != nil {
		cfg.Categories = overlay.Categories
	}
	if overlay.Bins.Upper != nil || overlay.Bins.Labels != nil {
		cfg.Bins = overlay.Bins
	}
	// Date bounds are overlaid key by key so a file can clear one with "".
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, &errs.ConfigError{Field: "config", Err: err}
	}
	if _, ok := raw["activity_from"]; ok {
		cfg.ActivityFrom = overlay.ActivityFrom
	}
	if _, ok := raw["activity_to"]; ok {
		cfg.ActivityTo = overlay.ActivityTo
	}
	if _, ok := raw["created_from"]; ok {
		cfg.CreatedFrom = overlay.CreatedFrom
	}
	return cfg, nil
}

// Resolve validates the configuration and builds the typed pipeline inputs.
func (c Config) Resolve() (Resolved, error) {
	owners, err := task.NewOwnerMap(c.Owners)
	if err != nil {
		return Resolved{}, err
	}
	if owners.Len() == 0 {
		return Resolved{}, errs.Config("owners", "at least one owner is required")
	}

	policy := task.CategoryPolicy{
		Mode:            c.Categories.Mode,
		Allow:           trimAll(c.Categories.Allow),
		ExcludePrefixes: trimAll(c.Categories.ExcludePrefixes),
	}
	if err := policy.Validate(); err != nil {
		return Resolved{}, err
	}

	table, err := sla.NewTable(c.SLADays)
	if err != nil {
		return Resolved{}, err
	}

	scheme, err := sla.NewScheme(c.Bins.Upper, c.Bins.Labels)
	if err != nil {
		return Resolved{}, err
	}

	opts := task.FilterOptions{Owners: owners, Categories: policy}
	if opts.ActivityFrom, err = parseBound("activity_from", c.ActivityFrom); err != nil {
		return Resolved{}, err
	}
	if opts.ActivityTo, err = parseBound("activity_to", c.ActivityTo); err != nil {
		return Resolved{}, err
	}
	if opts.CreatedFrom, err = parseBound("created_from", c.CreatedFrom); err != nil {
		return Resolved{}, err
	}
	if !opts.ActivityFrom.IsZero() && !opts.ActivityTo.IsZero() && opts.ActivityTo.Before(opts.ActivityFrom) {
		return Resolved{}, errs.Config("activity_to", "%s is before activity_from %s", c.ActivityTo, c.ActivityFrom)
	}

	return Resolved{Filter: opts, SLA: table, Scheme: scheme}, nil
}

func parseBound(field string, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, errs.Config(field, "expected YYYY-MM-DD, got %q", value)
	}
	return parsed, nil
}

func trimAll(values []string) []string {
	var result []string
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			result = append(result, value)
		}
	}
	return result
}

// Sample is a commented starting configuration.
const Sample = `# Owner display name -> raw owner id. Ids must be unique.
owners:
  Nicole De Munck: 005Hs00000CkSZ5IAN
  Rosella Colley: 005OJ00000CQRVVYA5
  Client Relations: 005Hs00000BdOuBIAV
  Arigail Sepion: 005Hs00000CkhEXIAZ

# Allowed turnaround per task category, in days.
sla_days:
  CW: 3
  CD: 3
  NEW: 5
  TRO: 7
  TRIN: 15
  MC: 3
  RQ: 0

# mode: allowlist (keep listed categories) or exclude_prefix (drop categories
# starting with any listed prefix). Set only one list.
categories:
  mode: allowlist
  allow: [CW, CD, TRIN, TRO, RQ, NEW, MC, FPC]
  # mode: exclude_prefix
  # exclude_prefixes: [RQ, R]

# Inclusive calendar-day bounds. Leave empty to disable.
activity_from: ""
activity_to: "2025-12-03"
created_from: "2025-11-01"

bins:
  upper_bounds: [0, 3, 5, 10, 20, 30]
  labels: ["0", "1-3", "3-5", "5-10", "10-20", "20-30", "30+"]
`

// WriteSample writes Sample to path.
func WriteSample(path string) error {
	return os.WriteFile(path, []byte(Sample), 0o644)
}
