package authorship

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultPatterns []byte

// PatternConfig is the on-disk shape of the ghostwriting pattern set.
type PatternConfig struct {
	ArtifactPrefixes []string `yaml:"artifact_prefixes"`
	BacktickMinWords int      `yaml:"backtick_min_words"`
	TextPatterns     []string `yaml:"text_patterns"`
}

// LoadPatterns reads the pattern set from path, or the embedded default
// when path is empty.
func LoadPatterns(path string) (*PatternConfig, error) {
	raw := defaultPatterns
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read authorship patterns: %w", err)
		}
		raw = b
	}
	var cfg PatternConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse authorship patterns: %w", err)
	}
	if len(cfg.ArtifactPrefixes) == 0 {
		return nil, fmt.Errorf("authorship patterns: artifact_prefixes is empty")
	}
	if cfg.BacktickMinWords < 1 {
		cfg.BacktickMinWords = 4
	}
	return &cfg, nil
}

func compileTextPatterns(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("authorship pattern %q: %w", expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}
