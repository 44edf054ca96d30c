package config

import (
	"fmt"
	"os"
	"route-optimizer-service/internal/domain"

	"gopkg.in/yaml.v3"
)

type priorityPolicy struct {
	Levels []domain.PriorityLevel `yaml:"levels"`
}

// LoadPriorityRanking reads a YAML priority policy:
//
//	levels:
//	  - name: critical
//	    rank: 5
//
// An empty path yields the default ranking.
func LoadPriorityRanking(path string) (domain.PriorityRanking, error) {
	if path == "" {
		return domain.DefaultPriorityRanking(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.PriorityRanking{}, fmt.Errorf("load priority policy: %w", err)
	}

	var p priorityPolicy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return domain.PriorityRanking{}, fmt.Errorf("load priority policy: decode %q: %w", path, err)
	}

	ranking, err := domain.NewPriorityRanking(p.Levels)
	if err != nil {
		return domain.PriorityRanking{}, fmt.Errorf("load priority policy: %w", err)
	}
	return ranking, nil
}
