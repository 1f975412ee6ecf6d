package bom

import (
	"fmt"

	"github.com/wagonworks/wagonerp/internal/domain"
)

// ValidateConfig checks a wagon-type config before it is stored:
// part names unique, quantities non-negative, and every stage usage
// referencing a part the config actually defines. Dangling references
// are rejected here instead of being zero-defaulted at projection
// time, where they used to surface as unexplained balance drift.
func ValidateConfig(cfg *domain.WagonTypeConfig) error {
	if cfg.WagonType == "" {
		return fmt.Errorf("%w: wagon type name is required", domain.ErrInvalidConfig)
	}

	parts := make(map[string]struct{}, len(cfg.Parts))
	for _, part := range cfg.Parts {
		if part.Name == "" {
			return fmt.Errorf("%w: part name is required", domain.ErrInvalidConfig)
		}
		if _, dup := parts[part.Name]; dup {
			return fmt.Errorf("%w: duplicate part name %q", domain.ErrInvalidConfig, part.Name)
		}
		parts[part.Name] = struct{}{}
		if part.RequiredPerUnit < 0 {
			return &domain.InvalidQuantityError{Field: part.Name, Value: part.RequiredPerUnit}
		}
	}

	stages := make(map[string]struct{}, len(cfg.Stages))
	for _, stage := range cfg.Stages {
		if stage.Name == "" {
			return fmt.Errorf("%w: stage name is required", domain.ErrInvalidConfig)
		}
		if _, dup := stages[stage.Name]; dup {
			return fmt.Errorf("%w: duplicate stage name %q", domain.ErrInvalidConfig, stage.Name)
		}
		stages[stage.Name] = struct{}{}

		for _, usage := range stage.PartUsage {
			if _, ok := parts[usage.PartName]; !ok {
				return &domain.UnknownPartReferenceError{Stage: stage.Name, Part: usage.PartName}
			}
			if usage.UsedPerCompletion < 0 {
				return &domain.InvalidQuantityError{Field: usage.PartName, Value: usage.UsedPerCompletion}
			}
		}
	}

	return nil
}

// PartNames returns the config's part names in definition order.
func PartNames(cfg *domain.WagonTypeConfig) []string {
	names := make([]string, 0, len(cfg.Parts))
	for _, part := range cfg.Parts {
		names = append(names, part.Name)
	}
	return names
}

// StageNames returns the config's stage names in definition order.
func StageNames(cfg *domain.WagonTypeConfig) []string {
	names := make([]string, 0, len(cfg.Stages))
	for _, stage := range cfg.Stages {
		names = append(names, stage.Name)
	}
	return names
}
