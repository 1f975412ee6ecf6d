package bom

import (
	"errors"
	"testing"

	"github.com/wagonworks/wagonerp/internal/domain"
)

func TestValidateConfig(t *testing.T) {
	valid := boxnConfig()
	if err := ValidateConfig(valid); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	t.Run("duplicate part name", func(t *testing.T) {
		cfg := boxnConfig()
		cfg.Parts = append(cfg.Parts, domain.PartDefinition{Name: "Wheel", RequiredPerUnit: 4})
		if err := ValidateConfig(cfg); err == nil {
			t.Fatal("expected rejection of duplicate part name")
		}
	})

	t.Run("dangling stage reference", func(t *testing.T) {
		cfg := boxnConfig()
		cfg.Stages = append(cfg.Stages, domain.StageDefinition{
			Name:      "Painting",
			PartUsage: []domain.StageUsage{{PartName: "Paint", UsedPerCompletion: 1}},
		})
		err := ValidateConfig(cfg)
		var unknownPart *domain.UnknownPartReferenceError
		if !errors.As(err, &unknownPart) {
			t.Fatalf("expected UnknownPartReferenceError, got %v", err)
		}
		if unknownPart.Stage != "Painting" || unknownPart.Part != "Paint" {
			t.Errorf("unexpected error detail: %+v", unknownPart)
		}
	})

	t.Run("negative part quantity", func(t *testing.T) {
		cfg := boxnConfig()
		cfg.Parts[0].RequiredPerUnit = -1
		var invalid *domain.InvalidQuantityError
		if err := ValidateConfig(cfg); !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidQuantityError, got %v", err)
		}
	})

	t.Run("negative stage usage", func(t *testing.T) {
		cfg := boxnConfig()
		cfg.Stages[0].PartUsage[0].UsedPerCompletion = -2
		var invalid *domain.InvalidQuantityError
		if err := ValidateConfig(cfg); !errors.As(err, &invalid) {
			t.Fatalf("expected InvalidQuantityError, got %v", err)
		}
	})

	t.Run("missing wagon type", func(t *testing.T) {
		cfg := boxnConfig()
		cfg.WagonType = ""
		if err := ValidateConfig(cfg); err == nil {
			t.Fatal("expected rejection of empty wagon type")
		}
	})

	t.Run("zero quantities allowed", func(t *testing.T) {
		cfg := boxnConfig()
		cfg.Parts[2].RequiredPerUnit = 0
		if err := ValidateConfig(cfg); err != nil {
			t.Fatalf("zero requirement rejected: %v", err)
		}
	})
}
