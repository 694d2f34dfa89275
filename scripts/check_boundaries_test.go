package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestModulesRespectLayerBoundaries(t *testing.T) {
	t.Chdir("..")
	violations := collectViolations("contexts")
	for _, v := range violations {
		t.Errorf("%s:%d imports %q (%s)", v.File, v.Line, v.Import, v.Rule)
	}
}

func TestDomainMustNotImportPlatform(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entity.go")
	src := "package entities\n\nimport \"girthgov/internal/platform/oracle\"\n\nvar _ = oracle.Offline{}\n"
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	violations := validateFile(path, "contexts/governance/decision-engine/domain/entities/entity.go", "domain", "girthgov/contexts/governance/decision-engine")
	if len(violations) != 2 {
		t.Fatalf("expected infrastructure and allowlist violations, got %+v", violations)
	}
}
