package nurture

import (
	"os"
	"path/filepath"
	"testing"

	"nurture_backend/internal/nurture/domain"
	"nurture_backend/internal/nurture/intent"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Vocabulary[intent.CategoryStop]) == 0 {
		t.Error("default STOP vocabulary is empty")
	}
	if _, ok := s.Templates[domain.StageDay1]; !ok {
		t.Error("default templates missing DAY_1")
	}
}

func TestLoadSettingsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nurture.yaml")
	content := `
vocabulary:
  STOP:
    - basta
templates:
  DAY_1: "Hello {name}"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Vocabulary[intent.CategoryStop]; len(got) != 1 || got[0] != "basta" {
		t.Errorf("STOP vocabulary = %v, want [basta]", got)
	}
	if s.Templates[domain.StageDay1] != "Hello {name}" {
		t.Errorf("DAY_1 template = %q, want override", s.Templates[domain.StageDay1])
	}
	// Untouched categories keep their defaults.
	if len(s.Vocabulary[intent.CategoryNegative]) == 0 {
		t.Error("NEGATIVE vocabulary lost its defaults")
	}
	if s.Templates[domain.StageDay2] == "" {
		t.Error("DAY_2 template lost its default")
	}
}

func TestLoadSettingsRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()

	badVocab := filepath.Join(dir, "vocab.yaml")
	if err := os.WriteFile(badVocab, []byte("vocabulary:\n  SHOUTING:\n    - hey\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(badVocab); err == nil {
		t.Error("expected error for unknown vocabulary category")
	}

	badStage := filepath.Join(dir, "stage.yaml")
	if err := os.WriteFile(badStage, []byte("templates:\n  DAY_99: \"hi\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(badStage); err == nil {
		t.Error("expected error for unknown stage")
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	if _, err := LoadSettings("/nonexistent/nurture.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
