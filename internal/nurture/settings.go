// Package nurture hosts the drip engine. This file loads the optional
// settings file that overrides the built-in vocabulary and templates.
package nurture

import (
	"fmt"
	"os"

	"nurture_backend/internal/nurture/domain"
	"nurture_backend/internal/nurture/intent"
	"nurture_backend/internal/nurture/stage"

	"gopkg.in/yaml.v3"
)

// Settings are the data-driven parts of the engine: classifier phrase
// lists and per-stage message templates.
type Settings struct {
	Vocabulary intent.Vocabulary
	Templates  stage.Templates
}

type settingsFile struct {
	Vocabulary map[string][]string `yaml:"vocabulary"`
	Templates  map[string]string   `yaml:"templates"`
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		Vocabulary: intent.DefaultVocabulary(),
		Templates:  stage.DefaultTemplates(),
	}
}

// LoadSettings merges overrides from the YAML file at path onto the
// defaults. An empty path returns the defaults unchanged. Unknown
// vocabulary categories or stages in the file are an error, so typos
// fail loudly at startup instead of silently dropping phrases.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read nurture settings: %w", err)
	}
	var file settingsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Settings{}, fmt.Errorf("parse nurture settings: %w", err)
	}

	vocabOverride := make(intent.Vocabulary, len(file.Vocabulary))
	for cat, phrases := range file.Vocabulary {
		c := intent.Category(cat)
		if _, ok := settings.Vocabulary[c]; !ok {
			return Settings{}, fmt.Errorf("nurture settings: unknown vocabulary category %q", cat)
		}
		vocabOverride[c] = phrases
	}
	settings.Vocabulary = settings.Vocabulary.Merge(vocabOverride)

	tmplOverride := make(stage.Templates, len(file.Templates))
	for st, tmpl := range file.Templates {
		s := domain.Stage(st)
		if !domain.IsValidStage(s) {
			return Settings{}, fmt.Errorf("nurture settings: unknown stage %q", st)
		}
		tmplOverride[s] = tmpl
	}
	settings.Templates = settings.Templates.Merge(tmplOverride)

	return settings, nil
}
