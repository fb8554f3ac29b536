// Package pipeline drives the publishing stages for one language in
// dependency order, keeping resumable state beside the checkouts.
package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jorge-barreto/tcpub/internal/config"
	"github.com/jorge-barreto/tcpub/internal/resource"
	"github.com/jorge-barreto/tcpub/internal/stage"
)

// Stage is one planned unit of work.
type Stage struct {
	Name     string
	Kind     stage.Kind
	Resource resource.Descriptor
	After    []string // stages that must succeed first
}

// Plan builds the ordered stage list for cfg: original-language Bibles,
// the two translated Bibles, translationAcademy, translationWords, then
// translationNotes or studyNotes.
func Plan(cfg *config.Config) []Stage {
	book := cfg.BookFilter()
	var stages []Stage
	add := func(k stage.Kind, lang, id string, after ...string) string {
		res := resource.Descriptor{LanguageID: lang, ResourceID: id, Book: book}
		if cfg.SourceURL != "" {
			res.SourceURL = strings.TrimSuffix(cfg.SourceURL, "/") + "/" + res.Repo()
		}
		stages = append(stages, Stage{Name: res.Repo(), Kind: k, Resource: res, After: after})
		return res.Repo()
	}

	for _, ol := range cfg.OriginalLanguages {
		add(stage.OriginalBible, ol.Language, ol.Resource)
	}
	add(stage.TranslatedBible, cfg.Language, cfg.ULT)
	add(stage.TranslatedBible, cfg.Language, cfg.UST)
	ta := add(stage.Academy, cfg.Language, "ta")
	tw := add(stage.Words, cfg.Language, "tw")
	if cfg.StudyNotes {
		add(stage.StudyNotes, cfg.Language, "sn", ta, tw)
	} else {
		add(stage.Notes, cfg.Language, "tn", ta, tw)
	}
	return stages
}

// Names returns the stage names in order.
func Names(stages []Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	return names
}

// Index resolves a --from value, either a 1-based stage number or a stage
// name, to a 0-based index.
func Index(stages []Stage, from string) (int, error) {
	if n, err := strconv.Atoi(from); err == nil {
		if n < 1 || n > len(stages) {
			return 0, fmt.Errorf("stage %d out of range (1-%d)", n, len(stages))
		}
		return n - 1, nil
	}
	for i, s := range stages {
		if s.Name == from {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q (have %s)", from, strings.Join(Names(stages), ", "))
}
