package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalid matches every configuration error.
var ErrInvalid = errors.New("invalid configuration")

// ValidationError is a configuration problem found before any stage runs.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return "config: " + e.msg }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

func invalid(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

const usage = "run <languageId> <resourcesPath> [book|all] [ultId] [ustId]"

// ApplyArgs sets the positional run arguments on cfg.
func ApplyArgs(cfg *Config, args []string) error {
	if len(args) < 2 {
		return invalid("expected at least 2 arguments, usage: %s", usage)
	}
	if len(args) > 5 {
		return invalid("too many arguments, usage: %s", usage)
	}
	cfg.Language = args[0]
	cfg.ResourcesRoot = args[1]
	if len(args) > 2 {
		cfg.Book = args[2]
	}
	if len(args) > 3 {
		cfg.ULT = args[3]
	}
	if len(args) > 4 {
		cfg.UST = args[4]
	}
	return nil
}

// Validate checks the config for errors and sets defaults.
func Validate(cfg *Config) error {
	if cfg.Language == "" {
		return invalid("'language' is required")
	}
	if err := checkID("language", cfg.Language); err != nil {
		return err
	}
	if cfg.ResourcesRoot == "" {
		return invalid("resources path is required")
	}
	root, err := filepath.Abs(cfg.ResourcesRoot)
	if err != nil {
		return invalid("resources path %q: %v", cfg.ResourcesRoot, err)
	}
	cfg.ResourcesRoot = root
	if cfg.WorkingDir == "" {
		cfg.WorkingDir = filepath.Dir(root)
	}
	if info, err := os.Stat(cfg.WorkingDir); err != nil || !info.IsDir() {
		return invalid("parent of resources path does not exist: %s", cfg.WorkingDir)
	}

	cfg.Book = NormalizeBook(cfg.Book)
	if cfg.Book != "" {
		if err := checkID("book", cfg.Book); err != nil {
			return err
		}
	}

	if cfg.ULT == "" {
		cfg.ULT = "ult"
	}
	if cfg.UST == "" {
		cfg.UST = "ust"
	}
	for _, id := range []struct{ field, value string }{{"ult", cfg.ULT}, {"ust", cfg.UST}} {
		if err := checkID(id.field, id.value); err != nil {
			return err
		}
	}
	if cfg.ULT == cfg.UST {
		return invalid("'ult' and 'ust' must differ (both %q)", cfg.ULT)
	}

	if len(cfg.OriginalLanguages) == 0 {
		cfg.OriginalLanguages = append([]Resource(nil), DefaultOriginalLanguages...)
	}
	seen := make(map[string]bool)
	for i, r := range cfg.OriginalLanguages {
		if r.Language == "" || r.Resource == "" {
			return invalid("original-languages[%d]: 'language' and 'resource' are required", i)
		}
		if err := checkID("original-languages language", r.Language); err != nil {
			return err
		}
		if err := checkID("original-languages resource", r.Resource); err != nil {
			return err
		}
		key := r.Language + "_" + r.Resource
		if seen[key] {
			return invalid("original-languages: duplicate resource %q", key)
		}
		seen[key] = true
	}

	if cfg.Processor.Timeout < 0 {
		return invalid("processor.timeout must be >= 0")
	}
	if cfg.Processor.Timeout == 0 {
		cfg.Processor.Timeout = 30
	}

	if cfg.Categories != "" {
		if !filepath.IsAbs(cfg.Categories) {
			cfg.Categories = filepath.Join(cfg.WorkingDir, cfg.Categories)
		}
		if _, err := os.Stat(cfg.Categories); err != nil {
			return invalid("categories file %q not found", cfg.Categories)
		}
	}
	return nil
}

// checkID rejects identifiers that would escape their directory when used
// in a path.
func checkID(field, value string) error {
	if value == "" {
		return invalid("'%s' must not be empty", field)
	}
	if strings.ContainsAny(value, `/\`) || value == "." || value == ".." {
		return invalid("'%s' %q must not contain path separators", field, value)
	}
	return nil
}
