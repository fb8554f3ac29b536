package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "tcpub.yaml"

type Resource struct {
	Language string `yaml:"language"`
	Resource string `yaml:"resource"`
}

type Processor struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout"` // minutes
}

type Config struct {
	Language          string     `yaml:"language"`
	Book              string     `yaml:"book"`
	ULT               string     `yaml:"ult"`
	UST               string     `yaml:"ust"`
	StudyNotes        bool       `yaml:"study-notes"`
	ContinueOnError   bool       `yaml:"continue-on-error"`
	OriginalLanguages []Resource `yaml:"original-languages"`
	Processor         Processor  `yaml:"processor"`
	Categories        string     `yaml:"categories"`
	SourceURL         string     `yaml:"source-url"`

	// Taken from the command line.
	ResourcesRoot string `yaml:"-"`
	WorkingDir    string `yaml:"-"`
}

// DefaultOriginalLanguages are the Hebrew OT and Greek NT.
var DefaultOriginalLanguages = []Resource{
	{Language: "hbo", Resource: "uhb"},
	{Language: "el-x-koine", Resource: "ugnt"},
}

// Load reads a YAML config file. The result still needs Validate once
// command-line values have been applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BookFilter returns the book to scope processing to, or "" for every book.
func (c *Config) BookFilter() string {
	return NormalizeBook(c.Book)
}

// NormalizeBook maps the literal "all" to no filter.
func NormalizeBook(book string) string {
	if book == "all" {
		return ""
	}
	return book
}
