package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/tcpub/internal/config"
	"github.com/jorge-barreto/tcpub/internal/ux"
)

const categoriesFile = "categories.yaml"

var configTemplate = `language: en
book: all
ult: ult
ust: ust
study-notes: false
continue-on-error: false

original-languages:
  - language: hbo
    resource: uhb
  - language: el-x-koine
    resource: ugnt

processor:
  command: node ./process.js "$OP" --src "$SOURCE_PATH" --out "$OUTPUT_PATH"
  timeout: 30

categories: categories.yaml
source-url: https://git.door43.org/unfoldingWord
`

var categoriesTemplate = `discourse:
  writing-background: Background Information
  writing-endofstory: End of Story
  writing-newevent: Introduction of a New Event
  writing-participants: Introduction of New and Old Participants
  writing-quotations: Quotations and Quote Margins
numbers:
  translate-numbers: Numbers
  translate-fraction: Fractions
  translate-ordinal: Ordinal Numbers
culture:
  translate-names: How to Translate Names
  translate-symaction: Symbolic Action
  translate-unknown: Translate Unknowns
  translate-bweight: Biblical Weight
  translate-bmoney: Biblical Money
figures:
  figs-metaphor: Metaphor
  figs-simile: Simile
  figs-idiom: Idiom
  figs-metonymy: Metonymy
  figs-rquestion: Rhetorical Question
  figs-synecdoche: Synecdoche
grammar:
  figs-activepassive: Active or Passive
  figs-abstractnouns: Abstract Nouns
  grammar-connect-logic-result: Connect - Reason-and-Result Relationship
  figs-explicit: Assumed Knowledge and Implicit Information
`

// Init writes an example tcpub.yaml and category map into targetDir.
func Init(targetDir string) error {
	if info, err := os.Stat(targetDir); err != nil || !info.IsDir() {
		return fmt.Errorf("%s is not a directory", targetDir)
	}
	files := []struct{ name, content string }{
		{config.DefaultFile, configTemplate},
		{categoriesFile, categoriesTemplate},
	}
	for _, f := range files {
		if _, err := os.Stat(filepath.Join(targetDir, f.name)); err == nil {
			return fmt.Errorf("%s already exists in %s", f.name, targetDir)
		}
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(targetDir, f.name), []byte(f.content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
	}

	fmt.Fprintf(ux.Out, "\n%s%s✓ Initialized %s%s\n\n", ux.Bold, ux.Green, targetDir, ux.Reset)
	fmt.Fprintf(ux.Out, "  Created:\n")
	fmt.Fprintf(ux.Out, "    %s%s%s       run configuration\n", ux.Cyan, config.DefaultFile, ux.Reset)
	fmt.Fprintf(ux.Out, "    %s%s%s  translationAcademy article categories\n\n", ux.Cyan, categoriesFile, ux.Reset)
	fmt.Fprintf(ux.Out, "  Next steps:\n")
	fmt.Fprintf(ux.Out, "    1. Set %sprocessor.command%s in %s\n", ux.Cyan, ux.Reset, config.DefaultFile)
	fmt.Fprintf(ux.Out, "    2. Check out the resource repositories into %s\n", targetDir)
	fmt.Fprintf(ux.Out, "    3. Run %stcpub run <lang> %s --dry-run%s to preview\n\n",
		ux.Cyan, filepath.Join(targetDir, "resources"), ux.Reset)
	return nil
}
