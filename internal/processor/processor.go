// Package processor is the boundary to the external content processor that
// parses Bible packages and builds translation-helps group data. The
// pipeline treats every operation as synchronous and all-or-nothing.
package processor

import (
	"context"
	"fmt"

	"github.com/jorge-barreto/tcpub/internal/resource"
)

// Op names an operation of the content processor.
type Op string

const (
	OpParseBible  Op = "parseBiblePackage"
	OpTwGroupData Op = "generateTwGroupDataFromAlignedBible"
	OpAcademy     Op = "processTranslationAcademy"
	OpWords       Op = "processTranslationWords"
	OpNotes       Op = "processTranslationNotes"
)

// Processor is the interface for the content processor. Tests can substitute a fake.
type Processor interface {
	ParseBiblePackage(ctx context.Context, res resource.Descriptor, repoPath, outputPath string) error
	GenerateTwGroupData(ctx context.Context, res resource.Descriptor, alignedBiblePath, outputPath string) error
	ProcessTranslationAcademy(ctx context.Context, res resource.Descriptor, repoPath, outputPath string) error
	ProcessTranslationWords(ctx context.Context, res resource.Descriptor, repoPath, outputPath string) error
	ProcessTranslationNotes(ctx context.Context, res resource.Descriptor, repoPath, outputPath, resourcesRoot string) error
}

// Call holds the arguments of one processor invocation.
type Call struct {
	Op            Op
	Resource      resource.Descriptor
	SourcePath    string // repo checkout, or the aligned bible for OpTwGroupData
	OutputPath    string
	ResourcesRoot string
}

// Vars returns the variable substitution map for command templates.
func (c Call) Vars() map[string]string {
	return map[string]string{
		"OP":             string(c.Op),
		"LANGUAGE_ID":    c.Resource.LanguageID,
		"RESOURCE_ID":    c.Resource.ResourceID,
		"BOOK":           c.Resource.Book,
		"SOURCE_URL":     c.Resource.SourceURL,
		"SOURCE_PATH":    c.SourcePath,
		"OUTPUT_PATH":    c.OutputPath,
		"RESOURCES_ROOT": c.ResourcesRoot,
	}
}

// Error reports a failed processor operation.
type Error struct {
	Op       Op
	Resource string
	ExitCode int
	Output   string // tail of the combined output
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("processor %s (%s): %v", e.Op, e.Resource, e.Err)
	}
	return fmt.Sprintf("processor %s (%s): exit status %d", e.Op, e.Resource, e.ExitCode)
}

func (e *Error) Unwrap() error { return e.Err }
