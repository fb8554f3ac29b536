package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/jorge-barreto/tcpub/internal/resource"
)

// outputTail bounds how much command output is kept on an Error.
const outputTail = 4096

// Command runs the content processor as an external command via bash.
// The call's variables (OP, LANGUAGE_ID, RESOURCE_ID, BOOK, SOURCE_URL,
// SOURCE_PATH, OUTPUT_PATH, RESOURCES_ROOT) are exported to the child both
// under their own names and as TCPUB_<NAME>; bash expands them, so values
// are never parsed as shell. Quote them in Run ("$SOURCE_PATH") when paths
// may hold spaces.
type Command struct {
	Run     string
	Timeout time.Duration
	LogDir  string    // per-call logs are written here when set
	Stdout  io.Writer // live output, typically os.Stdout
}

// Invoke executes a single call and waits for it to finish.
func (c *Command) Invoke(ctx context.Context, call Call) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	vars := call.Vars()
	cmd := exec.CommandContext(ctx, "bash", "-c", c.Run)
	cmd.Env = BuildEnv(vars)
	cmd.WaitDelay = 5 * time.Second

	var captured bytes.Buffer
	writers := []io.Writer{&captured}
	if c.Stdout != nil {
		writers = append(writers, c.Stdout)
	}
	if c.LogDir != "" {
		if err := os.MkdirAll(c.LogDir, 0755); err != nil {
			return fmt.Errorf("creating log dir %s: %w", c.LogDir, err)
		}
		logFile, err := os.Create(LogPath(c.LogDir, call))
		if err != nil {
			return err
		}
		defer logFile.Close()
		writers = append(writers, logFile)
	}
	w := io.MultiWriter(writers...)
	cmd.Stdout = w
	cmd.Stderr = w

	runErr := cmd.Run()
	if runErr != nil && ctx.Err() != nil {
		return &Error{Op: call.Op, Resource: call.Resource.String(), ExitCode: -1, Output: tail(captured.Bytes()), Err: ctx.Err()}
	}
	code, err := exitStatus(runErr)
	if err != nil {
		return &Error{Op: call.Op, Resource: call.Resource.String(), Err: err}
	}
	if code != 0 {
		return &Error{Op: call.Op, Resource: call.Resource.String(), ExitCode: code, Output: tail(captured.Bytes())}
	}
	return nil
}

func (c *Command) ParseBiblePackage(ctx context.Context, res resource.Descriptor, repoPath, outputPath string) error {
	return c.Invoke(ctx, Call{Op: OpParseBible, Resource: res, SourcePath: repoPath, OutputPath: outputPath})
}

func (c *Command) GenerateTwGroupData(ctx context.Context, res resource.Descriptor, alignedBiblePath, outputPath string) error {
	return c.Invoke(ctx, Call{Op: OpTwGroupData, Resource: res, SourcePath: alignedBiblePath, OutputPath: outputPath})
}

func (c *Command) ProcessTranslationAcademy(ctx context.Context, res resource.Descriptor, repoPath, outputPath string) error {
	return c.Invoke(ctx, Call{Op: OpAcademy, Resource: res, SourcePath: repoPath, OutputPath: outputPath})
}

func (c *Command) ProcessTranslationWords(ctx context.Context, res resource.Descriptor, repoPath, outputPath string) error {
	return c.Invoke(ctx, Call{Op: OpWords, Resource: res, SourcePath: repoPath, OutputPath: outputPath})
}

func (c *Command) ProcessTranslationNotes(ctx context.Context, res resource.Descriptor, repoPath, outputPath, resourcesRoot string) error {
	return c.Invoke(ctx, Call{Op: OpNotes, Resource: res, SourcePath: repoPath, OutputPath: outputPath, ResourcesRoot: resourcesRoot})
}

// LogPath returns the log file for a call: <dir>/<repo>-<op>.log.
func LogPath(dir string, call Call) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.log", call.Resource.Repo(), call.Op))
}

// BuildEnv returns the child environment: the current environment, then
// each call variable as NAME and TCPUB_NAME, in sorted order. Later entries
// win over inherited ones.
func BuildEnv(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := os.Environ()
	for _, k := range keys {
		env = append(env, k+"="+vars[k], "TCPUB_"+k+"="+vars[k])
	}
	return env
}

func tail(b []byte) string {
	if len(b) > outputTail {
		b = b[len(b)-outputTail:]
	}
	return string(b)
}
