package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/tcpub/internal/config"
	"github.com/jorge-barreto/tcpub/internal/digest"
	"github.com/jorge-barreto/tcpub/internal/docs"
	"github.com/jorge-barreto/tcpub/internal/groupdata"
	"github.com/jorge-barreto/tcpub/internal/pipeline"
	"github.com/jorge-barreto/tcpub/internal/processor"
	"github.com/jorge-barreto/tcpub/internal/scaffold"
	"github.com/jorge-barreto/tcpub/internal/stage"
	"github.com/jorge-barreto/tcpub/internal/state"
	"github.com/jorge-barreto/tcpub/internal/ux"
	"github.com/jorge-barreto/tcpub/internal/version"
)

func main() {
	app := &cli.Command{
		Name:        "tcpub",
		Usage:       "Republish translation resources into a versioned resources tree",
		Description: "Run 'tcpub docs' for documentation on layout, stages and config.",
		Commands: []*cli.Command{
			initCmd(),
			runCmd(),
			statusCmd(),
			versionsCmd(),
			digestCmd(),
			docsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %v\n", ux.Red, ux.Reset, err)
		os.Exit(1)
	}
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Publish every resource for a language",
		ArgsUsage: "<languageId> <resourcesPath> [book|all] [ultId] [ustId]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Config file (default: tcpub.yaml beside the resources path)"},
			&cli.StringFlag{Name: "processor", Usage: "Content processor command, overrides the config"},
			&cli.StringFlag{Name: "categories", Usage: "Category map for group data, overrides the config"},
			&cli.BoolFlag{Name: "study-notes", Usage: "Publish studyNotes instead of translationNotes"},
			&cli.BoolFlag{Name: "continue", Usage: "Keep running independent stages after a failure"},
			&cli.StringFlag{Name: "from", Usage: "Start from stage N (1-indexed) or stage name"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Print the stage plan without executing"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Run log level (trace, debug, info, warn, error)"},
			&cli.BoolFlag{Name: "verbose", Usage: "Copy the run log to stderr at --log-level instead of warn"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd.String("config"), cmd.Args().Slice())
			if err != nil {
				return err
			}
			if v := cmd.String("processor"); v != "" {
				cfg.Processor.Command = v
			}
			if v := cmd.String("categories"); v != "" {
				cfg.Categories = v
			}
			if cmd.Bool("study-notes") {
				cfg.StudyNotes = true
			}
			if cmd.Bool("continue") {
				cfg.ContinueOnError = true
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			fsys := afero.NewOsFs()
			var articles *groupdata.ArticleMap
			if cfg.Categories != "" {
				if articles, err = groupdata.LoadArticleMap(fsys, cfg.Categories); err != nil {
					return err
				}
			}

			stateDir := state.Dir(cfg.WorkingDir)
			st, err := state.Load(stateDir)
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}

			runner := &stage.Runner{
				FS:            fsys,
				WorkingDir:    cfg.WorkingDir,
				ResourcesRoot: cfg.ResourcesRoot,
				Articles:      articles,
				Processor: &processor.Command{
					Run:     cfg.Processor.Command,
					Timeout: time.Duration(cfg.Processor.Timeout) * time.Minute,
					LogDir:  state.LogDir(stateDir),
					Stdout:  os.Stdout,
				},
			}

			if cmd.Bool("dry-run") {
				pipeline.New(cfg, runner, st, nil).DryRun(os.Stdout)
				return nil
			}

			if err := processor.Preflight(cfg.Processor.Command); err != nil {
				return err
			}
			if err := state.EnsureDir(stateDir); err != nil {
				return err
			}
			logger, closeLog, err := newLogger(stateDir, cmd.String("log-level"), cmd.Bool("verbose"))
			if err != nil {
				return err
			}
			defer closeLog()

			p := pipeline.New(cfg, runner, st, logger)
			from := -1
			if v := cmd.String("from"); v != "" {
				if from, err = pipeline.Index(p.Stages, v); err != nil {
					return err
				}
			}
			p.Start(from)
			if err := st.Save(stateDir); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
			defer stop()

			return p.Run(ctx)
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show the state of the last run",
		ArgsUsage: "<resourcesPath>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Config file (default: tcpub.yaml beside the resources path)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root := cmd.Args().First()
			if root == "" {
				return fmt.Errorf("resources path argument is required")
			}
			cfg, err := loadConfig(cmd.String("config"), []string{"-", root})
			if err != nil {
				return err
			}
			stateDir := state.Dir(cfg.WorkingDir)
			st, err := state.Load(stateDir)
			if err != nil {
				return fmt.Errorf("loading state: %w", err)
			}
			if st.Language == "" {
				return fmt.Errorf("no run recorded in %s", stateDir)
			}
			cfg.Language = st.Language
			cfg.Book = st.Book
			if err := config.Validate(cfg); err != nil {
				return err
			}

			ux.RenderStatus(pipeline.Names(pipeline.Plan(cfg)), st, stateDir)

			rec, err := state.LoadRecord(stateDir, st.RunID)
			if err != nil {
				return nil
			}
			fmt.Printf("%sOutputs:%s\n", ux.Bold, ux.Reset)
			for _, s := range rec.Stages {
				for _, o := range s.Outputs {
					fmt.Printf("  %s  %s\n", shortDigest(o.Digest), o.Path)
				}
			}
			fmt.Println()
			return nil
		},
	}
}

func versionsCmd() *cli.Command {
	return &cli.Command{
		Name:      "versions",
		Usage:     "List version directories in natural order",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("path argument is required")
			}
			tags, err := version.List(afero.NewOsFs(), path)
			if err != nil {
				return err
			}
			if len(tags) == 0 {
				fmt.Printf("no versions found in %s\n", path)
				return nil
			}
			for _, tag := range tags {
				fmt.Println(tag)
			}
			fmt.Printf("\n%slatest:%s %s\n", ux.Bold, ux.Reset, tags[len(tags)-1])
			return nil
		},
	}
}

func digestCmd() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Print the BLAKE3 digest of a directory tree",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("path argument is required")
			}
			sum, err := digest.Tree(afero.NewOsFs(), path)
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s\n", sum, path)
			return nil
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Write an example tcpub.yaml and categories.yaml",
		ArgsUsage: "[dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				var err error
				if dir, err = os.Getwd(); err != nil {
					return err
				}
			}
			return scaffold.Init(dir)
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				fmt.Print("\nAvailable topics:\n\n")
				for _, t := range docs.All() {
					fmt.Printf("  %-14s %s\n", t.Name, t.Summary)
				}
				fmt.Println("\nRun 'tcpub docs <topic>' to read a topic.")
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Print(t.Content)
			return nil
		},
	}
}

// loadConfig reads the config file, if any, and applies the positional
// arguments over it. The default file is looked up beside the resources
// path, in what becomes the working directory.
func loadConfig(path string, args []string) (*config.Config, error) {
	var scratch config.Config
	if err := config.ApplyArgs(&scratch, args); err != nil {
		return nil, err
	}
	explicit := path != ""
	if !explicit {
		root, err := filepath.Abs(scratch.ResourcesRoot)
		if err != nil {
			return nil, err
		}
		path = filepath.Join(filepath.Dir(root), config.DefaultFile)
	}
	cfg, err := config.Load(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = &config.Config{}
	}
	if err := config.ApplyArgs(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes the run log to <stateDir>/logs/run.log at level, and
// warnings and errors to stderr. With verbose, stderr gets level too.
func newLogger(stateDir, level string, verbose bool) (hclog.Logger, func(), error) {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		return nil, nil, fmt.Errorf("unknown log level %q", level)
	}
	f, err := os.OpenFile(state.RunLogPath(stateDir), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening run log: %w", err)
	}
	logger := hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:   "tcpub",
		Level:  lvl,
		Output: f,
	})
	stderrLevel := hclog.Warn
	if verbose {
		stderrLevel = lvl
	}
	logger.RegisterSink(hclog.NewSinkAdapter(&hclog.LoggerOptions{
		Level:  stderrLevel,
		Output: os.Stderr,
	}))
	return logger, func() { f.Close() }, nil
}

func shortDigest(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	if sum == "" {
		return "-"
	}
	return sum
}
