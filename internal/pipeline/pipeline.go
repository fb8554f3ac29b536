package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/xlab/treeprint"

	"github.com/jorge-barreto/tcpub/internal/config"
	"github.com/jorge-barreto/tcpub/internal/digest"
	"github.com/jorge-barreto/tcpub/internal/stage"
	"github.com/jorge-barreto/tcpub/internal/state"
	"github.com/jorge-barreto/tcpub/internal/ux"
)

// Pipeline runs the planned stages against one resources tree.
type Pipeline struct {
	Config   *config.Config
	Stages   []Stage
	Runner   *stage.Runner
	State    *state.State
	Timing   *state.Timing
	StateDir string
	Logger   hclog.Logger

	// Record describes the last call to Run.
	Record *state.Record
}

// New plans the stages for cfg.
func New(cfg *config.Config, runner *stage.Runner, st *state.State, logger hclog.Logger) *Pipeline {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Pipeline{
		Config:   cfg,
		Stages:   Plan(cfg),
		Runner:   runner,
		State:    st,
		StateDir: state.Dir(cfg.WorkingDir),
		Logger:   logger,
	}
}

// Start decides where the next run begins. from is a 0-based stage index,
// or -1 to resume an unfinished run for the same language and book and
// otherwise start over.
func (p *Pipeline) Start(from int) {
	st := p.State
	same := st.RunID != "" && st.Language == p.Config.Language && st.Book == p.Config.BookFilter()
	if from < 0 {
		resumable := st.Status == state.StatusFailed || st.Status == state.StatusInterrupted
		if same && resumable && st.StageIndex < len(p.Stages) {
			st.Status = state.StatusRunning
			p.Logger.Info("resuming run", "run", st.RunID, "stage", st.StageIndex+1)
			return
		}
		st.Reset(uuid.NewString(), p.Config.Language, p.Config.BookFilter())
		return
	}
	if !same {
		st.Reset(uuid.NewString(), p.Config.Language, p.Config.BookFilter())
	}
	st.SetStage(from)
	st.Status = state.StatusRunning
	// Outcomes of stages that will run again are forgotten.
	earlier := make(map[string]bool, from)
	for _, s := range p.Stages[:from] {
		earlier[s.Name] = true
	}
	st.Failed = keepEarlier(st.Failed, earlier)
	st.Blocked = keepEarlier(st.Blocked, earlier)
}

func keepEarlier(names []string, earlier map[string]bool) []string {
	var kept []string
	for _, n := range names {
		if earlier[n] {
			kept = append(kept, n)
		}
	}
	return kept
}

// failAndHint sets the failure status, saves state and the run record
// (warning on error), flushes timing, prints a resume hint, and returns err.
func (p *Pipeline) failAndHint(status string, err error) error {
	p.State.Status = status
	if saveErr := p.State.Save(p.StateDir); saveErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save state: %v\n", saveErr)
	}
	if p.Timing != nil {
		if flushErr := p.Timing.Flush(p.StateDir); flushErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to flush timing: %v\n", flushErr)
		}
	}
	p.finishRecord(status)
	ux.ResumeHint(p.Config.Language, p.Config.ResourcesRoot, p.State.StageIndex+1)
	return err
}

func (p *Pipeline) finishRecord(status string) {
	if p.Record == nil {
		return
	}
	p.Record.Finished = time.Now().UTC()
	p.Record.Status = status
	if err := p.Record.Save(p.StateDir); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save run record: %v\n", err)
	}
}

// Run executes stages from the current state index. By default the first
// failure aborts the run. With continue-on-error, stages whose
// dependencies failed are blocked and every failure is returned together.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := state.EnsureDir(p.StateDir); err != nil {
		return err
	}
	if p.State.RunID == "" {
		p.State.Reset(uuid.NewString(), p.Config.Language, p.Config.BookFilter())
	}
	timing, err := state.LoadTiming(p.StateDir)
	if err != nil {
		return fmt.Errorf("loading timing: %w", err)
	}
	p.Timing = timing
	if err := p.Runner.FS.MkdirAll(p.Config.ResourcesRoot, 0755); err != nil {
		return fmt.Errorf("creating resources root: %w", err)
	}

	p.Record = &state.Record{
		RunID:    p.State.RunID,
		Language: p.Config.Language,
		Book:     p.Config.BookFilter(),
		Started:  time.Now().UTC(),
		Status:   state.StatusRunning,
	}
	log := p.Logger.With("run", p.State.RunID)
	log.Info("run started", "language", p.Config.Language, "book", p.Config.BookFilter(),
		"stage", p.State.StageIndex+1, "root", p.Config.ResourcesRoot)

	// down holds stages that did not succeed, failed or blocked, so their
	// dependents are blocked in turn.
	down := make(map[string]bool)
	for _, f := range p.State.Failed {
		down[f] = true
	}
	for _, b := range p.State.Blocked {
		down[b] = true
	}
	var errs *multierror.Error
	var done, failed, blocked int

	total := len(p.Stages)
	for p.State.StageIndex < total {
		i := p.State.StageIndex
		s := p.Stages[i]

		if ctx.Err() != nil {
			log.Warn("run interrupted", "stage", s.Name)
			return p.failAndHint(state.StatusInterrupted, ctx.Err())
		}

		if dep := firstDown(s.After, down); dep != "" {
			ux.StageBlocked(i, s.Name, dep)
			log.Warn("stage blocked", "stage", s.Name, "dependency", dep)
			down[s.Name] = true
			p.State.Blocked = append(p.State.Blocked, s.Name)
			blocked++
			p.Record.Stages = append(p.Record.Stages, state.StageRecord{
				Stage: string(s.Kind), Resource: s.Name, Status: state.StageBlocked,
				Error: dep + " failed",
			})
			if err := p.advance(); err != nil {
				return err
			}
			continue
		}

		ux.StageHeader(i, total, s.Name, string(s.Kind))
		p.Timing.Begin(string(s.Kind), s.Name)
		res, err := p.Runner.Run(ctx, s.Kind, s.Resource)

		if ctx.Err() != nil {
			log.Warn("run interrupted", "stage", s.Name)
			return p.failAndHint(state.StatusInterrupted, ctx.Err())
		}

		if err != nil {
			ux.StageFail(i, s.Name, err.Error())
			log.Error("stage failed", "stage", s.Kind, "resource", s.Resource.Repo(), "error", err)
			p.Record.Stages = append(p.Record.Stages, state.StageRecord{
				Stage: string(s.Kind), Resource: s.Name, Status: state.StageFailed, Error: err.Error(),
			})
			if !p.Config.ContinueOnError {
				return p.failAndHint(state.StatusFailed, err)
			}
			errs = multierror.Append(errs, err)
			down[s.Name] = true
			p.State.Failed = append(p.State.Failed, s.Name)
			failed++
			p.Timing.Finish(s.Name)
			if err := p.advance(); err != nil {
				return err
			}
			continue
		}

		rec := state.StageRecord{
			Stage: string(s.Kind), Resource: s.Name, Version: res.Version, Status: state.StageDone,
		}
		for _, out := range res.OutputPaths {
			sum, err := digest.Tree(p.Runner.FS, out)
			if err != nil {
				log.Warn("output not digested", "stage", s.Name, "path", out, "error", err)
			}
			rec.Outputs = append(rec.Outputs, state.OutputRecord{Path: out, Digest: sum})
		}
		p.Record.Stages = append(p.Record.Stages, rec)
		log.Info("stage complete", "stage", s.Kind, "resource", s.Name, "version", res.Version,
			"categorized", res.Categorized)

		elapsed := p.Timing.Finish(s.Name)
		if err := p.Timing.Flush(p.StateDir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to flush timing: %v\n", err)
		}
		if err := p.advance(); err != nil {
			return err
		}
		done++
		ux.StageComplete(i, res.Version, elapsed)
		for _, out := range res.OutputPaths {
			ux.Output(out)
		}
	}

	if err := p.Timing.Flush(p.StateDir); err != nil {
		return fmt.Errorf("flushing timing: %w", err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		p.State.Status = state.StatusFailed
		if saveErr := p.State.Save(p.StateDir); saveErr != nil {
			return fmt.Errorf("saving final state: %w", saveErr)
		}
		p.finishRecord(state.StatusFailed)
		log.Error("run finished with failures", "failed", failed, "blocked", blocked)
		ux.Partial(done, failed, blocked)
		return err
	}
	p.State.Status = state.StatusCompleted
	if err := p.State.Save(p.StateDir); err != nil {
		return fmt.Errorf("saving final state: %w", err)
	}
	p.finishRecord(state.StatusCompleted)
	log.Info("run complete", "stages", done)
	ux.Success(total)
	return nil
}

func (p *Pipeline) advance() error {
	p.State.Advance()
	if err := p.State.Save(p.StateDir); err != nil {
		return fmt.Errorf("saving state after stage advance: %w", err)
	}
	return nil
}

func firstDown(after []string, down map[string]bool) string {
	for _, dep := range after {
		if down[dep] {
			return dep
		}
	}
	return ""
}

// DryRun writes the stage plan as a tree without invoking the processor.
// Stages whose checkout or manifest cannot be read show the error instead
// of their outputs.
func (p *Pipeline) DryRun(w io.Writer) {
	title := fmt.Sprintf("%s → %s", p.Config.Language, p.Config.ResourcesRoot)
	if book := p.Config.BookFilter(); book != "" {
		title += " (" + book + ")"
	}
	tree := treeprint.NewWithRoot(title)
	for i, s := range p.Stages {
		branch := tree.AddBranch(fmt.Sprintf("%d. %s (%s)", i+1, s.Name, s.Kind))
		if len(s.After) > 0 {
			branch.AddNode("after: " + strings.Join(s.After, ", "))
		}
		plan, err := p.Runner.Plan(s.Kind, s.Resource)
		if err != nil {
			branch.AddNode("error: " + err.Error())
			continue
		}
		branch.AddNode("source: " + plan.RepoPath)
		branch.AddNode("version: " + plan.Version)
		for _, out := range plan.OutputPaths {
			branch.AddNode("output: " + out)
		}
	}
	fmt.Fprintf(w, "\n%sDry run, %d stages:%s\n\n", ux.Bold, len(p.Stages), ux.Reset)
	fmt.Fprintln(w, tree.String())
}
