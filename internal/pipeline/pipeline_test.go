package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/jorge-barreto/tcpub/internal/config"
	"github.com/jorge-barreto/tcpub/internal/groupdata"
	"github.com/jorge-barreto/tcpub/internal/manifest"
	"github.com/jorge-barreto/tcpub/internal/processor"
	"github.com/jorge-barreto/tcpub/internal/resource"
	"github.com/jorge-barreto/tcpub/internal/stage"
	"github.com/jorge-barreto/tcpub/internal/state"
	"github.com/jorge-barreto/tcpub/internal/ux"
)

func TestMain(m *testing.M) {
	ux.Out = io.Discard
	os.Exit(m.Run())
}

// fakeProcessor writes one file per call into the output path and records
// which operations ran, in order.
type fakeProcessor struct {
	fs    afero.Fs
	calls []string
	fail  map[string]error // repo -> error
}

func (f *fakeProcessor) write(op processor.Op, res resource.Descriptor, out string) error {
	f.calls = append(f.calls, string(op)+" "+res.Repo())
	if err := f.fail[res.Repo()]; err != nil {
		return err
	}
	return afero.WriteFile(f.fs, filepath.Join(out, string(op)+".json"), []byte(`{"repo":"`+res.Repo()+`"}`), 0644)
}

func (f *fakeProcessor) ParseBiblePackage(ctx context.Context, res resource.Descriptor, repoPath, outputPath string) error {
	return f.write(processor.OpParseBible, res, outputPath)
}

func (f *fakeProcessor) GenerateTwGroupData(ctx context.Context, res resource.Descriptor, alignedBiblePath, outputPath string) error {
	return f.write(processor.OpTwGroupData, res, outputPath)
}

func (f *fakeProcessor) ProcessTranslationAcademy(ctx context.Context, res resource.Descriptor, repoPath, outputPath string) error {
	return f.write(processor.OpAcademy, res, outputPath)
}

func (f *fakeProcessor) ProcessTranslationWords(ctx context.Context, res resource.Descriptor, repoPath, outputPath string) error {
	return f.write(processor.OpWords, res, outputPath)
}

func (f *fakeProcessor) ProcessTranslationNotes(ctx context.Context, res resource.Descriptor, repoPath, outputPath, resourcesRoot string) error {
	// The helps this stage cross-references must already be published.
	for _, kind := range []resource.Kind{resource.TranslationAcademy, resource.TranslationWords} {
		dir := resource.OutputPath(resourcesRoot, res.LanguageID, kind, "", "10")
		if ok, _ := afero.DirExists(f.fs, dir); !ok {
			return fmt.Errorf("%s not written before notes", dir)
		}
	}
	if err := f.write(processor.OpNotes, res, outputPath); err != nil {
		return err
	}
	raw := `[{"contextId":{"groupId":"figs-metaphor"},"occurrenceNote":"x"},{"contextId":{"groupId":"grammar-connect"}}]`
	return afero.WriteFile(f.fs, filepath.Join(outputPath, groupdata.RawDir, "tit.json"), []byte(raw), 0644)
}

type fixture struct {
	fs   afero.Fs
	fake *fakeProcessor
	cfg  *config.Config
	st   *state.State
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	work := t.TempDir()
	fsys := afero.NewMemMapFs()
	cfg := &config.Config{
		Language:          "en",
		ULT:               "ult",
		UST:               "ust",
		OriginalLanguages: config.DefaultOriginalLanguages,
		WorkingDir:        work,
		ResourcesRoot:     filepath.Join(work, "resources"),
	}
	f := &fixture{
		fs:   fsys,
		fake: &fakeProcessor{fs: fsys, fail: make(map[string]error)},
		cfg:  cfg,
		st:   &state.State{},
	}
	for _, repo := range []string{"hbo_uhb", "el-x-koine_ugnt", "en_ult", "en_ust", "en_ta", "en_tw", "en_tn", "en_sn"} {
		f.checkout(t, repo, "10")
	}
	return f
}

func (f *fixture) checkout(t *testing.T, repo, ver string) {
	t.Helper()
	path := filepath.Join(f.cfg.WorkingDir, repo, manifest.FileName)
	content := fmt.Sprintf("dublin_core:\n  version: '%s'\n", ver)
	if err := afero.WriteFile(f.fs, path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) pipeline() *Pipeline {
	runner := &stage.Runner{
		FS:            f.fs,
		Processor:     f.fake,
		WorkingDir:    f.cfg.WorkingDir,
		ResourcesRoot: f.cfg.ResourcesRoot,
	}
	return New(f.cfg, runner, f.st, nil)
}

func TestPlan_Order(t *testing.T) {
	cfg := &config.Config{Language: "en", ULT: "ult", UST: "ust", OriginalLanguages: config.DefaultOriginalLanguages}
	stages := Plan(cfg)
	want := []string{"hbo_uhb", "el-x-koine_ugnt", "en_ult", "en_ust", "en_ta", "en_tw", "en_tn"}
	if diff := cmp.Diff(want, Names(stages)); diff != "" {
		t.Fatalf("stages (-want +got):\n%s", diff)
	}
	notes := stages[len(stages)-1]
	if notes.Kind != stage.Notes {
		t.Fatalf("last kind = %s", notes.Kind)
	}
	if diff := cmp.Diff([]string{"en_ta", "en_tw"}, notes.After); diff != "" {
		t.Fatalf("notes deps (-want +got):\n%s", diff)
	}

	cfg.StudyNotes = true
	cfg.Book = "tit"
	cfg.SourceURL = "https://git.door43.org/unfoldingWord/"
	stages = Plan(cfg)
	last := stages[len(stages)-1]
	if last.Name != "en_sn" || last.Kind != stage.StudyNotes {
		t.Fatalf("study notes stage = %+v", last)
	}
	if last.Resource.Book != "tit" {
		t.Fatalf("book = %q", last.Resource.Book)
	}
	if last.Resource.SourceURL != "https://git.door43.org/unfoldingWord/en_sn" {
		t.Fatalf("source url = %q", last.Resource.SourceURL)
	}
}

func TestPlan_AllBooks(t *testing.T) {
	cfg := &config.Config{Language: "en", Book: "all", ULT: "ult", UST: "ust"}
	for _, s := range Plan(cfg) {
		if s.Resource.Book != "" {
			t.Fatalf("%s: book = %q, want none", s.Name, s.Resource.Book)
		}
	}
}

func TestIndex(t *testing.T) {
	stages := Plan(&config.Config{Language: "en", ULT: "ult", UST: "ust", OriginalLanguages: config.DefaultOriginalLanguages})
	tests := []struct {
		from    string
		want    int
		wantErr string
	}{
		{"1", 0, ""},
		{"7", 6, ""},
		{"en_ta", 4, ""},
		{"0", 0, "out of range"},
		{"8", 0, "out of range"},
		{"en_xx", 0, "unknown stage"},
	}
	for _, tt := range tests {
		got, err := Index(stages, tt.from)
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Index(%q) error = %v, want %q", tt.from, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Index(%q) = %d, %v; want %d", tt.from, got, err, tt.want)
		}
	}
}

func TestRun_AllStages(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline()
	p.Start(-1)
	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"parseBiblePackage hbo_uhb",
		"generateTwGroupDataFromAlignedBible hbo_uhb",
		"parseBiblePackage el-x-koine_ugnt",
		"generateTwGroupDataFromAlignedBible el-x-koine_ugnt",
		"parseBiblePackage en_ult",
		"parseBiblePackage en_ust",
		"processTranslationAcademy en_ta",
		"processTranslationWords en_tw",
		"processTranslationNotes en_tn",
	}
	if diff := cmp.Diff(want, f.fake.calls); diff != "" {
		t.Fatalf("calls (-want +got):\n%s", diff)
	}

	if f.st.Status != state.StatusCompleted || f.st.StageIndex != 7 {
		t.Fatalf("state = %+v", f.st)
	}
	loaded, err := state.Load(p.StateDir)
	if err != nil || loaded.Status != state.StatusCompleted {
		t.Fatalf("saved state = %+v, %v", loaded, err)
	}

	notesOut := filepath.Join(f.cfg.ResourcesRoot, "en", "translationHelps", "translationNotes", "v10")
	if ok, _ := afero.Exists(f.fs, filepath.Join(notesOut, groupdata.RawDir)); ok {
		t.Fatal("raw group data should be removed after categorizing")
	}
	if ok, _ := afero.Exists(f.fs, filepath.Join(notesOut, "other", "tit.json")); !ok {
		t.Fatal("uncategorized items should be persisted under other")
	}

	rec, err := state.LoadRecord(p.StateDir, f.st.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != state.StatusCompleted || len(rec.Stages) != 7 {
		t.Fatalf("record = %+v", rec)
	}
	if len(rec.Stages[0].Outputs) != 2 {
		t.Fatalf("original bible outputs = %+v", rec.Stages[0].Outputs)
	}
	for path, sum := range rec.Digests() {
		if sum == "" {
			t.Errorf("%s has no digest", path)
		}
	}
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	f := newFixture(t)
	f.fs.RemoveAll(filepath.Join(f.cfg.WorkingDir, "en_ult"))
	p := f.pipeline()
	p.Start(-1)

	err := p.Run(context.Background())
	if !errors.Is(err, stage.ErrMissingCheckout) {
		t.Fatalf("err = %v, want missing checkout", err)
	}
	if !strings.Contains(err.Error(), "en_ult") {
		t.Fatalf("error should name the resource: %v", err)
	}
	if f.st.Status != state.StatusFailed || f.st.StageIndex != 2 {
		t.Fatalf("state = %+v", f.st)
	}
	for _, c := range f.fake.calls {
		if strings.HasSuffix(c, "en_ust") {
			t.Fatal("stages after the failure should not run")
		}
	}
	rec, err := state.LoadRecord(p.StateDir, f.st.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != state.StatusFailed {
		t.Fatalf("record status = %s", rec.Status)
	}
}

func TestRun_ResumeAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.fs.RemoveAll(filepath.Join(f.cfg.WorkingDir, "en_ult"))
	p := f.pipeline()
	p.Start(-1)
	if err := p.Run(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	runID := f.st.RunID

	f.checkout(t, "en_ult", "10")
	loaded, err := state.Load(p.StateDir)
	if err != nil {
		t.Fatal(err)
	}
	f.st = loaded
	f.fake.calls = nil
	p = f.pipeline()
	p.Start(-1)
	if f.st.RunID != runID || f.st.StageIndex != 2 {
		t.Fatalf("resume state = %+v", f.st)
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.fake.calls[0] != "parseBiblePackage en_ult" {
		t.Fatalf("resumed at %q", f.fake.calls[0])
	}
}

func TestRun_ContinueOnErrorBlocksNotes(t *testing.T) {
	f := newFixture(t)
	f.cfg.ContinueOnError = true
	f.fake.fail["en_ta"] = &processor.Error{Op: processor.OpAcademy, Resource: "en_ta", ExitCode: 3}
	p := f.pipeline()
	p.Start(-1)

	err := p.Run(context.Background())
	var merr *multierror.Error
	if !errors.As(err, &merr) || len(merr.Errors) != 1 {
		t.Fatalf("err = %v, want one aggregated failure", err)
	}
	var perr *processor.Error
	if !errors.As(err, &perr) || perr.ExitCode != 3 {
		t.Fatalf("processor error not preserved: %v", err)
	}

	ranWords, ranNotes := false, false
	for _, c := range f.fake.calls {
		ranWords = ranWords || c == "processTranslationWords en_tw"
		ranNotes = ranNotes || strings.HasSuffix(c, "en_tn")
	}
	if !ranWords {
		t.Fatal("independent stage should still run")
	}
	if ranNotes {
		t.Fatal("notes should be blocked when academy fails")
	}

	if f.st.Status != state.StatusFailed {
		t.Fatalf("status = %s", f.st.Status)
	}
	if diff := cmp.Diff([]string{"en_ta"}, f.st.Failed); diff != "" {
		t.Fatalf("failed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"en_tn"}, f.st.Blocked); diff != "" {
		t.Fatalf("blocked (-want +got):\n%s", diff)
	}
	saved, err := state.Load(p.StateDir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"en_tn"}, saved.Blocked); diff != "" {
		t.Fatalf("saved blocked (-want +got):\n%s", diff)
	}
	var status strings.Builder
	ux.Out = &status
	ux.RenderStatus(Names(p.Stages), saved, p.StateDir)
	ux.Out = io.Discard
	for _, line := range strings.Split(status.String(), "\n") {
		if strings.Contains(line, "en_tn") && !strings.Contains(line, "blocked") {
			t.Fatalf("status shows notes as %q", line)
		}
	}

	got := map[string]string{}
	for _, s := range p.Record.Stages {
		got[s.Resource] = s.Status
	}
	if got["en_ta"] != state.StageFailed || got["en_tn"] != state.StageBlocked || got["en_tw"] != state.StageDone {
		t.Fatalf("stage statuses = %v", got)
	}
}

func TestRun_Idempotent(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline()
	p.Start(-1)
	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := p.Record.Digests()
	firstID := p.Record.RunID

	p = f.pipeline()
	p.Start(-1)
	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.Record.RunID == firstID {
		t.Fatal("a completed run should not be resumed")
	}
	if diff := cmp.Diff(first, p.Record.Digests()); diff != "" {
		t.Fatalf("digests changed between runs (-first +second):\n%s", diff)
	}
}

func TestRun_MissingManifest(t *testing.T) {
	f := newFixture(t)
	manifestPath := filepath.Join(f.cfg.WorkingDir, "hbo_uhb", manifest.FileName)
	f.fs.Remove(manifestPath)
	p := f.pipeline()
	p.Start(-1)

	err := p.Run(context.Background())
	if !errors.Is(err, manifest.ErrNotFound) {
		t.Fatalf("err = %v, want manifest not found", err)
	}
	if !strings.Contains(err.Error(), manifestPath) {
		t.Fatalf("error should name %s: %v", manifestPath, err)
	}
	if len(f.fake.calls) != 0 {
		t.Fatalf("processor called: %v", f.fake.calls)
	}
	bibles := filepath.Join(f.cfg.ResourcesRoot, "hbo", "bibles", "uhb")
	if ok, _ := afero.Exists(f.fs, bibles); ok {
		t.Fatal("nothing should be written under the planned output path")
	}
}

func TestRun_Interrupted(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline()
	p.Start(-1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if f.st.Status != state.StatusInterrupted {
		t.Fatalf("status = %s", f.st.Status)
	}
	if len(f.fake.calls) != 0 {
		t.Fatal("no stage should run after cancellation")
	}
}

func TestStart_From(t *testing.T) {
	f := newFixture(t)
	f.st.Reset("run-1", "en", "")
	f.st.Failed = []string{"hbo_uhb", "en_ta"}
	f.st.Blocked = []string{"en_tn"}
	p := f.pipeline()
	p.Start(4)
	if len(f.st.Blocked) != 0 {
		t.Fatalf("blocked stages rerun from --from should be cleared: %v", f.st.Blocked)
	}
	if f.st.RunID != "run-1" || f.st.StageIndex != 4 {
		t.Fatalf("state = %+v", f.st)
	}
	if diff := cmp.Diff([]string{"hbo_uhb"}, f.st.Failed); diff != "" {
		t.Fatalf("failed (-want +got):\n%s", diff)
	}

	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.fake.calls[0] != "processTranslationAcademy en_ta" {
		t.Fatalf("first call = %q", f.fake.calls[0])
	}
}

func TestStart_FromOtherLanguageStartsNewRun(t *testing.T) {
	f := newFixture(t)
	f.st.Reset("run-1", "fr", "")
	p := f.pipeline()
	p.Start(2)
	if f.st.RunID == "run-1" || f.st.Language != "en" || f.st.StageIndex != 2 {
		t.Fatalf("state = %+v", f.st)
	}
}

func TestDryRun(t *testing.T) {
	f := newFixture(t)
	f.fs.RemoveAll(filepath.Join(f.cfg.WorkingDir, "en_ust"))
	p := f.pipeline()

	var b strings.Builder
	p.DryRun(&b)
	out := b.String()
	for _, want := range []string{
		"1. hbo_uhb (original-bible)",
		"7. en_tn (notes)",
		"after: en_ta, en_tw",
		"version: 10",
		filepath.Join(f.cfg.ResourcesRoot, "hbo", "translationHelps", "translationWords", "v10"),
		"repository checkout not found",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dry run missing %q:\n%s", want, out)
		}
	}
	if len(f.fake.calls) != 0 {
		t.Fatal("dry run must not call the processor")
	}
}
