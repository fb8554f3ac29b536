// Package stage runs one pipeline stage for one resource: it locates the
// checkout, reads the manifest version, plans the output path and hands
// the work to the content processor.
package stage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/jorge-barreto/tcpub/internal/groupdata"
	"github.com/jorge-barreto/tcpub/internal/manifest"
	"github.com/jorge-barreto/tcpub/internal/processor"
	"github.com/jorge-barreto/tcpub/internal/resource"
	"github.com/jorge-barreto/tcpub/internal/version"
)

// Kind selects which stage operation runs for a resource.
type Kind string

const (
	OriginalBible   Kind = "original-bible"
	TranslatedBible Kind = "bible"
	Academy         Kind = "academy"
	Words           Kind = "words"
	Notes           Kind = "notes"
	StudyNotes      Kind = "study-notes"
)

var (
	// ErrMissingCheckout means the resource repository is not checked out.
	ErrMissingCheckout = errors.New("repository checkout not found")
	// ErrMissingDependency means helps output another stage must produce is absent.
	ErrMissingDependency = errors.New("required helps output not found")
)

// Error identifies the stage, resource and path a failure belongs to.
type Error struct {
	Stage    Kind
	Resource string
	Path     string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s stage for %s (%s): %v", e.Stage, e.Resource, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result describes what a stage read and wrote.
type Result struct {
	Stage       Kind
	Resource    resource.Descriptor
	RepoPath    string
	Version     string
	OutputPaths []string
	Categorized int // group-data items sorted into categories by the notes stages
}

// Runner holds what every stage needs. Paths are recomputed and manifests
// re-read on every call.
type Runner struct {
	FS            afero.Fs
	Processor     processor.Processor
	WorkingDir    string
	ResourcesRoot string
	Articles      *groupdata.ArticleMap
}

// OutputKind returns the resource kind a stage publishes.
func OutputKind(k Kind) resource.Kind {
	switch k {
	case Academy:
		return resource.TranslationAcademy
	case Words:
		return resource.TranslationWords
	case Notes:
		return resource.TranslationNotes
	case StudyNotes:
		return resource.StudyNotes
	default:
		return resource.Bible
	}
}

// Plan resolves the checkout, version and output paths for a stage without
// running it.
func (r *Runner) Plan(k Kind, res resource.Descriptor) (*Result, error) {
	repoPath := resource.RepoPath(r.WorkingDir, res.LanguageID, res.ResourceID)
	ok, err := afero.DirExists(r.FS, repoPath)
	if err != nil {
		return nil, &Error{Stage: k, Resource: res.Repo(), Path: repoPath, Err: err}
	}
	if !ok {
		return nil, &Error{Stage: k, Resource: res.Repo(), Path: repoPath, Err: ErrMissingCheckout}
	}
	ver, err := manifest.ReadVersion(r.FS, repoPath)
	if err != nil {
		return nil, &Error{Stage: k, Resource: res.Repo(), Path: manifest.Path(repoPath), Err: err}
	}

	kind := OutputKind(k)
	id := ""
	if kind == resource.Bible {
		id = res.ResourceID
	}
	out := []string{resource.OutputPath(r.ResourcesRoot, res.LanguageID, kind, id, ver)}
	if k == OriginalBible {
		out = append(out, resource.OutputPath(r.ResourcesRoot, res.LanguageID, resource.TranslationWords, "", ver))
	}
	return &Result{Stage: k, Resource: res, RepoPath: repoPath, Version: ver, OutputPaths: out}, nil
}

// Run executes the stage operation for k.
func (r *Runner) Run(ctx context.Context, k Kind, res resource.Descriptor) (*Result, error) {
	switch k {
	case OriginalBible:
		return r.OriginalBible(ctx, res)
	case TranslatedBible:
		return r.TranslatedBible(ctx, res)
	case Academy:
		return r.Academy(ctx, res)
	case Words:
		return r.Words(ctx, res)
	case Notes:
		return r.Notes(ctx, res, false)
	case StudyNotes:
		return r.Notes(ctx, res, true)
	default:
		return nil, fmt.Errorf("unknown stage kind: %s", k)
	}
}

// OriginalBible publishes an aligned original-language Bible, then builds
// translationWords group data from the Bible it just wrote. Both outputs
// share the Bible's manifest version.
func (r *Runner) OriginalBible(ctx context.Context, res resource.Descriptor) (*Result, error) {
	p, err := r.Plan(OriginalBible, res)
	if err != nil {
		return nil, err
	}
	biblePath, twPath := p.OutputPaths[0], p.OutputPaths[1]
	if err := r.Processor.ParseBiblePackage(ctx, res, p.RepoPath, biblePath); err != nil {
		return nil, &Error{Stage: OriginalBible, Resource: res.Repo(), Path: biblePath, Err: err}
	}
	if err := r.Processor.GenerateTwGroupData(ctx, res, biblePath, twPath); err != nil {
		return nil, &Error{Stage: OriginalBible, Resource: res.Repo(), Path: twPath, Err: err}
	}
	return p, nil
}

// TranslatedBible publishes a target-language Bible.
func (r *Runner) TranslatedBible(ctx context.Context, res resource.Descriptor) (*Result, error) {
	p, err := r.Plan(TranslatedBible, res)
	if err != nil {
		return nil, err
	}
	if err := r.Processor.ParseBiblePackage(ctx, res, p.RepoPath, p.OutputPaths[0]); err != nil {
		return nil, &Error{Stage: TranslatedBible, Resource: res.Repo(), Path: p.OutputPaths[0], Err: err}
	}
	return p, nil
}

// Academy publishes translationAcademy.
func (r *Runner) Academy(ctx context.Context, res resource.Descriptor) (*Result, error) {
	p, err := r.Plan(Academy, res)
	if err != nil {
		return nil, err
	}
	if err := r.Processor.ProcessTranslationAcademy(ctx, res, p.RepoPath, p.OutputPaths[0]); err != nil {
		return nil, &Error{Stage: Academy, Resource: res.Repo(), Path: p.OutputPaths[0], Err: err}
	}
	return p, nil
}

// Words publishes translationWords. It writes the same tree an
// original-language Bible stage with an equal version writes; the later
// stage wins.
func (r *Runner) Words(ctx context.Context, res resource.Descriptor) (*Result, error) {
	p, err := r.Plan(Words, res)
	if err != nil {
		return nil, err
	}
	if err := r.Processor.ProcessTranslationWords(ctx, res, p.RepoPath, p.OutputPaths[0]); err != nil {
		return nil, &Error{Stage: Words, Resource: res.Repo(), Path: p.OutputPaths[0], Err: err}
	}
	return p, nil
}

// Notes publishes translationNotes, or studyNotes when study is set. The
// processor cross-references translationAcademy and translationWords output
// under ResourcesRoot, so both must already be published. Raw group data the
// processor leaves behind is categorized afterwards.
func (r *Runner) Notes(ctx context.Context, res resource.Descriptor, study bool) (*Result, error) {
	k := Notes
	if study {
		k = StudyNotes
	}
	if err := r.checkHelps(k, res); err != nil {
		return nil, err
	}
	p, err := r.Plan(k, res)
	if err != nil {
		return nil, err
	}
	out := p.OutputPaths[0]
	if err := r.Processor.ProcessTranslationNotes(ctx, res, p.RepoPath, out, r.ResourcesRoot); err != nil {
		return nil, &Error{Stage: k, Resource: res.Repo(), Path: out, Err: err}
	}
	n, err := r.categorize(out, res.Book)
	if err != nil {
		return nil, &Error{Stage: k, Resource: res.Repo(), Path: out, Err: err}
	}
	p.Categorized = n
	return p, nil
}

// checkHelps verifies a published version of translationAcademy and
// translationWords exists for the resource's language.
func (r *Runner) checkHelps(k Kind, res resource.Descriptor) error {
	for _, dep := range []resource.Kind{resource.TranslationAcademy, resource.TranslationWords} {
		dir := resource.VersionsDir(r.ResourcesRoot, res.LanguageID, dep, "")
		_, ok, err := version.Latest(r.FS, dir)
		if err != nil && !errors.Is(err, version.ErrNotFound) {
			return &Error{Stage: k, Resource: res.Repo(), Path: dir, Err: err}
		}
		if !ok {
			return &Error{Stage: k, Resource: res.Repo(), Path: dir, Err: ErrMissingDependency}
		}
	}
	return nil
}

// categorize sorts raw group data left under out into categories, writes
// the category files and removes the raw directory. It returns how many
// items were categorized.
func (r *Runner) categorize(out, book string) (int, error) {
	ok, err := groupdata.RawExists(r.FS, out)
	if err != nil || !ok {
		return 0, err
	}
	rawDir := filepath.Join(out, groupdata.RawDir)
	books, err := groupdata.LoadRaw(r.FS, rawDir, book)
	if err != nil {
		return 0, err
	}
	c := groupdata.Categorize(books, r.Articles)
	if err := groupdata.PersistAll(r.FS, c, out); err != nil {
		return 0, err
	}
	if err := r.FS.RemoveAll(rawDir); err != nil {
		return 0, fmt.Errorf("removing %s: %w", rawDir, err)
	}
	return c.Count(), nil
}
