// Package resource describes the resources the pipeline republishes and
// plans where they are read from and written to.
package resource

import (
	"path"
	"path/filepath"
)

// Kind selects the output subtree a resource is published under.
type Kind string

const (
	Bible              Kind = "bibles"
	TranslationWords   Kind = "translationHelps/translationWords"
	TranslationAcademy Kind = "translationHelps/translationAcademy"
	TranslationNotes   Kind = "translationHelps/translationNotes"
	StudyNotes         Kind = "translationHelps/studyNotes"
)

// Kinds lists every known kind.
var Kinds = []Kind{Bible, TranslationWords, TranslationAcademy, TranslationNotes, StudyNotes}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsHelps reports whether k lives under translationHelps.
func (k Kind) IsHelps() bool {
	return k.Valid() && k != Bible
}

// Leaf is the last path element of the kind, e.g. "translationWords".
func (k Kind) Leaf() string {
	return path.Base(string(k))
}

// Descriptor identifies one resource for one pipeline run.
type Descriptor struct {
	LanguageID string
	ResourceID string
	Book       string // empty means every book
	SourceURL  string // provenance only
}

// Repo is the checkout directory name: <languageId>_<resourceId>.
func (d Descriptor) Repo() string {
	return d.LanguageID + "_" + d.ResourceID
}

func (d Descriptor) String() string {
	if d.Book != "" {
		return d.Repo() + "/" + d.Book
	}
	return d.Repo()
}

// RepoPath returns workingDir/<languageId>_<resourceId>. It does not touch
// the filesystem.
func RepoPath(workingDir, languageID, resourceID string) string {
	return filepath.Join(workingDir, languageID+"_"+resourceID)
}

// OutputPath returns resourcesRoot/<languageId>/<kind>/<id>/v<version>.
// Helps kinds are keyed by the kind itself and pass an empty id. The result
// depends only on the arguments.
func OutputPath(resourcesRoot, languageID string, kind Kind, id, version string) string {
	return filepath.Join(resourcesRoot, languageID, filepath.FromSlash(string(kind)), id, "v"+version)
}

// VersionsDir is the directory holding every published version of a
// resource: the parent of the path OutputPath returns.
func VersionsDir(resourcesRoot, languageID string, kind Kind, id string) string {
	return filepath.Join(resourcesRoot, languageID, filepath.FromSlash(string(kind)), id)
}
