package docs

var topics = []Topic{
	{
		Name:    "quickstart",
		Title:   "Quick Start",
		Summary: "Getting started with tcpub",
		Content: topicQuickstart,
	},
	{
		Name:    "layout",
		Title:   "Directory Layout",
		Summary: "Checkouts, the resources tree, and the state directory",
		Content: topicLayout,
	},
	{
		Name:    "stages",
		Title:   "Stages",
		Summary: "Stage order, dependencies, failures, and resuming",
		Content: topicStages,
	},
	{
		Name:    "config",
		Title:   "Configuration Reference",
		Summary: "tcpub.yaml fields and defaults",
		Content: topicConfig,
	},
	{
		Name:    "processor",
		Title:   "Content Processor",
		Summary: "Operations, variables, and exit codes of the processor command",
		Content: topicProcessor,
	},
	{
		Name:    "groupdata",
		Title:   "Group Data",
		Summary: "How notes group data is sorted into categories",
		Content: topicGroupData,
	},
}

const topicQuickstart = `Quick Start
===========

1. Check out the resource repositories side by side:

    work/
      hbo_uhb/  el-x-koine_ugnt/
      en_ult/   en_ust/
      en_ta/    en_tw/    en_tn/

   Each checkout must hold a manifest.yaml with dublin_core.version.

2. Write an example config beside them:

    tcpub init work

   Set processor.command in work/tcpub.yaml to the command that does the
   actual content processing.

3. Preview the plan without executing:

    tcpub run en work/resources --dry-run

4. Run for real:

    tcpub run en work/resources

5. Check progress:

    tcpub status work/resources

CLI
---

  tcpub run <lang> <resourcesPath> [book|all] [ult] [ust]
                                    Publish every resource for a language
      --dry-run                     Print the stage plan
      --from N|name                 Start from stage N (1-indexed) or a stage name
      --continue                    Keep running stages whose dependencies succeeded
      --study-notes                 Publish studyNotes instead of translationNotes
      --processor CMD               Override processor.command
      --categories FILE             Override the category map
      --config FILE                 Use FILE instead of tcpub.yaml
      --log-level LEVEL             Run log level (default info)
      --verbose                     Copy the run log to stderr
  tcpub status <resourcesPath>      Show the state of the last run
  tcpub versions <path>             List version directories in natural order
  tcpub digest <path>               Print the BLAKE3 digest of a tree
  tcpub init [dir]                  Write tcpub.yaml and categories.yaml
  tcpub docs [topic]                Show documentation
`

const topicLayout = `Directory Layout
================

The working directory is the parent of the resources path. It holds one
checkout per resource, named <languageId>_<resourceId>.

Resources tree
--------------

  <resourcesPath>/<lang>/bibles/<resourceId>/v<version>/
  <resourcesPath>/<lang>/translationHelps/translationAcademy/v<version>/
  <resourcesPath>/<lang>/translationHelps/translationWords/v<version>/
  <resourcesPath>/<lang>/translationHelps/translationNotes/v<version>/
  <resourcesPath>/<lang>/translationHelps/studyNotes/v<version>/

<version> is dublin_core.version from the checkout's manifest.yaml, read
fresh for every stage. Re-running with unchanged manifests writes to the
same paths.

Notes output holds one directory per category:

  <category>/<book>.json     items for one book
  <category>/index.json      [{"id": ..., "name": ...}] for every group

State directory
---------------

  <workingDir>/.tcpub/
    state.json               current stage index and status
    timing.json              per-stage start, end and duration
    logs/run.log             structured run log
    logs/<repo>-<op>.log     processor output per call
    runs/<run id>.json       run record: versions, outputs, digests

Nothing tcpub keeps for itself is written under the resources path.
`

const topicStages = `Stages
======

Stages run one at a time in this order:

  1. original-bible   hbo_uhb, el-x-koine_ugnt (configurable). Publishes the
                      Bible, then generates translationWords group data from
                      it under the same version.
  2. bible            <lang>_<ult>, <lang>_<ust>
  3. academy          <lang>_ta
  4. words            <lang>_tw
  5. notes            <lang>_tn, or study-notes <lang>_sn with --study-notes

The notes stage depends on academy and words: the processor resolves links
into their published output, and the stage refuses to start unless a
version of each exists under the resources path.

The words stage writes the same translationWords tree an original-language
stage writes when their versions match. The later stage wins.

Failures
--------

A missing checkout or manifest, an unreadable version, or a processor
failure fails the stage with the resource and path involved. By default
the run stops there and state.json points at the failed stage.

With --continue (or continue-on-error: true) the run goes on. Stages that
depend on a failed stage are blocked, the rest run, and every failure is
reported at the end.

Resuming
--------

  tcpub run <lang> <resourcesPath>            resumes a failed or interrupted
                                              run for the same language and book
  tcpub run <lang> <resourcesPath> --from 5   starts at stage 5
  tcpub run <lang> <resourcesPath> --from en_tn

A completed run is never resumed; the next run starts over with a new id.
`

const topicConfig = `Configuration Reference
=======================

tcpub reads tcpub.yaml from the working directory, or the file named by
--config. Positional arguments and flags override the file.

Fields
------

  language             string   Target language id (first argument).
  book                 string   Book id to scope processing to; "all" or
                                empty processes every book.
  ult                  string   Literal translation id. Default "ult".
  ust                  string   Simplified translation id. Default "ust".
  study-notes          bool     Publish studyNotes instead of translationNotes.
  continue-on-error    bool     Keep running independent stages after a failure.
  original-languages   list     {language, resource} pairs. Default hbo/uhb
                                and el-x-koine/ugnt.
  processor.command    string   Required to run. Shell command template.
  processor.timeout    int      Minutes per call. Default 30.
  categories           string   Category map file, relative to the working
                                directory.
  source-url           string   Base URL recorded as each resource's origin.

Validation Rules
----------------

- At least two positional arguments: language and resources path.
- The parent of the resources path must exist.
- Ids must not contain path separators.
- ult and ust must differ.
- original-languages entries must be unique.
- The categories file must exist when set.

Example Config
--------------

  language: en
  processor:
    command: node ./process.js "$OP"
    timeout: 30
  categories: categories.yaml
`

const topicProcessor = `Content Processor
=================

All content processing is done by an external command. tcpub runs
processor.command with bash once per operation and waits for it.

Operations ($OP)
----------------

  parseBiblePackage                     $SOURCE_PATH is the checkout
  generateTwGroupDataFromAlignedBible   $SOURCE_PATH is the Bible just published
  processTranslationAcademy
  processTranslationWords
  processTranslationNotes               also uses $RESOURCES_ROOT

Variables
---------

  OP LANGUAGE_ID RESOURCE_ID BOOK SOURCE_URL SOURCE_PATH OUTPUT_PATH
  RESOURCES_ROOT

Each is exported to the command twice, as NAME and as TCPUB_NAME. tcpub
does not rewrite the command text: bash expands the variables, so values
are never run as shell and the command's own variables work as usual.
Quote them, since checkout paths may hold spaces:

  node ./process.js "$OP" --src "$SOURCE_PATH" --out "$OUTPUT_PATH"

Exit codes
----------

Zero is success. Anything else fails the stage; the tail of the output is
kept in the error and the full output in .tcpub/logs/<repo>-<op>.log.
A call that exceeds processor.timeout is killed and fails the stage.

Group data
----------

processTranslationNotes may leave raw group data at
$OUTPUT_PATH/groups/<book>.json. See 'tcpub docs groupdata'.
`

const topicGroupData = `Group Data
==========

After the notes operation, raw group data at <notes output>/groups/ is read
(only the selected book when one is given), sorted into categories, written
out, and the raw directory is removed.

Categories: discourse, numbers, figures, culture, grammar, other.

Each item's contextId.groupId names a translationAcademy article. The
category map assigns articles to categories:

  figures:
    figs-metaphor: Metaphor
    figs-idiom: Idiom
  grammar:
    grammar-connect-logic-result: Connect - Reason-and-Result

Items whose article is not in the map, or with no groupId, go to "other".
Without a map every item goes to "other". An article listed under two
categories is an error.

Output per category holds one <book>.json and an index.json listing every
group id in the category with its title, sorted by id. Both are rewritten
in full on every run.
`
