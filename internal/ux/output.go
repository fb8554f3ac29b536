package ux

import (
	"fmt"
	"io"
	"os"
	"time"
)

// ANSI color helpers
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

// Out receives all console output. Tests swap it for a buffer.
var Out io.Writer = os.Stdout

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// StageHeader prints a timestamped stage header.
func StageHeader(index, total int, name, kind string) {
	fmt.Fprintf(Out, "\n%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
	fmt.Fprintf(Out, "%s[%s]%s  %sStage %d/%d: %s (%s)%s\n",
		Dim, timestamp(), Reset, Bold, index+1, total, name, kind, Reset)
	fmt.Fprintf(Out, "%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
}

// StageComplete prints a stage completion message with the published version.
func StageComplete(index int, version string, duration time.Duration) {
	m := int(duration.Minutes())
	s := int(duration.Seconds()) % 60
	fmt.Fprintf(Out, "%s[%s]%s  %s✓ Stage %d complete, v%s (%dm %02ds)%s\n",
		Dim, timestamp(), Reset, Green, index+1, version, m, s, Reset)
}

// StageFail prints a stage failure message.
func StageFail(index int, name, errMsg string) {
	fmt.Fprintf(Out, "%s[%s]%s  %s✗ Stage %d (%s) failed: %s%s\n",
		Dim, timestamp(), Reset, Red, index+1, name, errMsg, Reset)
}

// StageBlocked prints a message for a stage skipped because a dependency failed.
func StageBlocked(index int, name, dep string) {
	fmt.Fprintf(Out, "%s[%s]%s  %s– Stage %d (%s) blocked: %s failed%s\n",
		Dim, timestamp(), Reset, Yellow, index+1, name, dep, Reset)
}

// Output prints one published directory.
func Output(path string) {
	fmt.Fprintf(Out, "  %s→%s %s\n", Dim, Reset, path)
}

// ResumeHint prints a resume command hint.
func ResumeHint(language, resourcesPath string, from int) {
	fmt.Fprintf(Out, "\n%sResume:%s tcpub run --from %d %s %s\n", Yellow, Reset, from, language, resourcesPath)
}

// Success prints a final success message.
func Success(total int) {
	fmt.Fprintf(Out, "\n%s[%s]%s  %s%s══ All %d stages complete ══%s\n\n",
		Dim, timestamp(), Reset, Bold, Green, total, Reset)
}

// Partial prints the summary of a continue-on-error run with failures.
func Partial(done, failed, blocked int) {
	fmt.Fprintf(Out, "\n%s[%s]%s  %s%s══ %d done, %d failed, %d blocked ══%s\n\n",
		Dim, timestamp(), Reset, Bold, Red, done, failed, blocked, Reset)
}
