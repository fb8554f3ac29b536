package ux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jorge-barreto/tcpub/internal/state"
)

func captureOut(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Out
	Out = &buf
	t.Cleanup(func() { Out = prev })
	return &buf
}

func TestRenderStatus_Partial(t *testing.T) {
	buf := captureOut(t)
	dir := t.TempDir()
	tm, _ := state.LoadTiming(dir)
	tm.Begin("bible", "en_ult")
	tm.Finish("en_ult")
	if err := tm.Flush(dir); err != nil {
		t.Fatal(err)
	}

	st := &state.State{RunID: "r1", Language: "en", StageIndex: 2, Status: state.StatusFailed, Failed: []string{"en_ust"}}
	RenderStatus([]string{"en_ult", "en_ust", "en_ta"}, st, dir)
	out := buf.String()
	for _, want := range []string{"Language:", "en", "3/3 (en_ta) failed", "en_ult", "(0m 00s)", "failed", "Remaining:"} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStatus_Completed(t *testing.T) {
	buf := captureOut(t)
	st := &state.State{Language: "en", StageIndex: 1, Status: state.StatusCompleted}
	RenderStatus([]string{"en_ult"}, st, t.TempDir())
	out := buf.String()
	if !strings.Contains(out, state.StatusCompleted) {
		t.Fatalf("want completed:\n%s", out)
	}
	if strings.Contains(out, "Remaining:") {
		t.Fatalf("nothing should remain:\n%s", out)
	}
}

func TestRenderStatus_BlockedStage(t *testing.T) {
	buf := captureOut(t)
	st := &state.State{
		Language:   "en",
		StageIndex: 3,
		Status:     state.StatusFailed,
		Failed:     []string{"en_ta"},
		Blocked:    []string{"en_tn"},
	}
	RenderStatus([]string{"en_ta", "en_tw", "en_tn"}, st, t.TempDir())
	for _, line := range strings.Split(buf.String(), "\n") {
		if !strings.Contains(line, "en_tn") {
			continue
		}
		if strings.Contains(line, "done") || !strings.Contains(line, "blocked") {
			t.Fatalf("blocked stage rendered as %q", line)
		}
		return
	}
	t.Fatalf("en_tn missing:\n%s", buf.String())
}
