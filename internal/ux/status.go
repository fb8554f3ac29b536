package ux

import (
	"fmt"

	"github.com/jorge-barreto/tcpub/internal/state"
)

// RenderStatus prints the state of the last run. names is the current
// stage plan in order.
func RenderStatus(names []string, st *state.State, stateDir string) {
	timing, _ := state.LoadTiming(stateDir)

	fmt.Fprintf(Out, "%sLanguage:%s %s\n", Bold, Reset, st.Language)
	if st.Book != "" {
		fmt.Fprintf(Out, "%sBook:%s     %s\n", Bold, Reset, st.Book)
	}
	if st.RunID != "" {
		fmt.Fprintf(Out, "%sRun:%s      %s\n", Bold, Reset, st.RunID)
	}
	if st.StageIndex >= len(names) {
		fmt.Fprintf(Out, "%sState:%s    %s%s%s%s\n", Bold, Reset, Green, Bold, st.Status, Reset)
	} else {
		fmt.Fprintf(Out, "%sState:%s    %d/%d (%s) %s\n",
			Bold, Reset, st.StageIndex+1, len(names), names[st.StageIndex], st.Status)
	}

	outcome := make(map[string]string, len(st.Failed)+len(st.Blocked))
	for _, f := range st.Failed {
		outcome[f] = Red + "failed" + Reset
	}
	for _, b := range st.Blocked {
		outcome[b] = Yellow + "blocked" + Reset
	}

	if st.StageIndex > 0 {
		fmt.Fprintf(Out, "\n%sCompleted:%s\n", Bold, Reset)
		for i := 0; i < st.StageIndex && i < len(names); i++ {
			name := names[i]
			label, ok := outcome[name]
			if !ok {
				label = Green + "done" + Reset
			}
			dur := ""
			if d, ok := timing.Last(name); ok && outcome[name] == "" {
				dur = "(" + state.FormatDuration(d) + ")"
			}
			fmt.Fprintf(Out, "  %s%d%s  %-20s %s  %s\n", Dim, i+1, Reset, name, label, dur)
		}
	}

	if st.StageIndex < len(names) {
		fmt.Fprintf(Out, "\n%sRemaining:%s\n", Bold, Reset)
		for i := st.StageIndex; i < len(names); i++ {
			marker := "  "
			if i == st.StageIndex {
				marker = fmt.Sprintf("%s→%s ", Yellow, Reset)
			}
			fmt.Fprintf(Out, "  %s%s%d%s  %s\n", marker, Dim, i+1, Reset, names[i])
		}
	}
	fmt.Fprintln(Out)
}
