package processor

import (
	"fmt"
	"os/exec"
	"strings"
)

// Preflight checks that bash and the processor's executable are on PATH.
// Executables given as a path or a variable are not checked.
func Preflight(command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("no content processor command configured")
	}
	needed := []string{"bash"}
	if fields := strings.Fields(command); len(fields) > 0 {
		bin := fields[0]
		if !strings.ContainsAny(bin, "/$=") && bin != "bash" {
			needed = append(needed, bin)
		}
	}
	var missing []string
	for _, bin := range needed {
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required binaries not found in PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}
