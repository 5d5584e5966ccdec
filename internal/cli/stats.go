package cli

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/moodon/internal/metrics"
)

// printClientStats displays request statistics collected during this run.
func printClientStats(snap metrics.Snapshot) {
	w := os.Stderr
	fmt.Fprintf(w, "\nClient Statistics (this run)\n")
	fmt.Fprintf(w, "═══════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", snap.UptimeSeconds)

	if len(snap.Operations) == 0 {
		fmt.Fprintln(w, "No requests made.")
		return
	}
	for _, op := range snap.Operations {
		fmt.Fprintf(w, "\n%s:\n", op.Name)
		printOpStats(op)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(op metrics.OperationSnapshot) {
	w := os.Stderr
	fmt.Fprintf(w, "  Calls: %d, Errors: %d, Total: %dms\n", op.Count, op.Errors, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
