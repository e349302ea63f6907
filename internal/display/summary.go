package display

import (
	"fmt"
	"io"
	"time"

	"rasterbatch/internal/pipeline"
)

// PrintBanner prints the startup banner.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, ` ____           _            ____        _       _
|  _ \ __ _ ___| |_ ___ _ __| __ )  __ _| |_ ___| |__
| |_) / _` + "`" + ` / __| __/ _ \ '__|  _ \ / _` + "`" + ` | __/ __| '_ \
|  _ < (_| \__ \ ||  __/ |  | |_) | (_| | || (__| | | |
|_| \_\__,_|___/\__\___|_|  |____/ \__,_|\__\___|_| |_|
`)
}

// PrintSummary prints the end-of-batch report: totals, artifact size,
// elapsed time, and one line per failed source.
func PrintSummary(w io.Writer, sum pipeline.Summary, elapsed time.Duration) {
	fmt.Fprintf(w, "\nConversion complete: %d succeeded, %d failed (of %d)\n",
		sum.Succeeded, sum.Failed, sum.Total)
	if sum.ArtifactBytes > 0 {
		fmt.Fprintf(w, "Artifacts written: %s\n", FormatBytes(sum.ArtifactBytes))
	}
	fmt.Fprintf(w, "Elapsed: %s\n", elapsed.Round(time.Millisecond))
	for _, f := range sum.Failures {
		fmt.Fprintf(w, "  failed: %s: %s\n", f.Path, f.Reason)
	}
}
