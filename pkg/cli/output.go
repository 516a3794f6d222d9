package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/m-mizutani/porter/pkg/usecase"
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	planMark = color.New(color.FgYellow).SprintFunc()
	ngMark   = color.New(color.FgRed).SprintFunc()
	heading  = color.New(color.Bold).SprintFunc()
)

// printReport writes a human readable session summary
func printReport(w io.Writer, report *model.SessionReport) {
	fmt.Fprintf(w, "\n%s\n", heading("Session summary"))

	for _, res := range report.Results {
		switch res.State {
		case model.StateSkipped:
			fmt.Fprintf(w, "  %s %s already present (%s)\n",
				okMark("✓"), res.Name, humanBytes(res.Size))
		case model.StateFetched:
			line := fmt.Sprintf("  %s %s fetched (%s", okMark("✓"), res.Name, humanBytes(res.Size))
			if n := len(res.Attempts); n > 0 {
				line += fmt.Sprintf(", %d attempts", n)
			}
			if res.Discards > 0 {
				line += fmt.Sprintf(", %d discarded", res.Discards)
			}
			fmt.Fprintln(w, line+")")
		case model.StateFailed:
			fmt.Fprintf(w, "  %s %s failed: %s\n", ngMark("✗"), res.Name, res.Error)
		}
	}

	fmt.Fprintf(w, "\n  %d fetched, %d skipped, %d failed, %s transferred in %s\n\n",
		report.CountByState(model.StateFetched),
		report.CountByState(model.StateSkipped),
		report.CountByState(model.StateFailed),
		humanBytes(report.TotalBytes()),
		report.Duration().Round(time.Millisecond),
	)
}

// printPlan writes what a fetch session would do for each artifact
func printPlan(w io.Writer, baseDir string, manifest *model.Manifest, validator *usecase.Integrity, resolver *usecase.Resolver) error {
	var needed int64
	var missing int

	fmt.Fprintf(w, "\n%s\n", heading("Fetch plan"))

	for i := range manifest.Artifacts {
		spec := &manifest.Artifacts[i]
		verdict, size, err := validator.Evaluate(spec.DestPath(baseDir), spec.Size)
		if err != nil {
			return err
		}

		if verdict == usecase.VerdictValid {
			fmt.Fprintf(w, "  %s %s already present (%s)\n",
				okMark("✓"), spec.Name, humanBytes(size))
			continue
		}

		missing++
		needed += spec.Size.ExpectedBytes()

		state := "missing"
		if verdict == usecase.VerdictUndersized {
			state = fmt.Sprintf("undersized (%s of %s)",
				humanBytes(size), humanBytes(spec.Size.ExpectedBytes()))
		}
		if _, staged, err := validator.Evaluate(spec.StagePath(baseDir), spec.Size); err == nil && staged > 0 {
			state += fmt.Sprintf(", %s staged", humanBytes(staged))
		}
		fmt.Fprintf(w, "  %s %s %s\n", planMark(">"), spec.Name, state)

		for j, src := range resolver.Candidates(spec) {
			fmt.Fprintf(w, "      %d. %s\n", j+1, src.Describe())
		}
	}

	fmt.Fprintf(w, "\n  %d of %d artifacts to fetch, about %s to download\n\n",
		missing, len(manifest.Artifacts), humanBytes(needed))

	return nil
}

// humanBytes formats a byte count with a binary unit prefix
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
