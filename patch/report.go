package patch

import "fmt"

// Conflict records one selector override that touched the same property in
// more than one asset of a bundle. Selector carries the display spelling
// from the override file.
type Conflict struct {
	Selector string
	Property string
	Assets   int
}

// Report accumulates the outcome of patching one bundle.
type Report struct {
	Bundle string
	DryRun bool

	StylesheetsFound int
	AssetsModified   []string
	VariablesPatched int
	DirectPatched    int
	Conflicts        []Conflict

	SavedTo string
}

// HasChanges reports whether any asset was modified.
func (r *Report) HasChanges() bool { return len(r.AssetsModified) > 0 }

// MarkSaved records where the patched bundle was written.
func (r *Report) MarkSaved(path string) { r.SavedTo = path }

// SummaryLines renders the human-readable per-bundle summary.
func (r *Report) SummaryLines() []string {
	lines := []string{
		"Summary:",
		fmt.Sprintf("  Stylesheets found: %d", r.StylesheetsFound),
		fmt.Sprintf("  Assets modified: %d", len(r.AssetsModified)),
		fmt.Sprintf("  Variables patched: %d", r.VariablesPatched),
		fmt.Sprintf("  Direct colors patched: %d", r.DirectPatched),
	}
	if len(r.Conflicts) > 0 {
		lines = append(lines, "  Selector overrides affecting multiple assets:")
		for _, c := range r.Conflicts {
			lines = append(lines, fmt.Sprintf("    %s / %s: %d assets", c.Selector, c.Property, c.Assets))
		}
	}
	if r.DryRun {
		lines = append(lines, "Dry run, no files were written.")
	}
	return lines
}
