package cli

// Default values for CLI flags and formatted output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// MaxDescriptionLength is the maximum length of a model description in tables.
	MaxDescriptionLength = 48
	// ProgressLineWidth pads the single updating progress line on terminals.
	ProgressLineWidth = 80
	// ProgressLogStep is the percentage step between progress log lines when not on a terminal.
	ProgressLogStep = 10.0
)

// Output formats accepted by --output.
const (
	OutputText = "text"
	OutputJSON = "json"
)
