package reporter

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the TUI and can be swapped
// for testing or no-color output.
type Styles struct {
	Bold     lipgloss.Style
	Dim      lipgloss.Style
	Muted    lipgloss.Style
	Path     lipgloss.Style
	TestName lipgloss.Style

	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Skip    lipgloss.Style
	Xfail   lipgloss.Style
	Xpass   lipgloss.Style
	Flaky   lipgloss.Style
	Running lipgloss.Style

	ProgressFilled lipgloss.Style
	ProgressEmpty  lipgloss.Style

	SymbolPass  string
	SymbolFail  string
	SymbolSkip  string
	SymbolXfail string
	SymbolXpass string
	SymbolFlaky string
}

// DefaultStyles returns the standard color scheme.
func DefaultStyles() *Styles {
	return &Styles{
		Bold:     lipgloss.NewStyle().Bold(true),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Path:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		TestName: lipgloss.NewStyle(),

		Pass:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Skip:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Xfail:   lipgloss.NewStyle().Foreground(lipgloss.Color("135")),
		Xpass:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		Flaky:   lipgloss.NewStyle().Foreground(lipgloss.Color("51")),
		Running: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),

		ProgressFilled: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		ProgressEmpty:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),

		SymbolPass:  "✓",
		SymbolFail:  "✗",
		SymbolSkip:  "−",
		SymbolXfail: "⊘",
		SymbolXpass: "!",
		SymbolFlaky: "↻",
	}
}

// SpinnerFrames returns the frames for the running-test spinner.
func SpinnerFrames() []string {
	return []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
}

// ProgressChars returns the filled and empty progress bar characters.
func ProgressChars() (string, string) {
	return "━", "━"
}
