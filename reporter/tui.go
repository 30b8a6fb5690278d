package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/pwreport/pwreport"
)

// TUIFormatter implements Formatter with an animated terminal UI.
// Rows appear as tests start, grouped by suite in arrival order.
type TUIFormatter struct {
	program  *tea.Program
	model    *tuiModel
	mu       sync.Mutex
	finished bool
}

// NewTUIFormatter creates a TUI formatter with animations.
func NewTUIFormatter(w io.Writer) *TUIFormatter {
	model := newTUIModel()

	opts := []tea.ProgramOption{
		tea.WithOutput(w),
		tea.WithoutSignalHandler(),
		tea.WithAltScreen(), // Use alternate screen so animation doesn't pollute scrollback
	}

	// Only use input if we have a TTY
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		opts = append(opts, tea.WithInput(nil))
	}

	p := tea.NewProgram(model, opts...)

	return &TUIFormatter{
		program: p,
		model:   model,
	}
}

// Start begins the TUI event loop. Call this before feeding events.
func (t *TUIFormatter) Start() error {
	go func() {
		_, _ = t.program.Run()
	}()

	// Give the program a moment to initialize
	time.Sleep(20 * time.Millisecond)

	return nil
}

// Format sends an event to the TUI.
func (t *TUIFormatter) Format(event Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return nil
	}

	t.program.Send(testEventMsg(event))

	return nil
}

// Summary waits for completion and renders final output.
func (t *TUIFormatter) Summary(doc *Document) error {
	t.mu.Lock()
	t.finished = true
	t.mu.Unlock()

	t.program.Send(doneMsg{doc: doc})
	time.Sleep(50 * time.Millisecond)

	t.program.Quit()
	time.Sleep(50 * time.Millisecond)

	// Print the final static output. The TUI used the alternate screen,
	// so exiting it returns us to the main screen with clean scrollback.
	fmt.Println(t.model.FinalView())

	return nil
}

// -----------------------------------------------------------------------------
// Bubbletea Model
// -----------------------------------------------------------------------------

// testRow is one test identity's display state.
type testRow struct {
	id      pwreport.Identity
	attempt int
	done    bool
	outcome pwreport.Outcome
	elapsed time.Duration
	err     *pwreport.ErrorDescriptor
}

// suiteGroup groups rows that share a suite path.
type suiteGroup struct {
	name string
	rows []*testRow
}

type tuiModel struct {
	styles  *Styles
	spinner spinner.Model

	width  int
	height int

	groups []*suiteGroup
	bySuit map[string]*suiteGroup
	byID   map[pwreport.Identity]*testRow

	counts Summary

	startTime time.Time
	endTime   time.Time

	finalDoc *Document
	isDone   bool
}

// Messages
type (
	tickMsg      time.Time
	testEventMsg Event
	doneMsg      struct{ doc *Document }
)

func newTUIModel() *tuiModel {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: SpinnerFrames(),
		FPS:    time.Second / 10,
	}
	s.Style = DefaultStyles().Running

	return &tuiModel{
		styles:    DefaultStyles(),
		spinner:   s,
		bySuit:    make(map[string]*suiteGroup),
		byID:      make(map[pwreport.Identity]*testRow),
		startTime: time.Now(),
		width:     80,
		height:    24,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.tick(),
	)
}

func (m *tuiModel) tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.QuitMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		return m, nil

	case tickMsg:
		if !m.isDone {
			cmds = append(cmds, m.tick())
		}

	case spinner.TickMsg:
		if !m.isDone {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case testEventMsg:
		m.handleEvent(Event(msg))

	case doneMsg:
		m.isDone = true
		m.endTime = time.Now()
		m.finalDoc = msg.doc
	}

	return m, tea.Batch(cmds...)
}

func (m *tuiModel) handleEvent(event Event) {
	row, ok := m.byID[event.Identity]
	if !ok {
		row = &testRow{id: event.Identity}
		m.byID[event.Identity] = row

		group, seen := m.bySuit[event.Identity.Suite]
		if !seen {
			group = &suiteGroup{name: event.Identity.Suite}
			m.bySuit[event.Identity.Suite] = group
			m.groups = append(m.groups, group)
		}

		group.rows = append(group.rows, row)
	}

	switch event.Action {
	case ActionRun:
		row.attempt = event.Attempt
	case ActionRetry:
		row.attempt = event.Attempt
		row.err = event.Err
	default:
		row.done = true
		row.outcome = event.Outcome
		row.elapsed = event.Elapsed
		row.err = event.Err
		m.counts.add(event.Outcome)
	}
}

// clearEOL is the ANSI escape sequence to clear from cursor to end of line.
const clearEOL = "\033[K"

// FinalView renders the complete final output for printing after the
// TUI exits.
func (m *tuiModel) FinalView() string {
	var lines []string

	lines = append(lines, m.renderHeader())
	lines = append(lines, m.renderProgress())
	lines = append(lines, "")
	lines = append(lines, m.renderGroups()...)
	lines = append(lines, "")
	lines = append(lines, m.renderSummary())

	return strings.Join(lines, "\n")
}

func (m *tuiModel) View() string {
	var lines []string

	lines = append(lines, m.renderHeader())
	lines = append(lines, m.renderProgress())
	lines = append(lines, "")
	lines = append(lines, m.renderGroups()...)

	if m.isDone {
		lines = append(lines, "")
		lines = append(lines, m.renderSummary())
	}

	// Add clear-to-EOL to each line to prevent rendering artifacts
	for i := range lines {
		lines[i] += clearEOL
	}

	return strings.Join(lines, "\n") + "\n"
}

func (m *tuiModel) renderHeader() string {
	logo := m.styles.Bold.Render("pwreport")

	var status string

	if m.isDone {
		if m.finalDoc != nil && ExitCode(m.finalDoc) != 0 {
			status = m.styles.Fail.Render("FAIL")
		} else {
			status = m.styles.Pass.Render("PASS")
		}
	} else {
		running := m.countRunning()
		if running > 0 {
			status = m.styles.Running.Render(fmt.Sprintf("running %d", running))
		} else {
			status = m.styles.Dim.Render("starting")
		}
	}

	return fmt.Sprintf("%s  %s", logo, status)
}

func (m *tuiModel) countRunning() int {
	count := 0

	for _, row := range m.byID {
		if !row.done {
			count++
		}
	}

	return count
}

func (m *tuiModel) renderProgress() string {
	done := m.counts.Total()
	total := len(m.byID)

	if total == 0 {
		total = 1
	}

	pct := float64(done) / float64(total)

	elapsed := time.Since(m.startTime)
	if !m.endTime.IsZero() {
		elapsed = m.endTime.Sub(m.startTime)
	}

	elapsedStr := m.styles.Dim.Render(fmt.Sprintf("[%s]", formatDuration(elapsed)))

	barWidth := 30
	filled := int(pct * float64(barWidth))
	filledChar, emptyChar := ProgressChars()

	bar := m.styles.ProgressFilled.Render(strings.Repeat(filledChar, filled)) +
		m.styles.ProgressEmpty.Render(strings.Repeat(emptyChar, barWidth-filled))

	counter := m.styles.Muted.Render(fmt.Sprintf("%d/%d", done, total))

	return fmt.Sprintf("%s %s %s", elapsedStr, bar, counter)
}

func (m *tuiModel) renderGroups() []string {
	var lines []string

	for _, group := range m.groups {
		lines = append(lines, m.styles.Path.Render(group.name))

		for i, row := range group.rows {
			isLast := i == len(group.rows)-1
			lines = append(lines, m.renderRow(row, isLast)...)
		}

		lines = append(lines, "")
	}

	if len(lines) > 0 {
		lines = lines[:len(lines)-1]
	}

	return lines
}

func (m *tuiModel) renderRow(row *testRow, isLast bool) []string {
	branch := "├─"
	if isLast {
		branch = "╰─"
	}

	name := row.id.Name
	if row.id.Param != "" {
		name += m.styles.Muted.Render("[" + row.id.Param + "]")
	}

	dur := ""
	if row.done {
		dur = m.styles.Dim.Render(fmt.Sprintf("  [%s]", formatDuration(row.elapsed)))
	} else if row.attempt > 0 {
		dur = m.styles.Dim.Render(fmt.Sprintf("  (attempt %d)", row.attempt+1))
	}

	lines := []string{
		m.styles.Dim.Render(branch+" ") + m.renderSymbol(row) + " " + m.styles.TestName.Render(name) + dur,
	}

	// Failure detail indented under the test
	if row.done && row.err != nil &&
		(row.outcome == pwreport.OutcomeFailed || row.outcome == pwreport.OutcomeUnexpectedPass) {
		detailPrefix := "│ "
		if isLast {
			detailPrefix = "  "
		}

		detail := fmt.Sprintf("%s: %s", row.err.Kind, row.err.Message)
		lines = append(lines, m.styles.Dim.Render(detailPrefix+"   ")+m.styles.Fail.Render(detail))
	}

	return lines
}

func (m *tuiModel) renderSymbol(row *testRow) string {
	if !row.done {
		return m.spinner.View()
	}

	switch row.outcome {
	case pwreport.OutcomePassed:
		return m.styles.Pass.Render(m.styles.SymbolPass)
	case pwreport.OutcomeFailed:
		return m.styles.Fail.Render(m.styles.SymbolFail)
	case pwreport.OutcomeSkipped:
		return m.styles.Skip.Render(m.styles.SymbolSkip)
	case pwreport.OutcomeExpectedFail:
		return m.styles.Xfail.Render(m.styles.SymbolXfail)
	case pwreport.OutcomeUnexpectedPass:
		return m.styles.Xpass.Render(m.styles.SymbolXpass)
	case pwreport.OutcomeFlakyPass:
		return m.styles.Flaky.Render(m.styles.SymbolFlaky)
	default:
		return " "
	}
}

func (m *tuiModel) renderSummary() string {
	var parts []string

	if m.counts.Passed > 0 {
		parts = append(parts, m.styles.Pass.Render(fmt.Sprintf("%d passed", m.counts.Passed)))
	}

	if m.counts.Failed > 0 {
		parts = append(parts, m.styles.Fail.Render(fmt.Sprintf("%d failed", m.counts.Failed)))
	}

	if m.counts.Skipped > 0 {
		parts = append(parts, m.styles.Skip.Render(fmt.Sprintf("%d skipped", m.counts.Skipped)))
	}

	if m.counts.ExpectedFail > 0 {
		parts = append(parts, m.styles.Xfail.Render(fmt.Sprintf("%d xfail", m.counts.ExpectedFail)))
	}

	if m.counts.UnexpectedPass > 0 {
		parts = append(parts, m.styles.Xpass.Render(fmt.Sprintf("%d xpass", m.counts.UnexpectedPass)))
	}

	if m.counts.FlakyPass > 0 {
		parts = append(parts, m.styles.Flaky.Render(fmt.Sprintf("%d flaky", m.counts.FlakyPass)))
	}

	if len(parts) == 0 {
		return m.styles.Dim.Render("  No tests run")
	}

	total := m.styles.Muted.Render(fmt.Sprintf("(%d total)", m.counts.Total()))
	sep := m.styles.Dim.Render(" │ ")

	return "  " + strings.Join(parts, sep) + " " + total
}

// -----------------------------------------------------------------------------
// TUIHandler - Bridges TUI to Handler interface
// -----------------------------------------------------------------------------

// TUIHandler wraps TUIFormatter to implement Handler.
type TUIHandler struct {
	formatter *TUIFormatter
	stderr    io.Writer
}

// NewTUIHandler creates a handler that uses the TUI formatter.
func NewTUIHandler(w io.Writer, stderr io.Writer) *TUIHandler {
	return &TUIHandler{
		formatter: NewTUIFormatter(w),
		stderr:    stderr,
	}
}

// Start initializes the TUI.
func (h *TUIHandler) Start() error {
	return h.formatter.Start()
}

// Event sends an event to the TUI.
func (h *TUIHandler) Event(_ context.Context, event Event) error {
	return h.formatter.Format(event)
}

// Err writes to stderr.
func (h *TUIHandler) Err(text string) error {
	_, err := h.stderr.Write([]byte(text + "\n"))

	return err
}

// Summary renders the final summary.
func (h *TUIHandler) Summary(doc *Document) error {
	return h.formatter.Summary(doc)
}
