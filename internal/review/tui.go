package review

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/pitchdesk/internal/model"
	"github.com/amishk599/pitchdesk/internal/pipeline"
)

// Lines per posting item in the list view (title + subtitle + blank separator).
const postingItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39")) // bright blue

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")) // dim gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	itemTitleStyle = lipgloss.NewStyle().
			Bold(true)

	itemSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailValueStyle = lipgloss.NewStyle()

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// ProposalRunner generates a proposal for a posting.
type ProposalRunner interface {
	RunProposal(ctx context.Context, postingID string) (pipeline.ProposalResult, error)
}

// StatusUpdater records reviewer decisions on a posting.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, u model.StatusUpdate) error
}

// Options wires the detail-view actions. Nil fields disable the matching key.
type Options struct {
	Proposals ProposalRunner
	Statuses  StatusUpdater
	Reviewer  string
}

type proposalDoneMsg struct {
	postingID string
	result    pipeline.ProposalResult
	err       error
}

type statusDoneMsg struct {
	postingID string
	err       error
}

type reviewModel struct {
	open          []model.Posting
	enriched      []model.Posting
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=left, 1=right
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	// Detail view state
	view            viewState
	detail          model.Posting
	detailViewport  viewport.Model
	showDescription bool

	opts            Options
	proposals       map[string]pipeline.ProposalResult
	proposalLoading bool
	actionError     string

	wantQuit bool
}

func newReviewModel(postings []model.Posting, opts Options) reviewModel {
	m := reviewModel{opts: opts, proposals: make(map[string]pipeline.ProposalResult)}
	for _, p := range postings {
		if p.Enriched {
			m.enriched = append(m.enriched, p)
		} else {
			m.open = append(m.open, p)
		}
	}
	sortByPosted(m.open)
	sortByPosted(m.enriched)
	return m
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case proposalDoneMsg:
		m.proposalLoading = false
		if msg.err != nil {
			m.actionError = fmt.Sprintf("proposal failed: %v", msg.err)
		} else {
			m.actionError = ""
			m.proposals[msg.postingID] = msg.result
			m.updatePosting(msg.postingID, func(p *model.Posting) {
				p.Processed = true
				if p.ProposalStatus == "" || p.ProposalStatus == model.ProposalNotSubmitted {
					p.ProposalStatus = model.ProposalDrafted
				}
			})
		}
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil

	case statusDoneMsg:
		if msg.err != nil {
			m.actionError = fmt.Sprintf("status update failed: %v", msg.err)
		} else {
			m.actionError = ""
			m.updatePosting(msg.postingID, func(p *model.Posting) {
				p.ProposalStatus = model.ProposalSubmitted
				p.SubmittedBy = m.opts.Reviewer
			})
		}
		m.detailViewport.SetContent(m.renderDetail())
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m reviewModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	// Forward other keys (pgup/pgdn/home/end) to the active viewport.
	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m reviewModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		m.recalcContent()
		return m, nil
	case "o":
		openURL(m.detail.URL)
		return m, nil
	case "r":
		if m.detail.Description != "" {
			m.showDescription = !m.showDescription
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	case "p":
		if m.opts.Proposals != nil && !m.proposalLoading {
			m.proposalLoading = true
			m.actionError = ""
			m.detailViewport.SetContent(m.renderDetail())
			return m, m.proposalCmd(m.detail.ID)
		}
		return m, nil
	case "s":
		if m.opts.Statuses != nil && m.detail.ProposalStatus != model.ProposalSubmitted {
			return m, m.statusCmd(m.detail.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m reviewModel) proposalCmd(id string) tea.Cmd {
	runner := m.opts.Proposals
	return func() tea.Msg {
		res, err := runner.RunProposal(context.Background(), id)
		return proposalDoneMsg{postingID: id, result: res, err: err}
	}
}

func (m reviewModel) statusCmd(id string) tea.Cmd {
	updater := m.opts.Statuses
	reviewer := m.opts.Reviewer
	return func() tea.Msg {
		err := updater.UpdateStatus(context.Background(), id, model.StatusUpdate{
			ProposalStatus: model.ProposalSubmitted,
			SubmittedBy:    reviewer,
		})
		return statusDoneMsg{postingID: id, err: err}
	}
}

func (m *reviewModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.open)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.enriched)-1, 0))
	}
}

func (m *reviewModel) ensureCursorVisible() {
	var vp *viewport.Model
	var cursor int
	if m.activePane == 0 {
		vp = &m.leftViewport
		cursor = m.leftCursor
	} else {
		vp = &m.rightViewport
		cursor = m.rightCursor
	}

	cursorTop := cursor * postingItemHeight
	cursorBottom := cursorTop + postingItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m reviewModel) openDetailView() (tea.Model, tea.Cmd) {
	postings := m.activePostings()
	if len(postings) == 0 {
		return m, nil
	}

	m.view = viewDetail
	m.detail = postings[m.activeCursor()]
	m.actionError = ""
	m.showDescription = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

// updatePosting applies fn to the posting with id in both panes and the detail view.
func (m *reviewModel) updatePosting(id string, fn func(p *model.Posting)) {
	for _, list := range [][]model.Posting{m.open, m.enriched} {
		for i := range list {
			if list[i].ID == id {
				fn(&list[i])
			}
		}
	}
	if m.detail.ID == id {
		fn(&m.detail)
	}
}

func (m *reviewModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *reviewModel) recalcContent() {
	m.leftViewport.SetContent(renderPostings(m.open, m.leftCursor, m.activePane == 0))
	m.rightViewport.SetContent(renderPostings(m.enriched, m.rightCursor, m.activePane == 1))
}

func (m reviewModel) activePostings() []model.Posting {
	if m.activePane == 0 {
		return m.open
	}
	return m.enriched
}

func (m reviewModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m reviewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.view == viewDetail {
		return m.viewDetail()
	}

	return m.viewList()
}

func (m reviewModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" Open (%d)", len(m.open))
	rightHeader := fmt.Sprintf(" Enriched (%d)", len(m.enriched))

	var leftHeaderRendered, rightHeaderRendered string
	var leftBorder, rightBorder lipgloss.Style

	if m.activePane == 0 {
		leftHeaderRendered = activeHeaderStyle.Render(leftHeader)
		rightHeaderRendered = inactiveHeaderStyle.Render(rightHeader)
		leftBorder = activeBorderStyle.Width(paneWidth)
		rightBorder = inactiveBorderStyle.Width(paneWidth)
	} else {
		leftHeaderRendered = inactiveHeaderStyle.Render(leftHeader)
		rightHeaderRendered = activeHeaderStyle.Render(rightHeader)
		leftBorder = inactiveBorderStyle.Width(paneWidth)
		rightBorder = activeBorderStyle.Width(paneWidth)
	}

	leftPane := leftBorder.Render(m.leftViewport.View())
	rightPane := rightBorder.Render(m.rightViewport.View())

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderRendered),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderRendered),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, " ", rightPane)

	drafted := 0
	for _, list := range [][]model.Posting{m.open, m.enriched} {
		for _, p := range list {
			if p.Processed {
				drafted++
			}
		}
	}
	statusText := fmt.Sprintf(" %d open | %d enriched | %d with proposal    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit",
		len(m.open), len(m.enriched), drafted)
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m reviewModel) viewDetail() string {
	title := detailTitleStyle.Render("Posting Details")
	if m.proposalLoading {
		title += "  (generating proposal...)"
	}

	border := activeBorderStyle.Width(m.width - 2)
	content := border.Render(m.detailViewport.View())

	keys := []string{"o open URL"}
	if m.detail.Description != "" {
		keys = append(keys, "r desc")
	}
	if m.opts.Proposals != nil && !m.proposalLoading {
		keys = append(keys, "p proposal")
	}
	if m.opts.Statuses != nil && m.detail.ProposalStatus != model.ProposalSubmitted {
		keys = append(keys, "s submitted")
	}
	keys = append(keys, "esc/backspace back", "↑/↓ scroll", "q quit")
	statusBar := statusBarStyle.Width(m.width).Render(" " + strings.Join(keys, "  "))

	return title + "\n" + content + "\n" + statusBar
}

func (m reviewModel) renderDetail() string {
	p := m.detail
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" || value == model.NotSpecified {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(detailValueStyle.Render(value))
		b.WriteByte('\n')
	}

	addField("Title", p.Title)
	addField("Client", p.Client)
	addField("Budget", p.Budget)
	addField("Hourly Rate", p.HourlyRate)
	addField("Skills", p.Skills)
	addField("Categories", p.Categories)
	if !p.PostedAt.IsZero() {
		addField("Posted At", p.PostedAt.Local().Format("2006-01-02 15:04 MST"))
	}
	addField("Posting ID", p.ID)

	b.WriteByte('\n')
	addField("Proposal", p.ProposalStatus)
	addField("Submitted By", p.SubmittedBy)
	addField("Outreach", p.OutreachStatus)

	if p.Enriched {
		b.WriteByte('\n')
		addField("Contact", p.Contact.Name)
		addField("Company", p.Contact.Company)
		addField("Decision Maker", p.DecisionMaker)
		addField("LinkedIn", p.Contact.LinkedInURL)
		addField("Email", p.Contact.Email)
		addField("Phone", p.Contact.Phone)
		addField("WhatsApp", p.Contact.WhatsApp)
		addField("Enriched By", p.EnrichedBy)
	}

	b.WriteByte('\n')
	addField("URL", p.URL)

	if m.actionError != "" {
		b.WriteByte('\n')
		b.WriteString(errorStyle.Render("⚠ "+m.actionError) + "\n")
	}

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return dividerStyle.Render(label + fill)
	}

	if res, ok := m.proposals[p.ID]; ok {
		b.WriteByte('\n')
		b.WriteString(divider("── Proposal ") + "\n\n")
		addField("Keywords", strings.Join(res.Keywords, ", "))
		for _, ex := range res.Examples {
			b.WriteString(detailValueStyle.Render(fmt.Sprintf("  • %s (%.1f★, %s)", ex.Name, ex.Score, ex.Installs)) + "\n")
		}
		b.WriteByte('\n')
		b.WriteString(bodyStyle.Render(wordWrap(res.Proposal, wrapWidth)) + "\n")
	} else if m.proposalLoading {
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("  generating proposal...") + "\n")
	} else if m.opts.Proposals != nil {
		b.WriteByte('\n')
		b.WriteString(hintStyle.Render("  press p to generate a proposal") + "\n")
	}

	if p.Description != "" {
		b.WriteByte('\n')
		if m.showDescription {
			b.WriteString(divider("── Description ") + "\n\n")
			b.WriteString(bodyStyle.Render(wordWrap(p.Description, wrapWidth)) + "\n")
		} else {
			b.WriteString(hintStyle.Render("  press r to read the description") + "\n")
		}
	}

	return b.String()
}

func renderPostings(postings []model.Posting, cursor int, isActive bool) string {
	if len(postings) == 0 {
		return "  (no postings)"
	}

	var b strings.Builder
	for i, p := range postings {
		isSelected := isActive && i == cursor

		titleSt := itemTitleStyle
		subtitleSt := itemSubtitleStyle
		prefix := "  "
		if isSelected {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(p.Title))
		b.WriteByte('\n')

		posted := "n/a"
		if !p.PostedAt.IsZero() {
			posted = p.PostedAt.Format("2006-01-02")
		}
		status := p.ProposalStatus
		if status == "" {
			status = model.ProposalNotSubmitted
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", p.Budget, posted, status)))
		b.WriteByte('\n')

		if i < len(postings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sortByPosted(postings []model.Posting) {
	sort.SliceStable(postings, func(i, j int) bool {
		return postings[i].PostedAt.After(postings[j].PostedAt)
	})
}

func wordWrap(text string, width int) string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) <= width {
				line += " " + w
			} else {
				out = append(out, line)
				line = w
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunReviewTUI launches the split-pane review TUI over postings.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed
// esc to return to the source picker.
func RunReviewTUI(postings []model.Posting, opts Options) (bool, error) {
	p := tea.NewProgram(newReviewModel(postings, opts), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(reviewModel)
	return final.wantQuit, nil
}
