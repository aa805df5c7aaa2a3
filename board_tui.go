package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lexboard/internal/board"
	"lexboard/internal/boardapi"
	apperrors "lexboard/internal/errors"
	"lexboard/internal/httputil"
	"lexboard/internal/logger"
	"lexboard/internal/usercfg"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
)

// boardService is the slice of the API client the TUI consumes: the mutation
// calls the dispatcher needs plus the snapshot fetch. boardapi.Client
// satisfies it; tests use a stub.
type boardService interface {
	board.Remote
	FetchBoard(ctx context.Context) (*board.Board, error)
}

type boardMode int

const (
	modeNormal boardMode = iota
	modeMove
	modeNewCard
	modeEditCard
	modeNewColumn
	modeRenameColumn
	modeConfirmDelete
)

// Form field indices for the card form.
const (
	fieldTitle = iota
	fieldNumber
	fieldBody
)

type noticeLevel int

const (
	noticeInfo noticeLevel = iota
	noticeWarn
	noticeError
)

// snapshotMsg carries a completed poll fetch. manual marks fetches the user
// asked for (first load, r), whose failures are surfaced instead of logged.
type snapshotMsg struct {
	board  *board.Board
	err    error
	manual bool
}

// opDoneMsg carries a completed remote mutation back to the update loop.
type opDoneMsg struct {
	op      board.Op
	created board.Created
	err     error
}

type pollTickMsg time.Time

type noticeExpiredMsg struct{ id int }

// columnUI is the per-column view state layered over the board model. It is
// keyed by column identity so cursors survive reconciles that reorder or
// insert columns.
type columnUI struct {
	id     string
	cursor int
	offset int // top index of the visible window
}

type boardModel struct {
	cfg     *usercfg.Config
	service boardService

	b          *board.Board
	pending    *board.Tracker
	dispatcher *board.Dispatcher
	sync       *board.Synchronizer

	mode        boardMode
	views       []columnUI
	selectedCol int
	loading     bool
	err         error // sticky, shown with a retry hint while the board is empty
	width       int
	height      int

	// grab state (modeMove)
	grabbedID     string
	grabSeq       uint64
	grabOriginCol string
	grabOriginIdx int

	// filter state
	filtering   bool
	filterInput textinput.Model
	filter      string
	fuzzy       bool

	// form state (modeNewCard/modeEditCard/modeNewColumn/modeRenameColumn)
	formTitle    textinput.Model
	formNumber   textinput.Model
	formBody     textarea.Model
	formField    int
	formColumnID string
	formCardID   string
	formOrig     board.Card

	// confirm state (modeConfirmDelete)
	confirmCardID   string
	confirmColumnID string
	confirmLabel    string

	notice      string
	noticeKind  noticeLevel
	noticeSeq   int
	showingHelp bool
	helpOffset  int // scroll offset within help overlay

	styles boardStyles
}

// newBoardStyles returns hardcoded dark theme styles
func newBoardStyles() boardStyles {
	return boardStyles{
		header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		boxStyle:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).BorderForeground(lipgloss.Color("240")),
		boxActive:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).BorderForeground(lipgloss.Color("10")),
		selected:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
		grabbed:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("162")),
		muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		help:        lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		helpOverlay: lipgloss.NewStyle().Background(lipgloss.Color("235")).Foreground(lipgloss.Color("255")).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("99")).Padding(1, 2),
		helpTitle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		helpKey:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		warn:        lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		error:       lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

type boardStyles struct {
	header      lipgloss.Style
	title       lipgloss.Style
	boxStyle    lipgloss.Style
	boxActive   lipgloss.Style
	selected    lipgloss.Style
	grabbed     lipgloss.Style
	muted       lipgloss.Style
	help        lipgloss.Style
	helpOverlay lipgloss.Style
	helpTitle   lipgloss.Style
	helpKey     lipgloss.Style
	warn        lipgloss.Style
	error       lipgloss.Style
}

func initialBoardModel(cfg *usercfg.Config, service boardService) boardModel {
	fi := textinput.New()
	fi.Placeholder = "filter..."
	fi.CharLimit = 256

	ti := textinput.New()
	ti.Placeholder = "title..."
	ti.CharLimit = 256
	ti.Width = 40

	ni := textinput.New()
	ni.Placeholder = "number (optional)..."
	ni.CharLimit = 32
	ni.Width = 40

	body := textarea.New()
	body.Placeholder = "body (optional)..."
	body.CharLimit = 4000
	body.SetWidth(60)
	body.SetHeight(3)
	body.ShowLineNumbers = false

	// Initialize hardcoded dark theme styles
	styles := newBoardStyles()

	// Load UI preferences
	uiPrefs := usercfg.GetUIPrefs()

	pending := board.NewTracker()
	m := boardModel{
		cfg:         cfg,
		service:     service,
		b:           board.New(cfg.Board),
		pending:     pending,
		dispatcher:  board.NewDispatcher(service, pending),
		sync:        board.NewSynchronizer(cfg.PollInterval()),
		loading:     true,
		filterInput: fi,
		filter:      uiPrefs.LastFilter,
		fuzzy:       uiPrefs.FuzzySearch,
		formTitle:   ti,
		formNumber:  ni,
		formBody:    body,
		styles:      styles,
	}
	if uiPrefs.LastSelectedCol > 0 {
		m.selectedCol = uiPrefs.LastSelectedCol
	}
	return m
}

// Init fires the initial load and arms the poll timer. Exactly one tick chain
// stays alive for the program's lifetime; pausing skips fetches without
// tearing the chain down.
func (m boardModel) Init() tea.Cmd {
	m.sync.BeginManual()
	return tea.Batch(m.fetchCmd(true), m.pollTickCmd())
}

func (m boardModel) pollTickCmd() tea.Cmd {
	return tea.Tick(m.sync.Interval(), func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

// fetchCmd retrieves a snapshot off the update loop. The synchronizer slot
// must already be claimed via Begin/BeginManual.
func (m boardModel) fetchCmd(manual bool) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), httputil.DefaultTimeout)
		defer cancel()
		snapshot, err := service.FetchBoard(ctx)
		return snapshotMsg{board: snapshot, err: err, manual: manual}
	}
}

// runOpCmd issues a dispatched mutation off the update loop.
func (m boardModel) runOpCmd(op board.Op) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), httputil.DefaultTimeout)
		defer cancel()
		created, err := op.Do(ctx)
		return opDoneMsg{op: op, created: created, err: err}
	}
}

// setNotice installs a transient status-line message and returns the model
// plus the expiry command. A newer notice outlives a stale expiry.
func (m boardModel) setNotice(kind noticeLevel, text string) (boardModel, tea.Cmd) {
	m.notice = text
	m.noticeKind = kind
	m.noticeSeq++
	id := m.noticeSeq
	return m, tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Keep cursor visible in each column after resize
		for i := range m.views {
			m.ensureCursorVisible(i)
		}
		return m, nil

	case tea.FocusMsg:
		if m.sync.Resume() {
			logger.Sync("Focus regained, polling resumed")
			return m, m.fetchCmd(false)
		}
		return m, nil

	case tea.BlurMsg:
		m.sync.Pause()
		logger.Sync("Focus lost, polling paused")
		return m, nil

	case pollTickMsg:
		// Always re-arm; skip the fetch while paused or still fetching.
		if m.sync.Begin() {
			return m, tea.Batch(m.pollTickCmd(), m.fetchCmd(false))
		}
		return m, m.pollTickCmd()

	case snapshotMsg:
		cycle := m.sync.Done()
		if msg.err != nil {
			if msg.manual {
				m.loading = false
				if len(m.b.Columns) == 0 {
					// Nothing on screen yet: show the sticky error with the
					// retry hint instead of a transient notice.
					m.err = msg.err
					return m, nil
				}
				return m.setNotice(noticeError, "Refresh failed: "+msg.err.Error())
			}
			logger.Sync("Background poll failed (cycle %d): %v", cycle, msg.err)
			return m, nil
		}
		abandoned := m.pending.Sweep(m.cfg.AbandonCycles)
		if len(abandoned) > 0 {
			logger.Sync("Abandoned %d unconfirmed change(s): %v", len(abandoned), abandoned)
		}
		m.b = board.Reconcile(m.b, msg.board, m.pending)
		m.views = rebuildColumnViews(m.b, m.views)
		m.selectedCol = clampColumn(m.selectedCol, len(m.views))
		for i := range m.views {
			m.ensureCursorVisible(i)
		}
		m.loading = false
		m.err = nil
		return m, nil

	case opDoneMsg:
		if err := m.dispatcher.Resolve(m.b, msg.op, msg.created, msg.err); err != nil {
			logger.Board("%s on %s failed: %v", msg.op.Kind, msg.op.EntityID, err)
			if apperrors.IsConflict(err) {
				return m.setNotice(noticeWarn, err.Error())
			}
			return m.setNotice(noticeError, "Change not confirmed: "+err.Error())
		}
		// A confirmed create swapped the placeholder identity; re-key the
		// column view that carried it before realigning.
		if msg.created.ID != "" {
			for i := range m.views {
				if m.views[i].id == msg.op.EntityID {
					m.views[i].id = msg.created.ID
				}
			}
		}
		m.views = rebuildColumnViews(m.b, m.views)
		m.selectedCol = clampColumn(m.selectedCol, len(m.views))
		for i := range m.views {
			m.ensureCursorVisible(i)
		}
		return m, nil

	case noticeExpiredMsg:
		if msg.id == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.showingHelp {
			key := msg.String()
			// Compute wrapped help lines and viewport
			lines, _, viewport := m.helpLayout()
			maxOffset := 0
			if viewport < len(lines) {
				maxOffset = len(lines) - viewport
			}
			switch key {
			case "q", "?", "esc":
				m.showingHelp = false
				return m, nil
			case "up", "k":
				if m.helpOffset > 0 {
					m.helpOffset--
				}
				return m, nil
			case "down", "j":
				if m.helpOffset < maxOffset {
					m.helpOffset++
				}
				return m, nil
			case "pgup":
				step := max(1, viewport-1)
				m.helpOffset = max(0, m.helpOffset-step)
				return m, nil
			case "pgdown":
				step := max(1, viewport-1)
				m.helpOffset = min(maxOffset, m.helpOffset+step)
				return m, nil
			case "home":
				m.helpOffset = 0
				return m, nil
			case "end":
				m.helpOffset = maxOffset
				return m, nil
			default:
				return m, nil
			}
		}
		if m.filtering {
			switch msg.Type {
			case tea.KeyEsc, tea.KeyCtrlC:
				m.filtering = false
				return m, nil
			case tea.KeyEnter:
				// Exit filtering, fall through to normal key handling
				m.filtering = false
			default:
				// Live update filter as user types; no refetch
				var cmd tea.Cmd
				m.filterInput, cmd = m.filterInput.Update(msg)
				m.filter = m.filterInput.Value()
				for i := range m.views {
					m.ensureCursorVisible(i)
				}
				return m, cmd
			}
		}
		switch m.mode {
		case modeMove:
			return m.updateMove(msg.String())
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg.String())
		case modeNewCard, modeEditCard, modeNewColumn, modeRenameColumn:
			return m.updateForm(msg)
		}
		return m.updateNormal(msg.String())
	}
	return m, nil
}

// updateNormal handles keys on the plain board. Critical actions come first
// to avoid conflicts with navigation keys.
func (m boardModel) updateNormal(key string) (tea.Model, tea.Cmd) {
	switch {
	case key == "q" || key == "ctrl+c":
		m.saveUIPreferences()
		return m, tea.Quit
	case key == "?":
		m.showingHelp = !m.showingHelp
		return m, nil
	case key == "/":
		m.filtering = true
		m.filterInput.SetValue(m.filter)
		m.filterInput.Focus()
		return m, nil
	case key == "r":
		if m.sync.BeginManual() {
			m.loading = true
			return m, m.fetchCmd(true)
		}
		return m, nil
	case key == "g":
		return m.grabCurrentCard()
	case key == "n":
		return m.openNewCardForm()
	case key == "N":
		return m.openColumnForm(modeNewColumn, "")
	case key == "e":
		return m.openEditCardForm()
	case key == "R":
		if col, ok := m.currentColumn(); ok {
			if board.IsLocalID(col.ID) {
				return m.setNotice(noticeWarn, "Column is awaiting server confirmation")
			}
			return m.openColumnForm(modeRenameColumn, col.ID)
		}
		return m, nil
	case key == "d":
		if card, ok := m.currentCard(); ok {
			m.mode = modeConfirmDelete
			m.confirmCardID = card.ID
			m.confirmColumnID = ""
			m.confirmLabel = "card " + cardLabel(card)
		}
		return m, nil
	case key == "D":
		if col, ok := m.currentColumn(); ok {
			m.mode = modeConfirmDelete
			m.confirmCardID = ""
			m.confirmColumnID = col.ID
			m.confirmLabel = fmt.Sprintf("column %q and its %d card(s)", col.Title, len(col.Cards))
		}
		return m, nil
	case key == "o":
		if card, ok := m.currentCard(); ok {
			if board.IsLocalID(card.ID) {
				return m.setNotice(noticeWarn, "Card is awaiting server confirmation")
			}
			url := fmt.Sprintf("%s/cards/%s/edit", strings.TrimRight(m.cfg.ServerURL, "/"), card.ID)
			_ = browser.OpenURL(url)
		}
		return m, nil
	case key == "O":
		url := fmt.Sprintf("%s/boards/%s", strings.TrimRight(m.cfg.ServerURL, "/"), m.cfg.Board)
		_ = browser.OpenURL(url)
		return m, nil
	// Navigation last so action keys don't get shadowed if users add them to movement
	case key == "l" || key == "right" || key == "tab":
		if len(m.views) > 0 {
			m.selectedCol = (m.selectedCol + 1) % len(m.views)
			m.ensureCursorVisible(m.selectedCol)
		}
	case key == "h" || key == "left" || key == "shift+tab":
		if len(m.views) > 0 {
			m.selectedCol = (m.selectedCol - 1 + len(m.views)) % len(m.views)
			m.ensureCursorVisible(m.selectedCol)
		}
	case key == "j" || key == "down":
		if m.selectedCol < len(m.views) {
			n := len(m.visibleCards(m.selectedCol))
			if n > 0 && m.views[m.selectedCol].cursor < n-1 {
				m.views[m.selectedCol].cursor++
				m.ensureCursorVisible(m.selectedCol)
			}
		}
	case key == "k" || key == "up":
		if m.selectedCol < len(m.views) {
			if len(m.visibleCards(m.selectedCol)) > 0 && m.views[m.selectedCol].cursor > 0 {
				m.views[m.selectedCol].cursor--
				m.ensureCursorVisible(m.selectedCol)
			}
		}
	}
	return m, nil
}

// grabCurrentCard enters move mode with the selected card. The grab itself
// marks the card pending so a racing poll cannot yank it mid-gesture; the
// marker is handed over to the dispatcher on drop.
func (m boardModel) grabCurrentCard() (tea.Model, tea.Cmd) {
	card, ok := m.currentCard()
	if !ok {
		return m, nil
	}
	if board.IsLocalID(card.ID) {
		return m.setNotice(noticeWarn, "Card is awaiting server confirmation")
	}
	// Move mode works on true positions; a narrowed view would make the
	// gesture ambiguous.
	if m.filter != "" {
		m.filter = ""
		m.filterInput.SetValue("")
	}
	ci, xi, ok := m.b.FindCard(card.ID)
	if !ok {
		return m, nil
	}
	m.mode = modeMove
	m.grabbedID = card.ID
	m.grabSeq = m.pending.Mark(card.ID)
	m.grabOriginCol = m.b.Columns[ci].ID
	m.grabOriginIdx = xi
	m.selectedCol = ci
	m.views[ci].cursor = xi
	for i := range m.views {
		m.ensureCursorVisible(i)
	}
	return m, nil
}

// updateMove handles keys while a card is grabbed: hjkl place the card,
// g/enter drop it (dispatching the move), esc puts it back.
func (m boardModel) updateMove(key string) (tea.Model, tea.Cmd) {
	ci, xi, ok := m.b.FindCard(m.grabbedID)
	if !ok {
		// The card vanished under us (deleted remotely, marker abandoned).
		m.mode = modeNormal
		m.grabbedID = ""
		return m.setNotice(noticeWarn, "Card is no longer on the board")
	}

	switch key {
	case "h", "left":
		if ci > 0 {
			target := m.b.Columns[ci-1]
			// An unconfirmed column has no server identity to move into yet.
			if board.IsLocalID(target.ID) {
				return m.setNotice(noticeWarn, "Column is awaiting server confirmation")
			}
			idx := min(xi, len(target.Cards))
			if m.b.MoveCard(m.grabbedID, target.ID, idx) {
				m.grabSeq = m.pending.Mark(m.grabbedID)
				m.followGrabbedCard()
			}
		}
	case "l", "right":
		if ci < len(m.b.Columns)-1 {
			target := m.b.Columns[ci+1]
			if board.IsLocalID(target.ID) {
				return m.setNotice(noticeWarn, "Column is awaiting server confirmation")
			}
			idx := min(xi, len(target.Cards))
			if m.b.MoveCard(m.grabbedID, target.ID, idx) {
				m.grabSeq = m.pending.Mark(m.grabbedID)
				m.followGrabbedCard()
			}
		}
	case "j", "down":
		if m.b.MoveCard(m.grabbedID, m.b.Columns[ci].ID, xi+1) {
			m.grabSeq = m.pending.Mark(m.grabbedID)
			m.followGrabbedCard()
		}
	case "k", "up":
		if xi > 0 && m.b.MoveCard(m.grabbedID, m.b.Columns[ci].ID, xi-1) {
			m.grabSeq = m.pending.Mark(m.grabbedID)
			m.followGrabbedCard()
		}
	case "g", "enter":
		return m.dropGrabbedCard(ci, xi)
	case "esc", "q":
		// Put the card back where it was grabbed; if that column is gone,
		// leave it where it sits.
		if m.grabOriginCol != m.b.Columns[ci].ID || m.grabOriginIdx != xi {
			m.b.MoveCard(m.grabbedID, m.grabOriginCol, m.grabOriginIdx)
		}
		m.pending.Ack(m.grabbedID, m.grabSeq)
		m.followGrabbedCard()
		m.mode = modeNormal
		m.grabbedID = ""
	}
	return m, nil
}

// dropGrabbedCard ends the gesture. A drop on the original spot is a pure
// cancel; anything else dispatches the move.
func (m boardModel) dropGrabbedCard(ci, xi int) (tea.Model, tea.Cmd) {
	grabbed := m.grabbedID
	m.mode = modeNormal
	m.grabbedID = ""

	if m.grabOriginCol == m.b.Columns[ci].ID && m.grabOriginIdx == xi {
		m.pending.Ack(grabbed, m.grabSeq)
		return m, nil
	}
	// The dispatcher re-marks with a fresh sequence; release the grab marker
	// first so the dispatch owns the newest intent.
	m.pending.Ack(grabbed, m.grabSeq)
	op, ok := m.dispatcher.MoveCard(m.b, grabbed)
	if !ok {
		return m, nil
	}
	logger.Board("Dispatching %s for %s", op.Kind, op.EntityID)
	return m, m.runOpCmd(op)
}

// followGrabbedCard keeps the selection glued to the card being moved.
func (m *boardModel) followGrabbedCard() {
	ci, xi, ok := m.b.FindCard(m.grabbedID)
	if !ok {
		return
	}
	m.selectedCol = ci
	if ci < len(m.views) {
		m.views[ci].cursor = xi
		m.ensureCursorVisible(ci)
	}
}

// updateConfirmDelete handles the y/n prompt for card and column deletion.
func (m boardModel) updateConfirmDelete(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		m.mode = modeNormal
		var (
			op board.Op
			ok bool
		)
		if m.confirmCardID != "" {
			op, ok = m.dispatcher.DeleteCard(m.b, m.confirmCardID)
		} else if m.confirmColumnID != "" {
			op, ok = m.dispatcher.DeleteColumn(m.b, m.confirmColumnID)
		}
		m.confirmCardID = ""
		m.confirmColumnID = ""
		m.confirmLabel = ""
		m.views = rebuildColumnViews(m.b, m.views)
		m.selectedCol = clampColumn(m.selectedCol, len(m.views))
		for i := range m.views {
			m.ensureCursorVisible(i)
		}
		if !ok {
			return m, nil
		}
		logger.Board("Dispatching %s for %s", op.Kind, op.EntityID)
		return m, m.runOpCmd(op)
	case "n", "N", "esc", "q":
		m.mode = modeNormal
		m.confirmCardID = ""
		m.confirmColumnID = ""
		m.confirmLabel = ""
	}
	return m, nil
}

func (m boardModel) openNewCardForm() (tea.Model, tea.Cmd) {
	col, ok := m.currentColumn()
	if !ok {
		return m.setNotice(noticeWarn, "Create a column first (N)")
	}
	if board.IsLocalID(col.ID) {
		return m.setNotice(noticeWarn, "Column is awaiting server confirmation")
	}
	m.mode = modeNewCard
	m.formColumnID = col.ID
	m.formCardID = ""
	m.formTitle.SetValue("")
	m.formNumber.SetValue("")
	m.formBody.SetValue("")
	m.formField = fieldTitle
	m.focusFormField()
	return m, nil
}

func (m boardModel) openEditCardForm() (tea.Model, tea.Cmd) {
	card, ok := m.currentCard()
	if !ok {
		return m, nil
	}
	if board.IsLocalID(card.ID) {
		return m.setNotice(noticeWarn, "Card is awaiting server confirmation")
	}
	m.mode = modeEditCard
	m.formCardID = card.ID
	m.formColumnID = ""
	m.formOrig = card
	m.formTitle.SetValue(card.Title)
	m.formNumber.SetValue(card.Number)
	m.formBody.SetValue(card.Body)
	m.formField = fieldTitle
	m.focusFormField()
	return m, nil
}

func (m boardModel) openColumnForm(mode boardMode, columnID string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.formColumnID = columnID
	m.formCardID = ""
	if mode == modeRenameColumn {
		if col := m.b.Column(columnID); col != nil {
			m.formTitle.SetValue(col.Title)
		}
	} else {
		m.formTitle.SetValue("")
	}
	m.formField = fieldTitle
	m.blurFormFields()
	m.formTitle.Focus()
	return m, nil
}

// updateForm drives the create/edit inputs. Tab cycles fields on the card
// forms, enter saves from single-line fields (the body textarea keeps enter
// for newlines), ctrl+s saves from anywhere, esc abandons.
func (m boardModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cardForm := m.mode == modeNewCard || m.mode == modeEditCard

	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.blurFormFields()
		return m, nil
	case "tab":
		if cardForm {
			m.formField = (m.formField + 1) % 3
			m.focusFormField()
		}
		return m, nil
	case "shift+tab":
		if cardForm {
			m.formField = (m.formField + 2) % 3
			m.focusFormField()
		}
		return m, nil
	case "ctrl+s":
		return m.saveForm()
	case "enter":
		if !cardForm || m.formField != fieldBody {
			return m.saveForm()
		}
	}

	var cmd tea.Cmd
	switch {
	case !cardForm || m.formField == fieldTitle:
		m.formTitle, cmd = m.formTitle.Update(msg)
	case m.formField == fieldNumber:
		m.formNumber, cmd = m.formNumber.Update(msg)
	default:
		m.formBody, cmd = m.formBody.Update(msg)
	}
	return m, cmd
}

func (m boardModel) saveForm() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.formTitle.Value())
	if title == "" {
		return m.setNotice(noticeWarn, "Title cannot be empty")
	}

	mode := m.mode
	m.mode = modeNormal
	m.blurFormFields()

	var (
		op board.Op
		ok bool
	)
	switch mode {
	case modeNewColumn:
		op, ok = m.dispatcher.CreateColumn(m.b, title)
	case modeRenameColumn:
		op, ok = m.dispatcher.RenameColumn(m.b, m.formColumnID, title)
	case modeNewCard:
		draft := board.CardDraft{
			Title:  title,
			Number: normalizeCardNumber(m.formNumber.Value()),
			Body:   strings.TrimSpace(m.formBody.Value()),
		}
		op, ok = m.dispatcher.CreateCard(m.b, m.formColumnID, draft)
	case modeEditCard:
		patch := board.CardPatch{}
		if title != m.formOrig.Title {
			patch.Title = &title
		}
		if number := normalizeCardNumber(m.formNumber.Value()); number != m.formOrig.Number {
			patch.Number = &number
		}
		if body := strings.TrimSpace(m.formBody.Value()); body != m.formOrig.Body {
			patch.Body = &body
		}
		op, ok = m.dispatcher.UpdateCard(m.b, m.formCardID, patch)
	}

	m.views = rebuildColumnViews(m.b, m.views)
	m.selectedCol = clampColumn(m.selectedCol, len(m.views))
	if mode == modeNewCard && ok {
		// Put the cursor on the optimistic card at the end of its column.
		for i, col := range m.b.Columns {
			if col.ID == m.formColumnID && len(col.Cards) > 0 {
				m.selectedCol = i
				m.views[i].cursor = len(col.Cards) - 1
			}
		}
	}
	if mode == modeNewColumn && ok {
		m.selectedCol = max(0, len(m.views)-1)
	}
	for i := range m.views {
		m.ensureCursorVisible(i)
	}

	if !ok {
		// Nothing changed (empty patch, vanished target): nothing to send.
		return m, nil
	}
	logger.Board("Dispatching %s for %s", op.Kind, op.EntityID)
	return m, m.runOpCmd(op)
}

func (m *boardModel) focusFormField() {
	m.blurFormFields()
	switch m.formField {
	case fieldTitle:
		m.formTitle.Focus()
	case fieldNumber:
		m.formNumber.Focus()
	case fieldBody:
		m.formBody.Focus()
	}
}

func (m *boardModel) blurFormFields() {
	m.formTitle.Blur()
	m.formNumber.Blur()
	m.formBody.Blur()
}

// visibleCards applies the live filter to a column's cards. An empty filter
// passes everything through untouched.
func (m boardModel) visibleCards(i int) []board.Card {
	if i < 0 || i >= len(m.b.Columns) {
		return nil
	}
	cards := m.b.Columns[i].Cards
	if m.filter == "" {
		return cards
	}
	out := make([]board.Card, 0, len(cards))
	for _, c := range cards {
		if m.cardMatches(c) {
			out = append(out, c)
		}
	}
	return out
}

func (m boardModel) cardMatches(c board.Card) bool {
	if m.fuzzy {
		return usercfg.MatchCard(m.filter, c.Number, c.Title)
	}
	f := strings.ToLower(m.filter)
	return strings.Contains(strings.ToLower(c.Number), f) ||
		strings.Contains(strings.ToLower(c.Title), f)
}

func (m boardModel) currentCard() (board.Card, bool) {
	if m.selectedCol >= len(m.views) {
		return board.Card{}, false
	}
	cards := m.visibleCards(m.selectedCol)
	if len(cards) == 0 {
		return board.Card{}, false
	}
	cursor := m.views[m.selectedCol].cursor
	if cursor >= len(cards) {
		cursor = len(cards) - 1
	}
	return cards[cursor], true
}

func (m boardModel) currentColumn() (board.Column, bool) {
	if m.selectedCol < 0 || m.selectedCol >= len(m.b.Columns) {
		return board.Column{}, false
	}
	return m.b.Columns[m.selectedCol], true
}

// cardLabel is the short human identity of a card for prompts and notices.
func cardLabel(c board.Card) string {
	if c.Number != "" {
		return c.Number
	}
	title := c.Title
	if len(title) > 24 {
		title = title[:24] + "..."
	}
	return fmt.Sprintf("%q", title)
}

// rebuildColumnViews realigns per-column UI state with the board's columns
// after any structural change, preserving cursors of surviving columns.
func rebuildColumnViews(b *board.Board, prev []columnUI) []columnUI {
	old := make(map[string]columnUI, len(prev))
	for _, v := range prev {
		old[v.id] = v
	}
	views := make([]columnUI, len(b.Columns))
	for i, col := range b.Columns {
		if v, ok := old[col.ID]; ok {
			views[i] = v
		} else {
			views[i] = columnUI{id: col.ID}
		}
	}
	return views
}

func clampColumn(i, n int) int {
	if n == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m boardModel) View() string {
	status := m.syncStatus()
	header := m.styles.header.Render(clip(fmt.Sprintf("Lexboard — %s — %s", m.cfg.Board, status), m.width))
	// Compact help to avoid overflowing small terminals; full help with '?'
	help := m.styles.help.Render(clip(m.modeHelpLine(), m.width))

	cols := len(m.b.Columns)
	if cols == 0 {
		body := "No columns yet — press N to create one"
		if m.loading {
			body = "Loading..."
		}
		if m.err != nil {
			body = m.styles.error.Render("Error: "+m.err.Error()) + "\n" + m.styles.muted.Render("(r to retry, q to quit)")
		}
		base := header + "\n" + help + "\n\n" + body + m.bottomSections()
		if m.showingHelp {
			return m.renderWithHelpOverlay(base)
		}
		return base
	}

	colWidth := m.columnWidth(cols)
	itemsWindow := m.itemsWindowCount()
	uiPrefs := usercfg.GetUIPrefs()

	rendered := make([]string, cols)
	for i, c := range m.b.Columns {
		cards := m.visibleCards(i)
		var items []string
		if len(cards) == 0 {
			if m.filter != "" && len(c.Cards) > 0 {
				items = []string{m.styles.muted.Render("(no matches)")}
			} else {
				items = []string{m.styles.muted.Render("(empty)")}
			}
		} else {
			start := 0
			if i < len(m.views) {
				start = m.views[i].offset
			}
			if start > len(cards)-1 {
				start = max(0, len(cards)-1)
			}
			end := min(len(cards), start+itemsWindow)

			// Top indicator or spacer
			if start > 0 {
				items = append(items, m.styles.muted.Render(fmt.Sprintf("… %d above", start)))
			} else {
				items = append(items, "")
			}
			for idx := start; idx < end; idx++ {
				card := cards[idx]
				line := cardLine(card, uiPrefs.ShowCardNumbers)
				if m.pending.Pending(card.ID) {
					line += " *"
				}
				selected := i == m.selectedCol && i < len(m.views) && idx == m.views[i].cursor
				switch {
				case selected && m.mode == modeMove && card.ID == m.grabbedID:
					items = append(items, m.styles.grabbed.Render(clip("⇅ "+line, colWidth-4)))
				case selected:
					items = append(items, m.styles.selected.Render(clip(line, colWidth-4)))
				default:
					items = append(items, clip(line, colWidth-4))
				}
			}
			// Bottom indicator or spacer
			if end < len(cards) {
				items = append(items, m.styles.muted.Render(fmt.Sprintf("… %d below", len(cards)-end)))
			} else {
				items = append(items, "")
			}
		}

		box := m.styles.boxStyle
		if i == m.selectedCol {
			box = m.styles.boxActive
		}
		title := c.Title
		if m.pending.Pending(c.ID) {
			title += " *"
		}
		titleLine := m.styles.title.Render(clip(fmt.Sprintf("%s (%d)", title, len(c.Cards)), colWidth-4))
		rendered[i] = box.Width(colWidth).Render(titleLine + "\n" + strings.Join(items, "\n"))
	}
	boardView := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	base := header + "\n" + help + "\n\n" + boardView + m.bottomSections()

	if m.showingHelp {
		return m.renderWithHelpOverlay(base)
	}
	return base
}

// cardLine formats one card row: number first when present (and enabled),
// title always.
func cardLine(c board.Card, showNumbers bool) string {
	if showNumbers && c.Number != "" {
		return fmt.Sprintf("%s — %s", c.Number, c.Title)
	}
	return c.Title
}

// syncStatus summarizes the poll state for the header.
func (m boardModel) syncStatus() string {
	var parts []string
	switch {
	case m.sync.Paused():
		parts = append(parts, "sync paused")
	case m.sync.InFlight():
		parts = append(parts, "syncing…")
	default:
		parts = append(parts, fmt.Sprintf("auto-refresh %ds", int(m.sync.Interval().Seconds())))
	}
	if n := m.pending.Len(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unconfirmed", n))
	}
	return strings.Join(parts, " • ")
}

// modeHelpLine is the one-line key hint under the header, specific to the
// current mode.
func (m boardModel) modeHelpLine() string {
	switch m.mode {
	case modeMove:
		return "(hjkl/arrows place card • g/enter drop • esc cancel)"
	case modeConfirmDelete:
		return fmt.Sprintf("Delete %s? (y/n)", m.confirmLabel)
	case modeNewCard, modeEditCard:
		return "(tab next field • enter save • ctrl+s save • esc cancel)"
	case modeNewColumn, modeRenameColumn:
		return "(enter save • esc cancel)"
	}
	return "(? help • q quit • arrows/hjkl move • g grab • n new card • / filter • r refresh)"
}

// bottomSections renders everything under the board: card detail, active
// form, filter input, notices, and load state.
func (m boardModel) bottomSections() string {
	var out string

	// Selected card body, one line, raw text.
	if m.mode == modeNormal || m.mode == modeMove {
		if card, ok := m.currentCard(); ok && card.Body != "" {
			first := card.Body
			if i := strings.IndexByte(first, '\n'); i >= 0 {
				first = first[:i] + " …"
			}
			out += "\n" + m.styles.muted.Render(clip(first, m.width))
		}
	}

	switch m.mode {
	case modeNewCard, modeEditCard:
		label := "New card"
		if m.mode == modeEditCard {
			label = "Edit " + cardLabel(m.formOrig)
		} else if col := m.b.Column(m.formColumnID); col != nil {
			label = fmt.Sprintf("New card in %s", col.Title)
		}
		out += "\n\n" + m.styles.title.Render(label) +
			"\n  Title:  " + m.formTitle.View() +
			"\n  Number: " + m.formNumber.View() +
			"\n  Body:\n" + m.formBody.View()
	case modeNewColumn:
		out += "\n\n" + m.styles.title.Render("New column") + "\n  Title: " + m.formTitle.View()
	case modeRenameColumn:
		out += "\n\n" + m.styles.title.Render("Rename column") + "\n  Title: " + m.formTitle.View()
	}

	if m.filtering {
		out += "\n\nFilter: " + m.filterInput.View()
	} else if m.filter != "" {
		out += "\n" + m.styles.muted.Render("Filter: "+m.filter)
	}

	if m.notice != "" {
		style := m.styles.muted
		switch m.noticeKind {
		case noticeWarn:
			style = m.styles.warn
		case noticeError:
			style = m.styles.error
		}
		out += "\n" + style.Render(clip(m.notice, m.width))
	}

	if m.err != nil && len(m.b.Columns) > 0 {
		out += "\n" + m.styles.error.Render("Error: "+m.err.Error())
	} else if m.loading {
		out += "\n" + m.styles.muted.Render("Loading...")
	}

	return out + "\n"
}

func (m boardModel) renderWithHelpOverlay(baseView string) string {
	lines, overlayWidth, viewport := m.helpLayout()
	// Clamp offset
	maxOffset := 0
	if viewport < len(lines) {
		maxOffset = len(lines) - viewport
	}
	if m.helpOffset > maxOffset {
		m.helpOffset = maxOffset
	}
	if m.helpOffset < 0 {
		m.helpOffset = 0
	}
	// Slice visible content
	start := m.helpOffset
	end := min(len(lines), start+viewport)
	visible := lines[start:end]
	helpContent := strings.Join(visible, "\n")
	overlayHeight := viewport + 3

	// Position overlay in center
	y := max(0, (m.height-overlayHeight)/2)

	// Footer with position and controls
	pos := fmt.Sprintf("%d/%d lines — ↑/↓ PgUp/PgDn Home/End — q/? close", end, len(lines))
	helpBlock := helpContent + "\n" + m.styles.muted.Render(pos)
	overlay := m.styles.helpOverlay.Width(overlayWidth).Render(helpBlock)

	baseLines := strings.Split(baseView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	// Ensure we have enough base lines
	for len(baseLines) < y+len(overlayLines) {
		baseLines = append(baseLines, "")
	}

	// Overlay the help content
	for i, overlayLine := range overlayLines {
		if y+i < len(baseLines) {
			baseLines[y+i] = overlayLine
		}
	}

	return strings.Join(baseLines, "\n")
}

// helpLayout computes wrapped help lines, target overlay width, and viewport height (content rows)
func (m boardModel) helpLayout() ([]string, int, int) {
	helpContent := m.buildHelpContent()
	// Width bounds
	overlayWidth := min(80, max(40, m.width-8))
	// Wrap
	contentLines := strings.Split(helpContent, "\n")
	wrapped := make([]string, 0, len(contentLines))
	wrapWidth := max(10, overlayWidth-4)
	for _, line := range contentLines {
		for len(line) > wrapWidth {
			wrapped = append(wrapped, line[:wrapWidth])
			line = line[wrapWidth:]
		}
		wrapped = append(wrapped, line)
	}
	// Viewport rows for content (exclude padding/footer lines)
	viewport := max(3, min(m.height-4, len(wrapped)+3)-3)
	return wrapped, overlayWidth, viewport
}

func (m boardModel) buildHelpContent() string {
	title := m.styles.helpTitle.Render("⚖ Lexboard - Keyboard Shortcuts")

	helpLines := []string{
		m.styles.helpKey.Render("q/ctrl+c") + "    Quit",
		m.styles.helpKey.Render("?") + "           Toggle this help overlay",
		"",
		m.styles.helpTitle.Render("Navigation:"),
		m.styles.helpKey.Render("hjkl/arrows") + " Navigate",
		m.styles.helpKey.Render("tab/shift+tab") + " Switch column",
		"",
		m.styles.helpTitle.Render("Cards:"),
		m.styles.helpKey.Render("g") + "           Grab card / drop grabbed card",
		m.styles.helpKey.Render("n") + "           New card in the selected column",
		m.styles.helpKey.Render("e") + "           Edit selected card",
		m.styles.helpKey.Render("d") + "           Delete selected card (asks y/n)",
		m.styles.helpKey.Render("o") + "           Open selected card in browser",
		"",
		m.styles.helpTitle.Render("Columns:"),
		m.styles.helpKey.Render("N") + "           New column",
		m.styles.helpKey.Render("R") + "           Rename selected column",
		m.styles.helpKey.Render("D") + "           Delete selected column (asks y/n)",
		m.styles.helpKey.Render("O") + "           Open board in browser",
		"",
		m.styles.helpTitle.Render("Board:"),
		m.styles.helpKey.Render("/") + "           Filter cards (live search)",
		m.styles.helpKey.Render("r") + "           Refresh now",
		"",
		m.styles.helpTitle.Render("Tips:"),
		"  • Cards marked * have changes not yet confirmed by the server",
		"  • The board refreshes itself; polling pauses while the terminal is unfocused",
		"  • While a card is grabbed, hjkl move the card instead of the cursor",
	}

	return title + "\n\n" + strings.Join(helpLines, "\n") + "\n\n" + m.styles.muted.Render("Press ? again to close")
}

// columnWidth splits the terminal evenly across columns, with a floor so
// narrow terminals stay readable.
func (m boardModel) columnWidth(cols int) int {
	if cols == 0 {
		return 0
	}
	usable := m.width - 2*cols
	return max(18, usable/cols)
}

// viewportItemsHeight calculates how many rows of items can be displayed per column
// given the current terminal height and rough space usage of headers/footers.
func (m boardModel) viewportItemsHeight() int {
	reserved := 5
	if m.filtering {
		reserved += 2
	}
	avail := max(5, m.height-reserved)
	return max(1, avail-3)
}

// itemsWindowCount returns the number of item rows we draw, excluding the two
// indicator lines (top and bottom). This keeps ensureCursorVisible and View aligned.
func (m boardModel) itemsWindowCount() int {
	base := m.viewportItemsHeight()
	if base <= 2 {
		return 1
	}
	return base - 2
}

// ensureCursorVisible adjusts a column's offset so that the cursor stays
// within the visible window, honoring the up/down indicators.
func (m boardModel) ensureCursorVisible(i int) {
	if i < 0 || i >= len(m.views) {
		return
	}
	v := &m.views[i]
	n := len(m.visibleCards(i))
	if n == 0 {
		v.offset = 0
		v.cursor = 0
		return
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
	if v.cursor > n-1 {
		v.cursor = n - 1
	}
	vh := m.itemsWindowCount()
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+vh {
		v.offset = v.cursor - vh + 1
	}
	maxOffset := 0
	if n > vh {
		maxOffset = n - vh
	}
	if v.offset > maxOffset {
		v.offset = maxOffset
	}
	if v.offset < 0 {
		v.offset = 0
	}
}

func (m boardModel) saveUIPreferences() {
	prefs := usercfg.GetUIPrefs()
	prefs.LastFilter = m.filter
	prefs.LastSelectedCol = m.selectedCol

	// Save preferences (ignore errors as this is best-effort)
	_ = usercfg.SaveUIPrefs(prefs)
}

// StartBoard runs the kanban TUI against the configured board. Focus
// reporting drives the poll pause; the alt screen keeps the shell clean.
func StartBoard(cfg *usercfg.Config) error {
	client := boardapi.NewClient(cfg.ServerURL, cfg.Email, cfg.APIToken, cfg.Board)
	model := initialBoardModel(cfg, client)
	logger.TUI("Starting board %s (poll interval %s)", cfg.Board, cfg.PollInterval())

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	finalModel, err := p.Run()

	// Save UI preferences when the program exits
	if bm, ok := finalModel.(boardModel); ok {
		bm.saveUIPreferences()
	}

	return err
}

// clip is a local helper similar to truncate but safe for narrow widths.
// It counts runes, not bytes, so headers and titles with non-ASCII text
// never get cut mid-character.
func clip(s string, w int) string {
	if w <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 3 {
		return string(r[:w])
	}
	return string(r[:w-3]) + "..."
}
