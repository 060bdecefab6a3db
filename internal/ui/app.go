package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/frontdesk/internal/events"
	"github.com/five82/frontdesk/internal/prefs"
	"github.com/five82/frontdesk/internal/protocol"
	"github.com/five82/frontdesk/internal/realtime"
	"github.com/five82/frontdesk/internal/state"
	"github.com/five82/frontdesk/internal/undo"
)

// Engine is the part of the realtime engine the UI drives.
type Engine interface {
	State() state.Snapshot
	QueueLen() int
	CanUndo() bool
	Subscribe() (release func())
	Notifications() *events.Bus[realtime.Notification]
	SendChatMessage(ctx context.Context, waID protocol.WaID, text string) error
	SetTyping(ctx context.Context, waID protocol.WaID, typing bool) error
	RequestSnapshot(ctx context.Context) bool
	CancelReservation(ctx context.Context, id int64) (undoID string, err error)
	ReinstateReservation(ctx context.Context, id int64) (undoID string, err error)
	Undo(ctx context.Context) (undo.Operation, error)
	UndoByID(ctx context.Context, id string) (undo.Operation, error)
}

// Pane identifies the focused column.
type Pane int

const (
	PaneConversations Pane = iota
	PaneChat
	PaneReservations
	paneCount
)

// Options configures the UI.
type Options struct {
	Context      context.Context
	Engine       Engine
	Prefs        prefs.Prefs
	PrefsPath    string
	RefreshEvery time.Duration
	Logger       zerolog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	engine    Engine
	keys      keyMap
	prefsPath string
	refresh   time.Duration
	logger    zerolog.Logger
	now       func() time.Time

	// UI state
	theme    Theme
	muted    bool
	focus    Pane
	width    int
	height   int
	ready    bool
	showHelp bool

	// Data state
	snapshot     state.Snapshot
	rows         []conversationRow
	selected     protocol.WaID
	selectedRow  int
	resCursor    int
	chatVersion  uint64
	chatSelected protocol.WaID

	// Chat state
	chat      viewport.Model
	input     textinput.Model
	composing bool
	typingTo  protocol.WaID
	lastKeyAt time.Time

	// Toasts
	toasts []toast

	// Subscriptions
	notifications <-chan realtime.Notification
	unsubscribe   func()
	release       func()
}

// New creates a new Bubble Tea model. It subscribes to the engine so the
// socket opens while the UI is up; Close releases it.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	refresh := opts.RefreshEvery
	if refresh <= 0 {
		refresh = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.Placeholder = "Type a message"
	input.CharLimit = 4096
	input.Prompt = "> "

	m := Model{
		ctx:       ctx,
		engine:    opts.Engine,
		keys:      DefaultKeyMap(),
		prefsPath: prefsPath,
		refresh:   refresh,
		logger:    opts.Logger.With().Str("component", "ui").Logger(),
		now:       time.Now,
		theme:     GetTheme(opts.Prefs.Theme),
		muted:     opts.Prefs.MuteNotifications,
		input:     input,
		chat:      viewport.New(0, 0),
	}

	if m.engine != nil {
		m.release = m.engine.Subscribe()
		m.notifications, m.unsubscribe = m.engine.Notifications().Subscribe(32)
		m.snapshot = m.engine.State()
		m.rebuildRows()
	}
	return m
}

// Close releases the engine subscription and the notification feed.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if m.release != nil {
		m.release()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.refresh),
		waitForNotification(m.notifications),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeChat()
		m.refreshChat(true)
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case notificationMsg:
		m.handleNotification(realtime.Notification(msg))
		return m, waitForNotification(m.notifications)

	case prefsMsg:
		m.theme = GetTheme(msg.Theme)
		m.muted = msg.MuteNotifications
		if m.muted {
			m.dropEventToasts()
		}
		return m, nil

	case actionDoneMsg:
		m.handleActionDone(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.composing {
		return m.handleComposeKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, m.savePrefsCmd()
	case key.Matches(msg, m.keys.Mute):
		m.muted = !m.muted
		if m.muted {
			m.dropEventToasts()
		}
		m.pushToast(toastInfo, ternary(m.muted, "Notifications muted", "Notifications on"), "")
		return m, m.savePrefsCmd()
	case key.Matches(msg, m.keys.Tab):
		m.focus = (m.focus + 1) % paneCount
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.focus = (m.focus + paneCount - 1) % paneCount
		return m, nil
	case key.Matches(msg, m.keys.Undo):
		if m.engine == nil || !m.engine.CanUndo() {
			m.pushToast(toastInfo, "Nothing to undo", "")
			return m, nil
		}
		return m, undoCmd(m.ctx, m.engine)
	case key.Matches(msg, m.keys.UndoToast):
		id := m.takeToastUndo()
		if id == "" || m.engine == nil {
			m.pushToast(toastInfo, "Nothing to undo", "")
			return m, nil
		}
		return m, undoByIDCmd(m.ctx, m.engine, id)
	case key.Matches(msg, m.keys.Refresh):
		if m.engine == nil {
			return m, nil
		}
		return m, snapshotCmd(m.ctx, m.engine)
	case key.Matches(msg, m.keys.Compose) && m.focus != PaneReservations:
		if m.selected == "" {
			return m, nil
		}
		m.composing = true
		m.focus = PaneChat
		cmd := m.input.Focus()
		return m, cmd
	}

	switch m.focus {
	case PaneConversations:
		m.handleListKey(msg)
	case PaneChat:
		m.handleChatKey(msg)
	case PaneReservations:
		return m.handleReservationKey(msg)
	}
	return m, nil
}

func (m *Model) handleListKey(msg tea.KeyMsg) {
	n := len(m.rows)
	if n == 0 {
		return
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < n-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = n - 1
	default:
		return
	}
	m.selected = m.rows[m.selectedRow].WaID
	m.resCursor = 0
	m.refreshChat(true)
}

func (m *Model) handleChatKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.chat.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.chat.ScrollUp(1)
	case key.Matches(msg, m.keys.PageDown):
		m.chat.PageDown()
	case key.Matches(msg, m.keys.PageUp):
		m.chat.PageUp()
	case key.Matches(msg, m.keys.Top):
		m.chat.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.chat.GotoBottom()
	}
}

func (m Model) handleReservationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	list := sortedReservations(m.snapshot.State, m.selected)
	if len(list) == 0 {
		return m, nil
	}
	if m.resCursor >= len(list) {
		m.resCursor = len(list) - 1
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.resCursor < len(list)-1 {
			m.resCursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.resCursor > 0 {
			m.resCursor--
		}
	case key.Matches(msg, m.keys.CancelReservation):
		r := list[m.resCursor]
		if r.Cancelled || m.engine == nil {
			return m, nil
		}
		return m, reservationCmd(m.ctx, fmt.Sprintf("Cancelled reservation %d", r.ID), func(ctx context.Context) (string, error) {
			return m.engine.CancelReservation(ctx, r.ID)
		})
	case key.Matches(msg, m.keys.ReinstateReservation):
		r := list[m.resCursor]
		if !r.Cancelled || m.engine == nil {
			return m, nil
		}
		return m, reservationCmd(m.ctx, fmt.Sprintf("Reinstated reservation %d", r.ID), func(ctx context.Context) (string, error) {
			return m.engine.ReinstateReservation(ctx, r.ID)
		})
	}
	return m, nil
}

func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Escape):
		m.composing = false
		m.input.Blur()
		cmd := m.stopTypingCmd()
		return m, cmd
	case key.Matches(msg, m.keys.Send):
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.selected == "" || m.engine == nil {
			return m, nil
		}
		m.input.SetValue("")
		cmd := tea.Batch(sendCmd(m.ctx, m.engine, m.selected, text), m.stopTypingCmd())
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	m.lastKeyAt = m.now()
	if m.typingTo == m.selected || m.engine == nil {
		return m, cmd
	}
	m.typingTo = m.selected
	return m, tea.Batch(cmd, typingCmd(m.ctx, m.engine, m.selected, true))
}

// stopTypingCmd clears the typing indicator if one was sent.
func (m *Model) stopTypingCmd() tea.Cmd {
	if m.typingTo == "" || m.engine == nil {
		return nil
	}
	waID := m.typingTo
	m.typingTo = ""
	return typingCmd(m.ctx, m.engine, waID, false)
}

func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.refresh)}

	if m.engine != nil {
		snap := m.engine.State()
		changed := snap.Version != m.snapshot.Version
		m.snapshot = snap
		if changed {
			m.rebuildRows()
			m.refreshChat(false)
		}
	}
	m.expireToasts(now)

	if m.typingTo != "" && now.Sub(m.lastKeyAt) >= typingIdle {
		cmds = append(cmds, m.stopTypingCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleNotification(n realtime.Notification) {
	if n.Local || m.muted {
		return
	}
	m.pushToast(toastEvent, DescribeNotification(n), n.Type)
}

func (m *Model) handleActionDone(msg actionDoneMsg) {
	if msg.undone != "" {
		m.clearToastUndo(msg.undone)
	}
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return
		}
		m.logger.Warn().Err(msg.err).Str("action", msg.label).Msg("action failed")
		m.pushToast(toastError, fmt.Sprintf("%s: %v", msg.failLabel(), msg.err), "")
		return
	}
	if msg.label != "" {
		m.pushToast(toastInfo, msg.label, "")
		m.toasts[len(m.toasts)-1].UndoID = msg.undoID
	}
}

// rebuildRows recomputes the conversation list and keeps the selection on
// the same customer when it is still present.
func (m *Model) rebuildRows() {
	m.rows = buildConversationRows(m.snapshot.State)
	if len(m.rows) == 0 {
		m.selected = ""
		m.selectedRow = 0
		return
	}
	if i := indexOf(m.rows, m.selected); i >= 0 {
		m.selectedRow = i
		return
	}
	if m.selectedRow >= len(m.rows) {
		m.selectedRow = len(m.rows) - 1
	}
	m.selected = m.rows[m.selectedRow].WaID
}

func (m *Model) resizeChat() {
	w, h := m.chatSize()
	m.chat.Width = w
	m.chat.Height = h
	m.input.Width = w - len(m.input.Prompt) - 1
}

// refreshChat re-renders the chat pane. It follows the bottom when the
// customer changed, when forced, or when the view was already at the end.
func (m *Model) refreshChat(force bool) {
	atBottom := m.chat.AtBottom()
	m.chat.SetContent(m.renderMessages())
	switched := m.chatSelected != m.selected
	if force || switched || atBottom || m.chatVersion == 0 {
		m.chat.GotoBottom()
	}
	m.chatSelected = m.selected
	m.chatVersion = m.snapshot.Version
}

func (m Model) savePrefsCmd() tea.Cmd {
	path := m.prefsPath
	p := prefs.Prefs{Theme: m.theme.Name, MuteNotifications: m.muted}
	logger := m.logger
	return func() tea.Msg {
		if path == "" {
			return nil
		}
		if err := prefs.Save(path, p); err != nil {
			logger.Warn().Err(err).Msg("save prefs")
		}
		return nil
	}
}

// Messages

type tickMsg time.Time

type notificationMsg realtime.Notification

type prefsMsg prefs.Prefs

type actionDoneMsg struct {
	label  string
	fail   string
	err    error
	undoID string // undo recorded by the action
	undone string // undo operation that was run
}

func (a actionDoneMsg) failLabel() string {
	if a.fail != "" {
		return a.fail
	}
	return "Failed"
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForNotification(ch <-chan realtime.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

func sendCmd(ctx context.Context, e Engine, waID protocol.WaID, text string) tea.Cmd {
	return func() tea.Msg {
		err := e.SendChatMessage(ctx, waID, text)
		return actionDoneMsg{fail: "Message not sent", err: err}
	}
}

func typingCmd(ctx context.Context, e Engine, waID protocol.WaID, typing bool) tea.Cmd {
	return func() tea.Msg {
		_ = e.SetTyping(ctx, waID, typing) // Best effort
		return nil
	}
}

func snapshotCmd(ctx context.Context, e Engine) tea.Cmd {
	return func() tea.Msg {
		if !e.RequestSnapshot(ctx) {
			return actionDoneMsg{fail: "Refresh", err: errors.New("server did not take the request")}
		}
		return actionDoneMsg{label: "Snapshot requested"}
	}
}

func undoCmd(ctx context.Context, e Engine) tea.Cmd {
	return func() tea.Msg {
		return undoResult(e.Undo(ctx))
	}
}

func undoByIDCmd(ctx context.Context, e Engine, id string) tea.Cmd {
	return func() tea.Msg {
		return undoResult(e.UndoByID(ctx, id))
	}
}

// undoResult reports an undo. The operation is off the stack even when it
// failed, so its toast loses the undo hint either way.
func undoResult(op undo.Operation, err error) actionDoneMsg {
	if err != nil {
		return actionDoneMsg{fail: "Undo failed", err: err, undone: op.ID}
	}
	return actionDoneMsg{label: "Undone: " + op.Description, undone: op.ID}
}

func reservationCmd(ctx context.Context, label string, run func(context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		undoID, err := run(ctx)
		if err != nil {
			return actionDoneMsg{fail: "Reservation change failed", err: err}
		}
		if undoID != "" {
			label += " (U to undo)"
		}
		return actionDoneMsg{label: label, undoID: undoID}
	}
}

// Run starts the Bubble Tea program and hot-reloads prefs while it runs.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	opts.Context = ctx

	m := New(opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	go func() {
		err := prefs.Watch(ctx, m.prefsPath, func(pr prefs.Prefs) {
			p.Send(prefsMsg(pr))
		})
		if err != nil {
			m.logger.Warn().Err(err).Msg("prefs watch stopped")
		}
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
