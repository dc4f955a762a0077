// Package tui renders the view state and turns key presses into controller
// requests.
//
// Requests run as tea.Cmds: Update calls a controller Begin* method, the
// returned command performs the network call off the update loop, and the
// resulting requestDoneMsg is handed back to Controller.Finish inside Update.
// All store mutations therefore happen on the Bubble Tea goroutine.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"shopassist/internal/api"
	"shopassist/internal/controller"
	"shopassist/internal/domain"
	"shopassist/internal/state"
	"shopassist/internal/summarizer"
)

// Options tunes rendering.
type Options struct {
	PreviewSentences int
	PreviewThreshold int
	// InitialQuery runs a search as soon as the program starts.
	InitialQuery string
	// InitialProductID opens recommendations for this product on start.
	InitialProductID string
}

// mirror receives every store mutation. It is shared by all copies of Model.
type mirror struct {
	latest state.ViewState
	seen   int
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctrl     *controller.Controller
	mirror   *mirror
	events   <-chan controller.Event
	sum      *summarizer.FrequencySummarizer
	opts     Options
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	searchCursor int
	recCursor    int
	expanded     bool
	status       string
	statusErr    bool
	ready        bool
	width        int

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new TUI model driving ctrl.
func New(ctrl *controller.Controller, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = highlightStyle

	mir := &mirror{latest: ctrl.Store().Snapshot()}
	ctrl.Store().Subscribe(func(v state.ViewState) {
		mir.latest = v
		mir.seen++
	})

	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		ctrl:     ctrl,
		mirror:   mir,
		events:   ctrl.Subscribe(),
		sum:      summarizer.NewFrequencySummarizer(),
		opts:     opts,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Type to search. tab switches modes.",
		ctx:      ctx,
		cancel:   cancel,
	}
	m.updatePlaceholder()
	return m
}

// Init starts the spinner, the event listener, the health check and any
// requested start-up action.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, m.listenForEvents(), m.checkHealth()}
	if id := strings.TrimSpace(m.opts.InitialProductID); id != "" {
		cmds = append(cmds, func() tea.Msg { return startupMsg{productID: id} })
	} else if q := strings.TrimSpace(m.opts.InitialQuery); q != "" {
		cmds = append(cmds, func() tea.Msg { return startupMsg{query: q} })
	}
	return tea.Batch(cmds...)
}

type (
	requestDoneMsg     struct{ res controller.Result }
	controllerEventMsg controller.Event
	healthMsg          struct {
		status domain.HealthStatus
		err    error
	}
	startupMsg struct {
		query     string
		productID string
	}
)

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 + 1 // title+tabs, status, input box, spacer
		vh := msg.Height - reserved - rh
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, vh)
		m.refresh()
		return m, nil

	case startupMsg:
		if msg.productID != "" {
			return m.dispatch(m.ctrl.BeginRecommendByID(m.ctx, msg.productID, 0))
		}
		q, f := controller.ParseSearchInput(msg.query)
		return m.dispatch(m.ctrl.BeginSearch(m.ctx, q, f))

	case requestDoneMsg:
		err := m.ctrl.Finish(msg.res)
		m.searchCursor = clamp(m.searchCursor, len(m.mirror.latest.SearchResults))
		if err == nil {
			m.onCommitted(msg.res.Kind)
		}
		m.refresh()
		return m, nil

	case controllerEventMsg:
		m.onEvent(controller.Event(msg))
		return m, m.listenForEvents()

	case healthMsg:
		if msg.err != nil {
			m.setError("API unreachable: " + describe(msg.err))
		} else if !msg.status.OK() {
			m.setError("API status: " + msg.status.Status)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.cancel()
			return m, tea.Quit
		}
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	mode := m.mirror.latest.ActiveMode
	switch {
	case key.Matches(msg, keys.NextTab):
		m.switchMode(mode.Next())
		return m, nil, true
	case key.Matches(msg, keys.PrevTab):
		m.switchMode(mode.Prev())
		return m, nil, true
	case key.Matches(msg, keys.Search):
		m.switchMode(domain.ModeSearch)
		return m, nil, true
	case key.Matches(msg, keys.Chat):
		m.switchMode(domain.ModeChat)
		return m, nil, true
	case key.Matches(msg, keys.Recommend):
		m.switchMode(domain.ModeRecommend)
		return m, nil, true
	case key.Matches(msg, keys.Abort):
		if m.ctrl.Abort() {
			m.setStatus("Cancelling...")
		}
		return m, nil, true
	case key.Matches(msg, keys.Browse):
		next, cmd := m.dispatch(m.ctrl.BeginBrowse(m.ctx))
		return next, cmd, true
	case key.Matches(msg, keys.Expand):
		if mode == domain.ModeChat {
			m.expanded = !m.expanded
			m.refresh()
			return m, nil, true
		}
	case key.Matches(msg, keys.Similar):
		if p, ok := m.highlighted(); ok {
			next, cmd := m.dispatch(m.ctrl.BeginRecommend(m.ctx, p, 0))
			return next, cmd, true
		}
		return m, nil, true
	case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
		delta := 1
		if key.Matches(msg, keys.Up) {
			delta = -1
		}
		switch mode {
		case domain.ModeSearch:
			m.searchCursor = wrap(m.searchCursor+delta, len(m.mirror.latest.SearchResults))
		case domain.ModeRecommend:
			if rec := m.mirror.latest.Recommendations; rec != nil {
				m.recCursor = wrap(m.recCursor+delta, len(rec.Recommendations))
			}
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd, true
		}
		m.refresh()
		return m, nil, true
	case key.Matches(msg, keys.Submit):
		next, cmd := m.submit()
		return next, cmd, true
	}
	return m, nil, false
}

// submit dispatches the request matching the active mode.
func (m Model) submit() (Model, tea.Cmd) {
	text := m.input.Value()
	switch m.mirror.latest.ActiveMode {
	case domain.ModeSearch:
		if strings.TrimSpace(text) == "" {
			if p, ok := m.highlighted(); ok {
				return m.dispatch(m.ctrl.BeginRecommend(m.ctx, p, 0))
			}
		}
		q, f := controller.ParseSearchInput(text)
		return m.dispatch(m.ctrl.BeginSearch(m.ctx, q, f))
	case domain.ModeChat:
		next, cmd := m.dispatch(m.ctrl.BeginChat(m.ctx, text))
		if cmd != nil {
			next.input.SetValue("")
		}
		return next, cmd
	default:
		if p, ok := m.highlighted(); ok {
			return m.dispatch(m.ctrl.BeginRecommend(m.ctx, p, 0))
		}
		return m, nil
	}
}

// dispatch turns a Begin* outcome into a command. Busy and validation
// errors only update the status line.
func (m Model) dispatch(req *controller.Request, err error) (Model, tea.Cmd) {
	if err != nil {
		var verr *controller.ValidationError
		switch {
		case errors.Is(err, controller.ErrBusy):
			m.setStatus("Still working on the previous request (esc to cancel)")
		case errors.As(err, &verr):
			m.setError(hintFor(verr))
		default:
			m.setError(describe(err))
		}
		return m, nil
	}
	m.setStatus(fmt.Sprintf("Running %s...", req.Kind))
	return m, func() tea.Msg { return requestDoneMsg{res: req.Run()} }
}

func (m *Model) onCommitted(kind controller.Kind) {
	st := m.mirror.latest
	switch kind {
	case controller.KindSearch:
		m.searchCursor = 0
		m.setStatus(fmt.Sprintf("Found %d products for %q", len(st.SearchResults), st.SearchMeta.Query))
	case controller.KindBrowse:
		m.searchCursor = 0
		m.setStatus(fmt.Sprintf("%d products in catalogue", len(st.SearchResults)))
	case controller.KindChat:
		m.expanded = false
		m.setStatus("Answer received")
	case controller.KindRecommend:
		m.recCursor = 0
		m.updatePlaceholder()
		if st.Recommendations != nil {
			m.setStatus(fmt.Sprintf("%d recommendations", len(st.Recommendations.Recommendations)))
		}
	}
	if st.ActiveMode == domain.ModeSearch || st.ActiveMode == domain.ModeRecommend {
		m.input.SetValue("")
	}
}

func (m *Model) onEvent(ev controller.Event) {
	if ev.Type == controller.EventFailed {
		m.setError(fmt.Sprintf("%s failed: %s", ev.Kind, describe(ev.Err)))
	}
}

func (m *Model) switchMode(mode domain.Mode) {
	if err := m.ctrl.SetMode(mode); err != nil {
		m.setError(err.Error())
		return
	}
	m.updatePlaceholder()
	m.refresh()
}

func (m *Model) updatePlaceholder() {
	switch m.mirror.latest.ActiveMode {
	case domain.ModeSearch:
		m.input.Placeholder = `Search products, e.g. "rain jacket max:100" (enter on empty input: similar items)`
	case domain.ModeChat:
		m.input.Placeholder = "Ask the shopping assistant anything"
	default:
		m.input.Placeholder = "enter: recommendations for the highlighted product"
	}
}

// highlighted returns the product under the cursor in the active list.
func (m Model) highlighted() (domain.Product, bool) {
	st := m.mirror.latest
	switch st.ActiveMode {
	case domain.ModeSearch:
		if len(st.SearchResults) > 0 {
			return st.SearchResults[clamp(m.searchCursor, len(st.SearchResults))], true
		}
	case domain.ModeRecommend:
		if st.Recommendations != nil && len(st.Recommendations.Recommendations) > 0 {
			recs := st.Recommendations.Recommendations
			return recs[clamp(m.recCursor, len(recs))], true
		}
	}
	return domain.Product{}, false
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
	if m.mirror.latest.ActiveMode == domain.ModeChat {
		m.viewport.GotoBottom()
	} else {
		m.viewport.GotoTop()
	}
}

func (m Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-m.events:
			return controllerEventMsg(ev)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) checkHealth() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 5*time.Second)
		defer cancel()
		hs, err := m.ctrl.Health(ctx)
		return healthMsg{status: hs, err: err}
	}
}

func describe(err error) string {
	var apiErr *api.APIError
	var netErr *api.NetworkError
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.As(err, &netErr):
		return "cannot reach the API (" + netErr.Err.Error() + ")"
	default:
		return err.Error()
	}
}

func hintFor(verr *controller.ValidationError) string {
	switch verr.Field {
	case "query":
		return "Type something to search for"
	case "question":
		return "Type a question first"
	default:
		return verr.Error()
	}
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func wrap(i, n int) int {
	if n == 0 {
		return 0
	}
	return (i%n + n) % n
}
