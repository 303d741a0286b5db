package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type timerState struct {
	TotalSeconds     int  `json:"totalSeconds"`
	RemainingSeconds int  `json:"remainingSeconds"`
	IsRunning        bool `json:"isRunning"`
	IsPaused         bool `json:"isPaused"`
	IsWorking        bool `json:"isWorking"`
	IsFinished       bool `json:"isFinished"`
}

type timerEnvelope struct {
	Timer timerState `json:"timer"`
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL, token string) *client {
	return &client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *client) getState() (timerState, error) {
	return c.request(http.MethodGet, "/api/timer/state", nil)
}

func (c *client) command(path string, body interface{}) (timerState, error) {
	return c.request(http.MethodPost, path, body)
}

func (c *client) request(method, path string, body interface{}) (timerState, error) {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return timerState{}, err
		}
		payload = raw
	}

	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return timerState{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return timerState{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return timerState{}, fmt.Errorf("daemon returned %s", resp.Status)
	}

	var envelope timerEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return timerState{}, err
	}
	return envelope.Timer, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	pausedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F7DC6F"))

	phaseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4A90E2"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

type tickMsg time.Time

type stateMsg struct {
	state timerState
	err   error
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	client       *client
	workSeconds  int
	breakSeconds int
	state        timerState
	err          error
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), tickCmd())
}

func (m model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		state, err := m.client.getState()
		return stateMsg{state: state, err: err}
	}
}

func (m model) commandCmd(path string, body interface{}) tea.Cmd {
	return func() tea.Msg {
		state, err := m.client.command(path, body)
		return stateMsg{state: state, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "s":
			return m, m.commandCmd("/api/timer/start", map[string]int{
				"workSeconds":  m.workSeconds,
				"breakSeconds": m.breakSeconds,
			})
		case " ":
			return m, m.commandCmd("/api/timer/pause", struct{}{})
		case "x":
			return m, m.commandCmd("/api/timer/stop", struct{}{})
		case "r":
			return m, m.commandCmd("/api/timer/reset", struct{}{})
		}
	case tickMsg:
		return m, tea.Batch(m.fetchCmd(), tickCmd())
	case stateMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.state = msg.state
	}
	return m, nil
}

func (m model) View() string {
	header := titleStyle.Render("focusd")

	var status string
	switch {
	case m.state.IsPaused:
		status = pausedStyle.Render("paused")
	case m.state.IsRunning && m.state.IsWorking:
		status = phaseStyle.Render("work")
	case m.state.IsRunning:
		status = phaseStyle.Render("break")
	case m.state.IsFinished:
		status = clockStyle.Render("finished")
	default:
		status = helpStyle.Render("idle")
	}

	clock := clockStyle.Render(formatClock(m.state.RemainingSeconds))
	if m.state.IsPaused {
		clock = pausedStyle.Render(formatClock(m.state.RemainingSeconds))
	}

	view := fmt.Sprintf("%s\n\n  %s  %s\n\n%s\n",
		header,
		clock,
		status,
		helpStyle.Render("  s start · space pause/resume · x stop · r reset · q quit"),
	)
	if m.err != nil {
		view += errStyle.Render(fmt.Sprintf("  %v", m.err)) + "\n"
	}
	return view
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8080", "focusd base URL")
	token := flag.String("token", os.Getenv("FOCUSD_TOKEN"), "API bearer token")
	workMinutes := flag.Int("work", 25, "work minutes for manual start")
	breakMinutes := flag.Int("break", 5, "break minutes for manual start")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "missing API token: pass -token or set FOCUSD_TOKEN")
		os.Exit(1)
	}

	m := model{
		client:       newClient(*addr, *token),
		workSeconds:  *workMinutes * 60,
		breakSeconds: *breakMinutes * 60,
	}

	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "focusctl: %v\n", err)
		os.Exit(1)
	}
}
