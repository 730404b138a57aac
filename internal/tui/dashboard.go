package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ipdu/pductl/pkg/pdu"
	"github.com/ipdu/pductl/pkg/sideband"
)

// PollInterval is how often the dashboard refreshes the device status.
const PollInterval = 2 * time.Second

// requestTimeout bounds each poll so a stalled device cannot wedge the loop
const requestTimeout = 5 * time.Second

type statusMsg struct {
	status *pdu.PDUStatus
	err    error
}

type voltageMsg struct {
	volts int
	err   error
}

type switchedMsg struct {
	err error
}

type tickMsg time.Time

// Model is the bubbletea model for the dashboard.
type Model struct {
	client   *pdu.Client
	sideband *sideband.Client // nil when no sideband port is configured

	device string // shown in the header, usually host:port

	status      *pdu.PDUStatus
	volts       int
	hasVolts    bool
	err         error
	lastUpdated time.Time

	selected int // 0-based outlet index
	loading  bool
	spinner  spinner.Model
}

// NewModel creates a dashboard model for a connected client. The sideband
// client is optional; pass nil to omit the voltage reading.
func NewModel(client *pdu.Client, sb *sideband.Client, device string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return Model{
		client:   client,
		sideband: sb,
		device:   device,
		loading:  true,
		spinner:  sp,
	}
}

// Init starts the first poll and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchStatus(m.client), fetchVoltage(m.sideband))
}

// Update handles key presses and poll results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case statusMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.status = msg.status
			m.lastUpdated = time.Now()
		}
		return m, tick()

	case voltageMsg:
		if msg.err == nil {
			m.volts = msg.volts
			m.hasVolts = true
		}
		return m, nil

	case switchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		// Re-poll right away so the switch shows up without waiting for
		// the next tick
		m.loading = true
		return m, tea.Batch(fetchStatus(m.client), fetchVoltage(m.sideband))

	case tickMsg:
		m.loading = true
		return m, tea.Batch(fetchStatus(m.client), fetchVoltage(m.sideband))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down", "j":
		if m.selected < pdu.OutletCount-1 {
			m.selected++
		}
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8":
		m.selected = int(msg.String()[0] - '1')
		return m, nil

	case "o":
		return m, switchOutlet(m.client, pdu.CommandOn, m.selected)

	case "f":
		return m, switchOutlet(m.client, pdu.CommandOff, m.selected)

	case "c":
		return m, switchOutlet(m.client, pdu.CommandCycle, m.selected)

	case "r":
		m.loading = true
		return m, tea.Batch(fetchStatus(m.client), fetchVoltage(m.sideband))
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("PDU Dashboard"))
	if m.loading {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n")
	b.WriteString(DeviceStyle.Render(m.device))
	b.WriteString("\n\n")

	if m.status == nil {
		if m.err != nil {
			b.WriteString(ErrorStyle.Render("error: " + m.err.Error()))
			b.WriteString("\n")
		} else {
			b.WriteString(DeviceStyle.Render("waiting for first status..."))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(m.renderReadings())
		b.WriteString("\n")
		b.WriteString(m.renderOutlets())
		if m.err != nil {
			b.WriteString("\n")
			b.WriteString(ErrorStyle.Render("error: " + m.err.Error()))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("↑/↓ select · o on · f off · c cycle · r refresh · q quit"))

	return BoxStyle.Render(b.String()) + "\n"
}

func (m Model) renderReadings() string {
	var b strings.Builder

	writeReading := func(key, value string) {
		b.WriteString(ReadingKeyStyle.Render(key))
		b.WriteString(ReadingValueStyle.Render(value))
		b.WriteString("\n")
	}

	writeReading("Status:", m.status.Status)
	writeReading("Current:", fmt.Sprintf("%.1f A", m.status.CurrentAmps))
	if m.hasVolts {
		writeReading("Voltage:", fmt.Sprintf("%d V", m.volts))
	}
	writeReading("Temperature:", fmt.Sprintf("%d °C", m.status.TempCelsius))
	writeReading("Humidity:", fmt.Sprintf("%d %%", m.status.HumidityPercent))
	if !m.lastUpdated.IsZero() {
		writeReading("Updated:", m.lastUpdated.Format("15:04:05"))
	}

	return b.String()
}

func (m Model) renderOutlets() string {
	var b strings.Builder

	for i, state := range m.status.OutletStates {
		cursor := "  "
		label := fmt.Sprintf("outlet %d", i+1)
		if i == m.selected {
			cursor = "> "
			label = SelectedStyle.Render(label)
		}

		var stateStr string
		if state == pdu.OutletOn {
			stateStr = OutletOnStyle.Render("● on")
		} else {
			stateStr = OutletOffStyle.Render("○ off")
		}

		b.WriteString(fmt.Sprintf(" %s%s  %s\n", cursor, label, stateStr))
	}

	return b.String()
}

// Run starts the dashboard program and blocks until the user quits.
func Run(client *pdu.Client, sb *sideband.Client, device string) error {
	p := tea.NewProgram(NewModel(client, sb, device))
	_, err := p.Run()
	return err
}

func fetchStatus(client *pdu.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, err := client.GetStatus(ctx)
		return statusMsg{status: status, err: err}
	}
}

func fetchVoltage(sb *sideband.Client) tea.Cmd {
	if sb == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		volts, err := sb.GetVoltage(ctx)
		return voltageMsg{volts: volts, err: err}
	}
}

func switchOutlet(client *pdu.Client, command pdu.OutletCommand, outlet int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return switchedMsg{err: client.SetOutlets(ctx, command, outlet)}
	}
}

func tick() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
