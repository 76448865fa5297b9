// Package tui is the terminal console: a tabbed live view over the
// dashboard API. It is presentation only; fetching and aggregation
// happen in the backend, which reuses the same report builders as the
// CLI and web surfaces.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/packetintransit/meraki/internal/report"
)

// View is the active tab.
type View int

const (
	ViewOverview View = iota
	ViewDevices
	ViewClients
	viewCount
)

// Backend feeds the console views. Implementations resolve the target
// organization and network once and reuse the IDs afterwards.
type Backend interface {
	Overview() (*Overview, error)
	Devices() ([]DeviceRow, error)
	Clients() (*report.UsageReport, error)

	// ClientTrend is the client-count series sampled across refreshes,
	// oldest first.
	ClientTrend() []float64

	// Target names the organization and network being watched.
	Target() (org, network string)
}

// Overview is the landing tab's estate summary.
type Overview struct {
	Organization string
	Network      string
	Networks     int
	Wireless     int
	Devices      int
	Online       int
	Offline      int
	AccessPoints int
	Clients      int
}

// DeviceRow is one hardware line on the devices tab.
type DeviceRow struct {
	Name     string
	Model    string
	Serial   string
	Firmware string
	Status   string
}

// DefaultRefresh is the periodic data refresh interval.
const DefaultRefresh = 30 * time.Second

type tickMsg time.Time

// Model is the root console state.
type Model struct {
	Backend Backend
	Refresh time.Duration

	ActiveView View
	Width      int
	Height     int

	Overview OverviewModel
	Devices  DevicesModel
	Clients  ClientsModel
}

// NewModel creates the initial console model. refresh <= 0 uses the
// default interval.
func NewModel(backend Backend, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return Model{
		Backend:  backend,
		Refresh:  refresh,
		Overview: NewOverviewModel(backend),
		Devices:  NewDevicesModel(backend),
		Clients:  NewClientsModel(backend),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Overview.Init(),
		m.Devices.Init(),
		m.Clients.Init(),
		m.tick(),
	)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.Refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.ActiveView = (m.ActiveView + 1) % viewCount
			return m, nil
		case "1":
			m.ActiveView = ViewOverview
			return m, nil
		case "2":
			m.ActiveView = ViewDevices
			return m, nil
		case "3":
			m.ActiveView = ViewClients
			return m, nil
		case "r":
			return m, m.refreshActive()
		}

	case tickMsg:
		// Periodic refresh re-runs every tab's fetch.
		return m, tea.Batch(
			m.Overview.Init(),
			m.Devices.Init(),
			m.Clients.Init(),
			m.tick(),
		)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

		var cmd tea.Cmd
		m.Overview, cmd = m.Overview.Update(msg)
		cmds = append(cmds, cmd)
		m.Devices, cmd = m.Devices.Update(msg)
		cmds = append(cmds, cmd)
		m.Clients, cmd = m.Clients.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	// Fetch results route to their own tab even when another tab is
	// active, so background refreshes are never dropped.
	case overviewMsg:
		var cmd tea.Cmd
		m.Overview, cmd = m.Overview.Update(msg)
		return m, cmd
	case devicesMsg:
		var cmd tea.Cmd
		m.Devices, cmd = m.Devices.Update(msg)
		return m, cmd
	case clientsMsg:
		var cmd tea.Cmd
		m.Clients, cmd = m.Clients.Update(msg)
		return m, cmd
	}

	// Everything else (key navigation, spinner ticks) goes to the
	// active tab.
	var cmd tea.Cmd
	switch m.ActiveView {
	case ViewOverview:
		m.Overview, cmd = m.Overview.Update(msg)
	case ViewDevices:
		m.Devices, cmd = m.Devices.Update(msg)
	case ViewClients:
		m.Clients, cmd = m.Clients.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) refreshActive() tea.Cmd {
	switch m.ActiveView {
	case ViewDevices:
		return m.Devices.Refresh()
	case ViewClients:
		return m.Clients.Refresh()
	default:
		return m.Overview.Init()
	}
}

func (m Model) View() string {
	doc := m.viewTopBar() + "\n"

	switch m.ActiveView {
	case ViewOverview:
		doc += m.Overview.View()
	case ViewDevices:
		doc += m.Devices.View()
	case ViewClients:
		doc += m.Clients.View()
	}

	doc += "\n" + StyleHint.Render("[tab] next  [1-3] jump  [r] refresh  [q] quit")
	return StyleApp.Render(doc)
}

func (m Model) viewTopBar() string {
	menus := []struct {
		View  View
		Label string
		Key   string
	}{
		{ViewOverview, "Overview", "1"},
		{ViewDevices, "Devices", "2"},
		{ViewClients, "Clients", "3"},
	}

	var items []string
	for _, menu := range menus {
		key := StyleMenuKey.Render("[" + menu.Key + "]")
		if m.ActiveView == menu.View {
			items = append(items, StyleMenuItemActive.Render(key+" "+menu.Label))
		} else {
			items = append(items, StyleMenuItem.Render(key+" "+menu.Label))
		}
	}

	brand := StyleTitle.Render("MERAKICTL ")
	bar := lipgloss.JoinHorizontal(lipgloss.Top, append([]string{brand}, items...)...)
	return StyleTopBar.Render(bar)
}
