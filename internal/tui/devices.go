package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DevicesModel is the hardware inventory tab.
type DevicesModel struct {
	Backend Backend
	Table   table.Model
	Spinner spinner.Model
	Rows    []DeviceRow
	Loading bool
	Err     error
	Width   int
	Height  int
}

type devicesMsg struct {
	rows []DeviceRow
	err  error
}

func NewDevicesModel(backend Backend) DevicesModel {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Model", Width: 12},
		{Title: "Serial", Width: 16},
		{Title: "Firmware", Width: 16},
		{Title: "Status", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorDim).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(ColorAccent).
		Background(ColorDark).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	return DevicesModel{
		Backend: backend,
		Table:   t,
		Spinner: sp,
		Loading: true,
	}
}

func (m DevicesModel) Init() tea.Cmd {
	fetch := func() tea.Msg {
		rows, err := m.Backend.Devices()
		return devicesMsg{rows: rows, err: err}
	}
	return tea.Batch(m.Spinner.Tick, fetch)
}

// Refresh re-fetches and shows the spinner again.
func (m DevicesModel) Refresh() tea.Cmd {
	return m.Init()
}

func (m DevicesModel) Update(msg tea.Msg) (DevicesModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case devicesMsg:
		m.Loading = false
		m.Err = msg.err
		if msg.err == nil {
			m.Rows = msg.rows
			rows := make([]table.Row, len(msg.rows))
			for i, d := range msg.rows {
				name := d.Name
				if name == "" {
					name = "Unnamed"
				}
				rows[i] = table.Row{name, d.Model, d.Serial, d.Firmware, d.Status}
			}
			m.Table.SetRows(rows)
		}
		return m, nil

	case spinner.TickMsg:
		if m.Loading {
			m.Spinner, cmd = m.Spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		if msg.Height > 10 {
			m.Table.SetHeight(msg.Height - 10)
		}
	}

	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m DevicesModel) View() string {
	if m.Err != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			StyleHeader.Render("DEVICES"),
			StyleStatusBad.Render("Error: "+m.Err.Error()),
			StyleSubtitle.Render("Press r to retry"),
		)
	}
	if m.Loading && len(m.Rows) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			StyleHeader.Render("DEVICES"),
			m.Spinner.View()+" Fetching devices...",
		)
	}

	online := 0
	for _, d := range m.Rows {
		if d.Status == "online" {
			online++
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		StyleHeader.Render("DEVICES"),
		StyleCard.Render(m.Table.View()),
		StyleSubtitle.Render(fmt.Sprintf("%d devices, %d online", len(m.Rows), online)),
	)
}
