package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/packetintransit/meraki/internal/report"
)

// ClientsModel is the client usage tab, heaviest clients first.
type ClientsModel struct {
	Backend Backend
	Table   table.Model
	Spinner spinner.Model
	Report  *report.UsageReport
	Loading bool
	Err     error
	Width   int
	Height  int
}

type clientsMsg struct {
	report *report.UsageReport
	err    error
}

func NewClientsModel(backend Backend) ClientsModel {
	columns := []table.Column{
		{Title: "Client", Width: 24},
		{Title: "OS", Width: 16},
		{Title: "SSID", Width: 14},
		{Title: "Sent", Width: 10},
		{Title: "Recv", Width: 10},
		{Title: "Total", Width: 10},
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

	return ClientsModel{
		Backend: backend,
		Table:   t,
		Spinner: sp,
		Loading: true,
	}
}

func (m ClientsModel) Init() tea.Cmd {
	fetch := func() tea.Msg {
		rep, err := m.Backend.Clients()
		return clientsMsg{report: rep, err: err}
	}
	return tea.Batch(m.Spinner.Tick, fetch)
}

// Refresh re-fetches and shows the spinner again.
func (m ClientsModel) Refresh() tea.Cmd {
	return m.Init()
}

func (m ClientsModel) Update(msg tea.Msg) (ClientsModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case clientsMsg:
		m.Loading = false
		m.Err = msg.err
		if msg.err == nil {
			m.Report = msg.report
			rows := make([]table.Row, len(msg.report.Clients))
			for i, c := range msg.report.Clients {
				rows[i] = table.Row{
					c.DisplayName(),
					c.OS,
					c.SSID,
					report.HumanBytes(c.Usage.Sent),
					report.HumanBytes(c.Usage.Recv),
					report.HumanBytes(c.Usage.Total),
				}
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

func (m ClientsModel) View() string {
	if m.Err != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			StyleHeader.Render("CLIENT USAGE"),
			StyleStatusBad.Render("Error: "+m.Err.Error()),
			StyleSubtitle.Render("Press r to retry"),
		)
	}
	if m.Loading && m.Report == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			StyleHeader.Render("CLIENT USAGE"),
			m.Spinner.View()+" Fetching clients...",
		)
	}

	totals := fmt.Sprintf("%d clients | sent %s | received %s | total %s",
		m.Report.TotalClients,
		m.Report.Totals.SentHuman,
		m.Report.Totals.ReceivedHuman,
		m.Report.Totals.TotalHuman,
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		StyleHeader.Render("CLIENT USAGE"),
		StyleCard.Render(m.Table.View()),
		StyleSubtitle.Render(totals),
	)
}
