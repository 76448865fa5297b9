package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// OverviewModel is the estate summary tab.
type OverviewModel struct {
	Backend Backend
	Data    *Overview
	Trend   []float64
	Err     error
	Width   int
	Height  int
}

type overviewMsg struct {
	data  *Overview
	trend []float64
	err   error
}

func NewOverviewModel(backend Backend) OverviewModel {
	return OverviewModel{Backend: backend}
}

func (m OverviewModel) Init() tea.Cmd {
	return func() tea.Msg {
		data, err := m.Backend.Overview()
		return overviewMsg{data: data, trend: m.Backend.ClientTrend(), err: err}
	}
}

func (m OverviewModel) Update(msg tea.Msg) (OverviewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case overviewMsg:
		m.Err = msg.err
		if msg.err == nil {
			m.Data = msg.data
			m.Trend = msg.trend
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
	}
	return m, nil
}

func (m OverviewModel) View() string {
	if m.Err != nil {
		return StyleCard.Render(lipgloss.JoinVertical(lipgloss.Left,
			StyleTitle.Render("Overview"),
			StyleStatusBad.Render("Error: "+m.Err.Error()),
			StyleSubtitle.Render("Press r to retry"),
		))
	}
	if m.Data == nil {
		return StyleSubtitle.Render("Loading overview...")
	}

	estateCard := StyleCard.Render(lipgloss.JoinVertical(lipgloss.Left,
		StyleTitle.Render("Estate"),
		fmt.Sprintf("Organization:  %s", m.Data.Organization),
		fmt.Sprintf("Networks:      %d (%d wireless)", m.Data.Networks, m.Data.Wireless),
		StyleSubtitle.Render("Watching: "+m.Data.Network),
	))

	online := StyleStatusGood.Render(fmt.Sprintf("%d online", m.Data.Online))
	offline := StyleStatusBad.Render(fmt.Sprintf("%d offline", m.Data.Offline))
	devicesCard := StyleCard.Render(lipgloss.JoinVertical(lipgloss.Left,
		StyleTitle.Render("Devices"),
		fmt.Sprintf("Total:         %d", m.Data.Devices),
		fmt.Sprintf("Status:        %s / %s", online, offline),
		fmt.Sprintf("Access points: %d", m.Data.AccessPoints),
	))

	clientsCard := StyleCard.Render(lipgloss.JoinVertical(lipgloss.Left,
		StyleTitle.Render("Clients (24h)"),
		fmt.Sprintf("Active:        %d", m.Data.Clients),
		"Trend:         "+sparkline(m.Trend, 24),
	))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, estateCard, devicesCard),
		clientsCard,
	)
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline renders values as a fixed-width bar strip, newest on the
// right. A flat series renders at the lowest level.
func sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return StyleSubtitle.Render("collecting...")
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo

	var b strings.Builder
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - lo) / span * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
