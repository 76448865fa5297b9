package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/packetintransit/meraki/internal/tui"
)

// RunConsole starts the full-screen terminal console. Empty org and
// network names fall back to the first ones the key can see.
func RunConsole(configFile, profile, orgFlag, netFlag string, refresh time.Duration) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	orgName, netName, err := cfg.Target(profile, orgFlag, netFlag)
	if err != nil {
		return err
	}

	backend := tui.NewDashboardBackend(client, orgName, netName, cfg.APModelPrefixes)
	p := tea.NewProgram(tui.NewModel(backend, refresh), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console error: %w", err)
	}
	return nil
}
