package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/packetintransit/meraki/internal/brand"
	"github.com/packetintransit/meraki/internal/config"
	"github.com/packetintransit/meraki/internal/meraki"
)

// RunSetup runs the first-run wizard: API key, default organization and
// network, output directory, and web listen address. The key lands in
// the 0600 credentials file; everything else in the HCL config. When
// the key works, the org and network steps offer live pick lists.
func RunSetup(configFile string) error {
	Printer.Printf("%s setup\n", brand.Name)
	Printer.Println("This writes the config file and stores your API key locally.")

	var key string
	keyForm := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Dashboard API key").
			Description("Generated under Profile > API access on the dashboard.").
			EchoMode(huh.EchoModePassword).
			Validate(validateNonEmpty).
			Value(&key),
	))
	if err := keyForm.Run(); err != nil {
		return menuErr(err)
	}

	cfg := config.Default()

	client := meraki.New(
		meraki.WithAPIKey(key),
		meraki.WithTimeout(cfg.API.Timeout()),
		meraki.WithCallInterval(cfg.API.CallInterval()),
	)
	ctx := context.Background()

	orgName, netName, err := pickTarget(ctx, client)
	if err != nil {
		return menuErr(err)
	}

	outDir := config.DefaultOutputDir
	listen := config.DefaultWebListen
	save := true
	detailForm := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Report output directory").
			Value(&outDir),
		huh.NewInput().
			Title("Web listen address").
			Description("Used by 'serve chat' and 'serve dashboard'.").
			Value(&listen),
		huh.NewConfirm().
			Title("Save configuration?").
			Value(&save),
	))
	if err := detailForm.Run(); err != nil {
		return menuErr(err)
	}
	if !save {
		Printer.Println("Setup cancelled. Nothing written.")
		return nil
	}

	cfg.Organization = orgName
	cfg.Network = netName
	cfg.Output.Dir = outDir
	cfg.Web.Listen = listen

	path := configFile
	if path == "" {
		path = brand.GetConfigPath()
	}
	if err := config.SaveHCL(cfg, path); err != nil {
		return err
	}
	Printer.Printf("Configuration written to %s\n", path)

	if err := config.WriteCredentials(key); err != nil {
		return err
	}
	Printer.Printf("Credentials written to %s\n", brand.GetCredentialsPath())

	Printer.Printf("\nAll set. Try '%s check' to verify, or '%s aps' for a first report.\n",
		brand.BinaryName, brand.BinaryName)
	return nil
}

// pickTarget selects the default organization and network, from live
// lists when the key works and free-form inputs when it does not.
func pickTarget(ctx context.Context, client *meraki.Client) (string, string, error) {
	orgs, err := client.Organizations(ctx)
	if err != nil || len(orgs) == 0 {
		if err != nil {
			Printer.Fprintf(os.Stderr, "Could not list organizations (%v); enter names manually.\n", err)
		}
		return pickTargetManual()
	}

	orgOpts := make([]huh.Option[string], 0, len(orgs))
	for _, org := range orgs {
		orgOpts = append(orgOpts, huh.NewOption(org.Name, org.Name))
	}
	var orgName string
	orgForm := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Default organization").
			Options(orgOpts...).
			Value(&orgName),
	))
	if err := orgForm.Run(); err != nil {
		return "", "", err
	}

	var picked *meraki.Organization
	for i := range orgs {
		if orgs[i].Name == orgName {
			picked = &orgs[i]
			break
		}
	}

	nets, err := client.Networks(ctx, picked.ID)
	if err != nil || len(nets) == 0 {
		if err != nil {
			Printer.Fprintf(os.Stderr, "Could not list networks (%v); enter the name manually.\n", err)
		}
		netName, err := promptInput("Default network (empty to skip)", nil)
		return orgName, netName, err
	}

	netOpts := make([]huh.Option[string], 0, len(nets)+1)
	netOpts = append(netOpts, huh.NewOption("(none)", ""))
	for _, net := range nets {
		netOpts = append(netOpts, huh.NewOption(net.Name, net.Name))
	}
	var netName string
	netForm := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Default network").
			Options(netOpts...).
			Value(&netName),
	))
	if err := netForm.Run(); err != nil {
		return "", "", err
	}
	return orgName, netName, nil
}

func pickTargetManual() (string, string, error) {
	var orgName, netName string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Default organization").
			Value(&orgName),
		huh.NewInput().
			Title("Default network (empty to skip)").
			Value(&netName),
	))
	if err := form.Run(); err != nil {
		return "", "", err
	}
	return orgName, netName, nil
}
