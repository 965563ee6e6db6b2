package cmd

import (
	"fmt"

	"github.com/go-drift/drift-maps/cmd/driftmaps/internal/config"
)

func init() {
	RegisterCommand(&Command{
		Name:  "validate",
		Short: "Check maps.yaml",
		Long: `Load maps.yaml and .env from the project root and check them.

Every style URL, the default style and every preset camera are validated the
same way the map view controller validates them at runtime: longitude within
[-180, 180], latitude within [-90, 90], zoom at least 0 and pitch within
[0, 85]. A missing maps.yaml is valid and selects the built-in styles and
presets.`,
		Usage: "driftmaps validate",
		Run:   runValidate,
	})
}

func runValidate(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("validate takes no arguments, got %q", args[0])
	}
	cfg, err := loadProject()
	if err != nil {
		return err
	}
	printSummary(cfg)
	fmt.Fprintln(stdout, okStyle.Render("maps.yaml OK"))
	return nil
}

func printSummary(cfg *config.Resolved) {
	row := func(label, value string) {
		fmt.Fprintf(stdout, "%s %s\n", pad(labelStyle, label+":", 15), value)
	}
	fmt.Fprintln(stdout, titleStyle.Render(cfg.AppName)+" "+dimStyle.Render("("+cfg.AppID+")"))
	row("Module", cfg.ModulePath)
	row("Access token", maskToken(cfg.AccessToken))
	row("Default style", cfg.DefaultStyle)
	row("Styles", fmt.Sprintf("%d", len(cfg.Catalog.IDs())))
	row("Presets", fmt.Sprintf("%d", cfg.Presets.Len()))
}

// maskToken keeps the token's type prefix (pk., sk.) and hides the rest.
func maskToken(token string) string {
	switch {
	case token == "":
		return warnStyle.Render("not set")
	case len(token) <= 3:
		return "***"
	default:
		return token[:3] + "***"
	}
}
