package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/go-drift/drift-maps/pkg/mapview"
	"github.com/paulmach/orb/geojson"
)

func init() {
	RegisterCommand(&Command{
		Name:  "presets",
		Short: "List map presets",
		Long: `List the project's map presets with their style, camera and the map tile
under the camera center.

With --geojson the presets are written as a GeoJSON FeatureCollection of
points, one per preset center, for viewing in any GeoJSON tool.`,
		Usage: "driftmaps presets [--geojson]",
		Run:   runPresets,
	})
}

func runPresets(args []string) error {
	asGeoJSON := false
	for _, arg := range args {
		switch arg {
		case "--geojson":
			asGeoJSON = true
		default:
			return fmt.Errorf("unknown argument %q", arg)
		}
	}

	cfg, err := loadProject()
	if err != nil {
		return err
	}

	if asGeoJSON {
		data, err := json.MarshalIndent(presetsGeoJSON(cfg.Presets), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	}

	printPresetTable(cfg.Presets)
	return nil
}

func printPresetTable(presets *mapview.PresetSet) {
	fmt.Fprintf(stdout, "%s %s %s %s %s %s %s\n",
		pad(titleStyle, "NAME", 12),
		pad(titleStyle, "STYLE", 12),
		pad(titleStyle, "CENTER", 22),
		pad(titleStyle, "ZOOM", 6),
		pad(titleStyle, "PITCH", 6),
		pad(titleStyle, "BEARING", 8),
		titleStyle.Render("TILE"),
	)
	for _, p := range presets.All() {
		c := p.Camera
		tile := c.CenterTile()
		fmt.Fprintf(stdout, "%s %s %s %s %s %s %s\n",
			pad(infoStyle, p.Name, 12),
			pad(labelStyle, p.StyleID, 12),
			pad(labelStyle, fmt.Sprintf("%.4f, %.4f", c.Center.Lon(), c.Center.Lat()), 22),
			pad(labelStyle, fmt.Sprintf("%g", c.Zoom), 6),
			pad(labelStyle, fmt.Sprintf("%g", c.Pitch), 6),
			pad(labelStyle, fmt.Sprintf("%g", c.Bearing), 8),
			dimStyle.Render(fmt.Sprintf("%d/%d/%d", tile.Z, tile.X, tile.Y)),
		)
	}
}

func presetsGeoJSON(presets *mapview.PresetSet) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range presets.All() {
		f := geojson.NewFeature(p.Camera.Center)
		tile := p.Camera.CenterTile()
		f.Properties["name"] = p.Name
		f.Properties["style"] = p.StyleID
		f.Properties["zoom"] = p.Camera.Zoom
		f.Properties["pitch"] = p.Camera.Pitch
		f.Properties["bearing"] = p.Camera.Bearing
		f.Properties["tile"] = fmt.Sprintf("%d/%d/%d", tile.Z, tile.X, tile.Y)
		fc.Append(f)
	}
	return fc
}
