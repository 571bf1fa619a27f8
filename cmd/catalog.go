package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photobooth/internal/catalog"
	"github.com/kozaktomas/photobooth/internal/collage"
)

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List collage layouts",
	RunE:  runLayouts,
}

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List filter presets",
	RunE:  runFilters,
}

func init() {
	rootCmd.AddCommand(layoutsCmd)
	rootCmd.AddCommand(filtersCmd)

	layoutsCmd.Flags().Bool("json", false, "Output as JSON")
	filtersCmd.Flags().Bool("json", false, "Output as JSON")
}

func runLayouts(cmd *cobra.Command, args []string) error {
	layouts := catalog.Layouts()
	if mustGetBool(cmd, "json") {
		return outputJSON(layouts)
	}

	def := catalog.DefaultLayout().ID
	fmt.Printf("%-6s %-14s %-6s %-6s %s\n", "ID", "NAME", "CELLS", "RATIO", "CANVAS")
	for _, l := range layouts {
		grid, err := collage.NewGrid(l)
		if err != nil {
			return err
		}
		size := grid.CanvasSize()
		id := l.ID
		if id == def {
			id += "*"
		}
		fmt.Printf("%-6s %-14s %-6d %-6s %dx%d\n", id, l.Name, l.Cells(), l.AspectRatio, size.X, size.Y)
	}
	return nil
}

func runFilters(cmd *cobra.Command, args []string) error {
	filters := catalog.Filters()
	if mustGetBool(cmd, "json") {
		return outputJSON(filters)
	}

	for _, f := range filters {
		steps := make([]string, len(f.Effect))
		for i, s := range f.Effect {
			steps[i] = fmt.Sprintf("%s(%g)", s.Op, s.Amount)
		}
		fmt.Printf("%-10s %-12s %s\n", f.ID, f.Name, strings.Join(steps, " "))
	}
	return nil
}
