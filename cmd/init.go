package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dnd5eapi"
)

var importCategories = map[string]dnd5eapi.Category{
	"spells":  dnd5eapi.Spells,
	"weapons": dnd5eapi.Weapons,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Import SRD spells and weapons from dnd5eapi",
	Long: `Fetches 5e SRD spells and weapons from dnd5eapi.co, converts them to the
record layout the engine reads and stores them under data_dir for
offline use. Existing files are kept unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir := viper.GetString("data_dir")
		force, _ := cmd.Flags().GetBool("force")
		only, _ := cmd.Flags().GetStringSlice("only")
		if len(only) == 0 {
			only = []string{"spells", "weapons"}
		}

		importer := &dnd5eapi.Importer{Client: dnd5eapi.NewClient(), DataDir: dataDir, Force: force}
		fmt.Printf("Initializing SRD data to: %s\n", dataDir)

		for _, name := range only {
			cat, ok := importCategories[name]
			if !ok {
				return fmt.Errorf("unknown category %q (want spells or weapons)", name)
			}

			refs, err := importer.List(cmd.Context(), cat)
			if err != nil {
				fmt.Printf("Error fetching %s list: %v\n", name, err)
				continue
			}

			bar := progressbar.Default(int64(len(refs)), fmt.Sprintf("Downloading %s", name))
			written, err := importer.Import(cmd.Context(), cat, refs, func(dnd5eapi.Reference) {
				_ = bar.Add(1)
			})
			if err != nil {
				return err
			}
			fmt.Printf("\n%s: %d written, %d skipped\n", name, written, len(refs)-written)
		}

		fmt.Println("Data bootstrap complete!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "Force redownload of existing files")
	initCmd.Flags().StringSlice("only", nil, "Categories to import (spells, weapons)")
}
