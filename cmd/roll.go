package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
)

var rollCmd = &cobra.Command{
	Use:   "roll [dice]",
	Short: "Roll dice outside of any table",
	Long: `Rolls dice notation such as 1d20, 2d6+3 or 4d6-1.
With --advantage or --disadvantage the expression is rolled twice and the
better or worse total is kept.`,
	Example: "  draconic roll 1d20+5 --advantage",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		adv, _ := cmd.Flags().GetBool("advantage")
		dis, _ := cmd.Flags().GetBool("disadvantage")
		seed, _ := cmd.Flags().GetInt64("seed")

		expr, err := dice.Parse(args[0])
		if err != nil {
			return err
		}

		var src dice.Source
		if seed != 0 {
			src = dice.NewSeededSource(seed)
		}
		res := dice.NewRoller(src).Pair(expr, adv, dis)

		out := cmd.OutOrStdout()
		if adv != dis {
			fmt.Fprintf(out, "draws: %v / %v\n", res.Draws[0].Rolls, res.Draws[1].Rolls)
		}
		fmt.Fprintf(out, "%s: %v %+d = %d\n", expr, res.Rolls, res.Modifier, res.Total)
		if res.Critical {
			fmt.Fprintln(out, "Critical!")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rollCmd)

	rollCmd.Flags().Bool("advantage", false, "roll twice and keep the higher total")
	rollCmd.Flags().Bool("disadvantage", false, "roll twice and keep the lower total")
	rollCmd.Flags().Int64("seed", 0, "seed for reproducible rolls")
}
