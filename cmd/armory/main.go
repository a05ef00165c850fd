// Command armory prints the unit types of an army, their profiles at every
// step level and the movement cost tables the editor prices moves with.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/talgya/hexwar/internal/army"
	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/profile"
	"github.com/talgya/hexwar/internal/world"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var armyFile string
	loadCatalog := func() (*army.Catalog, error) {
		if armyFile == "" {
			return army.DefaultCatalog(), nil
		}
		return army.LoadCatalogFile(armyFile)
	}

	rootCmd := &cobra.Command{
		Use:           "armory",
		Short:         "Inspect hexwar armies and movement costs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&armyFile, "army", "", "army definition file (default: built-in army)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "types",
			Short: "List the unit types of the army",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := loadCatalog()
				if err != nil {
					return err
				}
				return printTypes(cmd.OutOrStdout(), c)
			},
		},
		&cobra.Command{
			Use:   "profile <type>",
			Short: "Show a unit type's profiles at every step level",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := loadCatalog()
				if err != nil {
					return err
				}
				t := c.Get(args[0])
				if t == nil {
					return fmt.Errorf("no unit type %q (have: %s)", args[0], strings.Join(c.Names(), ", "))
				}
				return printProfile(cmd.OutOrStdout(), t)
			},
		},
		newCostsCmd(),
		newScenariosCmd(),
	)
	return rootCmd
}

func newCostsCmd() *cobra.Command {
	var capacity string
	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Print terrain, edge and rotation costs per locomotion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := profile.ParseCapacity(capacity)
			if err != nil {
				return err
			}
			return printCosts(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().StringVar(&capacity, "capacity", "NORMAL", "move capacity to price with")
	return cmd
}

func newScenariosCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the scenarios saved in a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("database %s: %w", dbPath, err)
			}
			db, err := persistence.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			infos, err := db.ListScenarios()
			if err != nil {
				return err
			}
			return printScenarios(cmd.OutOrStdout(), infos)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "hexwar.db", "scenario database")
	return cmd
}

var titleColor = color.New(color.FgCyan, color.Bold)

func printTypes(w io.Writer, c *army.Catalog) error {
	titleColor.Fprintf(w, "%d unit types\n", c.Len())
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Type", "Kind", "Steps", "Move", "MP", "Weapon", "Leader"}),
	)
	for _, t := range c.Types() {
		full := t.Profiles(t.MaxSteps())
		weapon := "-"
		if full.Weapon != nil {
			weapon = full.Weapon.String()
		}
		leader := ""
		if t.IsCharacter() {
			leader = "yes"
		}
		table.Append([]string{
			t.Name(),
			t.Kind().String(),
			fmt.Sprintf("%d", t.MaxSteps()),
			full.Move.String(),
			humanize.Ftoa(full.Move.MovementPoints()),
			weapon,
			leader,
		})
	}
	return table.Render()
}

func printProfile(w io.Writer, t *army.UnitType) error {
	titleColor.Fprintln(w, t)
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Level", "Move", "MP / Ext", "Weapon", "Att/Def/Str/Rng", "Command", "Moral", "Magic"}),
	)
	for steps := t.MaxSteps(); steps >= 1; steps-- {
		p := t.Profiles(steps)
		row := []string{
			fmt.Sprintf("%s step", humanize.Ordinal(steps)),
			p.Move.String(),
			humanize.Ftoa(p.Move.MovementPoints()) + " / " + humanize.Ftoa(p.Move.ExtendedMovementPoints()),
			"-", "-", "-", "-", "-",
		}
		if p.Weapon != nil {
			row[3] = p.Weapon.String()
			row[4] = fmt.Sprintf("%d/%d/%d/%d", p.Weapon.Attack(), p.Weapon.Defense(), p.Weapon.Strength(), p.Weapon.Range())
		}
		if p.Command != nil {
			row[5] = fmt.Sprintf("%s L%d", p.Command, p.Command.CommandLevel())
		}
		if p.Moral != nil {
			row[6] = fmt.Sprintf("%s L%d", p.Moral, p.Moral.MoralLevel())
		}
		if p.Magic != nil {
			row[7] = fmt.Sprintf("%s L%d", p.Magic, p.Magic.ArtLevel())
		}
		table.Append(row)
	}
	return table.Render()
}

func printCosts(w io.Writer, c profile.Capacity) error {
	var moves []*profile.MoveProfile
	header := []string{""}
	for _, l := range profile.AllLocomotions() {
		mp := profile.NewMoveProfile(l, c)
		moves = append(moves, mp)
		header = append(header, fmt.Sprintf("%s (%s MP)", l, humanize.Ftoa(mp.MovementPoints())))
	}

	titleColor.Fprintf(w, "Terrain (%s)\n", c)
	terrain := tablewriter.NewTable(w, tablewriter.WithHeader(header))
	for _, t := range world.AllTerrains() {
		row := []string{t.String()}
		for _, mp := range moves {
			row = append(row, mp.CostOnTerrain(t).String())
		}
		terrain.Append(row)
	}
	if err := terrain.Render(); err != nil {
		return err
	}

	titleColor.Fprintln(w, "Edges")
	edges := tablewriter.NewTable(w, tablewriter.WithHeader(header))
	for _, e := range world.AllEdgeTypes() {
		row := []string{e.String()}
		for _, mp := range moves {
			row = append(row, mp.CostOnEdge(e).String())
		}
		edges.Append(row)
	}
	if err := edges.Render(); err != nil {
		return err
	}

	titleColor.Fprintln(w, "Rotation")
	rotation := tablewriter.NewTable(w, tablewriter.WithHeader(header))
	for angle := 30; angle <= 180; angle += 30 {
		row := []string{fmt.Sprintf("%d°", angle)}
		for _, mp := range moves {
			row = append(row, mp.RotationCost(float64(angle)).String())
		}
		rotation.Append(row)
	}
	row := []string{"formation"}
	for _, mp := range moves {
		row = append(row, mp.FormationRotationCost(0).String())
	}
	rotation.Append(row)
	return rotation.Render()
}

func printScenarios(w io.Writer, infos []persistence.ScenarioInfo) error {
	if len(infos) == 0 {
		fmt.Fprintln(w, "no scenarios saved")
		return nil
	}
	titleColor.Fprintf(w, "%s saved\n", english.Plural(len(infos), "scenario", ""))
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Name", "Radius", "Wings", "Units", "Saved"}),
	)
	for _, in := range infos {
		table.Append([]string{
			in.Name,
			fmt.Sprintf("%d", in.Radius),
			fmt.Sprintf("%d", in.Wings),
			humanize.Comma(int64(in.Units)),
			humanize.Time(in.SavedAt),
		})
	}
	return table.Render()
}
