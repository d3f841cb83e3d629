package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bsp-stm32f4/board"
	"bsp-stm32f4/services/config"
)

var (
	checkCmd = &cobra.Command{
		Use:   "check [profile|file.yaml]...",
		Short: "Validate board profiles",
		Long:  "Validate embedded profiles by name, or YAML files by path. With no arguments every embedded profile is checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = config.Names()
			}
			failed := 0
			for _, a := range args {
				c, err := loadProfile(a)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %v\n", a, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", summary(c))
			}
			if failed > 0 {
				return fmt.Errorf("%d profile(s) invalid", failed)
			}
			return nil
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List embedded profiles",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, n := range config.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
		},
	}
)

// loadProfile treats arg as a file when it looks like a path.
func loadProfile(arg string) (board.Config, error) {
	if strings.HasSuffix(arg, ".yaml") || strings.HasSuffix(arg, ".yml") || strings.ContainsRune(arg, os.PathSeparator) {
		raw, err := os.ReadFile(arg)
		if err != nil {
			return board.Config{}, err
		}
		return config.Parse(raw)
	}
	return config.Load(arg)
}

func summary(c board.Config) string {
	s := fmt.Sprintf("%s: sram %s (end %#08x), console %s", c.Name,
		humanize.IBytes(uint64(c.SRAM().Size())), c.SRAMEnd(), c.Console)
	if c.ExtSRAM {
		s += fmt.Sprintf(", ext sram %#08x-%#08x", c.ExtSRAMRange.Begin, c.ExtSRAMRange.End)
	}
	return s
}
