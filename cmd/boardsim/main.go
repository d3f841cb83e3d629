// Command boardsim brings a board profile up on host hardware and serves the
// console shell on the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bsp-stm32f4/board"
	"bsp-stm32f4/console"
	"bsp-stm32f4/platform"
	"bsp-stm32f4/services/config"
	"bsp-stm32f4/services/heartbeat"
	"bsp-stm32f4/shell"
	"bsp-stm32f4/tick"
)

var (
	boardName string
	interval  time.Duration
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:           "boardsim",
	Short:         "Run a board profile on the host",
	Long:          "Bring a board profile up against simulated clocks, SysTick and USARTs, then serve the console shell on this terminal.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(boardName)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&boardName, "board", "b", "default", "embedded board profile")
	rootCmd.Flags().DurationVar(&interval, "heartbeat", heartbeat.DefaultInterval, "heartbeat interval")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not start the heartbeat")
}

func run(ctx context.Context, cfg board.Config) error {
	var fault error
	board.Fault = func(err error) { fault = err }

	hw := platform.NewHostHardware()
	hw.RealTime = true
	hw.In = os.Stdin
	hw.Out = os.Stdout
	defer hw.Stop()

	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		defer term.Restore(fd, old)
	}

	b := board.Init(cfg, hw, tick.System)
	if b == nil {
		return fmt.Errorf("bring-up: %w", fault)
	}

	sh := &shell.Interface{
		Banner:     "bsp-stm32f4 " + cfg.Name + " (host)",
		ReadWriter: console.Default,
		Board:      b,
		Ticks:      tick.System,
	}
	if !quiet {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		hb := heartbeat.New(tick.System, interval, nil)
		if err := hb.Start(ctx); err != nil {
			return err
		}
		sh.Heartbeat = hb
	}

	sh.Start()
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
