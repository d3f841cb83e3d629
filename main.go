package main

import (
	"context"
	"log"

	"bsp-stm32f4/board"
	"bsp-stm32f4/console"
	"bsp-stm32f4/platform"
	"bsp-stm32f4/services/heartbeat"
	"bsp-stm32f4/shell"
	"bsp-stm32f4/tick"
)

func main() {
	b := board.Init(board.Selected(), platform.Default(), tick.System)

	hb := heartbeat.New(tick.System, heartbeat.DefaultInterval, nil)
	if err := hb.Start(context.Background()); err != nil {
		log.Println("Error: heartbeat,", err)
	}

	sh := &shell.Interface{
		Banner:     "bsp-stm32f4 " + b.Config().Name,
		ReadWriter: console.Default,
		Board:      b,
		Ticks:      tick.System,
		Heartbeat:  hb,
	}
	// the console has nowhere else to go; keep serving
	for {
		sh.Start()
	}
}
