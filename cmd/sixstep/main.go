// Command sixstep loads an iNES ROM, runs its 6502 core for a fixed
// number of steps (or until an illegal opcode), and optionally traces
// every instruction to stdout. It exists to exercise cpu/mem/rom from
// outside their test suites, not as a full emulator front end -- there
// is no PPU output and no controller input beyond what -trace lets you
// see on the stack.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/urfave/cli.v2"

	"github.com/hejops/six502/cpu"
	"github.com/hejops/six502/mem"
	"github.com/hejops/six502/rom"
)

func main() {
	app := &cli.App{
		Name:  "sixstep",
		Usage: "run an iNES ROM's 6502 core headlessly",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rom",
				Aliases: []string{"r"},
				Usage:   "path to an iNES (.nes) ROM image",
			},
			&cli.IntFlag{
				Name:  "steps",
				Value: 1_000_000,
				Usage: "maximum number of instructions to execute",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "print every instruction's address with the register file and cycle count after it",
			},
			&cli.IntFlag{
				Name:  "start",
				Usage: "override the reset vector and start execution here instead",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		cli.ShowAppHelp(c)
		return cli.Exit("rom: -rom is required", 86)
	}

	f, err := os.Open(romPath)
	if err != nil {
		return err
	}
	defer f.Close()

	img, err := rom.Load(f)
	if err != nil {
		return err
	}

	cart, err := rom.NewNROM(img)
	if err != nil {
		return err
	}

	bus := mem.NewBus()
	bus.InsertCartridge(cart)

	six502 := cpu.New(bus)
	if start := c.Int("start"); start != 0 {
		six502.PC = uint16(start)
	}

	trace := c.Bool("trace")
	steps := c.Int("steps")

	for i := 0; i < steps; i++ {
		pc := six502.PC
		cycles, err := six502.Step()
		if err != nil {
			// No TUI to fall back on here: dump the full register file
			// structurally so a crash is still diagnosable from a log.
			fmt.Fprintln(os.Stderr, spew.Sdump(six502))
			return err
		}
		if trace {
			fmt.Printf("%04X  A:%02X X:%02X Y:%02X S:%02X P:%02X CYC:%d (+%d)\n",
				pc, six502.A, six502.X, six502.Y, six502.S, six502.Status.Byte(false), six502.Cycles, cycles)
		}
	}

	return nil
}
