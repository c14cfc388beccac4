/*
Retaincan talks to the propulsion ECUs on a boat's CAN bus: listing and
reading retained variables, writing them, flashing firmware images, and
saving or restoring whole-board snapshots.

	retaincan [flags] <command> [args]

	list                  print the selected board's variable table
	read <index|all>      read one variable, or the whole table
	write <index> <value> write one variable
	flash <image.hex>     upload a firmware image
	backup <file>         save every variable to a snapshot file
	restore <file>        write a snapshot file back to the board

Connection and board defaults come from an optional TOML config file;
flags given on the command line win. The config file may also carry
[boards.*] sections overriding a board's bus-address base or variable
names for a particular installation.
*/
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/xlab/closer"

	"github.com/seadrive/retaincan/board"
	"github.com/seadrive/retaincan/bus"
	"github.com/seadrive/retaincan/monitor"
	"github.com/seadrive/retaincan/retainvar"
)

var (
	fConfig  = flag.String("c", "", "TOML config file with connection and board defaults")
	fIface   = flag.String("i", "", "CAN interface to use")
	fBitrate = flag.String("r", "", "bus bitrate (5k up to 1M)")
	fBoard   = flag.String("B", "", "board type: PCU, CCU, TCU, GATE, WLU, PDU, OBD_DC_DC, ZCU, VCU, SCU, FCU or BMS")
	fBase    = flag.String("base", "", "bus-address base overriding the board default, e.g. 0x310")
	fIndex   = flag.Int("bi", 0, "board index when several boards of one class share the bus")
	fKey     = flag.String("key", "", "hex AES key sealing snapshot files")
	fDryRun  = flag.Bool("dry-run", false, "talk to a loopback instead of real hardware")
	fVerbose = flag.Bool("v", false, "log protocol traffic to stderr")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*fConfig)
	if err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.Channel = *fIface
		case "r":
			cfg.Bitrate = *fBitrate
		case "B":
			cfg.Board = *fBoard
		case "base":
			base, err := strconv.ParseUint(*fBase, 0, 32)
			if err != nil {
				log.Fatalf("bad -base %q: %v", *fBase, err)
			}
			cfg.Base = uint32(base)
		case "bi":
			cfg.BoardIndex = *fIndex
		case "key":
			cfg.Key = *fKey
		}
	})

	var logger *log.Logger
	if *fVerbose {
		logger = log.New(os.Stderr, "retaincan: ", log.LstdFlags)
	}

	var ep bus.Endpoint
	if *fDryRun {
		ep = bus.NewLoopback()
	} else {
		bitrate, err := bus.ParseBitrate(cfg.Bitrate)
		if err != nil {
			log.Fatal(err)
		}
		ep = bus.Open(cfg.Channel, bitrate)
	}

	opts := []monitor.Option{
		monitor.WithLogger(logger),
		monitor.WithProgress(showProgress),
	}
	if *fConfig != "" {
		overrides, err := board.LoadOverrides(*fConfig)
		if err != nil {
			log.Fatal(err)
		}
		opts = append(opts, monitor.WithOverrides(overrides))
	}
	mon := monitor.New(bus.New(ep, bus.WithLogger(logger)), opts...)

	ctx := context.Background()
	if err := mon.Connect(ctx); err != nil {
		log.Fatal(err)
	}
	closer.Bind(func() { mon.Disconnect() })
	defer closer.Close()

	if cfg.Board != "" {
		t, err := board.ParseType(cfg.Board)
		if err != nil {
			closer.Fatalln(err)
		}
		sopts := []retainvar.SessionOption{
			retainvar.WithBase(cfg.Base),
			retainvar.WithBoardIndex(cfg.BoardIndex),
		}
		if err := mon.SelectBoard(t, sopts...); err != nil {
			closer.Fatalln(err)
		}
	}

	if err := run(ctx, mon, cfg, flag.Args()); err != nil {
		closer.Fatalln(err)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: retaincan [flags] <command> [args]

Commands:
  list                  print the selected board's variable table
  read <index|all>      read one variable, or the whole table
  write <index> <value> write one variable
  flash <image.hex>     upload a firmware image
  backup <file>         save every variable to a snapshot file
  restore <file>        write a snapshot file back to the board

Flags:
`)
	flag.PrintDefaults()
}

func run(ctx context.Context, mon *monitor.Monitor, cfg config, args []string) error {
	cmd, args := args[0], args[1:]
	switch cmd {
	case "list":
		return runList(mon)
	case "read":
		return runRead(ctx, mon, args)
	case "write":
		return runWrite(ctx, mon, args)
	case "flash":
		return runFlash(ctx, mon, cfg, args)
	case "backup":
		return runBackup(ctx, mon, cfg, args)
	case "restore":
		return runRestore(ctx, mon, cfg, args)
	default:
		return fmt.Errorf("unknown command %q, see -h", cmd)
	}
}

func runList(mon *monitor.Monitor) error {
	vars := mon.Variables()
	if vars == nil {
		return fmt.Errorf("no board selected, use -B")
	}
	info, _ := mon.Info()
	fmt.Printf("%v board, base 0x%03X, request 0x%03X, response 0x%03X\n",
		info.Board, info.Base, info.RequestID, info.ResponseID)
	for _, v := range vars {
		fmt.Printf("%3d  addr %3d  len %d  %s\n", v.Index, v.Address, v.Length, v.Name)
	}
	return nil
}

func runRead(ctx context.Context, mon *monitor.Monitor, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("read wants an index or \"all\"")
	}
	if args[0] == "all" {
		readings, err := mon.ReadAll(ctx)
		if err != nil {
			return err
		}
		failed := 0
		for _, r := range readings {
			if r.Err != nil {
				failed++
				fmt.Printf("%3d  %-20s  error: %v\n", r.Index, r.Name, r.Err)
				continue
			}
			fmt.Printf("%3d  %-20s  %v\n", r.Index, r.Name, r.Value)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d variables failed", failed, len(readings))
		}
		return nil
	}

	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad index %q: %v", args[0], err)
	}
	v, err := mon.ReadVariable(ctx, index)
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

func runWrite(ctx context.Context, mon *monitor.Monitor, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("write wants an index and a value")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad index %q: %v", args[0], err)
	}
	value, err := strconv.ParseInt(args[1], 0, 64)
	if err != nil {
		return fmt.Errorf("bad value %q: %v", args[1], err)
	}
	if err := mon.WriteVariable(ctx, index, value); err != nil {
		return err
	}
	// The protocol carries no write acknowledgment; read back to confirm.
	fmt.Printf("write request for variable %d sent\n", index)
	return nil
}

func runFlash(ctx context.Context, mon *monitor.Monitor, cfg config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("flash wants an image file")
	}
	var device uint32
	if _, ok := mon.Board(); !ok {
		if cfg.Base == 0 {
			return fmt.Errorf("no target: use -B or -base")
		}
		device = cfg.Base
	}
	if err := mon.ProgramFirmware(ctx, device, args[0]); err != nil {
		fmt.Println()
		return err
	}
	fmt.Println("\nupload complete, board verifying")
	return nil
}

func showProgress(addr uint32, wordsSent, totalWords int) {
	if totalWords == 0 {
		return
	}
	fmt.Printf("\rflashing %3d%% (block 0x%04X)", wordsSent*100/totalWords, addr)
}

func runBackup(ctx context.Context, mon *monitor.Monitor, cfg config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("backup wants a destination file")
	}
	key, err := snapshotKey(cfg)
	if err != nil {
		return err
	}
	if err := mon.SaveSnapshot(ctx, args[0], key); err != nil {
		return err
	}
	fmt.Printf("snapshot saved to %s\n", args[0])
	return nil
}

func runRestore(ctx context.Context, mon *monitor.Monitor, cfg config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("restore wants a snapshot file")
	}
	key, err := snapshotKey(cfg)
	if err != nil {
		return err
	}
	if err := mon.RestoreSnapshot(ctx, args[0], key); err != nil {
		return err
	}
	fmt.Printf("snapshot %s restored\n", args[0])
	return nil
}

func snapshotKey(cfg config) ([]byte, error) {
	if cfg.Key == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("bad snapshot key: %v", err)
	}
	return key, nil
}
