package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gonuts/logger"
	"github.com/google/shlex"
	"github.com/mattn/go-isatty"

	"dactick/config"
	"dactick/core"
	"dactick/host/mcu"
	"dactick/host/serial"
)

var (
	configPath = flag.String("config", "", "JSON or YAML configuration file (defaults built in)")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (overrides config)")
	list       = flag.Bool("list", false, "List serial ports and exit")
)

var msg = logger.New("dac-host")

func main() {
	flag.Parse()

	if *list {
		ports, err := serial.ListPorts()
		if err != nil {
			msg.Errorf("could not list serial ports: %v\n", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		msg.Errorf("%v\n", err)
		os.Exit(1)
	}

	serialCfg := serial.FromConfig(cfg.Serial)
	if *device != "" {
		serialCfg.Device = *device
	}
	if *baud != 0 {
		serialCfg.Baud = *baud
	}

	msg.Infof("connecting to %s at %d baud\n", serialCfg.Device, serialCfg.Baud)
	board, err := mcu.Connect(serialCfg)
	if err != nil {
		msg.Errorf("failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer board.Close()

	if err := board.RetrieveDictionary(); err != nil {
		msg.Errorf("failed to retrieve dictionary: %v\n", err)
		os.Exit(1)
	}

	// prompt only when a person is typing; scripts pipe commands in
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			break
		}

		args, err := shlex.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		if args[0] == "quit" || args[0] == "exit" || args[0] == "q" {
			return
		}

		if err := run(board, cfg, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if *configPath == "" {
		return config.Default(), nil
	}
	data, err := os.ReadFile(*configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFile(*configPath, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", *configPath, err)
	}
	return cfg, nil
}

func run(board *mcu.MCU, cfg *config.Config, args []string) error {
	switch args[0] {
	case "help", "?":
		printHelp()
		return nil

	case "dict":
		for _, m := range board.Dictionary().Messages {
			fmt.Printf("  [%d] %s %s\n", m.ID, m.Name, m.Format)
		}
		return nil

	case "start":
		ch, _ := cfg.DAC.Channel()
		if len(args) > 1 {
			n, err := parseChannel(args[1])
			if err != nil {
				return err
			}
			ch = n
		}
		return callResult(board, "start_dac", uint32(ch))

	case "set":
		if len(args) != 2 {
			return fmt.Errorf("usage: set <value>")
		}
		v, err := parseUint(args[1])
		if err != nil {
			return err
		}
		return callResult(board, "set_dac", v)

	case "enable", "disable":
		on := uint32(0)
		if args[0] == "enable" {
			on = 1
		}
		return callResult(board, "enable_dac", on)

	case "config":
		return configure(board, cfg, args[1:])

	case "query":
		resp, err := board.Call("query_dac")
		if err != nil {
			return err
		}
		fmt.Printf("state=%d lock=%d channel=%d output=%d\n",
			resp.Params["state"], resp.Params["lock"], resp.Params["channel"], resp.Params["output"])
		return nil

	case "ticks":
		resp, err := board.Call("get_ticks")
		if err != nil {
			return err
		}
		ticks := core.TickInstant(uint64(resp.Params["high"])<<32 | uint64(resp.Params["low"]))
		fmt.Printf("%d us (%02d:%02d:%02d.%06d)\n", ticks,
			ticks/core.TicksPerHour, ticks/core.TicksPerMinute%60,
			ticks/core.TicksPerSecond%60, ticks%core.TicksPerSecond)
		return nil

	case "wave":
		return sweep(board, cfg, args[1:])

	case "send":
		if len(args) < 2 {
			return fmt.Errorf("usage: send <command> [args...]")
		}
		values := make([]uint32, 0, len(args)-2)
		for _, a := range args[2:] {
			v, err := parseUint(a)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		resp, err := board.Call(args[1], values...)
		if err != nil {
			return err
		}
		fmt.Printf("%s %v\n", resp.Name, resp.Params)
		return nil
	}
	return fmt.Errorf("unknown command: %s (type 'help' for available commands)", args[0])
}

// configure accepts "config [alignment] [trigger] [buffer]" using the
// names the JSON configuration accepts
func configure(board *mcu.MCU, cfg *config.Config, args []string) error {
	dac := cfg.DAC
	if len(args) > 0 {
		dac.Alignment = args[0]
	}
	if len(args) > 1 {
		dac.Trigger = args[1]
	}
	if len(args) > 2 {
		on, err := strconv.ParseBool(args[2])
		if err != nil {
			return err
		}
		dac.Buffer = on
	}

	align, err := dac.AlignmentValue()
	if err != nil {
		return err
	}
	trigger, err := dac.TriggerValue()
	if err != nil {
		return err
	}
	return callResult(board, "config_dac", uint32(align), uint32(trigger), uint32(dac.BufferValue()))
}

// sweep sends one triangle period, or the given number of samples
func sweep(board *mcu.MCU, cfg *config.Config, args []string) error {
	wave := core.NewTriangle(cfg.Waveform.Max, cfg.Waveform.Step)
	samples := 2 * (uint32(cfg.Waveform.Max)/uint32(wave.Step) + 1)
	if len(args) > 0 {
		n, err := parseUint(args[0])
		if err != nil {
			return err
		}
		samples = n
	}

	for i := uint32(0); i < samples; i++ {
		resp, err := board.Call("set_dac", uint32(wave.Next()))
		if err != nil {
			return err
		}
		if status := core.Status(resp.Params["status"]); status != core.StatusOK {
			return fmt.Errorf("sample %d: %v", i, status)
		}
	}
	fmt.Printf("Sent %d samples\n", samples)
	return nil
}

func callResult(board *mcu.MCU, name string, args ...uint32) error {
	resp, err := board.Call(name, args...)
	if err != nil {
		return err
	}
	if resp.Name != "dac_result" {
		return fmt.Errorf("unexpected response %s", resp.Name)
	}
	fmt.Println(core.Status(resp.Params["status"]))
	return nil
}

func parseUint(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return uint32(v), nil
}

// parseChannel reads a start_dac channel, which travels as one byte
func parseChannel(s string) (uint8, error) {
	n, err := parseUint(s)
	if err != nil {
		return 0, err
	}
	if n > 0xFF {
		return 0, fmt.Errorf("channel %d out of range", n)
	}
	return uint8(n), nil
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help                         - Show this help message")
	fmt.Println("  dict                         - List the board's commands")
	fmt.Println("  start [channel]              - Start the DAC (default from config)")
	fmt.Println("  set <value>                  - Write an output value")
	fmt.Println("  enable / disable             - Switch the channel on or off")
	fmt.Println("  config [align] [trig] [buf]  - e.g. config 12L software true")
	fmt.Println("  query                        - Show driver state")
	fmt.Println("  ticks                        - Read the tick counter")
	fmt.Println("  wave [samples]               - Send a triangle sweep")
	fmt.Println("  send <command> [args...]     - Send any dictionary command")
	fmt.Println("  quit/exit/q                  - Exit the program")
	fmt.Println()
}
