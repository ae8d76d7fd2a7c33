package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"steppulse/host/config"
	"steppulse/host/mcu"
)

func main() {
	cfg, err := config.Load("stepctl", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	fmt.Println("stepctl - A4988 stepper console")
	fmt.Println("===============================")
	fmt.Println()

	mcuConn := mcu.NewMCU()
	mcuConn.ResponseTimeout = cfg.ResponseTimeout
	if cfg.Verbose {
		mcuConn.OnDebug = func(line string) { fmt.Println("# " + line) }
	}

	fmt.Printf("Connecting to MCU on %s...\n", cfg.Device)
	if err := mcuConn.ConnectWithConfig(cfg.Serial()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer mcuConn.Close()

	fmt.Println("Connected successfully!")

	if err := mcuConn.RetrieveDictionary(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to retrieve dictionary: %v\n", err)
		os.Exit(1)
	}
	if cfg.Verbose {
		mcuConn.PrintDictionary(os.Stdout)
	}

	if cfg.Microsteps != 0 {
		if err := mcuConn.SetMicrosteps(cfg.Microsteps); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		if parts[0] == "quit" || parts[0] == "exit" || parts[0] == "q" {
			break
		}
		if err := runCommand(mcuConn, parts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	// Leave the motor stopped on the way out
	if err := mcuConn.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: stop on exit: %v\n", err)
	}
	fmt.Println("Goodbye!")

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func runCommand(mcuConn *mcu.MCU, parts []string) error {
	switch parts[0] {
	case "help", "?":
		printHelp()

	case "dict":
		mcuConn.PrintDictionary(os.Stdout)

	case "rotate":
		if len(parts) < 2 || len(parts) > 3 {
			return fmt.Errorf("usage: rotate <rad/s> [cw|ccw]")
		}
		omega, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return fmt.Errorf("bad angular velocity %q", parts[1])
		}
		clockwise := true
		if len(parts) == 3 {
			switch parts[2] {
			case "cw":
			case "ccw":
				clockwise = false
			default:
				return fmt.Errorf("direction must be cw or ccw, got %q", parts[2])
			}
		}
		return mcuConn.Rotate(omega, clockwise)

	case "stop":
		return mcuConn.Stop()

	case "reset":
		return mcuConn.Reset()

	case "mode":
		if len(parts) == 1 {
			mult, err := mcuConn.Microsteps()
			if err != nil {
				return err
			}
			fmt.Printf("1/%d step\n", mult)
			return nil
		}
		mult, err := strconv.Atoi(parts[1])
		if err != nil {
			return fmt.Errorf("bad microstep multiplier %q", parts[1])
		}
		return mcuConn.SetMicrosteps(mult)

	case "status":
		st, err := mcuConn.Status()
		if err != nil {
			return err
		}
		dir := "ccw"
		if st.Direction {
			dir = "cw"
		}
		fmt.Printf("state=%s step=1/%d dir=%s omega=%g rad/s period=%d ticks\n",
			st.State, st.Microsteps, dir, st.Omega, st.PeriodTicks)

	case "debug":
		if len(parts) != 2 || (parts[1] != "on" && parts[1] != "off") {
			return fmt.Errorf("usage: debug on|off")
		}
		return mcuConn.SetDebug(parts[1] == "on")

	case "events":
		events, err := mcuConn.Events()
		if err != nil {
			return err
		}
		for _, evt := range events {
			fmt.Printf("  #%d %-12s v1=%d v2=%d\n", evt.Seq, evt.Name, evt.Value1, evt.Value2)
		}

	case "raw":
		if len(parts) < 2 {
			return fmt.Errorf("usage: raw <line>")
		}
		responses, err := mcuConn.Send(strings.Join(parts[1:], " "))
		for _, resp := range responses {
			fmt.Printf("  %s %v\n", resp.Name, resp.Params)
		}
		return err

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", parts[0])
	}
	return nil
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help                 - Show this help message")
	fmt.Println("  rotate <w> [cw|ccw]  - Rotate at w rad/s")
	fmt.Println("  stop                 - Stop the step output")
	fmt.Println("  mode [1|2|4|8|16]    - Show or set the microstep mode")
	fmt.Println("  status               - Show driver state")
	fmt.Println("  reset                - Pulse the translator reset")
	fmt.Println("  debug on|off         - Toggle firmware debug output")
	fmt.Println("  events               - Dump the firmware event ring")
	fmt.Println("  dict                 - Print dictionary summary")
	fmt.Println("  raw <line>           - Send a console line as is")
	fmt.Println("  quit/exit/q          - Exit the program")
	fmt.Println()
}
