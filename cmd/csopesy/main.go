// Command csopesy is the interactive console described in spec §6: a
// REPL that drives a single scheduler.Scheduler façade through
// initialize, scheduler-start/-stop, screen management, and reporting
// commands.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jasonKoogler/csopesy/internal/config"
	"github.com/jasonKoogler/csopesy/internal/report"
	"github.com/jasonKoogler/csopesy/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "config.txt", "Path to the configuration file")
	dumpDir := flag.String("dump-dir", "", "Optional directory to mirror each finished process's log to")
	verbose := flag.Bool("v", false, "Verbose logging (microsecond timestamps and source locations)")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	if *verbose {
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	sched := scheduler.New(logger)
	if *dumpDir != "" {
		sched.SetDumpDir(*dumpDir)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		if sched.IsRunning() {
			logger.Println("received termination signal, stopping scheduler...")
			_ = sched.Stop()
		}
		os.Exit(0)
	}()

	repl(os.Stdin, os.Stdout, sched, *configPath)
}

func repl(in *os.File, out *os.File, sched *scheduler.Scheduler, defaultConfigPath string) {
	fmt.Fprintln(out, "CSOPESY command-line emulator")
	fmt.Fprintln(out, `Type "initialize" to begin, or "exit" to quit.`)

	scanner := bufio.NewScanner(in)
	initialized := false

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		if !initialized && cmd != "initialize" && cmd != "exit" {
			fmt.Fprintln(out, "scheduler: not initialized. Run \"initialize\" first.")
			continue
		}

		switch cmd {
		case "initialize":
			path := defaultConfigPath
			if len(args) > 0 {
				path = args[0]
			}
			if err := sched.Initialize(path); err != nil {
				fmt.Fprintf(out, "initialize: %v\n", err)
				continue
			}
			initialized = true
			fmt.Fprintf(out, "initialized from %s\n", path)

		case "scheduler-start":
			if err := sched.Start(); err != nil {
				fmt.Fprintf(out, "scheduler-start: %v\n", err)
			} else {
				fmt.Fprintln(out, "scheduler started")
			}

		case "scheduler-stop":
			if err := sched.Stop(); err != nil {
				fmt.Fprintf(out, "scheduler-stop: %v\n", err)
			} else {
				fmt.Fprintln(out, "scheduler stopped")
			}

		case "screen":
			handleScreen(out, sched, args)

		case "report-util":
			status, err := sched.Snapshot()
			if err != nil {
				fmt.Fprintf(out, "report-util: %v\n", err)
				continue
			}
			text := report.Format(status)
			fmt.Fprint(out, text)
			if err := report.WriteFile(status, "csopesy-log.txt"); err != nil {
				fmt.Fprintf(out, "report-util: failed to write csopesy-log.txt: %v\n", err)
			} else {
				fmt.Fprintln(out, "Report also saved to csopesy-log.txt")
			}

		case "view-config":
			cfg := sched.Config()
			if len(args) > 0 && args[0] == "-yaml" {
				yamlBytes, err := config.MarshalYAML(cfg)
				if err != nil {
					fmt.Fprintf(out, "view-config: %v\n", err)
					continue
				}
				fmt.Fprint(out, string(yamlBytes))
			} else {
				fmt.Fprintf(out, "%+v\n", cfg)
			}

		case "clear":
			fmt.Fprint(out, "\033[H\033[2J")

		case "exit":
			if sched.IsRunning() {
				_ = sched.Stop()
			}
			fmt.Fprintln(out, "bye")
			return

		default:
			fmt.Fprintf(out, "unrecognized command: %s\n", cmd)
		}
	}
}

func handleScreen(out *os.File, sched *scheduler.Scheduler, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(out, `screen: expected "-s <name>", "-r <name>", or "-ls"`)
		return
	}

	switch args[0] {
	case "-s":
		if len(args) < 2 {
			fmt.Fprintln(out, "screen -s: missing process name")
			return
		}
		p, err := sched.CreateManual(args[1])
		if err != nil {
			fmt.Fprintf(out, "screen -s: %v\n", err)
			return
		}
		fmt.Fprintf(out, "created process %s\n", p.Name)

	case "-r":
		if len(args) < 2 {
			fmt.Fprintln(out, "screen -r: missing process name")
			return
		}
		p, err := sched.FindProcess(args[1])
		if err != nil {
			fmt.Fprintf(out, "screen -r: %v\n", err)
			return
		}
		fmt.Fprintf(out, "%s: core %d, instruction %d/%d\n", p.Name, p.AssignedCore(), p.ProgramCounter(), p.TotalInstructions())
		for _, line := range p.Logs() {
			fmt.Fprintln(out, line)
		}

	case "-ls":
		status, err := sched.Snapshot()
		if err != nil {
			fmt.Fprintf(out, "screen -ls: %v\n", err)
			return
		}
		fmt.Fprint(out, report.Format(status))

	default:
		fmt.Fprintf(out, "screen: unrecognized flag %q\n", args[0])
	}
}
