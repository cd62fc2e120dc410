// Command nodesim boots one simulated board: it parses a YAML board
// config, wires a Node over either synthetic or pty-backed hardware
// fakes, and runs the cooperative kernel loop until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"

	kernel "github.com/osprey-embedded/heliumcore"
	"github.com/osprey-embedded/heliumcore/internal/board"
	"github.com/osprey-embedded/heliumcore/internal/logging"
	"github.com/osprey-embedded/heliumcore/internal/uarthw"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "nodesim:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		boardPath    = pflag.StringP("board", "b", "", "path to a board YAML config")
		logFormat    = pflag.String("log", "plain", "log backend: plain or pretty")
		logLevel     = pflag.String("log-level", "info", "log level: debug, info, warn, error")
		usePTY       = pflag.Bool("uart-pty", false, "back the UART with a real pseudo-tty instead of an in-memory fake")
		gpioChip     = pflag.String("gpio-chip", "", "Linux gpiochip device to wire board GPIO pins against (e.g. gpiochip0)")
		gpioMap      = pflag.StringSlice("gpio-line", nil, "driver_pin=chip_offset mapping, repeatable")
		metricsEvery = pflag.Duration("metrics-interval", 5*time.Second, "how often to print a metrics snapshot; 0 disables")
	)
	pflag.Parse()

	logger, err := newLogger(*logFormat, *logLevel)
	if err != nil {
		return err
	}

	var boardCfg *board.Config
	if *boardPath != "" {
		f, err := os.Open(*boardPath)
		if err != nil {
			return fmt.Errorf("open board config: %w", err)
		}
		defer f.Close()
		boardCfg, err = board.LoadConfig(f)
		if err != nil {
			return err
		}
	}

	cfg := kernel.Config{
		Board:  boardCfg,
		Logger: logger,
	}

	var ptyMaster *os.File
	var ptyRegs *uarthw.PTY
	if *usePTY {
		master, regs, err := uarthw.Open()
		if err != nil {
			return fmt.Errorf("open uart pty: %w", err)
		}
		if err := setRawMode(master); err != nil {
			regs.Close()
			return fmt.Errorf("set pty raw mode: %w", err)
		}
		ptyMaster = master
		ptyRegs = regs
		cfg.UARTRegisters = regs
		logger.Info("uart wired to pty", "path", master.Name())
	}

	gpioPins, closeGPIO, err := openGPIOPins(*gpioChip, *gpioMap)
	if err != nil {
		return err
	}
	defer closeGPIO()
	cfg.GPIOPins = gpioPins

	node, err := kernel.NewNode(cfg)
	if err != nil {
		return fmt.Errorf("build node: %w", err)
	}
	if ptyRegs != nil {
		ptyRegs.OnData(node.UARTLine().Fire)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	if *metricsEvery > 0 {
		go reportMetrics(ctx, node, logger, *metricsEvery)
	}

	logger.Info("node starting")
	node.Run(ctx)
	logger.Info("node stopped")

	if ptyMaster != nil {
		ptyMaster.Close()
	}
	return nil
}

func newLogger(format, level string) (*logging.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	switch format {
	case "plain":
		return logging.NewLogger(&logging.Config{Level: lvl, Output: os.Stderr}), nil
	case "pretty":
		return logging.NewCharmLogger(os.Stderr, lvl), nil
	default:
		return nil, fmt.Errorf("unknown -log value %q (want plain or pretty)", format)
	}
}

func parseLevel(level string) (logging.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logging.LevelDebug, nil
	case "info":
		return logging.LevelInfo, nil
	case "warn":
		return logging.LevelWarn, nil
	case "error":
		return logging.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown -log-level value %q", level)
	}
}

// gpiocdevPin adapts a requested gpiocdev line to board.GPIOPin.
type gpiocdevPin struct {
	line *gpiocdev.Line
}

func (p gpiocdevPin) Set(v bool) error {
	val := 0
	if v {
		val = 1
	}
	return p.line.SetValue(val)
}

func (p gpiocdevPin) Get() (bool, error) {
	v, err := p.line.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// openGPIOPins wires board.GPIOPin implementations against a real Linux
// gpiochip when chip is non-empty, parsing "driver_pin=chip_offset"
// entries out of mapping. With no chip given, returns an empty pin set —
// the GPIO capsule then reports NoDevice for every pin, same as a board
// with no GPIO wiring at all.
func openGPIOPins(chip string, mapping []string) (map[uint32]board.GPIOPin, func(), error) {
	if chip == "" {
		return nil, func() {}, nil
	}

	pins := make(map[uint32]board.GPIOPin, len(mapping))
	var lines []*gpiocdev.Line
	closeAll := func() {
		for _, l := range lines {
			l.Close()
		}
	}

	for _, entry := range mapping {
		driverPin, offset, err := parseGPIOMapping(entry)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("request gpio line %d: %w", offset, err)
		}
		lines = append(lines, line)
		pins[driverPin] = gpiocdevPin{line: line}
	}

	return pins, closeAll, nil
}

func parseGPIOMapping(entry string) (driverPin uint32, offset int, err error) {
	parts := strings.SplitN(entry, "=", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed -gpio-line %q (want driver_pin=chip_offset)", entry)
	}
	pin, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed -gpio-line pin %q: %w", parts[0], err)
	}
	off, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed -gpio-line offset %q: %w", parts[1], err)
	}
	return uint32(pin), off, nil
}

// setRawMode disables canonical processing and echo on the pty master so
// bytes written by an external device arrive at the UART driver exactly
// as sent, rather than line-buffered and echoed by the host tty layer.
func setRawMode(f *os.File) error {
	fd := int(f.Fd())
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	termios.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Iflag &^= unix.IXON | unix.ICRNL | unix.BRKINT | unix.ISTRIP
	termios.Oflag &^= unix.OPOST
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, unix.TCSETS, termios)
}

func reportMetrics(ctx context.Context, node *kernel.Node, logger *logging.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := node.MetricsSnapshot()
			logger.Info(
				"metrics",
				"syscalls", snap.TotalSyscalls,
				"events", snap.EventsDispatched,
				"upcalls", snap.UpcallsDelivered,
				"faults", snap.ProcessFaults,
				"p99_ns", snap.EventLatencyP99Ns,
			)
		}
	}
}
