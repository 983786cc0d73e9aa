// Package cli implements the tempdeckctl command line surface on top of
// the tempdeck driver. Run is side-effect free apart from its injected
// streams and opener hooks, so the whole surface is testable.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"tempdeckctl/internal/config"
	"tempdeckctl/pkg/tempdeck"
)

// Exit codes. Usage errors follow the argparse convention of 2.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type App struct {
	cfg    *config.Config
	logger *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// Opener hooks, swapped out in tests.
	openPort    func(string, ...tempdeck.Option) (*tempdeck.Controller, error)
	openUSB     func(string, ...tempdeck.Option) (*tempdeck.Controller, error)
	openFirst   func(...tempdeck.Option) (*tempdeck.Controller, error)
	listDevices func(...tempdeck.USBID) ([]tempdeck.PortInfo, error)
}

func New(cfg *config.Config, logger *zap.Logger, stdin io.Reader, stdout, stderr io.Writer) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		stdin:       stdin,
		stdout:      stdout,
		stderr:      stderr,
		openPort:    tempdeck.FromSerialPortname,
		openUSB:     tempdeck.FromUSBLocation,
		openFirst:   tempdeck.OpenFirstDevice,
		listDevices: tempdeck.ListConnectedDevices,
	}
}

// Run parses args and executes one action. With no action flag it reads
// back and prints the current temperature values.
func (a *App) Run(args []string) int {
	flags := pflag.NewFlagSet("tempdeckctl", pflag.ContinueOnError)
	flags.SetOutput(a.stderr)
	port := flags.StringP("port", "p", "", "use serial port identified by `PORTNAME`")
	usb := flags.StringP("usb", "u", "", "select device according to USB port `LOCATION` string")
	list := flags.BoolP("list-devices", "l", false, "list detected tempdecks")
	setTarget := flags.Float64P("set-target", "t", 0, "activate temperature control and set target to `TEMP` (in °C)")
	promptTarget := flags.BoolP("prompt-target", "i", false, "prompt for target temperature and then set it")
	deactivate := flags.BoolP("deactivate", "d", false, "deactivate temperature control")
	version := flags.Bool("version", false, "print version and exit")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if *version {
		fmt.Fprintln(a.stdout, versioninfo.Short())
		return exitOK
	}

	if *port != "" && *usb != "" {
		fmt.Fprintln(a.stderr, "--port and --usb are mutually exclusive")
		return exitUsage
	}
	actions := 0
	for _, set := range []bool{*list, flags.Changed("set-target"), *promptTarget, *deactivate} {
		if set {
			actions++
		}
	}
	if actions > 1 {
		fmt.Fprintln(a.stderr, "only one of --list-devices, --set-target, --prompt-target and --deactivate may be given")
		return exitUsage
	}

	ids, err := a.cfg.ParsedUSBIDs()
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitError
	}

	if *list {
		return a.runList(ids)
	}

	opts := []tempdeck.Option{
		tempdeck.WithLogger(a.logger),
		tempdeck.WithUSBIDs(ids...),
		tempdeck.WithReadTimeout(a.cfg.ReadTimeout()),
	}

	var controller *tempdeck.Controller
	switch {
	case *port != "":
		controller, err = a.openPort(*port, opts...)
	case *usb != "":
		controller, err = a.openUSB(*usb, opts...)
	default:
		controller, err = a.openFirst(opts...)
	}
	if err != nil {
		if tempdeck.KindOf(err) == tempdeck.ErrorDeviceNotFound {
			fmt.Fprintln(a.stderr, err)
		} else {
			fmt.Fprintf(a.stderr, "couldn't open device: %s\n", err)
		}
		return exitError
	}
	defer controller.Close()

	var target *float64
	doDeactivate := *deactivate
	if *promptTarget {
		value, off, err := a.promptForTarget()
		if err != nil {
			fmt.Fprintln(a.stderr, err)
			return exitError
		}
		if off {
			doDeactivate = true
		} else {
			target = &value
		}
	}
	if target == nil && flags.Changed("set-target") {
		target = setTarget
	}

	switch {
	case target != nil:
		return a.runSetTarget(controller, *target)
	case doDeactivate:
		return a.runDeactivate(controller)
	default:
		return a.runReadBack(controller)
	}
}

func (a *App) runList(ids []tempdeck.USBID) int {
	devices, err := a.listDevices(ids...)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitError
	}
	fmt.Fprintln(a.stderr, "Found tempdecks on these ports (serial port name, USB location):")
	for _, device := range devices {
		fmt.Fprintf(a.stdout, "%s, %s\n", device.Name, device.USBLocation)
	}
	return exitOK
}

func (a *App) runSetTarget(controller *tempdeck.Controller, target float64) int {
	if err := controller.SetTargetTemp(target); err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitError
	}
	// Read back what the device actually accepted.
	newTarget, err := controller.GetTargetTemp()
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitError
	}
	if newTarget != nil {
		fmt.Fprintf(a.stdout, "Target set to %.2f °C\n", *newTarget)
	}
	return exitOK
}

func (a *App) runDeactivate(controller *tempdeck.Controller) int {
	if err := controller.Deactivate(); err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitError
	}
	fmt.Fprintln(a.stdout, "Temperature control deactivated")
	return exitOK
}

func (a *App) runReadBack(controller *tempdeck.Controller) int {
	temps, err := controller.GetTemps()
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitError
	}
	if temps.Target != nil {
		fmt.Fprintf(a.stdout, "Target:  %.2f °C\n", *temps.Target)
	} else {
		fmt.Fprintln(a.stdout, "Target:  (deactivated)")
	}
	fmt.Fprintf(a.stdout, "Current: %.2f °C\n", temps.Current)
	return exitOK
}

// promptForTarget asks for a temperature on stdin. The literal "off"
// means deactivate.
func (a *App) promptForTarget() (value float64, off bool, err error) {
	fmt.Fprint(a.stdout, "Enter target temperature (\"off\" to deactivate): ")
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && line == "" {
		return 0, false, fmt.Errorf("reading target temperature: %w", err)
	}
	input := strings.TrimSpace(line)
	if strings.EqualFold(input, "off") {
		return 0, true, nil
	}
	value, err = strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid target temperature %q", input)
	}
	return value, false, nil
}
