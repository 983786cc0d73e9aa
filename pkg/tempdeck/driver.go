// Package tempdeck drives an Opentrons Tempdeck over its USB serial
// interface: device discovery by USB vendor/product ID, the line-based
// gcode-style command protocol, and typed access to the temperature
// readings and device identity.
package tempdeck

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	cmdReportInfo  = "M115"
	cmdSetTarget   = "M104 S%.3f"
	cmdReportTemps = "M105"
	cmdDeactivate  = "M18"

	// Every command is confirmed by two lines of literal "ok".
	ackLine  = "ok"
	ackCount = 2

	// The firmware reports "T:none" when no setpoint is active.
	targetNone = "none"
)

// DeviceInfo is the identity reported by the M115 command. It is read
// once when the connection is opened and never changes afterwards.
type DeviceInfo struct {
	Model           string
	Serial          string
	FirmwareVersion string
}

// Temperatures is one M105 reading. Target is nil while heating/cooling
// is deactivated; it is never mapped to zero.
type Temperatures struct {
	Current float64
	Target  *float64
}

// Controller owns one open tempdeck connection and implements the
// request/response protocol. It performs no locking: the protocol has no
// pipelining, so concurrent callers must serialize access themselves.
type Controller struct {
	transport     Transport
	logger        *zap.Logger
	deactivateAck bool
	info          DeviceInfo
}

// New wraps an open transport and fetches the device identity. It fails
// with an invalid-response error if the M115 reply is missing any of the
// model, serial or version fields.
func New(t Transport, opts ...Option) (*Controller, error) {
	cfg := applyOptions(opts)
	c := &Controller{
		transport:     t,
		logger:        cfg.logger,
		deactivateAck: cfg.deactivateAck,
	}
	if err := c.identify(); err != nil {
		return nil, err
	}
	return c, nil
}

// Info returns the identity captured at connection open.
func (c *Controller) Info() DeviceInfo {
	return c.info
}

// SetTargetTemp sets the setpoint in °C and activates temperature
// control. The value is forwarded as-is with three decimal places; range
// checking is left to the firmware.
func (c *Controller) SetTargetTemp(temp float64) error {
	if err := c.sendCommand(fmt.Sprintf(cmdSetTarget, temp)); err != nil {
		return err
	}
	if err := c.waitForAck(); err != nil {
		return err
	}
	c.logger.Debug("target temperature set", zap.Float64("target", temp))
	return nil
}

// GetTemps reads the setpoint and the measured temperature in one round
// trip. Readings are taken fresh from the device on every call.
func (c *Controller) GetTemps() (Temperatures, error) {
	fields, raw, err := c.ask(cmdReportTemps)
	if err != nil {
		return Temperatures{}, err
	}

	var temps Temperatures
	current, ok := fields["C"]
	if !ok {
		return Temperatures{}, errInvalidResponse(raw, "missing value for current temp")
	}
	temps.Current, err = strconv.ParseFloat(current, 64)
	if err != nil {
		return Temperatures{}, errInvalidResponse(raw, "current temp %q is not a number", current)
	}

	target, ok := fields["T"]
	if !ok {
		return Temperatures{}, errInvalidResponse(raw, "missing value for target temp")
	}
	if target != targetNone {
		v, err := strconv.ParseFloat(target, 64)
		if err != nil {
			return Temperatures{}, errInvalidResponse(raw, "target temp %q is not a number", target)
		}
		temps.Target = &v
	}
	return temps, nil
}

// GetTargetTemp reads the current setpoint, nil when deactivated. Callers
// that also need the measured temperature should use GetTemps instead and
// save a round trip.
func (c *Controller) GetTargetTemp() (*float64, error) {
	temps, err := c.GetTemps()
	if err != nil {
		return nil, err
	}
	return temps.Target, nil
}

// GetCurrentTemp reads the measured temperature in °C. Callers that also
// need the setpoint should use GetTemps instead and save a round trip.
func (c *Controller) GetCurrentTemp() (float64, error) {
	temps, err := c.GetTemps()
	if err != nil {
		return 0, err
	}
	return temps.Current, nil
}

// Deactivate clears the setpoint and stops heating and cooling. Unless
// disabled via WithDeactivateAck(false) it consumes the double ok like
// every other command.
func (c *Controller) Deactivate() error {
	if err := c.sendCommand(cmdDeactivate); err != nil {
		return err
	}
	if !c.deactivateAck {
		return nil
	}
	return c.waitForAck()
}

// Close closes the underlying transport if it supports closing.
func (c *Controller) Close() error {
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Controller) identify() error {
	fields, raw, err := c.ask(cmdReportInfo)
	if err != nil {
		return err
	}
	var info DeviceInfo
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"model", &info.Model},
		{"serial", &info.Serial},
		{"version", &info.FirmwareVersion},
	} {
		value, ok := fields[field.key]
		if !ok {
			return errInvalidResponse(raw, "missing value for %s", field.key)
		}
		*field.dst = value
	}
	c.info = info
	c.logger.Debug("device identified",
		zap.String("model", info.Model),
		zap.String("serial", info.Serial),
		zap.String("version", info.FirmwareVersion))
	return nil
}

// ask performs one full exchange: send the command, read the single data
// line, consume the double ok, and split the data line into key:value
// fields. The raw line is returned alongside for error reporting.
func (c *Controller) ask(cmd string) (map[string]string, string, error) {
	if err := c.sendCommand(cmd); err != nil {
		return nil, "", err
	}
	raw, err := c.readLine()
	if err != nil {
		return nil, "", err
	}
	raw = strings.TrimSpace(raw)
	if err := c.waitForAck(); err != nil {
		return nil, "", err
	}

	fields := make(map[string]string)
	for _, token := range strings.Fields(raw) {
		key, value, ok := strings.Cut(token, ":")
		if !ok {
			return nil, "", errInvalidResponse(raw, "couldn't parse token %q", token)
		}
		// The firmware never repeats a key within one response; if it
		// ever does, the last occurrence wins.
		fields[key] = value
	}
	return fields, raw, nil
}

func (c *Controller) sendCommand(cmd string) error {
	c.logger.Debug("send", zap.String("command", cmd))
	_, err := io.WriteString(c.transport, cmd+"\r\n")
	return err
}

// readLine reads one newline-terminated line and strips trailing
// whitespace. A timeout before the newline arrives, with or without
// partial data, is reported uniformly as a response timeout.
func (c *Controller) readLine() (string, error) {
	line, err := c.transport.ReadLine()
	if errors.Is(err, ErrReadTimeout) {
		return "", errResponseTimeout("no line received within the read timeout")
	}
	if err != nil {
		return "", err
	}
	line = strings.TrimRight(line, " \t\r\n")
	c.logger.Debug("recv", zap.String("line", line))
	return line, nil
}

// waitForAck consumes the two-line ok acknowledgment. On a mismatch it
// stops immediately without consuming further lines.
func (c *Controller) waitForAck() error {
	for i := 1; i <= ackCount; i++ {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if line != ackLine {
			return errInvalidResponse(line, "expected %q for ack line %d of %d", ackLine, i, ackCount)
		}
	}
	return nil
}
