package tempdeck

import (
	"fmt"
	"regexp"
	"strings"

	"go.bug.st/serial/enumerator"
)

// DefaultUSBIDs is the vendor/product pair the tempdeck enumerates as.
// Override per call with WithUSBIDs or per listing with ListConnectedDevices
// arguments.
var DefaultUSBIDs = []USBID{{VID: "04d8", PID: "ee93"}}

// USBID is a USB vendor/product pair as four lowercase hex digits each.
type USBID struct {
	VID string
	PID string
}

var usbIDPattern = regexp.MustCompile(`^([0-9a-fA-F]{4}):([0-9a-fA-F]{4})$`)

// ParseUSBID parses a "vid:pid" string such as "04d8:ee93".
func ParseUSBID(s string) (USBID, error) {
	m := usbIDPattern.FindStringSubmatch(s)
	if m == nil {
		return USBID{}, fmt.Errorf("invalid usb id %q, expected vid:pid hex pairs like 04d8:ee93", s)
	}
	return USBID{VID: strings.ToLower(m[1]), PID: strings.ToLower(m[2])}, nil
}

func (id USBID) String() string {
	return id.VID + ":" + id.PID
}

func (id USBID) matches(vid, pid string) bool {
	return strings.EqualFold(id.VID, vid) && strings.EqualFold(id.PID, pid)
}

// PortInfo describes one detected tempdeck. USBLocation identifies the
// physical USB port ("1-1.4:1.0" style) and is empty on platforms where
// it cannot be resolved. Tempdecks expose no USB serial number, so the
// location is the only stable way to tell two of them apart.
type PortInfo struct {
	Name        string
	USBLocation string
}

// Enumeration hooks, swapped out in tests.
var (
	enumeratePorts = enumerator.GetDetailedPortsList
	portLocation   = usbLocation
)

// ListConnectedDevices returns the serial ports whose USB vendor/product
// IDs match one of the given pairs (DefaultUSBIDs when none are given).
// Results come back in enumeration order, which is not guaranteed stable
// across calls. Ports are not opened or probed.
func ListConnectedDevices(ids ...USBID) ([]PortInfo, error) {
	if len(ids) == 0 {
		ids = DefaultUSBIDs
	}
	ports, err := enumeratePorts()
	if err != nil {
		return nil, err
	}
	var found []PortInfo
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		for _, id := range ids {
			if id.matches(port.VID, port.PID) {
				found = append(found, PortInfo{
					Name:        port.Name,
					USBLocation: portLocation(port.Name),
				})
				break
			}
		}
	}
	return found, nil
}

// OpenFirstDevice opens the first detected tempdeck. It fails with a
// device-not-found error when none are connected.
func OpenFirstDevice(opts ...Option) (*Controller, error) {
	cfg := applyOptions(opts)
	devices, err := ListConnectedDevices(cfg.usbIDs...)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, errDeviceNotFound("no tempdeck detected")
	}
	return FromSerialPortname(devices[0].Name, opts...)
}

// FromSerialPortname opens the named serial port directly and initializes
// a Controller on it. Serial open errors are passed through unmodified so
// callers can tell them apart from protocol errors.
func FromSerialPortname(portname string, opts ...Option) (*Controller, error) {
	cfg := applyOptions(opts)
	transport, err := openSerialTransport(portname, cfg.readTimeout)
	if err != nil {
		return nil, err
	}
	controller, err := New(transport, opts...)
	if err != nil {
		transport.Close()
		return nil, err
	}
	return controller, nil
}

// FromUSBLocation opens the tempdeck plugged into the given physical USB
// port, as reported by ListConnectedDevices.
func FromUSBLocation(location string, opts ...Option) (*Controller, error) {
	cfg := applyOptions(opts)
	devices, err := ListConnectedDevices(cfg.usbIDs...)
	if err != nil {
		return nil, err
	}
	for _, device := range devices {
		if device.USBLocation == location {
			return FromSerialPortname(device.Name, opts...)
		}
	}
	return nil, errDeviceNotFound("no tempdeck detected at USB location %q", location)
}
