//go:build linux

package tempdeck

import "path/filepath"

// usbLocation resolves the physical USB interface path behind a tty
// device node, e.g. "1-1.4:1.0" for /dev/ttyACM0. The sysfs device link
// of a CDC tty points at the USB interface directory, whose basename is
// the location.
func usbLocation(portname string) string {
	link := filepath.Join("/sys/class/tty", filepath.Base(portname), "device")
	resolved, err := filepath.EvalSymlinks(link)
	if err != nil {
		return ""
	}
	return filepath.Base(resolved)
}
