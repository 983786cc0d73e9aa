//go:build !linux

package tempdeck

// usbLocation is only implemented on Linux. Elsewhere devices report no
// physical location and FromUSBLocation cannot match them.
func usbLocation(string) string {
	return ""
}
