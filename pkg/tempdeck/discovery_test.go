package tempdeck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

func stubEnumerator(t *testing.T, ports []*enumerator.PortDetails, locations map[string]string) {
	t.Helper()
	prevEnumerate, prevLocation := enumeratePorts, portLocation
	enumeratePorts = func() ([]*enumerator.PortDetails, error) {
		return ports, nil
	}
	portLocation = func(portname string) string {
		return locations[portname]
	}
	t.Cleanup(func() {
		enumeratePorts, portLocation = prevEnumerate, prevLocation
	})
}

func TestListConnectedDevicesFiltering(t *testing.T) {
	assert := assert.New(t)

	stubEnumerator(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyS0", IsUSB: false},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "04D8", PID: "EE93"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "04d8", PID: "ee93"},
	}, map[string]string{
		"/dev/ttyACM0": "1-1.4:1.0",
		"/dev/ttyACM1": "1-1.5:1.0",
	})

	devices, err := ListConnectedDevices()
	require.NoError(t, err)
	// Only matching VID/PID pairs survive, case-insensitively, in
	// enumeration order.
	assert.Equal([]PortInfo{
		{Name: "/dev/ttyACM0", USBLocation: "1-1.4:1.0"},
		{Name: "/dev/ttyACM1", USBLocation: "1-1.5:1.0"},
	}, devices)
}

func TestListConnectedDevicesCustomIDs(t *testing.T) {
	stubEnumerator(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "04d8", PID: "ee93"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
	}, nil)

	devices, err := ListConnectedDevices(USBID{VID: "0403", PID: "6001"})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "/dev/ttyUSB0", devices[0].Name)
}

func TestOpenFirstDeviceNoneFound(t *testing.T) {
	stubEnumerator(t, nil, nil)

	_, err := OpenFirstDevice()
	require.Error(t, err)
	assert.Equal(t, ErrorDeviceNotFound, KindOf(err))
}

func TestFromUSBLocationNoMatch(t *testing.T) {
	stubEnumerator(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "04d8", PID: "ee93"},
	}, map[string]string{
		"/dev/ttyACM0": "1-1.4:1.0",
	})

	_, err := FromUSBLocation("3-2:1.0")
	require.Error(t, err)
	assert.Equal(t, ErrorDeviceNotFound, KindOf(err))
}

func TestParseUSBID(t *testing.T) {
	tests := []struct {
		in      string
		want    USBID
		wantErr bool
	}{
		{in: "04d8:ee93", want: USBID{VID: "04d8", PID: "ee93"}},
		{in: "04D8:EE93", want: USBID{VID: "04d8", PID: "ee93"}},
		{in: "4d8:ee93", wantErr: true},
		{in: "04d8ee93", wantErr: true},
		{in: "04d8:ee93:01", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseUSBID(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestUSBIDString(t *testing.T) {
	assert.Equal(t, "04d8:ee93", USBID{VID: "04d8", PID: "ee93"}.String())
}
