package config

import "github.com/saaga0h/lidar2d-consolidation/pkg/device"

// FindDevice returns the index of the device with the given serial,
// or -1 if unknown.
func (c *Config) FindDevice(serial string) int {
	for i, d := range c.Devices {
		if d.Serial == serial {
			return i
		}
	}
	return -1
}

// EnsureDevice returns (index, created). If serial is unknown it is
// created with defaults and a palette-cycled colour (spec.md §3:
// "created on first unseen serial with defaults... colour cycled
// through a small palette").
func (c *Config) EnsureDevice(serial string, defaultMinDistance float32) (int, bool) {
	if i := c.FindDevice(serial); i >= 0 {
		return i, false
	}
	d := device.NewDefault(serial, len(c.Devices), defaultMinDistance)
	c.Devices = append(c.Devices, DeviceDef{
		Serial:               d.Serial,
		Name:                 d.Name,
		Rotation:             d.Rotation,
		X:                    d.X,
		Y:                    d.Y,
		Colour:               d.Colour,
		MinDistanceThreshold: d.MinDistanceThreshold,
	})
	return len(c.Devices) - 1, true
}

// ToDevice converts one on-disk device definition into the runtime
// device.Device used by the point-generation stage.
func (d DeviceDef) ToDevice() *device.Device {
	return &device.Device{
		Serial:               d.Serial,
		Name:                 d.Name,
		Rotation:             d.Rotation,
		X:                    d.X,
		Y:                    d.Y,
		Colour:               d.Colour,
		MinDistanceThreshold: d.MinDistanceThreshold,
		ScanMaskThresholds:   d.ScanMaskThresholds,
		FlipCoords:           d.FlipCoords,
	}
}

// ApplyMask installs a learned mask on the device with the given
// serial. Returns false if the device is no longer known (spec.md §7:
// "Mask-update for missing device... log error, continue").
func (c *Config) ApplyMask(serial string, mask map[string]float32) bool {
	i := c.FindDevice(serial)
	if i < 0 {
		return false
	}
	c.Devices[i].ScanMaskThresholds = mask
	return true
}

// ClearAllMasks removes every device's learned mask (spec.md §4.8
// automask-request type "clear").
func (c *Config) ClearAllMasks() {
	for i := range c.Devices {
		c.Devices[i].ScanMaskThresholds = nil
	}
}
