package capture

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/linuxmatters/melcap/internal/audio"
)

// DeviceInfo describes an input device as reported by the host audio API.
type DeviceInfo struct {
	Index             int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	DefaultSampleRate float64
	Default           bool
}

func (d DeviceInfo) String() string {
	return fmt.Sprintf("[%d] %s (%d in, %.0f Hz)", d.Index, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
}

// ResolveDevice picks the input device named by id.
//
// An empty id selects the default input device. A numeric id is matched
// against DeviceInfo.Index. Anything else is a case-insensitive substring of
// the device name; when several devices match, the first one with enough
// input channels wins.
func ResolveDevice(devices []DeviceInfo, id string, channels int) (DeviceInfo, error) {
	id = strings.TrimSpace(id)

	var candidates []DeviceInfo
	switch {
	case id == "":
		for _, d := range devices {
			if d.Default && d.MaxInputChannels > 0 {
				candidates = append(candidates, d)
			}
		}
	default:
		if idx, err := strconv.Atoi(id); err == nil {
			for _, d := range devices {
				if d.Index == idx && d.MaxInputChannels > 0 {
					candidates = append(candidates, d)
				}
			}
			break
		}
		needle := strings.ToLower(id)
		for _, d := range devices {
			if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), needle) {
				candidates = append(candidates, d)
			}
		}
	}

	if len(candidates) == 0 {
		if id == "" {
			return DeviceInfo{}, fmt.Errorf("%w: no default input device", audio.ErrDeviceUnavailable)
		}
		return DeviceInfo{}, fmt.Errorf("%w: no input device matches %q", audio.ErrDeviceUnavailable, id)
	}

	for _, d := range candidates {
		if d.MaxInputChannels >= channels {
			return d, nil
		}
	}
	d := candidates[0]
	return DeviceInfo{}, fmt.Errorf("%w: %q has %d input channels, %d requested",
		audio.ErrChannelMismatch, d.Name, d.MaxInputChannels, channels)
}

// A device can only be held by one open source at a time.
var claims = struct {
	sync.Mutex
	held map[string]bool
}{held: make(map[string]bool)}

func claimDevice(key string) error {
	claims.Lock()
	defer claims.Unlock()

	if claims.held[key] {
		return fmt.Errorf("%w: %s is in use by another source", audio.ErrDeviceUnavailable, key)
	}
	claims.held[key] = true
	return nil
}

func releaseDevice(key string) {
	claims.Lock()
	defer claims.Unlock()
	delete(claims.held, key)
}
