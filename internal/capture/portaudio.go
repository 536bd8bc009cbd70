package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/linuxmatters/melcap/internal/audio"
	"github.com/linuxmatters/melcap/internal/config"
)

// PortAudio reads from a host input device through a blocking PortAudio
// stream. Only 16 and 32-bit capture is supported.
type PortAudio struct {
	lifecycle
	device DeviceInfo
	stream *portaudio.Stream
	buf16  []int16
	buf32  []int32
}

// NewPortAudio returns an unopened device source.
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// paMu serialises Initialize/Terminate pairs. Every open stream holds one
// initialisation until Close.
var paMu sync.Mutex

func withPortAudio(fn func() error) error {
	paMu.Lock()
	defer paMu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initialise portaudio: %w", audio.ErrDeviceUnavailable, err)
	}
	return errors.Join(fn(), portaudio.Terminate())
}

// ListDevices returns every device the host audio API reports.
func ListDevices() ([]DeviceInfo, error) {
	var out []DeviceInfo
	err := withPortAudio(func() error {
		var err error
		out, err = listDevices()
		return err
	})
	return out, err
}

func listDevices() ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	var defaultName string
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	out := make([]DeviceInfo, 0, len(devices))
	for i, d := range devices {
		info := DeviceInfo{
			Index:             i,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			Default:           d.Name == defaultName,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		out = append(out, info)
	}
	return out, nil
}

// Device returns the device resolved by the last successful Open.
func (p *PortAudio) Device() DeviceInfo {
	return p.device
}

func (p *PortAudio) Open(cfg config.Capture) error {
	if cfg.BitDepth != 16 && cfg.BitDepth != 32 {
		return fmt.Errorf("%w: portaudio capture supports 16 or 32-bit, got %d", audio.ErrFormat, cfg.BitDepth)
	}

	paMu.Lock()
	defer paMu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initialise portaudio: %w", audio.ErrDeviceUnavailable, err)
	}
	stream, info, err := p.openStream(cfg)
	if err != nil {
		return errors.Join(err, portaudio.Terminate())
	}

	p.stream = stream
	p.device = info
	return nil
}

func (p *PortAudio) openStream(cfg config.Capture) (*portaudio.Stream, DeviceInfo, error) {
	infos, err := listDevices()
	if err != nil {
		return nil, DeviceInfo{}, fmt.Errorf("%w: %w", audio.ErrDeviceUnavailable, err)
	}
	info, err := ResolveDevice(infos, cfg.Device, cfg.Channels)
	if err != nil {
		return nil, DeviceInfo{}, err
	}

	devices, err := portaudio.Devices()
	if err != nil || info.Index >= len(devices) {
		return nil, DeviceInfo{}, fmt.Errorf("%w: device %d vanished", audio.ErrDeviceUnavailable, info.Index)
	}
	dev := devices[info.Index]

	if err := p.open(cfg, fmt.Sprintf("portaudio:%d", info.Index)); err != nil {
		return nil, DeviceInfo{}, err
	}

	params := portaudio.HighLatencyParameters(dev, nil)
	params.Input.Channels = cfg.Channels
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = cfg.ChunkSize

	n := cfg.ChunkSize * cfg.Channels
	var stream *portaudio.Stream
	if cfg.BitDepth == 16 {
		p.buf16, p.buf32 = make([]int16, n), nil
		stream, err = portaudio.OpenStream(params, p.buf16)
	} else {
		p.buf16, p.buf32 = nil, make([]int32, n)
		stream, err = portaudio.OpenStream(params, p.buf32)
	}
	if err != nil {
		p.close()
		return nil, DeviceInfo{}, fmt.Errorf("%w: open stream on %q: %w", audio.ErrDeviceUnavailable, info.Name, err)
	}
	return stream, info, nil
}

func (p *PortAudio) Start() error {
	if err := p.start(); err != nil {
		return err
	}
	if err := p.stream.Start(); err != nil {
		p.mu.Lock()
		p.state = StateOpen
		p.mu.Unlock()
		return fmt.Errorf("%w: start stream: %w", audio.ErrStreamFault, err)
	}
	return nil
}

func (p *PortAudio) ReadChunk() (audio.Frame, error) {
	if err := p.streaming(); err != nil {
		return audio.Frame{}, err
	}

	if err := p.stream.Read(); err != nil {
		if errors.Is(err, portaudio.InputOverflowed) {
			return audio.Frame{}, fmt.Errorf("%w: input overflowed on %q", audio.ErrStreamFault, p.device.Name)
		}
		return audio.Frame{}, fmt.Errorf("%w: read: %w", audio.ErrStreamFault, err)
	}

	var data []byte
	if p.buf16 != nil {
		data = make([]byte, 0, len(p.buf16)*2)
		for _, v := range p.buf16 {
			data = binary.LittleEndian.AppendUint16(data, uint16(v))
		}
	} else {
		data = make([]byte, 0, len(p.buf32)*4)
		for _, v := range p.buf32 {
			data = binary.LittleEndian.AppendUint32(data, uint32(v))
		}
	}
	return p.frame(data), nil
}

func (p *PortAudio) Close() error {
	prev := p.close()
	if prev == StateClosed {
		return nil
	}

	paMu.Lock()
	defer paMu.Unlock()

	var errs []error
	if prev == StateStreaming {
		errs = append(errs, p.stream.Stop())
	}
	errs = append(errs, p.stream.Close(), portaudio.Terminate())
	p.stream = nil
	return errors.Join(errs...)
}
