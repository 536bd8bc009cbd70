package capture

import (
	"errors"
	"testing"

	"github.com/linuxmatters/melcap/internal/audio"
)

var testDevices = []DeviceInfo{
	{Index: 0, Name: "HDA Intel PCH: ALC3246 Analog", MaxInputChannels: 2, DefaultSampleRate: 44100, Default: true},
	{Index: 1, Name: "ReSpeaker 4 Mic Array (UAC1.0): USB Audio", MaxInputChannels: 6, DefaultSampleRate: 16000},
	{Index: 2, Name: "HDMI 0", MaxInputChannels: 0, DefaultSampleRate: 48000},
	{Index: 3, Name: "ReSpeaker 4 Mic Array (UAC1.0) firmware 1ch", MaxInputChannels: 1, DefaultSampleRate: 16000},
}

func TestResolveDevice(t *testing.T) {
	testCases := []struct {
		name      string
		id        string
		channels  int
		wantIndex int
		wantErr   error
	}{
		{name: "default device", id: "", channels: 1, wantIndex: 0},
		{name: "numeric index", id: "1", channels: 6, wantIndex: 1},
		{name: "numeric with spaces", id: " 3 ", channels: 1, wantIndex: 3},
		{name: "name substring", id: "respeaker", channels: 6, wantIndex: 1},
		{name: "name prefers enough channels", id: "firmware", channels: 1, wantIndex: 3},
		{name: "output-only device", id: "2", channels: 1, wantErr: audio.ErrDeviceUnavailable},
		{name: "unknown index", id: "42", channels: 1, wantErr: audio.ErrDeviceUnavailable},
		{name: "unknown name", id: "Blue Yeti", channels: 1, wantErr: audio.ErrDeviceUnavailable},
		{name: "too many channels by index", id: "0", channels: 6, wantErr: audio.ErrChannelMismatch},
		{name: "too many channels by name", id: "firmware", channels: 6, wantErr: audio.ErrChannelMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveDevice(testDevices, tc.id, tc.channels)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v (device %v)", tc.wantErr, err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveDevice: %v", err)
			}
			if got.Index != tc.wantIndex {
				t.Errorf("resolved %v, want index %d", got, tc.wantIndex)
			}
		})
	}
}

func TestResolveDevice_NoDefault(t *testing.T) {
	_, err := ResolveDevice(testDevices[1:], "", 1)
	if !errors.Is(err, audio.ErrDeviceUnavailable) {
		t.Errorf("expected ErrDeviceUnavailable, got %v", err)
	}
}
