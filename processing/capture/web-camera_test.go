package capture

import (
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"geocam/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFFmpegArgs(t *testing.T) {
	args := ffmpegArgs("linux", "/dev/video0", 24, 640, 480)

	assert.Equal(t, []string{
		"-f", "v4l2", "-i", "/dev/video0",
		"-an",
		"-vf", "fps=24,scale=640:480",
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	}, args)
}

func TestInputArgs(t *testing.T) {
	assert.Equal(t, []string{"-f", "dshow", "-i", "video=Integrated Camera"}, inputArgs("windows", "Integrated Camera"))
	assert.Equal(t, []string{"-f", "avfoundation", "-i", "0:none"}, inputArgs("darwin", "0"))
}

func TestFFmpegFilter_NoFPS(t *testing.T) {
	assert.Equal(t, "scale=320:240", ffmpegFilter(0, 320, 240))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		stderr string
		want   error
	}{
		{"permission", errors.New("EOF"), "[video4linux2] Cannot open video device /dev/video0: Permission denied", models.ErrPermissionDenied},
		{"macos consent", errors.New("EOF"), "Failed to create AV capture input device: not authorized", models.ErrPermissionDenied},
		{"missing device", errors.New("EOF"), "/dev/video9: No such file or directory", models.ErrDeviceUnavailable},
		{"busy", errors.New("EOF"), "Device or resource busy", models.ErrDeviceUnavailable},
		{"missing ffmpeg", fmt.Errorf("start: %w", exec.ErrNotFound), "", models.ErrDeviceUnavailable},
		{"no stderr", errors.New("unexpected EOF"), "", models.ErrDeviceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.err, tt.stderr), tt.want)
		})
	}
}

func TestClassify_ReasonIsLastStderrLine(t *testing.T) {
	err := classify(errors.New("EOF"), "ffmpeg version 6\nInput #0\n/dev/video0: Device or resource busy\n")
	assert.Contains(t, err.Error(), "/dev/video0: Device or resource busy")
	assert.NotContains(t, err.Error(), "ffmpeg version")
}

func TestParseProbe(t *testing.T) {
	w, h, err := parseProbe([]byte(`{"programs":[],"streams":[{"width":1280,"height":720}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)

	_, _, err = parseProbe([]byte(`{"streams":[]}`))
	assert.Error(t, err)

	_, _, err = parseProbe([]byte(`{"streams":[{"width":0,"height":0}]}`))
	assert.Error(t, err)
}

func TestParseDShowDevices(t *testing.T) {
	out := `[dshow @ 000001] "Integrated Camera" (video)
[dshow @ 000001]   Alternative name "@device_pnp_\\?\usb"
[dshow @ 000001] "Microphone (Realtek)" (audio)
[dshow @ 000001] "Integrated Camera" (video)
[dshow @ 000001] "OBS Virtual Camera" (video)`

	assert.Equal(t, []string{"Integrated Camera", "OBS Virtual Camera"}, parseDShowDevices(out))
}

func TestParseAVFoundationDevices(t *testing.T) {
	out := `[AVFoundation indev @ 0x7f8] AVFoundation video devices:
[AVFoundation indev @ 0x7f8] [0] FaceTime HD Camera
[AVFoundation indev @ 0x7f8] [1] Capture screen 0
[AVFoundation indev @ 0x7f8] AVFoundation audio devices:
[AVFoundation indev @ 0x7f8] [0] MacBook Pro Microphone`

	assert.Equal(t, []string{"0", "1"}, parseAVFoundationDevices(out))
}
