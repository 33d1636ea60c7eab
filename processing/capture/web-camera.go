package capture

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"geocam/internal/models"
)

const bytesPerPixel = 4

type FFmpegWebcamStreamer struct {
	stopOnce sync.Once
	waitOnce sync.Once

	deviceName string
	width      int
	height     int
	targetFPS  uint

	cmd       *exec.Cmd
	stderr    bytes.Buffer
	frameChan chan image.Image
	errChan   chan error

	stopChan chan struct{}
}

// NewFFmpegWebcam prepares a video-only capture of deviceName. A zero width
// or height captures at the device's native resolution.
func NewFFmpegWebcam(deviceName string, targetFps uint, width int, height int) (*FFmpegWebcamStreamer, error) {
	if width == 0 || height == 0 {
		w, h, err := probeDimensions(inputArgs(runtime.GOOS, deviceName)...)
		if err != nil {
			return nil, err
		}
		width, height = w, h
	}

	return &FFmpegWebcamStreamer{
		deviceName: deviceName,
		width:      width,
		height:     height,
		targetFPS:  targetFps,

		frameChan: make(chan image.Image, 1),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
	}, nil
}

func inputArgs(goos, device string) []string {
	switch goos {
	case "windows":
		return []string{"-f", "dshow", "-i", fmt.Sprintf("video=%s", device)}
	case "darwin":
		// avfoundation takes "<video>:<audio>"; "none" keeps the capture video only.
		return []string{"-f", "avfoundation", "-i", device + ":none"}
	default:
		return []string{"-f", "v4l2", "-i", device}
	}
}

func ffmpegFilter(fps uint, width, height int) string {
	filter := fmt.Sprintf("scale=%d:%d", width, height)
	if fps > 0 {
		filter = fmt.Sprintf("fps=%d,%s", fps, filter)
	}
	return filter
}

func ffmpegArgs(goos, device string, fps uint, width, height int) []string {
	args := inputArgs(goos, device)
	return append(args,
		"-an",
		"-vf", ffmpegFilter(fps, width, height),
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	)
}

func (ws *FFmpegWebcamStreamer) Start() error {
	ws.cmd = exec.Command("ffmpeg", ffmpegArgs(runtime.GOOS, ws.deviceName, ws.targetFPS, ws.width, ws.height)...)
	ws.cmd.Stderr = &ws.stderr

	stdout, err := ws.cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := ws.cmd.Start(); err != nil {
		return classify(err, "")
	}

	go ws.readLoop(stdout)

	return nil
}

func (ws *FFmpegWebcamStreamer) readLoop(stdout io.ReadCloser) {
	defer close(ws.frameChan)
	defer close(ws.errChan)
	defer stdout.Close()
	defer ws.stopCmdOut()

	frameSize := ws.width * ws.height * bytesPerPixel
	buffer := make([]byte, frameSize)

	for {
		select {
		case <-ws.stopChan:
			return

		default:
			_, err := io.ReadFull(stdout, buffer)
			if err != nil {
				select {
				case <-ws.stopChan:
					return
				default:
					// ffmpeg has exited or closed stdout; its stderr is complete after Wait.
					ws.waitCmd()
					ws.errChan <- classify(err, ws.stderr.String())
					return
				}
			}

			pixelData := make([]byte, len(buffer))
			copy(pixelData, buffer)

			img := &image.RGBA{
				Pix:    pixelData,
				Stride: ws.width * bytesPerPixel,
				Rect:   image.Rect(0, 0, ws.width, ws.height),
			}

			select {
			case ws.frameChan <- img:
			default:
			}
		}
	}
}

func (ws *FFmpegWebcamStreamer) waitCmd() {
	ws.waitOnce.Do(func() {
		ws.cmd.Wait()
	})
}

func (ws *FFmpegWebcamStreamer) stopCmdOut() {
	if ws.cmd != nil && ws.cmd.Process != nil {
		ws.cmd.Process.Kill()
		ws.waitCmd()
	}
}

func (ws *FFmpegWebcamStreamer) Stop() {
	ws.stopOnce.Do(func() {
		close(ws.stopChan)
		ws.stopCmdOut()
	})
}

func (ws *FFmpegWebcamStreamer) FrameChan() <-chan image.Image { return ws.frameChan }
func (ws *FFmpegWebcamStreamer) ErrorChan() <-chan error       { return ws.errChan }
func (ws *FFmpegWebcamStreamer) Size() image.Point             { return image.Pt(ws.width, ws.height) }

var dshowDevice = regexp.MustCompile(`"([^"]+)"\s+\(video\)`)

// avfoundation lists "[AVFoundation indev @ 0x...] [0] FaceTime HD Camera".
var avfDevice = regexp.MustCompile(`\]\s+\[(\d+)\]\s+(.+)`)

// ListCameras returns the video devices ffmpeg can open on this platform.
func ListCameras() ([]string, error) {
	switch runtime.GOOS {
	case "windows":
		return parseDShowDevices(listDevicesOutput("-f", "dshow", "-i", "dummy")), nil
	case "darwin":
		return parseAVFoundationDevices(listDevicesOutput("-f", "avfoundation", "-i", "")), nil
	default:
		return listV4L2Devices()
	}
}

func listDevicesOutput(args ...string) string {
	cmd := exec.Command("ffmpeg", append([]string{"-hide_banner", "-list_devices", "true"}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Run()
	return stderr.String()
}

func parseDShowDevices(output string) []string {
	var cameras []string
	seen := make(map[string]bool)

	for _, m := range dshowDevice.FindAllStringSubmatch(output, -1) {
		name := m[1]
		if name != "dummy" && !seen[name] {
			cameras = append(cameras, name)
			seen[name] = true
		}
	}

	return cameras
}

func parseAVFoundationDevices(output string) []string {
	var cameras []string

	// Only the section before the audio device list describes video devices.
	if i := strings.Index(output, "audio devices"); i >= 0 {
		output = output[:i]
	}

	for _, m := range avfDevice.FindAllStringSubmatch(output, -1) {
		cameras = append(cameras, m[1])
	}

	return cameras
}

func listV4L2Devices() ([]string, error) {
	matches, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDeviceUnavailable, err)
	}
	return matches, nil
}
