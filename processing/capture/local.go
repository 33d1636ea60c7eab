package capture

import (
	"bytes"
	"image"
	"io"
	"os/exec"
	"sync"
	"time"
)

// LocalFileStreamer plays a video file as if it were a camera, paced to the
// target FPS. Useful on machines without a camera and for demos.
type LocalFileStreamer struct {
	stopOnce sync.Once
	waitOnce sync.Once

	path      string
	targetFPS uint

	width  int
	height int

	cmd       *exec.Cmd
	stderr    bytes.Buffer
	frameChan chan image.Image
	errChan   chan error
	stopChan  chan struct{}
}

func NewLocalStreamer(path string, targetFPS uint, width int, height int) (*LocalFileStreamer, error) {
	if width == 0 || height == 0 {
		w, h, err := probeDimensions(path)
		if err != nil {
			return nil, err
		}
		width, height = w, h
	}

	if targetFPS == 0 {
		targetFPS = standardFPS
	}

	return &LocalFileStreamer{
		path:      path,
		targetFPS: targetFPS,
		width:     width,
		height:    height,
		frameChan: make(chan image.Image, 10),
		errChan:   make(chan error, 1),
		stopChan:  make(chan struct{}),
	}, nil
}

const standardFPS uint = 30

func (ls *LocalFileStreamer) Start() error {
	args := []string{
		"-stream_loop", "-1",
		"-i", ls.path,
		"-an",
		"-vf", ffmpegFilter(ls.targetFPS, ls.width, ls.height),
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	}

	ls.cmd = exec.Command("ffmpeg", args...)
	ls.cmd.Stderr = &ls.stderr

	stdout, err := ls.cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := ls.cmd.Start(); err != nil {
		return classify(err, "")
	}

	go ls.readFrames(stdout)

	return nil
}

func (ls *LocalFileStreamer) readFrames(stdout io.ReadCloser) {
	defer close(ls.frameChan)
	defer close(ls.errChan)
	defer stdout.Close()
	defer ls.stopCmdOut()

	frameSize := ls.width * ls.height * bytesPerPixel
	buffer := make([]byte, frameSize)

	ticker := time.NewTicker(time.Second / time.Duration(ls.targetFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ls.stopChan:
			return

		case <-ticker.C:
			_, err := io.ReadFull(stdout, buffer)
			if err != nil {
				select {
				case <-ls.stopChan:
					return
				default:
					ls.waitCmd()
					ls.errChan <- classify(err, ls.stderr.String())
					return
				}
			}

			pixelData := make([]byte, len(buffer))
			copy(pixelData, buffer)

			img := &image.RGBA{
				Pix:    pixelData,
				Stride: ls.width * bytesPerPixel,
				Rect:   image.Rect(0, 0, ls.width, ls.height),
			}

			select {
			case ls.frameChan <- img:
			case <-ls.stopChan:
				return
			}
		}
	}
}

func (ls *LocalFileStreamer) waitCmd() {
	ls.waitOnce.Do(func() {
		ls.cmd.Wait()
	})
}

func (ls *LocalFileStreamer) stopCmdOut() {
	if ls.cmd != nil && ls.cmd.Process != nil {
		ls.cmd.Process.Kill()
		ls.waitCmd()
	}
}

func (ls *LocalFileStreamer) Stop() {
	ls.stopOnce.Do(func() {
		close(ls.stopChan)
		ls.stopCmdOut()
	})
}

func (ls *LocalFileStreamer) FrameChan() <-chan image.Image {
	return ls.frameChan
}

func (ls *LocalFileStreamer) ErrorChan() <-chan error {
	return ls.errChan
}

func (ls *LocalFileStreamer) Size() image.Point {
	return image.Pt(ls.width, ls.height)
}
