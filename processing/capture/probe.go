package capture

import (
	"encoding/json"
	"fmt"
	"os/exec"
)

type probeData struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
}

// probeDimensions asks ffprobe for the native size of the first video stream.
// input holds the demuxer flags and the input itself, e.g. "-f", "v4l2", "/dev/video0".
func probeDimensions(input ...string) (int, int, error) {
	args := append([]string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
	}, input...)

	output, err := exec.Command("ffprobe", args...).Output()
	if err != nil {
		var stderr string
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = string(ee.Stderr)
		}
		return 0, 0, classify(err, stderr)
	}

	return parseProbe(output)
}

func parseProbe(output []byte) (int, int, error) {
	var data probeData
	if err := json.Unmarshal(output, &data); err != nil {
		return 0, 0, err
	}

	if len(data.Streams) == 0 {
		return 0, 0, fmt.Errorf("no video streams found")
	}

	w, h := data.Streams[0].Width, data.Streams[0].Height
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid video size %dx%d", w, h)
	}

	return w, h, nil
}
