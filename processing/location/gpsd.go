package location

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"time"

	"geocam/internal/models"
)

const (
	gpsdDialTimeout = 5 * time.Second
	gpsdWatch       = `?WATCH={"enable":true,"json":true};` + "\n"
)

// tpv is the subset of a gpsd Time-Position-Velocity report we need.
type tpv struct {
	Class string  `json:"class"`
	Mode  int     `json:"mode"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// GPSD reads a fix from a gpsd daemon over its JSON socket protocol.
type GPSD struct {
	addr string
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewGPSD(addr string) *GPSD {
	d := &net.Dialer{Timeout: gpsdDialTimeout}
	return &GPSD{addr: addr, dial: d.DialContext}
}

func (g *GPSD) Name() string { return "gpsd" }

func (g *GPSD) Locate(ctx context.Context) (models.Coordinate, error) {
	conn, err := g.dial(ctx, "tcp", g.addr)
	if err != nil {
		return models.Coordinate{}, unavailable("connect gpsd %s: %v", g.addr, err)
	}
	defer conn.Close()

	// Unblock the reader when the caller gives up.
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := io.WriteString(conn, gpsdWatch); err != nil {
		return models.Coordinate{}, unavailable("gpsd watch: %v", err)
	}

	pos, err := readTPV(conn)
	if err != nil {
		if ctx.Err() != nil {
			return models.Coordinate{}, unavailable("no gpsd fix: %v", ctx.Err())
		}
		return models.Coordinate{}, err
	}

	return pos, nil
}

// readTPV scans gpsd reports until one carries a 2D or 3D fix.
func readTPV(r io.Reader) (models.Coordinate, error) {
	sc := bufio.NewScanner(r)

	for sc.Scan() {
		var report tpv
		if err := json.Unmarshal(sc.Bytes(), &report); err != nil {
			continue
		}

		if report.Class != "TPV" || report.Mode < 2 {
			continue
		}

		return models.Coordinate{Lat: report.Lat, Lon: report.Lon}, nil
	}

	err := sc.Err()
	if err == nil {
		err = errors.New("connection closed")
	}
	return models.Coordinate{}, unavailable("gpsd: %v", err)
}
