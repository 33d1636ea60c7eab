package location

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"geocam/internal/models"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// NMEA reads a fix from a GPS receiver on a serial port.
type NMEA struct {
	port string
	baud int
	open func(port string, mode *serial.Mode) (io.ReadCloser, error)
}

func NewNMEA(port string, baud int) *NMEA {
	return &NMEA{
		port: port,
		baud: baud,
		open: func(port string, mode *serial.Mode) (io.ReadCloser, error) {
			return serial.Open(port, mode)
		},
	}
}

func (n *NMEA) Name() string { return "nmea" }

func (n *NMEA) Locate(ctx context.Context) (models.Coordinate, error) {
	conn, err := n.open(n.port, &serial.Mode{BaudRate: n.baud})
	if err != nil {
		return models.Coordinate{}, unavailable("open %s: %v", n.port, err)
	}

	// Closing the port is the only way to interrupt a blocked serial read.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		if stop() {
			conn.Close()
		}
	}()

	pos, err := readFix(conn)
	if err != nil {
		if ctx.Err() != nil {
			return models.Coordinate{}, unavailable("no fix from %s: %v", n.port, ctx.Err())
		}
		return models.Coordinate{}, err
	}

	return pos, nil
}

// readFix scans NMEA sentences until a valid RMC or GGA position arrives.
func readFix(r io.Reader) (models.Coordinate, error) {
	sc := bufio.NewScanner(r)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}

		s, err := nmea.Parse(line)
		if err != nil {
			log.Debug().Err(err).Str("sentence", line).Msg("skipping nmea sentence")
			continue
		}

		switch m := s.(type) {
		case nmea.RMC:
			if m.Validity == nmea.ValidRMC {
				return models.Coordinate{Lat: m.Latitude, Lon: m.Longitude}, nil
			}
		case nmea.GGA:
			if m.FixQuality != nmea.Invalid {
				return models.Coordinate{Lat: m.Latitude, Lon: m.Longitude}, nil
			}
		}
	}

	err := sc.Err()
	if err == nil {
		err = errors.New("port closed")
	}
	return models.Coordinate{}, unavailable("nmea: %v", err)
}
