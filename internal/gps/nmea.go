// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

// Parser folds NMEA sentences into a running Fix.
// RMC completes a fix; GGA only enriches the next one.
type Parser struct {
	current Fix
}

// Feed parses one line. It returns the updated fix and true when the line was
// an RMC sentence. Blank lines, non-NMEA noise and unsupported sentence types
// are ignored; checksum and syntax errors are returned.
func (p *Parser) Feed(line string) (Fix, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return p.current, false, nil
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return p.current, false, fmt.Errorf("nmea parse: %w", err)
	}

	switch sentence.DataType() {
	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		p.current.Time = m.Time.String()
		p.current.Date = m.Date.String()
		p.current.Latitude = m.Latitude
		p.current.Longitude = m.Longitude
		p.current.SpeedKnots = m.Speed
		p.current.CourseDeg = m.Course
		p.current.Validity = m.Validity
		return p.current, true, nil
	case nmea.TypeGGA:
		m := sentence.(nmea.GGA)
		p.current.FixQuality = m.FixQuality
		p.current.Satellites = m.NumSatellites
		p.current.AltitudeM = m.Altitude
	}
	return p.current, false, nil
}

// Current returns the fix accumulated so far.
func (p *Parser) Current() Fix {
	return p.current
}

// ReadFixes scans r line by line and calls handle for every completed fix.
// Parse errors are passed to onError (when non-nil) and skipped, since GPS
// receivers emit partial sentences on startup. It returns when r does.
func ReadFixes(r io.Reader, handle func(Fix), onError func(error)) error {
	var p Parser
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fix, done, err := p.Feed(scanner.Text())
		if err != nil {
			if onError != nil {
				onError(err)
			}
			continue
		}
		if done {
			handle(fix)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("gps read: %w", err)
	}
	return nil
}
