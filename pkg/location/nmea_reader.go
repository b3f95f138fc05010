package location

import (
	"bufio"
	"io"
	"strings"

	"github.com/adrianmo/go-nmea"
)

const knotsToMetresPerSecond = 0.514444

// ReadFix scans NMEA sentences from r until it finds a valid GGA or RMC fix.
// Lines that are not NMEA or fail to parse are skipped.
func ReadFix(r io.Reader) (Location, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			continue
		}

		if loc, ok := fixFromSentence(sentence); ok {
			return loc, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return Location{}, err
	}

	return Location{}, ErrNoFix
}

func fixFromSentence(sentence nmea.Sentence) (Location, bool) {
	switch s := sentence.(type) {
	case nmea.GGA:
		if s.FixQuality == nmea.Invalid {
			return Location{}, false
		}
		altitude := s.Altitude
		return Location{
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			Accuracy:  s.HDOP, // Use HDOP as a proxy for accuracy
			Altitude:  &altitude,
		}, true

	case nmea.RMC:
		if s.Validity != nmea.ValidRMC {
			return Location{}, false
		}
		speed := s.Speed * knotsToMetresPerSecond
		heading := s.Course
		return Location{
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
			Speed:     &speed,
			Heading:   &heading,
		}, true
	}

	return Location{}, false
}
