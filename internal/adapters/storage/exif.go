package storage

import (
	"errors"
	"fmt"
	"io"

	"github.com/rwcarlsen/goexif/exif"
)

// ErrNoGPS is returned when a photo carries no usable GPS position.
var ErrNoGPS = errors.New("photo has no GPS position")

// ReadGPS decodes the EXIF block of a JPEG or TIFF photo and returns its
// latitude and longitude in decimal degrees.
func ReadGPS(r io.Reader) (lat, lon float64, err error) {
	x, err := exif.Decode(r)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNoGPS, err)
	}
	lat, lon, err = x.LatLong()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNoGPS, err)
	}
	if lat == 0 && lon == 0 {
		return 0, 0, ErrNoGPS
	}
	return lat, lon, nil
}
