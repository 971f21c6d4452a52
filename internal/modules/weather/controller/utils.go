package controller

import (
	"errors"
	"math"
	"net/http"
	"strconv"
)

// parseCoordinates reads the {lat} and {lon} path values as decimal degrees.
func parseCoordinates(r *http.Request) (lat, lon float64, err error) {
	lat, err = parseDegrees(r.PathValue("lat"), 90)
	if err != nil {
		return 0, 0, errors.New("invalid 'lat' (expected decimal degrees between -90 and 90)")
	}
	lon, err = parseDegrees(r.PathValue("lon"), 180)
	if err != nil {
		return 0, 0, errors.New("invalid 'lon' (expected decimal degrees between -180 and 180)")
	}
	return lat, lon, nil
}

func parseDegrees(s string, limit float64) (float64, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.Abs(v) > limit {
		return 0, errors.New("out of range")
	}
	return v, nil
}
