package ranking

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tidwall/gjson"
)

// ErrCalibrationFormat is returned for calibration files that are not a
// JSON object or carry non-numeric weights.
var ErrCalibrationFormat = errors.New("malformed calibration file")

// weightFields binds each calibration key to the weight it sets.
var weightFields = []struct {
	key string
	ref func(*Weights) *float64
}{
	{"place", func(w *Weights) *float64 { return &w.Place }},
	{"date", func(w *Weights) *float64 { return &w.Date }},
	{"relatives", func(w *Weights) *float64 { return &w.Relatives }},
	{"name_variant", func(w *Weights) *float64 { return &w.NameVariant }},
}

// Calibration is a parsed calibration document.
//
//	{"version": "2026-03", "weights": {"place": 0.5, "name_variant": 0.05}}
//
// Keys absent from "weights" keep their default. A key that is present
// overrides the default even when it is zero.
type Calibration struct {
	Version string
	Weights Weights
	// Overridden lists the keys the document set, in table order.
	Overridden []string
}

// ParseCalibration reads a calibration document over the default weights.
func ParseCalibration(data []byte) (Calibration, error) {
	if !gjson.ValidBytes(data) {
		return Calibration{}, fmt.Errorf("%w: invalid JSON", ErrCalibrationFormat)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return Calibration{}, fmt.Errorf("%w: top level must be an object", ErrCalibrationFormat)
	}

	cal := Calibration{
		Version: doc.Get("version").String(),
		Weights: DefaultWeights(),
	}
	table := doc.Get("weights")
	for _, f := range weightFields {
		v := table.Get(f.key)
		if !v.Exists() {
			continue
		}
		if v.Type != gjson.Number {
			return Calibration{}, fmt.Errorf("%w: weights.%s is not a number", ErrCalibrationFormat, f.key)
		}
		*f.ref(&cal.Weights) = v.Float()
		cal.Overridden = append(cal.Overridden, f.key)
	}

	if err := cal.Weights.Validate(); err != nil {
		return Calibration{}, err
	}
	return cal, nil
}

// LoadCalibration loads the weight table from a calibration file. An empty
// path yields the defaults without error. On any failure the defaults come
// back together with the error so startup can continue.
func LoadCalibration(path string) (Weights, error) {
	if path == "" {
		return DefaultWeights(), nil
	}

	cal, err := readCalibration(path)
	if err != nil {
		slog.Warn("calibration file not applied, using default weights", "path", path, "error", err)
		return DefaultWeights(), err
	}

	slog.Info("loaded ranking calibration",
		"path", path,
		"version", cal.Version,
		"overridden", cal.Overridden,
		"max_score", cal.Weights.Sum())
	return cal.Weights, nil
}

func readCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Calibration{}, fmt.Errorf("read calibration: %w", err)
	}
	return ParseCalibration(data)
}
