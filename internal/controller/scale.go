package controller

import "github.com/pkg/errors"

// MaxValue is the largest value a control-change message can carry.
const MaxValue = 127

// ErrEmptyRange is returned when an input range has min >= max.
var ErrEmptyRange = errors.New("input range is empty")

// Range is a configured raw input range for a group of axes.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Validate reports whether the range can be scaled against.
func (r Range) Validate() error {
	if r.Min >= r.Max {
		return errors.Wrapf(ErrEmptyRange, "min %d >= max %d", r.Min, r.Max)
	}
	return nil
}

// Scale converts a raw sample to 0..127, truncating toward zero and
// clamping samples that fall outside the range. r must be valid.
func (r Range) Scale(raw int) int {
	v := (int64(raw) - int64(r.Min)) * MaxValue / (int64(r.Max) - int64(r.Min))
	if v < 0 {
		return 0
	}
	if v > MaxValue {
		return MaxValue
	}
	return int(v)
}

// Scale converts raw from [lo, hi] to 0..127.
func Scale(raw, lo, hi int) (int, error) {
	r := Range{Min: lo, Max: hi}
	if err := r.Validate(); err != nil {
		return 0, err
	}
	return r.Scale(raw), nil
}
