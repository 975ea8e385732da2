package controller

import "go.uber.org/zap"

// Source yields the samples a device has ready without blocking. An empty
// slice means nothing is pending.
type Source interface {
	Pending() ([]RawSample, error)
}

// Merger drains the motion and input sources into one snapshot.
type Merger struct {
	snap   *Snapshot
	motion Source
	input  Source
	logger *zap.SugaredLogger

	// failing holds the names of sources whose last read failed.
	failing map[string]bool
}

func NewMerger(snap *Snapshot, motion, input Source, logger *zap.SugaredLogger) *Merger {
	return &Merger{
		snap:    snap,
		motion:  motion,
		input:   input,
		logger:  logger,
		failing: make(map[string]bool, 2),
	}
}

// Snapshot returns the snapshot the merger writes to.
func (m *Merger) Snapshot() *Snapshot {
	return m.snap
}

// Tick reads both sources once and reports whether the snapshot changed.
// A failing source counts as having nothing ready this tick. The first
// failure in a run of failures is logged at warn level.
func (m *Merger) Tick() bool {
	return m.snap.Ingest(m.drain(m.motion, "motion"), m.drain(m.input, "input"))
}

func (m *Merger) drain(src Source, name string) []RawSample {
	if src == nil {
		return nil
	}
	samples, err := src.Pending()
	if err != nil {
		if !m.failing[name] {
			m.failing[name] = true
			m.logger.Warnw("source failing", "source", name, "error", err)
		} else {
			m.logger.Debugw("source not ready", "source", name, "error", err)
		}
		return nil
	}
	if m.failing[name] {
		delete(m.failing, name)
		m.logger.Infow("source recovered", "source", name)
	}
	return samples
}
