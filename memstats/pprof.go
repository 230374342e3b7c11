package memstats

import (
	"io"
	"slices"

	"github.com/google/pprof/profile"
)

// WriteProfile drains everything recorded so far and writes it to w as a
// gzip-compressed pprof profile with alloc_objects and alloc_space sample
// types. Like Report, it consumes the drained events. Events recorded
// without stack capture fold into a single locationless sample.
func (e *Engine) WriteProfile(w io.Writer) error {
	e.reportMu.Lock()
	defer e.reportMu.Unlock()
	sum := e.snapshotLocked()
	return e.buildProfile(sum).Write(w)
}

func (e *Engine) buildProfile(sum *Summary) *profile.Profile {
	prof := &profile.Profile{
		DefaultSampleType: "alloc_space",
		SampleType: []*profile.ValueType{
			{Type: "alloc_objects", Unit: "count"},
			{Type: "alloc_space", Unit: "bytes"},
		},
		PeriodType: &profile.ValueType{Type: "space", Unit: "bytes"},
		Period:     1,
	}

	locationMap := make(map[uintptr]*profile.Location)
	functionMap := make(map[string]*profile.Function)
	nextLocationID := uint64(1)
	nextFunctionID := uint64(1)

	locationFor := func(pc uintptr) *profile.Location {
		if loc, ok := locationMap[pc]; ok {
			return loc
		}
		sym := e.sym.lookup(pc)
		fn, ok := functionMap[sym.Name]
		if !ok {
			fn = &profile.Function{
				ID:         nextFunctionID,
				Name:       sym.Name,
				SystemName: sym.Name,
				Filename:   sym.File,
			}
			nextFunctionID++
			functionMap[sym.Name] = fn
			prof.Function = append(prof.Function, fn)
		}
		loc := &profile.Location{
			ID:      nextLocationID,
			Address: uint64(pc),
			Line:    []profile.Line{{Function: fn, Line: int64(sym.Line)}},
		}
		nextLocationID++
		locationMap[pc] = loc
		prof.Location = append(prof.Location, loc)
		return loc
	}

	// One sample per captured stack, in deterministic key order.
	keys := make([]uint64, 0, len(sum.ByStack))
	for key := range sum.ByStack {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	stackedCount, stackedBytes := uint64(0), uint64(0)
	for _, key := range keys {
		ss := sum.ByStack[key]
		locs := make([]*profile.Location, 0, len(ss.Frames))
		for _, pc := range ss.Frames {
			locs = append(locs, locationFor(pc))
		}
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: locs,
			Value:    []int64{int64(ss.Count), int64(ss.TotalSize)},
		})
		stackedCount += ss.Count
		stackedBytes += ss.TotalSize
	}

	// Whatever was recorded without frames still counts.
	if rest := sum.Global.Count - stackedCount; rest > 0 {
		prof.Sample = append(prof.Sample, &profile.Sample{
			Value: []int64{int64(rest), int64(sum.Global.TotalSize - stackedBytes)},
		})
	}
	return prof
}
