// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"math"
)

// ChannelStrategy selects how NewChannelMapWithStrategy fills a map.
type ChannelStrategy uint

const (
	// StrategyCustom marks a map that is built by hand.
	StrategyCustom ChannelStrategy = 1 << iota
	// StrategyDuplicateInputs routes source channels round-robin onto the
	// sinks that have no source of their own.
	StrategyDuplicateInputs
	// StrategyMixTrailingInputs mixes the source channels without a sink of
	// their own round-robin into the sinks.
	StrategyMixTrailingInputs

	// StrategyDefault duplicates mono material onto every sink.
	StrategyDefault = StrategyDuplicateInputs

	strategyMask = StrategyDuplicateInputs | StrategyMixTrailingInputs
)

// ChannelMapping routes Source into Sink. Several mappings may share a sink;
// their contributions are summed.
type ChannelMapping struct {
	Sink   int
	Source int
}

// ChannelMap is the routing table from the channels of a stimulus to the
// channels of a device.
type ChannelMap struct {
	numSink   int
	numSource int
	strategy  ChannelStrategy
	mappings  []ChannelMapping
}

// NewChannelMap returns an empty map for numSink device channels and
// numSource stimulus channels.
func NewChannelMap(numSink, numSource int) (*ChannelMap, error) {
	if numSink <= 0 || numSink >= math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d sink channels", ErrInvalidChannels, numSink)
	}
	if numSource <= 0 || numSource >= math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d source channels", ErrInvalidChannels, numSource)
	}

	return &ChannelMap{
		numSink:   numSink,
		numSource: numSource,
		strategy:  StrategyCustom,
	}, nil
}

// NewChannelMapWithStrategy returns a map filled according to strategy. The
// StrategyCustom bit is ignored.
func NewChannelMapWithStrategy(numSink, numSource int, strategy ChannelStrategy) (*ChannelMap, error) {
	m, err := NewChannelMap(numSink, numSource)
	if err != nil {
		return nil, err
	}
	m.SetStrategy(strategy)
	return m, nil
}

// SetStrategy replaces all mappings. Channels 0..min(sink, source) map onto
// each other; the remaining channels are handled as strategy requests.
// StrategyCustom cannot be requested; its bit is dropped and SetStrategy
// reports false.
func (m *ChannelMap) SetStrategy(strategy ChannelStrategy) bool {
	ok := strategy&StrategyCustom == 0
	m.strategy = strategy & strategyMask
	m.mappings = m.mappings[:0]

	for i := range min(m.numSink, m.numSource) {
		m.mappings = append(m.mappings, ChannelMapping{Sink: i, Source: i})
	}

	if m.numSource < m.numSink && m.strategy&StrategyDuplicateInputs != 0 {
		for i := m.numSource; i < m.numSink; i++ {
			m.mappings = append(m.mappings, ChannelMapping{Sink: i, Source: i % m.numSource})
		}
	}

	if m.numSink < m.numSource && m.strategy&StrategyMixTrailingInputs != 0 {
		for i := m.numSink; i < m.numSource; i++ {
			m.mappings = append(m.mappings, ChannelMapping{Sink: i % m.numSink, Source: i})
		}
	}
	return ok
}

func (m *ChannelMap) Strategy() ChannelStrategy { return m.strategy }
func (m *ChannelMap) NumSinkChannels() int      { return m.numSink }
func (m *ChannelMap) NumSourceChannels() int    { return m.numSource }
func (m *ChannelMap) Len() int                  { return len(m.mappings) }

func (m *ChannelMap) valid(mapping ChannelMapping) bool {
	return mapping.Sink >= 0 && mapping.Sink < m.numSink &&
		mapping.Source >= 0 && mapping.Source < m.numSource
}

// Add appends mapping. It reports false and leaves the map alone when the
// mapping is out of bounds.
func (m *ChannelMap) Add(mapping ChannelMapping) bool {
	if !m.valid(mapping) {
		return false
	}
	m.mappings = append(m.mappings, mapping)
	return true
}

// Set replaces the mapping at index.
func (m *ChannelMap) Set(index int, mapping ChannelMapping) bool {
	if index < 0 || index >= len(m.mappings) || !m.valid(mapping) {
		return false
	}
	m.mappings[index] = mapping
	return true
}

// Mapping returns a copy of the mapping at index.
func (m *ChannelMap) Mapping(index int) (ChannelMapping, bool) {
	if index < 0 || index >= len(m.mappings) {
		return ChannelMapping{}, false
	}
	return m.mappings[index], true
}

// Mappings returns a copy of all mappings.
func (m *ChannelMap) Mappings() []ChannelMapping {
	return append([]ChannelMapping(nil), m.mappings...)
}

func (m *ChannelMap) Clone() *ChannelMap {
	return &ChannelMap{
		numSink:   m.numSink,
		numSource: m.numSource,
		strategy:  m.strategy,
		mappings:  m.Mappings(),
	}
}

// Apply adds src, numFrames frames of NumSourceChannels interleaved samples,
// into dst, which holds NumSinkChannels interleaved samples per frame.
func (m *ChannelMap) Apply(dst, src []float32, numFrames int) {
	for _, mp := range m.mappings {
		in, out := mp.Source, mp.Sink
		for f := 0; f < numFrames; f++ {
			dst[f*m.numSink+out] += src[f*m.numSource+in]
		}
	}
}

func (s ChannelStrategy) String() string {
	switch s {
	case 0:
		return "none"
	case StrategyCustom:
		return "custom"
	case StrategyDuplicateInputs:
		return "duplicate-inputs"
	case StrategyMixTrailingInputs:
		return "mix-trailing-inputs"
	case StrategyDuplicateInputs | StrategyMixTrailingInputs:
		return "duplicate-inputs|mix-trailing-inputs"
	}
	return fmt.Sprintf("strategy(%d)", uint(s))
}
