// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"slices"
	"testing"
)

func TestNewChannelMap_InvalidCounts(t *testing.T) {
	t.Parallel()

	for _, c := range [][2]int{{0, 1}, {1, 0}, {-2, 2}, {2, 1 << 31}} {
		if _, err := NewChannelMap(c[0], c[1]); !errors.Is(err, ErrInvalidChannels) {
			t.Errorf("NewChannelMap(%d, %d) error = %v", c[0], c[1], err)
		}
	}
}

func TestNewChannelMap_IsCustomAndEmpty(t *testing.T) {
	t.Parallel()

	m, err := NewChannelMap(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if m.Strategy() != StrategyCustom || m.Len() != 0 {
		t.Errorf("Strategy() = %v, Len() = %d", m.Strategy(), m.Len())
	}
}

func TestChannelMap_Strategies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		sink, src int
		strategy  ChannelStrategy
		want      []ChannelMapping
	}{
		{"mono to stereo default", 2, 1, StrategyDefault, []ChannelMapping{{0, 0}, {1, 0}}},
		{"stereo to mono mix", 1, 2, StrategyMixTrailingInputs, []ChannelMapping{{0, 0}, {0, 1}}},
		{"stereo to mono default", 1, 2, StrategyDefault, []ChannelMapping{{0, 0}}},
		{"stereo to stereo", 2, 2, StrategyDefault, []ChannelMapping{{0, 0}, {1, 1}}},
		{"stereo to 5 duplicate", 5, 2, StrategyDuplicateInputs,
			[]ChannelMapping{{0, 0}, {1, 1}, {2, 0}, {3, 1}, {4, 0}}},
		{"5 to stereo mix", 2, 5, StrategyMixTrailingInputs,
			[]ChannelMapping{{0, 0}, {1, 1}, {0, 2}, {1, 3}, {0, 4}}},
		{"mono to stereo no strategy", 2, 1, 0, []ChannelMapping{{0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := NewChannelMapWithStrategy(tt.sink, tt.src, tt.strategy)
			if err != nil {
				t.Fatal(err)
			}
			if got := m.Mappings(); !slices.Equal(got, tt.want) {
				t.Errorf("Mappings() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChannelMap_CustomBitIsMasked(t *testing.T) {
	t.Parallel()

	m, _ := NewChannelMapWithStrategy(2, 1, StrategyCustom|StrategyDuplicateInputs)
	if m.Strategy() != StrategyDuplicateInputs {
		t.Errorf("Strategy() = %v, want duplicate-inputs", m.Strategy())
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}

	if m.SetStrategy(StrategyCustom | StrategyDefault) {
		t.Error("SetStrategy() with the custom bit reported true")
	}
	if m.Strategy() != StrategyDefault {
		t.Errorf("Strategy() = %v, want default", m.Strategy())
	}
	if !m.SetStrategy(StrategyDuplicateInputs) {
		t.Error("SetStrategy(duplicate-inputs) reported false")
	}
}

func TestChannelMap_SetStrategyClears(t *testing.T) {
	t.Parallel()

	m, _ := NewChannelMap(2, 2)
	m.Add(ChannelMapping{Sink: 0, Source: 1})
	m.Add(ChannelMapping{Sink: 1, Source: 0})
	m.SetStrategy(StrategyDefault)

	if got := m.Mappings(); !slices.Equal(got, []ChannelMapping{{0, 0}, {1, 1}}) {
		t.Errorf("Mappings() = %v", got)
	}
}

func TestChannelMap_AddSetBounds(t *testing.T) {
	t.Parallel()

	m, _ := NewChannelMap(2, 1)
	if !m.Add(ChannelMapping{Sink: 1, Source: 0}) {
		t.Error("Add() of valid mapping failed")
	}
	if m.Add(ChannelMapping{Sink: 2, Source: 0}) {
		t.Error("Add() accepted sink out of range")
	}
	if m.Add(ChannelMapping{Sink: 0, Source: 1}) {
		t.Error("Add() accepted source out of range")
	}
	if m.Add(ChannelMapping{Sink: -1, Source: 0}) {
		t.Error("Add() accepted negative sink")
	}
	if m.Set(1, ChannelMapping{}) {
		t.Error("Set() accepted index out of range")
	}
	if !m.Set(0, ChannelMapping{Sink: 0, Source: 0}) {
		t.Error("Set() of valid mapping failed")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestChannelMap_MappingIsCopy(t *testing.T) {
	t.Parallel()

	m, _ := NewChannelMapWithStrategy(2, 1, StrategyDefault)
	got, ok := m.Mapping(1)
	if !ok || got != (ChannelMapping{Sink: 1, Source: 0}) {
		t.Fatalf("Mapping(1) = %v, %v", got, ok)
	}
	got.Sink = 0

	again, _ := m.Mapping(1)
	if again.Sink != 1 {
		t.Error("Mapping() aliases internal storage")
	}

	all := m.Mappings()
	all[0].Source = 5
	if first, _ := m.Mapping(0); first.Source != 0 {
		t.Error("Mappings() aliases internal storage")
	}

	if _, ok := m.Mapping(7); ok {
		t.Error("Mapping(7) reported ok")
	}
}

func TestChannelMap_Clone(t *testing.T) {
	t.Parallel()

	m, _ := NewChannelMapWithStrategy(3, 2, StrategyDuplicateInputs)
	c := m.Clone()
	if c.NumSinkChannels() != 3 || c.NumSourceChannels() != 2 {
		t.Errorf("Clone() channels = %d/%d", c.NumSinkChannels(), c.NumSourceChannels())
	}
	c.Add(ChannelMapping{Sink: 2, Source: 1})
	if m.Len() == c.Len() {
		t.Error("Clone() shares mappings with the original")
	}
}

func TestChannelMap_Apply(t *testing.T) {
	t.Parallel()

	m, _ := NewChannelMapWithStrategy(1, 2, StrategyMixTrailingInputs)
	src := []float32{0.25, 0.5, 0.125, 0.125}
	dst := []float32{1, 0}
	m.Apply(dst, src, 2)

	if !slices.Equal(dst, []float32{1.75, 0.25}) {
		t.Errorf("Apply() = %v", dst)
	}
}
