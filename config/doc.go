// SPDX-License-Identifier: EPL-2.0

// Package config loads the settings of the psyplay command and the
// playlists it plays.
//
// Settings come from a YAML, TOML or JSON file read with viper, with
// defaults for every key and PSYAUDIO_ prefixed environment overrides, for
// example PSYAUDIO_DEVICE_SAMPLERATE=44100. A playlist is a YAML list of
// stimuli:
//
//	stimuli:
//	  - kind: wave
//	    form: sine
//	    freq: 1000
//	    volume: 0.3
//	    onset_ms: 500
//	    duration_ms: 200
//	    trigger_mask: 1
//	  - kind: file
//	    path: word.wav
//	    onset_ms: 1500
package config
