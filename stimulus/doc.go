// SPDX-License-Identifier: EPL-2.0

// Package stimulus provides the sources client code plays through a
// playback.Stimulus: generated waveforms and decoded audio files.
//
// A Wave adopts the channel count and sample rate of the device it is played
// on, so one instance works for any output layout:
//
//	tone := playback.NewStimulus(stimulus.NewWave(
//	    stimulus.WithForm(stimulus.FormSine),
//	    stimulus.WithFrequency(1000),
//	    stimulus.WithVolume(0.25),
//	))
//	_ = tone.SetDevice(dev)
//	_ = tone.PlayFor(onset, timing.NewDurationUs(50_000))
//
// A File keeps the channels of the file and is resampled to the device rate
// when the two differ. Without an explicit duration it plays to its end:
//
//	f, err := stimulus.OpenFile("stimuli/word.wav", stimulus.WithQuality(5))
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//	word := playback.NewStimulus(f)
package stimulus
