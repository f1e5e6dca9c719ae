// SPDX-License-Identifier: EPL-2.0

// Package trigger sends time locked pulses over a parallel port, typically
// to mark stimulus onsets in EEG or MEG recordings.
//
// A ParallelTrigger waits for a start time on the clock of the audio device,
// raises the pins of a mask, keeps them up for a duration and lowers them
// again:
//
//	trig := trigger.New(trigger.WithClock(dev.Clock()))
//	if err := trig.Open(0); err != nil {
//	    return err
//	}
//	defer trig.Close()
//	go trig.Write(ctx, 0x01, onset, timing.NewDurationUs(5000))
//
// The Linux implementation drives /dev/parportN through the ppdev ioctls.
// Other platforms return ErrUnsupported from Open.
package trigger
