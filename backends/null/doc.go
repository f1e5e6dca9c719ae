// SPDX-License-Identifier: EPL-2.0

// Package null is a playback.Backend without hardware. A goroutine calls
// Device.Render in real time from a ticker, or the owner pumps frames
// itself with Pump for offline rendering. A tap receives every rendered
// buffer, for example to write it to a WAV file.
package null
