// SPDX-License-Identifier: EPL-2.0

// Package oto plays a playback.Device through github.com/ebitengine/oto/v3.
//
// oto pulls audio from an io.Reader on its own goroutine. The reader renders
// the device on demand, so the oto player goroutine is the hardware callback
// of the device. oto supports one or two output channels and no input.
//
// Only one oto context can exist in a process. It is created by the first
// Open and every later device has to use the same rate and channel count.
// Build with the headless tag to leave oto out.
package oto
