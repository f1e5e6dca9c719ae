// SPDX-License-Identifier: EPL-2.0

package utils

// CatmullRom interpolates between p1 and p2 at x in [0,1], with p0 and p3
// as the neighbours on either side. It passes through p1 at 0 and p2 at 1.
func CatmullRom(p0, p1, p2, p3, x float32) float32 {
	c3 := 0.5 * (p3 - p0 + 3*(p1-p2))
	c2 := p0 - 2.5*p1 + 2*p2 - 0.5*p3
	c1 := 0.5 * (p2 - p0)
	return ((c3*x+c2)*x+c1)*x + p1
}

// CatmullRomFrame interpolates every channel of four consecutive
// interleaved frames into out. All frames must be at least len(out) long.
func CatmullRomFrame(out []float32, frames *[4][]float32, x float32) {
	p0, p1, p2, p3 := frames[0], frames[1], frames[2], frames[3]
	for c := range out {
		out[c] = CatmullRom(p0[c], p1[c], p2[c], p3[c], x)
	}
}
