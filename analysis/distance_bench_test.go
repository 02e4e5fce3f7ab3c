package analysis

import "testing"

func BenchmarkSTFT(b *testing.B) {
	x := makeSweptSaw(48000, 55, 1.0, 4000, 300)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = STFT(x, 48000, 2048, 512)
	}
}

func BenchmarkCompare(b *testing.B) {
	ref := makeSweptSaw(48000, 55, 2.0, 4000, 300)
	cand := makeSweptSaw(48000, 55, 2.0, 3000, 250)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Compare(ref, cand, 48000)
	}
}
