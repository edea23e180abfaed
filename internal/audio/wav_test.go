package audio

import (
	"bytes"
	"testing"
	"time"
)

func TestEncodeDecodeWAVRoundtrip(t *testing.T) {
	pcm := make([]byte, 0, 2000)
	for i := 0; i < 1000; i++ {
		s := uint16(i * 13)
		pcm = append(pcm, byte(s), byte(s>>8))
	}

	wav := EncodeWAV(pcm, 48000, 1, 16)
	if len(wav) != len(pcm)+44 {
		t.Fatalf("expected %d bytes, got %d", len(pcm)+44, len(wav))
	}
	if !bytes.HasPrefix(wav, []byte("RIFF")) {
		t.Fatalf("missing RIFF header")
	}

	got, rate, channels, err := DecodeWAV(wav)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if rate != 48000 || channels != 1 {
		t.Fatalf("unexpected format: rate=%d channels=%d", rate, channels)
	}
	if !bytes.Equal(got, pcm) {
		t.Fatalf("pcm payload mismatch")
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, _, _, err := DecodeWAV([]byte("not a wav file at all")); err == nil {
		t.Fatalf("expected error for non-wav input")
	}
}

func TestPCMDuration(t *testing.T) {
	// one second of 48kHz mono PCM16
	d := PCMDuration(48000*2, 48000, 1)
	if d != time.Second {
		t.Fatalf("expected 1s, got %v", d)
	}
	if got := PCMDuration(0, 48000, 1); got != 0 {
		t.Fatalf("expected 0 for empty payload, got %v", got)
	}
}
