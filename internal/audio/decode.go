package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hraban/opus"
)

// DecodeOggOpus decodes an Ogg/Opus clip (the payload browsers produce for
// webm/opus answers) into 48kHz PCM16 samples.
func DecodeOggOpus(data []byte) ([]int16, error) {
	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open opus stream: %w", err)
	}
	defer stream.Close()

	pcm := make([]int16, 0, 48000)
	buf := make([]int16, 960*6)
	for {
		n, err := stream.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode opus: %w", err)
		}
		if n == 0 {
			break
		}
		pcm = append(pcm, buf[:n]...)
	}
	return pcm, nil
}

// OpusFrameDecoder decodes raw opus packets as they arrive from a live
// stream, one packet per call.
type OpusFrameDecoder struct {
	dec        *opus.Decoder
	sampleRate int
	channels   int
}

func NewOpusFrameDecoder(sampleRate, channels int) (*OpusFrameDecoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}
	return &OpusFrameDecoder{dec: dec, sampleRate: sampleRate, channels: channels}, nil
}

// Decode returns the PCM16 samples of a single opus packet.
func (d *OpusFrameDecoder) Decode(pkt []byte) ([]int16, error) {
	// 120ms is the longest frame opus allows
	pcm := make([]int16, d.sampleRate*120/1000*d.channels)
	n, err := d.dec.Decode(pkt, pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode: %w", err)
	}
	return pcm[:n*d.channels], nil
}
