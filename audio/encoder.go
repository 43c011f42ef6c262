package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"github.com/nordwache/guildbot/logger/dlog"
	"layeh.com/gopus"
)

const (
	AudioChannels  = 2
	AudioFrameRate = 48000
	AudioBitrate   = 64
	AudioFrameSize = 960
	MaxBytes       = (AudioFrameSize * AudioChannels) * 2 // max size of opus data
)

// Encode reads raw 48kHz stereo PCM and produces 20ms opus packets.
// The returned channel is closed when the input ends or becomes
// unreadable.
func Encode(in io.Reader) <-chan []byte {
	frames := make(chan []byte, 16)
	go encodeLoop(in, frames)
	return frames
}

func encodeLoop(in io.Reader, frames chan<- []byte) {
	defer close(frames)

	encoder, err := gopus.NewEncoder(AudioFrameRate, AudioChannels, gopus.Audio)
	if err != nil {
		dlog.Log.Error("Failed to create opus encoder", "err", err)
		return
	}
	encoder.SetBitrate(AudioBitrate * 1000)

	stdin := bufio.NewReaderSize(in, 32768)
	for {
		buf := make([]int16, AudioFrameSize*AudioChannels)
		err = binary.Read(stdin, binary.LittleEndian, &buf)
		if err == io.EOF {
			return
		}
		last := errors.Is(err, io.ErrUnexpectedEOF)
		if err != nil && !last {
			dlog.Log.Error("Error reading pcm input", "err", err)
			return
		}

		opus, err := encoder.Encode(buf, AudioFrameSize, MaxBytes)
		if err != nil {
			dlog.Log.Error("Opus encoding error", "err", err)
			return
		}
		frames <- opus
		if last {
			return
		}
	}
}
