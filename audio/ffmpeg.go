package audio

import (
	"fmt"
	"io"
	"os/exec"

	"golang.org/x/net/context"
)

// Stream launches ffmpeg reading the given URL and decoding it to raw
// 48kHz stereo signed 16-bit PCM on stdout. volumePercent 100 is unity
// gain. Cancelling the context kills the process.
func Stream(ctx context.Context, url string, volumePercent int) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", url,
		"-filter:a", fmt.Sprintf("volume=%.2f", float64(volumePercent)/100),
		"-f", "s16le",
		"-ar", "48000",
		"-ac", "2",
		"pipe:1",
	)

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err = cmd.Start(); err != nil {
		return nil, err
	}
	return &ffmpegPipe{ReadCloser: pipe, cmd: cmd}, nil
}

type ffmpegPipe struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (p *ffmpegPipe) Close() error {
	err := p.ReadCloser.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.cmd.Wait()
	return err
}
