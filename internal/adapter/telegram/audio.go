package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	defaultSampleRate = 16000
	maxVoiceBytes     = 20 << 20 // Bot API download limit
)

// downloadFile fetches a file through the bot API client, bounded by maxVoiceBytes
func (b *Bot) downloadFile(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := b.api.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxVoiceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxVoiceBytes {
		return nil, fmt.Errorf("voice message exceeds %d bytes", maxVoiceBytes)
	}
	return data, nil
}

// convertOGGtoWAV converts an OGG/Opus voice message to mono 16-bit PCM WAV using FFmpeg
func convertOGGtoWAV(ctx context.Context, oggData []byte, sampleRate int) ([]byte, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	dir, err := os.MkdirTemp("", "recital-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "voice.ogg")
	out := filepath.Join(dir, "voice.wav")
	if err := os.WriteFile(in, oggData, 0o600); err != nil {
		return nil, fmt.Errorf("write ogg data: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "ffmpeg", ffmpegArgs(in, out, sampleRate)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg conversion failed: %w: %s", err, lastLine(stderr.String()))
	}

	wavData, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read wav file: %w", err)
	}
	return wavData, nil
}

// lastLine keeps the ffmpeg error summary out of its banner
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// ffmpegArgs resamples to mono LINEAR16 at sampleRate, overwriting output
func ffmpegArgs(input, output string, sampleRate int) []string {
	return []string{
		"-i", input,
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-y",
		output,
	}
}

// processVoiceMessage downloads and converts a Telegram voice message to WAV
func (b *Bot) processVoiceMessage(ctx context.Context, fileID string) (io.Reader, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file info: %w", err)
	}

	oggData, err := b.downloadFile(ctx, file.Link(b.api.Token))
	if err != nil {
		return nil, err
	}

	wavData, err := convertOGGtoWAV(ctx, oggData, b.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("convert audio: %w", err)
	}

	return bytes.NewReader(wavData), nil
}
