// Package audio wraps ffmpeg and ffprobe for the handful of audio
// primitives the pipeline needs: duration measurement, silence
// generation, pitch-preserving tempo scaling and concatenation.
package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Engine is the audio capability consumed by the narration stages.
type Engine interface {
	// Duration measures the real playback length of encoded audio, in seconds.
	Duration(ctx context.Context, data []byte) (float64, error)
	// Silence produces an encoded silent segment of the given length.
	Silence(ctx context.Context, ms int) ([]byte, error)
	// TimeStretch scales playback speed by factor without altering pitch.
	TimeStretch(ctx context.Context, data []byte, factor float64) ([]byte, error)
	// Concat joins encoded segments back to back.
	Concat(ctx context.Context, segments [][]byte) ([]byte, error)
}

// FFmpegEngine shells out to ffmpeg/ffprobe. All temporary files are
// removed on every exit path.
type FFmpegEngine struct {
	ffmpegCmd  string
	ffprobeCmd string
}

func NewFFmpegEngine() *FFmpegEngine {
	return &FFmpegEngine{
		ffmpegCmd:  "ffmpeg",
		ffprobeCmd: "ffprobe",
	}
}

func (e *FFmpegEngine) Duration(ctx context.Context, data []byte) (float64, error) {
	path, cleanup, err := writeTemp(data)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	cmdPath, err := exec.LookPath(e.ffprobeCmd)
	if err != nil {
		return 0, fmt.Errorf("ffprobe not available: %w", err)
	}

	output, err := exec.CommandContext(ctx, cmdPath, e.probeArgs(path)...).Output()
	if err != nil {
		return 0, fmt.Errorf("failed to probe audio: %w", err)
	}

	return parseProbeDuration(output)
}

func (e *FFmpegEngine) Silence(ctx context.Context, ms int) ([]byte, error) {
	if ms <= 0 {
		return nil, nil
	}

	out, cleanup, err := tempPath()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := e.run(ctx, e.silenceArgs(ms, out)); err != nil {
		return nil, fmt.Errorf("failed to generate %dms silence: %w", ms, err)
	}
	return os.ReadFile(out)
}

func (e *FFmpegEngine) TimeStretch(ctx context.Context, data []byte, factor float64) ([]byte, error) {
	in, cleanupIn, err := writeTemp(data)
	if err != nil {
		return nil, err
	}
	defer cleanupIn()

	out, cleanupOut, err := tempPath()
	if err != nil {
		return nil, err
	}
	defer cleanupOut()

	if err := e.run(ctx, e.atempoArgs(in, out, factor)); err != nil {
		return nil, fmt.Errorf("failed to time-stretch audio by %.3f: %w", factor, err)
	}
	return os.ReadFile(out)
}

func (e *FFmpegEngine) Concat(ctx context.Context, segments [][]byte) ([]byte, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments to concatenate")
	}

	var paths []string
	cleanups := make([]func(), 0, len(segments)+2)
	defer func() {
		for _, c := range cleanups {
			c()
		}
	}()

	for _, seg := range segments {
		path, cleanup, err := writeTemp(seg)
		if err != nil {
			return nil, err
		}
		cleanups = append(cleanups, cleanup)
		paths = append(paths, path)
	}

	listPath, cleanupList, err := writeConcatList(paths)
	if err != nil {
		return nil, err
	}
	cleanups = append(cleanups, cleanupList)

	out, cleanupOut, err := tempPath()
	if err != nil {
		return nil, err
	}
	cleanups = append(cleanups, cleanupOut)

	if err := e.run(ctx, e.concatArgs(listPath, out)); err != nil {
		return nil, fmt.Errorf("failed to concatenate %d segments: %w", len(segments), err)
	}
	return os.ReadFile(out)
}

func (e *FFmpegEngine) run(ctx context.Context, args []string) error {
	cmdPath, err := exec.LookPath(e.ffmpegCmd)
	if err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}
	cmd := exec.CommandContext(ctx, cmdPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, tail(output))
	}
	return nil
}

func (e *FFmpegEngine) probeArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	}
}

func (e *FFmpegEngine) silenceArgs(ms int, out string) []string {
	return []string{
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=stereo",
		"-t", strconv.FormatFloat(float64(ms)/1000.0, 'f', 3, 64),
		"-acodec", "libmp3lame",
		out,
	}
}

func (e *FFmpegEngine) atempoArgs(in, out string, factor float64) []string {
	return []string{
		"-y",
		"-i", in,
		"-filter:a", fmt.Sprintf("atempo=%.6f", factor),
		"-acodec", "libmp3lame",
		out,
	}
}

func (e *FFmpegEngine) concatArgs(listPath, out string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		out,
	}
}

// parseProbeDuration extracts format.duration from ffprobe JSON output.
func parseProbeDuration(output []byte) (float64, error) {
	var probeResult struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probeResult); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if probeResult.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe output has no duration")
	}
	duration, err := strconv.ParseFloat(probeResult.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", probeResult.Format.Duration, err)
	}
	return duration, nil
}

func writeTemp(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "voxlate-*.mp3")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	return path, cleanup, nil
}

func tempPath() (string, func(), error) {
	f, err := os.CreateTemp("", "voxlate-*.mp3")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	f.Close()
	return path, func() { os.Remove(path) }, nil
}

func writeConcatList(paths []string) (string, func(), error) {
	f, err := os.CreateTemp("", "voxlate-concat-*.txt")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create concat list: %w", err)
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }

	for _, p := range paths {
		if _, err := fmt.Fprintf(f, "file '%s'\n", p); err != nil {
			f.Close()
			cleanup()
			return "", nil, fmt.Errorf("failed to write concat list: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close concat list: %w", err)
	}
	return path, cleanup, nil
}

// tail keeps the last part of command output for error messages.
func tail(output []byte) string {
	const limit = 512
	if len(output) <= limit {
		return string(output)
	}
	return "..." + string(output[len(output)-limit:])
}
