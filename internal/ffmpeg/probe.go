// Package ffmpeg wraps the ffmpeg/ffprobe binaries used by yt-dlp to post-process
// downloads. Grabber never transcodes directly, but probes the produced files to
// confirm the transcoding engine left behind a usable container.
package ffmpeg

import (
	"fmt"

	"github.com/floostack/transcoder"
	"github.com/floostack/transcoder/ffmpeg"
	"github.com/hbomb79/Grabber/pkg/logger"
)

var log = logger.Get("FFmpeg")

const (
	AudioStream = "audio"
	VideoStream = "video"
)

type (
	Config struct {
		FfmpegBinPath  string `yaml:"ffmpeg_binary" env:"FFMPEG_BINARY_PATH" env-default:"/usr/bin/ffmpeg"`
		FfprobeBinPath string `yaml:"ffprobe_binary" env:"FFPROBE_BINARY_PATH" env-default:"/usr/bin/ffprobe"`
	}

	Stream struct {
		CodecType string
		CodecName string
	}

	// ProbeSummary is the information Grabber extracts from ffprobe
	// for a produced file.
	ProbeSummary struct {
		FormatName string
		Duration   string
		Size       string
		Streams    []Stream
	}

	Prober interface {
		Probe(path string) (*ProbeSummary, error)
	}

	prober struct {
		config Config
	}
)

func NewProber(config Config) *prober {
	return &prober{config: config}
}

// Probe runs ffprobe against the file at the path provided.
func (p *prober) Probe(path string) (*ProbeSummary, error) {
	transcoder := ffmpeg.
		New(&ffmpeg.Config{
			FfmpegBinPath:  p.config.FfmpegBinPath,
			FfprobeBinPath: p.config.FfprobeBinPath,
		}).
		Input(path)

	metadata, err := transcoder.GetMetadata()
	if err != nil {
		return nil, fmt.Errorf("failed to extract file metadata information using ffprobe: %s", err.Error())
	}

	summary := summarise(metadata)
	log.Emit(logger.DEBUG, "Probed %s: format=%s duration=%s size=%s streams=%v\n", path, summary.FormatName, summary.Duration, summary.Size, summary.Streams)
	return summary, nil
}

// HasStream returns true if the probed file contains at least one stream
// of the codec type provided (e.g. AudioStream).
func (summary *ProbeSummary) HasStream(codecType string) bool {
	for _, s := range summary.Streams {
		if s.CodecType == codecType {
			return true
		}
	}

	return false
}

func summarise(metadata transcoder.Metadata) *ProbeSummary {
	summary := &ProbeSummary{Streams: make([]Stream, 0)}
	if format := metadata.GetFormat(); format != nil {
		summary.FormatName = format.GetFormatName()
		summary.Duration = format.GetDuration()
		summary.Size = format.GetSize()
	}

	for _, s := range metadata.GetStreams() {
		summary.Streams = append(summary.Streams, Stream{CodecType: s.GetCodecType(), CodecName: s.GetCodecName()})
	}

	return summary
}
