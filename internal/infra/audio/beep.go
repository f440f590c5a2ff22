// Package audio implements the playback output on the system speaker.
package audio

import (
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/app/playback"
	"github.com/osa030/focusbox/internal/domain/track"
)

// Errors
var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

const resampleQuality = 4

// Config holds speaker settings.
type Config struct {
	SampleRate int
	BufferMs   int
}

// Speaker opens looping sources on the default audio device.
// The device is initialised on first use.
type Speaker struct {
	sampleRate beep.SampleRate
	buffer     time.Duration

	initOnce sync.Once
	initErr  error
	started  bool
}

// NewSpeaker creates a speaker output.
func NewSpeaker(cfg Config) *Speaker {
	sr := cfg.SampleRate
	if sr <= 0 {
		sr = 44100
	}
	buf := time.Duration(cfg.BufferMs) * time.Millisecond
	if buf <= 0 {
		buf = 100 * time.Millisecond
	}
	return &Speaker{
		sampleRate: beep.SampleRate(sr),
		buffer:     buf,
	}
}

func (s *Speaker) init() error {
	s.initOnce.Do(func() {
		s.initErr = speaker.Init(s.sampleRate, s.sampleRate.N(s.buffer))
		if s.initErr != nil {
			s.initErr = errors.Wrap(s.initErr, "failed to initialise speaker")
			return
		}
		s.started = true
	})
	return s.initErr
}

// Open decodes path and starts looping it.
func (s *Speaker) Open(path string, volume float64, paused bool) (playback.Handle, error) {
	decoded, format, err := decode(path)
	if err != nil {
		return nil, err
	}
	if err := s.init(); err != nil {
		_ = decoded.Close()
		return nil, err
	}

	looped, err := beep.Loop2(decoded)
	if err != nil {
		_ = decoded.Close()
		return nil, errors.Wrap(err, "failed to loop stream")
	}

	var src beep.Streamer = looped
	if format.SampleRate != s.sampleRate {
		src = beep.Resample(resampleQuality, format.SampleRate, s.sampleRate, looped)
	}

	vol := &effects.Volume{Streamer: src, Base: 2}
	applyVolume(vol, volume)
	ctrl := &beep.Ctrl{Streamer: vol, Paused: paused}

	speaker.Play(ctrl)

	zlog.Debug().Msgf("audio: opened %s (rate=%d channels=%d)", path, format.SampleRate, format.NumChannels)
	return &handle{ctrl: ctrl, volume: vol, source: decoded}, nil
}

// Close stops the device if it was started.
func (s *Speaker) Close() error {
	if s.started {
		speaker.Clear()
	}
	return nil
}

type handle struct {
	ctrl   *beep.Ctrl
	volume *effects.Volume
	source beep.StreamSeekCloser

	once sync.Once
}

func (h *handle) SetVolume(v float64) {
	speaker.Lock()
	applyVolume(h.volume, v)
	speaker.Unlock()
}

func (h *handle) SetPaused(paused bool) {
	speaker.Lock()
	h.ctrl.Paused = paused
	speaker.Unlock()
}

// Close detaches the stream from the mixer and releases the decoder.
func (h *handle) Close() error {
	var err error
	h.once.Do(func() {
		speaker.Lock()
		// A nil streamer makes the mixer drop the ctrl on its next pass.
		h.ctrl.Streamer = nil
		speaker.Unlock()
		err = h.source.Close()
	})
	return err
}

// applyVolume maps a linear [0,1] level onto the logarithmic volume effect.
func applyVolume(v *effects.Volume, level float64) {
	level = playback.ClampVolume(level)
	if level == 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(level)
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := track.FromPath(path).Ext()
	switch ext {
	case track.ExtMP3, track.ExtWAV, track.ExtFLAC, track.ExtOGG:
	default:
		return nil, beep.Format{}, errors.Wrapf(ErrUnsupportedFormat, "extension %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, errors.Wrap(err, "failed to open track")
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case track.ExtMP3:
		s, format, err = mp3.Decode(f)
	case track.ExtWAV:
		s, format, err = wav.Decode(f)
	case track.ExtFLAC:
		s, format, err = flac.Decode(f)
	case track.ExtOGG:
		s, format, err = vorbis.Decode(f)
	}
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, errors.Wrapf(err, "failed to decode %s", path)
	}
	return closeBoth(s, f), format, nil
}

// wav and flac decoders do not own the file, so it is closed alongside.
func closeBoth(s beep.StreamSeekCloser, f io.Closer) beep.StreamSeekCloser {
	return &fileStream{StreamSeekCloser: s, file: f}
}

type fileStream struct {
	beep.StreamSeekCloser
	file io.Closer
}

func (fs *fileStream) Close() error {
	err := fs.StreamSeekCloser.Close()
	if cerr := fs.file.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}
