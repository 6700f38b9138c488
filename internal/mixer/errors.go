package mixer

import (
	"errors"
	"fmt"
)

var (
	ErrNoTracks     = errors.New("mixer: belum ada track yang diload")
	ErrClosed       = errors.New("mixer: sudah ditutup")
	ErrUnknownTrack = errors.New("mixer: track tidak dikenal")
)

// DecodeError menggagalkan seluruh load; state mixer sebelumnya tetap utuh.
type DecodeError struct {
	Track string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Track, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RenderError menggagalkan satu render saja; buffer set sebelumnya tetap
// playable.
type RenderError struct {
	Track string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Track, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
