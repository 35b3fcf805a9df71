// Package compression wraps report and trace files in a streaming codec
// chosen by algorithm name or file extension.
//
// Supported algorithms:
//   - none
//   - gzip   (.gz)
//   - snappy (.sz)
//   - s2     (.s2)
//   - lz4    (.lz4)
//   - zstd   (.zst)
//
// Writers must be closed to flush the codec's final frame. Closing a writer
// or reader never closes the underlying stream.
package compression

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/hotpool/pkg/errors"
)

// Algorithm names a compression codec.
type Algorithm string

const (
	// None writes bytes through unchanged
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
)

// Level trades speed for ratio. Codecs without levels ignore it.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

var extensions = map[string]Algorithm{
	".gz":  Gzip,
	".sz":  Snappy,
	".s2":  S2,
	".lz4": LZ4,
	".zst": Zstd,
}

// ParseAlgorithm validates an algorithm name. The empty string means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(name)); a {
	case "", None:
		return None, nil
	case Gzip, Snappy, S2, LZ4, Zstd:
		return a, nil
	default:
		return "", errors.New(errors.ErrorTypeValidation, "unsupported compression algorithm").
			WithDetail("algorithm", name)
	}
}

// FromPath picks the algorithm matching path's extension, or None.
func FromPath(path string) Algorithm {
	if a, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return a
	}
	return None
}

// Extension returns the file extension for a, or "" for None.
func (a Algorithm) Extension() string {
	for ext, alg := range extensions {
		if alg == a {
			return ext
		}
	}
	return ""
}

// NewWriter returns a writer compressing into dst.
func NewWriter(dst io.Writer, alg Algorithm, level Level) (io.WriteCloser, error) {
	switch alg {
	case None, "":
		return nopWriteCloser{dst}, nil
	case Gzip:
		w, err := gzip.NewWriterLevel(dst, mapGzipLevel(level))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create gzip writer")
		}
		return w, nil
	case Snappy:
		return snappy.NewBufferedWriter(dst), nil
	case S2:
		return s2.NewWriter(dst, mapS2Level(level)), nil
	case LZ4:
		w := lz4.NewWriter(dst)
		if err := w.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to configure lz4 writer")
		}
		return w, nil
	case Zstd:
		enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(mapZstdLevel(level)))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create zstd writer")
		}
		return enc, nil
	default:
		return nil, errors.New(errors.ErrorTypeValidation, "unsupported compression algorithm").
			WithDetail("algorithm", string(alg))
	}
}

// NewReader returns a reader decompressing src.
func NewReader(src io.Reader, alg Algorithm) (io.ReadCloser, error) {
	switch alg {
	case None, "":
		return io.NopCloser(src), nil
	case Gzip:
		r, err := gzip.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create gzip reader")
		}
		return r, nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(src)), nil
	case S2:
		return io.NopCloser(s2.NewReader(src)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(src)), nil
	case Zstd:
		dec, err := zstd.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create zstd reader")
		}
		return zstdReadCloser{dec}, nil
	default:
		return nil, errors.New(errors.ErrorTypeValidation, "unsupported compression algorithm").
			WithDetail("algorithm", string(alg))
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// zstd.Decoder.Close returns nothing.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapS2Level(level Level) s2.WriterOption {
	switch level {
	case Better:
		return s2.WriterBetterCompression()
	case Best:
		return s2.WriterBestCompression()
	default:
		return s2.WriterConcurrency(1)
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
