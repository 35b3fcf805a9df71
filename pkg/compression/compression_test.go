package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/hotpool/pkg/errors"
)

func sampleReport() []byte {
	return []byte(strings.Repeat(`{"scenario":"stack","ops":1000000,"hits":999000,"misses":1000}`+"\n", 200))
}

func TestRoundTrip(t *testing.T) {
	data := sampleReport()
	for _, alg := range []Algorithm{None, Gzip, Snappy, S2, LZ4, Zstd} {
		for _, level := range []Level{Fastest, Default, Best} {
			t.Run(string(alg), func(t *testing.T) {
				var buf bytes.Buffer
				w, err := NewWriter(&buf, alg, level)
				require.NoError(t, err)
				_, err = w.Write(data)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				if alg != None {
					assert.Less(t, buf.Len(), len(data))
				}

				r, err := NewReader(&buf, alg)
				require.NoError(t, err)
				got, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				assert.Equal(t, data, got)
			})
		}
	}
}

func TestFromPath(t *testing.T) {
	tests := map[string]Algorithm{
		"report.json":     None,
		"report.json.zst": Zstd,
		"REPORT.LZ4":      LZ4,
		"out.gz":          Gzip,
		"out.s2":          S2,
		"out.sz":          Snappy,
		"noext":           None,
	}
	for path, want := range tests {
		assert.Equal(t, want, FromPath(path), path)
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".zst", Zstd.Extension())
	assert.Equal(t, ".lz4", LZ4.Extension())
	assert.Equal(t, "", None.Extension())
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, Zstd, a)

	a, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, a)

	_, err = ParseAlgorithm("brotli")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = NewWriter(io.Discard, Algorithm("brotli"), Default)
	assert.Error(t, err)
	_, err = NewReader(strings.NewReader(""), Algorithm("brotli"))
	assert.Error(t, err)
}
