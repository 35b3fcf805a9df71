package bench

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/ajitpratap0/hotpool/pkg/compression"
	"github.com/ajitpratap0/hotpool/pkg/errors"
	"github.com/ajitpratap0/hotpool/pkg/memory"
)

// Report is the serialized outcome of a run.
type Report struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	GoVersion  string           `json:"go_version"`
	GOMAXPROCS int              `json:"gomaxprocs"`
	Probe      string           `json:"probe,omitempty"`
	Memory     *memory.Snapshot `json:"memory,omitempty"`
	Config     *Config          `json:"config"`
	Results    []Result         `json:"results"`
}

// NewReport creates a report for cfg stamped with the current runtime.
func NewReport(cfg *Config, results []Result) *Report {
	return &Report{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		GoVersion:  runtime.Version(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		Config:     cfg,
		Results:    results,
	}
}

// Encode writes r as indented JSON.
func (r *Report) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode report")
	}
	return nil
}

// WriteReport writes r to path, compressed according to the file
// extension (.zst, .lz4, .gz, .s2, .sz).
func WriteReport(path string, r *Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create report").WithDetail("path", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to close report").WithDetail("path", path)
		}
	}()

	buf := bufio.NewWriter(f)
	cw, err := compression.NewWriter(buf, compression.FromPath(path), compression.Default)
	if err != nil {
		return err
	}
	if err := r.Encode(cw); err != nil {
		return err
	}
	if err := cw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to finish compressed report").WithDetail("path", path)
	}
	if err := buf.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write report").WithDetail("path", path)
	}
	return nil
}

// ReadReport reads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open report").WithDetail("path", path)
	}
	defer f.Close()

	cr, err := compression.NewReader(bufio.NewReader(f), compression.FromPath(path))
	if err != nil {
		return nil, err
	}
	defer cr.Close()

	var r Report
	if err := json.NewDecoder(cr).Decode(&r); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to decode report").WithDetail("path", path)
	}
	return &r, nil
}
