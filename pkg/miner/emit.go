package miner

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/xeipuuv/gojsonschema"

	"github.com/archlens/adl-diff-miner/pkg/miner/schema"
)

// Emitter streams Records as newline-delimited JSON to a sink, flushing
// after each record.
type Emitter struct {
	buffered       *bufio.Writer
	extraFlush     func() error // flushes a wrapping frame writer (lz4), nil otherwise
	closer         io.Closer
	validateSchema bool
	schema         *gojsonschema.Schema
	wroteAny       bool // a record has been written; later records are preceded by "\n"
}

// NewEmitter builds an Emitter writing to w. If closer is non-nil, Close
// closes it after any final flush (used for file sinks; stdout passes nil).
// If validateSchema is true, every record is validated against the embedded
// record schema before being written; a validation failure is fatal.
func NewEmitter(w io.Writer, closer io.Closer, validateSchema bool) (*Emitter, error) {
	e := &Emitter{
		buffered:       bufio.NewWriter(w),
		closer:         closer,
		validateSchema: validateSchema,
	}

	if validateSchema {
		loaded, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema.RecordSchema))
		if err != nil {
			return nil, fmt.Errorf("load record schema: %w", err)
		}

		e.schema = loaded
	}

	return e, nil
}

// NewLZ4Emitter wraps sink in an lz4 frame writer before delegating to
// NewEmitter. Closing the returned Emitter closes the lz4 writer, then sink.
func NewLZ4Emitter(sink io.WriteCloser, validateSchema bool) (*Emitter, error) {
	lz := lz4.NewWriter(sink)

	e, err := NewEmitter(lz, lz4WriteCloser{Writer: lz, sink: sink}, validateSchema)
	if err != nil {
		return nil, err
	}

	e.extraFlush = func() error {
		if err := lz.Flush(); err != nil {
			return fmt.Errorf("flush lz4 writer: %w", err)
		}

		return nil
	}

	return e, nil
}

// lz4WriteCloser closes the lz4 frame, then the underlying sink.
type lz4WriteCloser struct {
	*lz4.Writer
	sink io.WriteCloser
}

func (c lz4WriteCloser) Close() error {
	if err := c.Writer.Close(); err != nil {
		_ = c.sink.Close()

		return fmt.Errorf("close lz4 writer: %w", err)
	}

	if err := c.sink.Close(); err != nil {
		return fmt.Errorf("close sink: %w", err)
	}

	return nil
}

// ErrSchemaValidation is returned when a composed record fails validation
// against the embedded schema; this indicates an engine bug, not bad input.
var ErrSchemaValidation = errors.New("record failed schema validation")

// Write serializes r as one compact JSON line and flushes the sink. Every
// record after the first is preceded by a "\n" separator, so the output has
// no trailing separator at EOF.
func (e *Emitter) Write(r Record) error {
	encoded, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if e.validateSchema {
		if err := e.validate(encoded); err != nil {
			return err
		}
	}

	if e.wroteAny {
		if _, err := e.buffered.Write([]byte("\n")); err != nil {
			return fmt.Errorf("write record separator: %w", err)
		}
	}

	if _, err := e.buffered.Write(encoded); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	e.wroteAny = true

	return e.flush()
}

// flush pushes buffered bytes through to the sink, including any wrapping
// frame writer (lz4), so each record is visible to a downstream reader as
// soon as it is written.
func (e *Emitter) flush() error {
	if err := e.buffered.Flush(); err != nil {
		return fmt.Errorf("flush sink: %w", err)
	}

	if e.extraFlush != nil {
		if err := e.extraFlush(); err != nil {
			return err
		}
	}

	return nil
}

func (e *Emitter) validate(encoded []byte) error {
	result, err := e.schema.Validate(gojsonschema.NewBytesLoader(encoded))
	if err != nil {
		return fmt.Errorf("run schema validation: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrSchemaValidation, strings.Join(details, "; "))
	}

	return nil
}

// Close flushes any buffered output and closes the underlying sink, if any.
func (e *Emitter) Close() error {
	if err := e.flush(); err != nil {
		return err
	}

	if e.closer != nil {
		if err := e.closer.Close(); err != nil {
			return fmt.Errorf("close sink: %w", err)
		}
	}

	return nil
}
