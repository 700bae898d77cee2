package reports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"time"

	"event-reports/internal/domain/events"
)

// CreatedLayout es RFC 3339 en UTC con milisegundos.
const CreatedLayout = "2006-01-02T15:04:05.000Z07:00"

// Header es fijo, independientemente de los campos del evento.
var Header = []string{"UserId", "Type", "Name", "Info", "Data", "Created"}

var errStreamClosed = errors.New("csv stream closed")

// CSVStream produce el CSV de forma perezosa: cada Read saca a lo sumo un
// registro de la secuencia. Se consume una sola vez.
type CSVStream struct {
	next func() (events.Event, error, bool)
	stop func()

	buf bytes.Buffer
	rec bytes.Buffer
	w   *csv.Writer

	pulled bool
	rows   int
	err    error
}

// EncodeCSV envuelve records en un stream CSV (RFC 4180, CRLF). El header
// queda listo de inmediato; los registros se piden a demanda.
func EncodeCSV(records iter.Seq2[events.Event, error]) *CSVStream {
	next, stop := iter.Pull2(records)
	s := &CSVStream{next: next, stop: stop}
	// Sin UseCRLF: con CRLF el writer descarta los '\r' sueltos dentro de los campos.
	s.w = csv.NewWriter(&s.rec)

	_ = s.writeRecord(Header)
	return s
}

// writeRecord codifica un registro con terminador LF y lo pasa a buf con CRLF.
// Los bytes de los campos quedan intactos.
func (s *CSVStream) writeRecord(fields []string) error {
	s.rec.Reset()
	if err := s.w.Write(fields); err != nil {
		return err
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	line := bytes.TrimSuffix(s.rec.Bytes(), []byte("\n"))
	s.buf.Write(line)
	s.buf.WriteString("\r\n")
	return nil
}

func (s *CSVStream) Read(p []byte) (int, error) {
	for s.buf.Len() == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	return s.buf.Read(p)
}

// Prime pide el primer registro sin entregar bytes, para detectar fallas del
// store antes de comprometer una respuesta o un archivo.
func (s *CSVStream) Prime() error {
	if !s.pulled && s.err == nil {
		s.fill()
	}
	if s.err != nil && !errors.Is(s.err, io.EOF) {
		return s.err
	}
	return nil
}

// Rows devuelve la cantidad de filas de datos emitidas hasta ahora.
func (s *CSVStream) Rows() int { return s.rows }

// Close libera la secuencia subyacente. Idempotente.
func (s *CSVStream) Close() error {
	s.stop()
	if s.err == nil {
		s.err = errStreamClosed
	}
	return nil
}

func (s *CSVStream) fill() {
	s.pulled = true

	e, err, ok := s.next()
	switch {
	case !ok:
		s.err = io.EOF
		s.stop()
		return
	case err != nil:
		s.err = err
		s.stop()
		return
	}

	if err := s.writeRecord(Record(e)); err != nil {
		s.err = err
		s.stop()
		return
	}
	s.rows++
}

// Record mapea un evento a las columnas del header.
func Record(e events.Event) []string {
	return []string{
		e.UserID,
		e.EventType,
		e.Name,
		e.InfoOrEmpty(),
		dataColumn(e),
		e.CreatedAt.UTC().Format(CreatedLayout),
	}
}

func dataColumn(e events.Event) string {
	if !e.HasData() {
		return ""
	}
	var b bytes.Buffer
	if err := json.Compact(&b, e.Data); err != nil {
		return string(e.Data)
	}
	return b.String()
}

// ParseCreated interpreta la columna Created.
func ParseCreated(s string) (time.Time, error) {
	return time.Parse(CreatedLayout, s)
}
