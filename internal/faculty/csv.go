package faculty

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// WriteCSV writes r with the fixed header name,college,email,subjects,research_topics.
// The header is written even when r is empty.
func WriteCSV(w io.Writer, r Result) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if err := enc.EncodeHeader(Record{}); err != nil {
		return eris.Wrap(err, "csv: encode header")
	}
	for i := range r {
		if err := enc.Encode(r[i]); err != nil {
			return eris.Wrapf(err, "csv: encode row %d", i+1)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "csv: flush")
	}
	return nil
}

// ExportCSV creates or truncates path and writes r to it.
func ExportCSV(path string, r Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "csv: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "csv: close %s", path)
		}
	}()
	return WriteCSV(f, r)
}

// ReadCSV reads a file produced by WriteCSV. Multi-valued cells are split back
// on the list separator, so items containing ';' do not survive the round trip.
func ReadCSV(rd io.Reader) (Result, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(rd))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, nil
		}
		return nil, eris.Wrap(err, "csv: read header")
	}

	out := Result{}
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, eris.Wrapf(err, "csv: decode row %d", len(out)+1)
		}
		if rec.Subjects == nil {
			rec.Subjects = List{}
		}
		if rec.ResearchTopics == nil {
			rec.ResearchTopics = List{}
		}
		out = append(out, rec)
	}
}
