// Package export writes simulation results in tabular formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/kilianp07/solarsim/core/resource"
	"github.com/kilianp07/solarsim/core/runlog"
)

// WriteCSV writes the retained history of pool to w, one row per sample and
// one column per resource.
func WriteCSV(w io.Writer, pool *resource.Pool) error {
	t := pool.Table()
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			rec[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Document is the JSON form of a pool history.
type Document struct {
	Columns []string           `json:"columns"`
	Units   []string           `json:"units"`
	Rows    [][]float64        `json:"rows"`
	Current map[string]float64 `json:"current"`
}

// NewDocument builds the JSON document of pool.
func NewDocument(pool *resource.Pool) Document {
	t := pool.Table()
	units := make([]string, len(t.Columns))
	for i := range t.Columns {
		units[i] = resource.Keys[i].Unit()
	}
	return Document{Columns: t.Columns, Units: units, Rows: t.Rows, Current: pool.Snapshot()}
}

// WriteJSON writes the retained history of pool to w in JSON format.
func WriteJSON(w io.Writer, pool *resource.Pool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(pool))
}

// WriteTicks writes one CSV row per tick record, header included.
func WriteTicks(w io.Writer, recs []runlog.Record) error {
	if len(recs) == 0 {
		recs = []runlog.Record{}
	}
	return gocsv.Marshal(&recs, w)
}
