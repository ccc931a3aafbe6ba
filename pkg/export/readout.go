package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/kilianp07/solarsim/core/resource"
)

// Readout returns the current value of every resource on one line, in
// column order, e.g. "Elapsed Time: 60 s | Battery Charge: 2 Ah [warn] | ...".
// Values outside their safe band carry the hazard level.
func Readout(pool *resource.Pool) string {
	parts := make([]string, len(resource.Keys))
	for i, k := range resource.Keys {
		r := pool.Get(k)
		parts[i] = r.Name() + ": " + r.QuickText()
		if lvl := r.Level(); lvl != resource.LevelSafe {
			parts[i] += " [" + lvl.String() + "]"
		}
	}
	return strings.Join(parts, " | ")
}

// WriteReadout writes Readout(pool) followed by a newline.
func WriteReadout(w io.Writer, pool *resource.Pool) error {
	_, err := fmt.Fprintln(w, Readout(pool))
	return err
}
