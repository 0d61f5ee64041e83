package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Flush writes both CSV outputs: the per-viewpoint table and the
// per-building exposure table. Each file is written to a temp file and
// renamed into place so a failed save never leaves a partial destination.
// Saving the same table twice produces byte-identical output.
func (t *Table) Flush(viewpointPath, exposurePath string) error {
	if err := writeCSV(viewpointPath, t.rows); err != nil {
		return fmt.Errorf("%w: %v", ErrFileAccess, err)
	}
	if err := writeCSV(exposurePath, t.exposure); err != nil {
		return fmt.Errorf("%w: %v", ErrFileAccess, err)
	}
	return nil
}

func writeCSV(path string, rows []Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write(Columns); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.fields()); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
