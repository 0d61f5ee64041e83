// Package ledger owns the inspection record tables: the per-viewpoint table
// with three rows per building and the per-building exposure summary, plus
// their CSV merge and flush behavior.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
)

// ViewsPerBuilding is the number of viewpoint rows each building owns.
const ViewsPerBuilding = 3

// Columns is the fixed per-viewpoint table schema.
var Columns = []string{
	"ID", "Latitude", "Longitude", "Country", "City",
	"LLRS Material", "LLRS", "Code Level", "Number of Stories",
	"Occupancy", "Block Position", "Image Quality", "Taxonomy",
	"Image filename or link",
}

// ErrFileAccess is returned when a flush target is locked or inaccessible.
// The in-memory tables are left intact so the operator can retry.
var ErrFileAccess = errors.New("ledger file is open or the folder is inaccessible")

// ErrSavedTableTooLong is returned when a saved ledger has more rows than
// the in-memory table; the position-based merge cannot place them.
var ErrSavedTableTooLong = errors.New("saved ledger longer than current table")

// Record is one inspection row. All values are stored as their CSV text so
// saved rows merge back verbatim.
type Record struct {
	ID            string
	Latitude      string
	Longitude     string
	Country       string
	City          string
	Material      string
	LLRS          string
	CodeLevel     string
	Stories       string
	Occupancy     string
	BlockPosition string
	ImageQuality  string
	Taxonomy      string
	ImageRef      string
}

// IsNull reports whether the row has never been written.
func (r Record) IsNull() bool {
	return r == Record{}
}

// RecomputeTaxonomy refreshes the derived taxonomy string from its
// constituent fields. Rows with no constituent set keep an empty taxonomy.
func (r *Record) RecomputeTaxonomy() {
	if r.Material == "" && r.LLRS == "" && r.Stories == "" && r.CodeLevel == "" {
		r.Taxonomy = ""
		return
	}
	r.Taxonomy = r.Material + "/" + r.LLRS + "/HEX:" + r.Stories + "/CODE:" + r.CodeLevel
}

func (r Record) fields() []string {
	return []string{
		r.ID, r.Latitude, r.Longitude, r.Country, r.City,
		r.Material, r.LLRS, r.CodeLevel, r.Stories,
		r.Occupancy, r.BlockPosition, r.ImageQuality, r.Taxonomy, r.ImageRef,
	}
}

func recordFromFields(f []string) (Record, error) {
	if len(f) != len(Columns) {
		return Record{}, fmt.Errorf("row has %d fields, want %d", len(f), len(Columns))
	}
	return Record{
		ID: f[0], Latitude: f[1], Longitude: f[2], Country: f[3], City: f[4],
		Material: f[5], LLRS: f[6], CodeLevel: f[7], Stories: f[8],
		Occupancy: f[9], BlockPosition: f[10], ImageQuality: f[11],
		Taxonomy: f[12], ImageRef: f[13],
	}, nil
}

// Table is the in-memory inspection ledger for one project.
type Table struct {
	rows     []Record // 3 per building
	exposure []Record // 1 per building
}

// NewTable creates an all-null ledger for a sample of the given size.
func NewTable(sampleCount int) *Table {
	return &Table{
		rows:     make([]Record, sampleCount*ViewsPerBuilding),
		exposure: make([]Record, sampleCount),
	}
}

// Len returns the viewpoint row count.
func (t *Table) Len() int {
	return len(t.rows)
}

// Buildings returns the building count.
func (t *Table) Buildings() int {
	return len(t.exposure)
}

// Row returns a copy of one viewpoint row.
func (t *Table) Row(i int) Record {
	return t.rows[i]
}

// SetViewpoint writes one viewpoint row in place, recomputing the taxonomy.
func (t *Table) SetViewpoint(buildingIndex, viewIndex int, rec Record) error {
	if viewIndex < 0 || viewIndex >= ViewsPerBuilding {
		return fmt.Errorf("view index %d out of range", viewIndex)
	}
	i := buildingIndex*ViewsPerBuilding + viewIndex
	if i < 0 || i >= len(t.rows) {
		return fmt.Errorf("building index %d out of range", buildingIndex)
	}
	rec.RecomputeTaxonomy()
	t.rows[i] = rec
	return nil
}

// SetExposure writes one per-building summary row in place.
func (t *Table) SetExposure(buildingIndex int, rec Record) error {
	if buildingIndex < 0 || buildingIndex >= len(t.exposure) {
		return fmt.Errorf("building index %d out of range", buildingIndex)
	}
	rec.RecomputeTaxonomy()
	t.exposure[buildingIndex] = rec
	return nil
}

// NonNullRows counts viewpoint rows that have been written.
func (t *Table) NonNullRows() int {
	n := 0
	for _, r := range t.rows {
		if !r.IsNull() {
			n++
		}
	}
	return n
}

// ResumeCursor computes the building index to resume from after a merge:
// the next advance then lands on the first incomplete building. Returns -1
// for an empty ledger.
func (t *Table) ResumeCursor() int {
	return t.NonNullRows()/ViewsPerBuilding - 1
}

// MergeFromDisk overlays a previously saved ledger onto the table. Saved
// rows overwrite the table prefix verbatim, by position. A missing file is
// not an error; a saved table longer than this one is.
func (t *Table) MergeFromDisk(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil
	}

	saved := records[1:] // skip header
	if len(saved) > len(t.rows) {
		return fmt.Errorf("%w: %d saved, %d in memory", ErrSavedTableTooLong, len(saved), len(t.rows))
	}

	for i, fields := range saved {
		rec, err := recordFromFields(fields)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		t.rows[i] = rec
	}
	return nil
}

// SearchBuilding returns the building index whose rows carry the given ID.
func (t *Table) SearchBuilding(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i, r := range t.rows {
		if r.ID == id {
			return i / ViewsPerBuilding, true
		}
	}
	return 0, false
}
