// Package geopkg reads and writes GeoPackage (.gpkg) files. A GeoPackage is
// a SQLite database with a small set of registry tables and one table per
// feature layer; only EPSG:4326 vector layers are supported here.
package geopkg

import (
	"database/sql"
	"fmt"

	"exposure-scout/pkg/geometry"

	_ "modernc.org/sqlite"
)

// PointRow is one feature of a point layer with explicit coordinate columns.
type PointRow struct {
	ID        int
	Latitude  float64
	Longitude float64
}

// open opens or creates a GeoPackage and ensures the registry tables exist.
func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	stmts := []string{
		`PRAGMA application_id = 0x47504B47`,
		`CREATE TABLE IF NOT EXISTS gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS gpkg_contents (
			table_name TEXT PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name)
		)`,
		`INSERT OR IGNORE INTO gpkg_spatial_ref_sys
			(srs_name, srs_id, organization, organization_coordsys_id, definition)
			VALUES ('WGS 84', 4326, 'EPSG', 4326,
			'GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]')`,
		`INSERT OR IGNORE INTO gpkg_spatial_ref_sys
			(srs_name, srs_id, organization, organization_coordsys_id, definition)
			VALUES ('Undefined Cartesian', -1, 'NONE', -1, 'undefined')`,
		`INSERT OR IGNORE INTO gpkg_spatial_ref_sys
			(srs_name, srs_id, organization, organization_coordsys_id, definition)
			VALUES ('Undefined Geographic', 0, 'NONE', 0, 'undefined')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init geopackage: %w", err)
		}
	}
	return db, nil
}

func registerLayer(db *sql.DB, layer, geomType string, min, max geometry.Point2D) error {
	_, err := db.Exec(
		`INSERT OR REPLACE INTO gpkg_contents
			(table_name, data_type, identifier, min_x, min_y, max_x, max_y, srs_id)
			VALUES (?, 'features', ?, ?, ?, ?, ?, 4326)`,
		layer, layer, min.X, min.Y, max.X, max.Y)
	if err != nil {
		return err
	}
	_, err = db.Exec(
		`INSERT OR REPLACE INTO gpkg_geometry_columns
			(table_name, column_name, geometry_type_name, srs_id, z, m)
			VALUES (?, 'geom', ?, 4326, 0, 0)`,
		layer, geomType)
	return err
}

// WritePolygonLayer creates or replaces a polygon feature layer.
func WritePolygonLayer(path, layer string, rings []geometry.Ring) error {
	db, err := open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, layer)); err != nil {
		return err
	}
	_, err = db.Exec(fmt.Sprintf(
		`CREATE TABLE %q (fid INTEGER PRIMARY KEY AUTOINCREMENT, geom BLOB)`, layer))
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %q (geom) VALUES (?)`, layer))
	if err != nil {
		tx.Rollback()
		return err
	}
	var all []geometry.Point2D
	for _, ring := range rings {
		if _, err := stmt.Exec(EncodePolygon(ring)); err != nil {
			stmt.Close()
			tx.Rollback()
			return err
		}
		all = append(all, ring...)
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return err
	}

	min, max := geometry.BoundingBox(all)
	return registerLayer(db, layer, "POLYGON", min, max)
}

// WritePointLayer creates or replaces a point feature layer. Each feature
// carries explicit latitude and longitude attribute columns alongside the
// geometry.
func WritePointLayer(path, layer string, rows []PointRow) error {
	db, err := open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, layer)); err != nil {
		return err
	}
	_, err = db.Exec(fmt.Sprintf(
		`CREATE TABLE %q (fid INTEGER PRIMARY KEY, geom BLOB, latitude DOUBLE, longitude DOUBLE)`,
		layer))
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(fmt.Sprintf(
		`INSERT INTO %q (fid, geom, latitude, longitude) VALUES (?, ?, ?, ?)`, layer))
	if err != nil {
		tx.Rollback()
		return err
	}
	var all []geometry.Point2D
	for _, r := range rows {
		if _, err := stmt.Exec(r.ID, EncodePoint(r.Longitude, r.Latitude), r.Latitude, r.Longitude); err != nil {
			stmt.Close()
			tx.Rollback()
			return err
		}
		all = append(all, geometry.Point2D{X: r.Longitude, Y: r.Latitude})
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return err
	}

	min, max := geometry.BoundingBox(all)
	return registerLayer(db, layer, "POINT", min, max)
}

// ReadPolygonLayer reads every feature of a polygon layer as outer rings.
// Multipolygon features contribute one ring per member.
func ReadPolygonLayer(path, layer string) ([]geometry.Ring, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf(`SELECT geom FROM %q ORDER BY fid`, layer))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []geometry.Ring
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		rings, err := DecodeGeometry(blob)
		if err != nil {
			return nil, err
		}
		out = append(out, rings...)
	}
	return out, rows.Err()
}

// ReadPointLayer reads every feature of a point layer.
func ReadPointLayer(path, layer string) ([]PointRow, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf(
		`SELECT fid, latitude, longitude FROM %q ORDER BY fid`, layer))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PointRow
	for rows.Next() {
		var r PointRow
		if err := rows.Scan(&r.ID, &r.Latitude, &r.Longitude); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
