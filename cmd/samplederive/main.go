// Command samplederive materializes the building sample for a project: it
// resolves the area of interest, downloads footprints, samples centroids,
// and writes the geopackage artifacts plus building_info.csv.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"exposure-scout/internal/geosample"
	"exposure-scout/internal/project"
	"exposure-scout/internal/revgeo"
	"exposure-scout/pkg/geometry"
)

func main() {
	dir := flag.String("dir", "", "Project directory")
	variant := flag.String("variant", "polygon", "Sample source: polygon, specific_list, or local_folder")
	country := flag.String("country", "", "Country name for the ledger")
	city := flag.String("city", "", "City name for the ledger")
	name := flag.String("name", "", "Custom project name (overrides city_country prefix)")
	size := flag.Int("size", 0, "Number of buildings to sample (polygon variant)")
	boundary := flag.String("boundary", "", "Administrative boundary name")
	corners := flag.String("corners", "", "Two opposite square corners as lat,lon;lat,lon")
	vertices := flag.String("vertices", "", "CSV of boundary polygon vertices (lat,lon rows)")
	points := flag.String("points", "", "CSV of coordinates for the specific_list variant")
	images := flag.String("images", "", "Image folder for the local_folder variant")
	perBuilding := flag.Int("per", project.MaxImagesPerBuilding, "Images per building for the local_folder variant")
	ai := flag.Bool("ai", false, "Enable attribute prediction in the session")
	flag.Parse()

	if *dir == "" {
		fmt.Println("Usage: samplederive -dir <project> [-variant polygon] [-boundary name | -corners a;b] [-size N]")
		os.Exit(1)
	}

	proj, err := project.Load(*dir)
	if err != nil {
		proj = project.New(*dir, project.Variant(*variant))
	}
	proj.Variant = project.Variant(*variant)
	proj.Country = *country
	proj.City = *city
	proj.CustomName = *name
	proj.SampleSize = *size
	proj.AIAssist = *ai
	proj.ImageDir = *images
	if err := proj.SetImagesPerBuilding(*perBuilding); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -per value: %v\n", err)
		os.Exit(1)
	}

	spec, err := buildSpec(proj, *boundary, *corners, *vertices, *points)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	sampler := &geosample.Sampler{
		Project:    proj,
		Boundaries: geosample.NewNominatimBoundaries(),
		Footprints: geosample.NewOverpassFootprints(),
	}

	buildings, err := sampler.DeriveSample(ctx, spec, proj.SampleSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sample derivation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Derived %d buildings\n", len(buildings))

	// Fill missing place names from the first sampled coordinate so the
	// ledger rows carry a country and city.
	if (proj.Country == "" || proj.City == "") && len(buildings) > 0 {
		place, err := revgeo.NewClient().Reverse(ctx, buildings[0].Latitude, buildings[0].Longitude)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Reverse geocoding failed: %v\n", err)
		} else {
			if proj.Country == "" {
				proj.Country = place.Country
			}
			if proj.City == "" {
				proj.City = place.City
			}
			fmt.Printf("Resolved place: %s, %s\n", proj.City, proj.Country)
		}
	}

	if err := proj.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save project: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Project %s ready at %s\n", proj.Prefix(), proj.Dir)
}

// buildSpec translates the flags into the variant-specific sample spec.
func buildSpec(proj *project.Project, boundary, corners, vertices, points string) (geosample.Spec, error) {
	switch proj.Variant {
	case project.VariantPolygon:
		spec := geosample.PolygonSpec{BoundaryName: boundary}
		if corners != "" {
			pts, err := parseCorners(corners)
			if err != nil {
				return nil, err
			}
			spec.Corners = pts
		}
		if vertices != "" {
			list, err := readPoints(vertices)
			if err != nil {
				return nil, err
			}
			ring := make(geometry.Ring, len(list))
			for i, b := range list {
				ring[i] = geometry.Point2D{X: b.Longitude, Y: b.Latitude}
			}
			spec.Vertices = ring
		}
		if boundary == "" && corners == "" && vertices == "" {
			return nil, fmt.Errorf("polygon variant needs -boundary, -corners, or -vertices")
		}
		return spec, nil

	case project.VariantSpecificList:
		if points == "" {
			return nil, fmt.Errorf("specific_list variant needs -points")
		}
		list, err := readPoints(points)
		if err != nil {
			return nil, err
		}
		return geosample.ListSpec{Points: list}, nil

	case project.VariantLocalFolder:
		if proj.ImageDir == "" || points == "" {
			return nil, fmt.Errorf("local_folder variant needs -images and -points")
		}
		list, err := readPoints(points)
		if err != nil {
			return nil, err
		}
		return geosample.FolderSpec{ImageDir: proj.ImageDir, Buildings: list}, nil

	default:
		return nil, fmt.Errorf("unknown variant %q", proj.Variant)
	}
}

// parseCorners reads "lat,lon;lat,lon" into two points.
func parseCorners(s string) ([]geometry.Point2D, error) {
	parts := strings.Split(s, ";")
	if len(parts) != 2 {
		return nil, fmt.Errorf("corners want two lat,lon pairs separated by ;")
	}
	pts := make([]geometry.Point2D, 2)
	for i, part := range parts {
		lat, lon, err := parseLatLon(part)
		if err != nil {
			return nil, err
		}
		pts[i] = geometry.Point2D{X: lon, Y: lat}
	}
	return pts, nil
}

func parseLatLon(s string) (float64, float64, error) {
	coords := strings.Split(strings.TrimSpace(s), ",")
	if len(coords) != 2 {
		return 0, 0, fmt.Errorf("coordinate %q wants lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad latitude in %q: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad longitude in %q: %w", s, err)
	}
	return lat, lon, nil
}

// readPoints loads the operator coordinate list. Rows are "lat,lon" or
// "id,lat,lon"; a header row is skipped.
func readPoints(path string) ([]geosample.Building, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read points %s: %w", path, err)
	}

	var list []geosample.Building
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		var id int
		latField, lonField := row[0], row[1]
		if len(row) >= 3 {
			id, _ = strconv.Atoi(strings.TrimSpace(row[0]))
			latField, lonField = row[1], row[2]
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latField), 64)
		if err != nil {
			// Header row.
			continue
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(lonField), 64)
		if err != nil {
			continue
		}
		if id == 0 {
			id = len(list) + 1
		}
		list = append(list, geosample.Building{ID: id, Latitude: lat, Longitude: lon})
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no coordinates found in %s", path)
	}
	return list, nil
}
