// Package main provides the entry point for the Exposure Scout inspection
// session.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"exposure-scout/internal/classify"
	"exposure-scout/internal/detect"
	"exposure-scout/internal/geosample"
	"exposure-scout/internal/ledger"
	"exposure-scout/internal/orientation"
	"exposure-scout/internal/project"
	"exposure-scout/internal/session"
	"exposure-scout/internal/streetview"
	"exposure-scout/internal/version"
)

const appTitle = "Exposure Scout"

// detectorModel is the object-detection network file inside the weights
// directory. The six classifier networks live alongside it.
const detectorModel = "building_detector.onnx"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <project-dir>\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	proj, err := project.Load(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to load project %s: %v", os.Args[1], err)
	}
	log.Printf("Loaded project %s (%s)", proj.Prefix(), proj.Variant)

	buildings, err := geosample.ReadBuildingInfo(proj.BuildingInfoPath())
	if err != nil {
		log.Fatalf("Failed to read building sample: %v (run samplederive first)", err)
	}
	log.Printf("Sample holds %d buildings", len(buildings))

	ctrl, cleanup, err := buildController(proj)
	if err != nil {
		log.Fatalf("Failed to assemble session: %v", err)
	}
	defer cleanup()

	ctrl.On(session.EventBuildingShown, func(data interface{}) {
		printBuilding(ctrl)
	})
	ctrl.On(session.EventSaved, func(data interface{}) {
		fmt.Println("inspection tables saved")
	})
	ctrl.On(session.EventViewpointDegraded, func(data interface{}) {
		fmt.Println("one viewpoint could not be processed; see log")
	})

	if err := ctrl.Confirm(); err != nil {
		log.Fatalf("Project not ready: %v", err)
	}
	if err := ctrl.SetSample(buildings); err != nil {
		log.Fatalf("Failed to stage sample: %v", err)
	}

	runLoop(ctrl)
}

// buildController wires the variant-specific collaborators into the session
// controller. The returned cleanup closes network handles.
func buildController(proj *project.Project) (*session.Controller, func(), error) {
	weightsDir := os.Getenv("SCOUT_WEIGHTS_DIR")
	if weightsDir == "" {
		weightsDir = "dl_weights"
	}

	var acquirer session.Acquirer
	var store detect.DerivativeStore
	if proj.Variant == project.VariantLocalFolder {
		local := streetview.NewLocalStore(proj.ImageDir, proj.ImagesPerBuilding)
		acquirer = &streetview.LocalAcquirer{Store: local}
		store = local
	} else {
		key := os.Getenv("MAPS_API_KEY")
		if key == "" {
			return nil, nil, errors.New("MAPS_API_KEY is not set")
		}
		acquirer = &streetview.RemoteAcquirer{Client: streetview.NewClient(key)}
	}

	detector, err := detect.NewDetector(filepath.Join(weightsDir, detectorModel))
	if err != nil {
		return nil, nil, fmt.Errorf("load detector: %w", err)
	}
	cleanup := func() { detector.Close() }

	var classifier session.Classifier
	if proj.AIAssist {
		nets, err := classify.NewClassifier(weightsDir)
		if err != nil {
			detector.Close()
			return nil, nil, fmt.Errorf("load classifiers: %w", err)
		}
		classifier = classify.CropClassifier{Nets: nets}
		cleanup = func() {
			detector.Close()
			nets.Close()
		}
	}

	orienter := orientation.NewResolver(os.Getenv("MAPS_API_KEY"))
	svc := &detect.Service{Detector: detector, Store: store}

	return session.NewController(proj, orienter, acquirer, svc, classifier), cleanup, nil
}

// runLoop reads operator commands from stdin until quit or EOF.
func runLoop(ctrl *session.Controller) {
	ctx := context.Background()
	fmt.Println("commands: next, prev, search <id>, edit <view> <field> <value>, show, save, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "next", "n":
			err = ctrl.Next(ctx)
		case "prev", "p":
			err = ctrl.Previous(ctx)
		case "search":
			if len(fields) != 2 {
				fmt.Println("usage: search <building-id>")
				continue
			}
			err = ctrl.Search(fields[1])
		case "edit":
			err = editDraft(ctrl, fields[1:])
		case "show":
			printBuilding(ctrl)
		case "save", "s":
			err = ctrl.Save()
		case "quit", "q":
			if err := ctrl.Save(); err != nil {
				log.Printf("Save on exit failed: %v", err)
			}
			return
		default:
			fmt.Printf("unknown command %q\n", fields[0])
			continue
		}

		switch {
		case err == nil:
		case errors.Is(err, session.ErrNoFurther):
			fmt.Println(err)
		case errors.Is(err, session.ErrNotFound):
			fmt.Println(err)
		default:
			log.Printf("Command %s failed: %v", fields[0], err)
		}
	}
}

// editDraft applies one field edit to an in-progress viewpoint record.
func editDraft(ctrl *session.Controller, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: edit <view 1-3> <field> <value>")
	}
	view, err := strconv.Atoi(args[0])
	if err != nil || view < 1 || view > ledger.ViewsPerBuilding {
		return fmt.Errorf("view must be 1-%d", ledger.ViewsPerBuilding)
	}

	rec := ctrl.Draft(view - 1)
	value := strings.Join(args[2:], " ")
	switch args[1] {
	case "material":
		rec.Material = value
	case "llrs":
		rec.LLRS = value
	case "code":
		rec.CodeLevel = value
	case "stories":
		rec.Stories = value
	case "occupancy":
		rec.Occupancy = value
	case "block":
		rec.BlockPosition = value
	case "quality":
		rec.ImageQuality = value
	default:
		return fmt.Errorf("unknown field %q", args[1])
	}
	rec.RecomputeTaxonomy()
	return ctrl.SetDraft(view-1, rec)
}

// printBuilding renders the current building and its three draft rows.
func printBuilding(ctrl *session.Controller) {
	b, ok := ctrl.CurrentBuilding()
	if !ok {
		fmt.Println("no building displayed")
		return
	}
	fmt.Printf("building %d (%.6f, %.6f)  [%d/%d]\n",
		b.ID, b.Latitude, b.Longitude, ctrl.Cursor()+1, ctrl.SampleCount())

	views := ctrl.Viewpoints()
	for i, v := range views {
		rec := ctrl.Draft(i)
		status := "ok"
		switch {
		case !v.Available:
			status = detect.UnavailableMessage
		case !v.Detected:
			status = detect.NoBuildingMessage
		}
		fmt.Printf("  view %d  heading %.0f  %s\n", i+1, v.Heading, status)
		fmt.Printf("          material=%s llrs=%s code=%s stories=%s occupancy=%s block=%s\n",
			rec.Material, rec.LLRS, rec.CodeLevel, rec.Stories, rec.Occupancy, rec.BlockPosition)
		if rec.Taxonomy != "" {
			fmt.Printf("          taxonomy %s\n", rec.Taxonomy)
		}
	}
}
