// Command detecttest runs building detection on a single image and writes
// the cropped and outlined renditions next to it.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"exposure-scout/internal/detect"
	"exposure-scout/pkg/geometry"
)

func main() {
	imagePath := flag.String("image", "", "Path to a viewpoint image (JPEG or PNG)")
	modelPath := flag.String("model", "dl_weights/building_detector.onnx", "Path to the detector network")
	points := flag.String("points", "", "Manual crop corners as x,y;x,y;x,y;x,y (skips detection)")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: detecttest -image <path> [-model dl_weights/building_detector.onnx] [-points x,y;...]")
		os.Exit(1)
	}

	img := gocv.IMRead(*imagePath, gocv.IMReadColor)
	if img.Empty() {
		fmt.Fprintf(os.Stderr, "Failed to read image %s\n", *imagePath)
		os.Exit(1)
	}
	defer img.Close()
	fmt.Printf("Loaded image: %dx%d pixels\n", img.Cols(), img.Rows())

	if *points != "" {
		if err := manualCrop(img, *imagePath, *points); err != nil {
			fmt.Fprintf(os.Stderr, "Manual crop failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	detector, err := detect.NewDetector(*modelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load detector: %v\n", err)
		os.Exit(1)
	}
	defer detector.Close()

	detections, err := detector.Detect(img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Detection failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Found %d candidate boxes\n", len(detections))
	for _, d := range detections {
		fmt.Printf("  %s %.3f at (%d,%d) %dx%d\n",
			d.Label, d.Confidence, d.Box.X, d.Box.Y, d.Box.Width, d.Box.Height)
	}

	base := strings.TrimSuffix(*imagePath, filepath.Ext(*imagePath))
	displayPath := base + "_displayed.jpg"

	best, found := detect.Best(detections, detect.BuildingLabel)
	if !found {
		fmt.Println(detect.NoBuildingMessage)
		placeholder := detect.Placeholder(detect.NoBuildingMessage)
		defer placeholder.Close()
		if ok := gocv.IMWrite(displayPath, placeholder); !ok {
			fmt.Fprintf(os.Stderr, "Failed to write %s\n", displayPath)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", displayPath)
		return
	}
	fmt.Printf("Best: %.3f area %d\n", best.Confidence, best.Box.Area())

	cropped, err := detect.Crop(img, best.Box)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crop failed: %v\n", err)
		os.Exit(1)
	}
	defer cropped.Close()

	cropPath := base + "_cropped.jpg"
	if ok := gocv.IMWrite(cropPath, cropped); !ok {
		fmt.Fprintf(os.Stderr, "Failed to write %s\n", cropPath)
		os.Exit(1)
	}

	displayed := img.Clone()
	defer displayed.Close()
	detect.DrawDashedRect(&displayed, best.Box)
	if ok := gocv.IMWrite(displayPath, displayed); !ok {
		fmt.Fprintf(os.Stderr, "Failed to write %s\n", displayPath)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s and %s\n", cropPath, displayPath)
}

// manualCrop rectifies the quadrilateral named on the command line and
// writes the result next to the source image.
func manualCrop(img gocv.Mat, imagePath, spec string) error {
	var corners []geometry.Point2D
	for _, pair := range strings.Split(spec, ";") {
		coords := strings.Split(strings.TrimSpace(pair), ",")
		if len(coords) != 2 {
			return fmt.Errorf("corner %q wants x,y", pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			return fmt.Errorf("bad x in %q: %w", pair, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			return fmt.Errorf("bad y in %q: %w", pair, err)
		}
		corners = append(corners, geometry.Point2D{X: x, Y: y})
	}

	cropped, err := detect.ManualCrop(img, corners)
	if err != nil {
		return err
	}
	defer cropped.Close()

	cropPath := strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + "_cropped.jpg"
	if ok := gocv.IMWrite(cropPath, cropped); !ok {
		return fmt.Errorf("failed to write %s", cropPath)
	}
	fmt.Printf("Wrote %s (%dx%d)\n", cropPath, cropped.Cols(), cropped.Rows())
	return nil
}
