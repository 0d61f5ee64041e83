package session

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"exposure-scout/internal/classify"
	"exposure-scout/internal/geosample"
	"exposure-scout/internal/ledger"
	"exposure-scout/internal/project"
	"exposure-scout/pkg/geometry"
)

// Controller is the session state machine. All methods are called from the
// single interaction goroutine; the mutex protects listener registration and
// the cursor for observers.
type Controller struct {
	mu sync.RWMutex

	Project *project.Project

	orienter   Orienter
	acquirer   Acquirer
	detector   Detector
	classifier Classifier

	buildings []geosample.Building
	table     *ledger.Table
	state     State
	cursor    int
	resumed   bool

	// In-progress edits for the displayed building, one draft per view.
	drafts [ledger.ViewsPerBuilding]ledger.Record
	views  [ledger.ViewsPerBuilding]Viewpoint

	listeners map[EventType][]EventListener
}

// NewController creates an idle session for a project.
func NewController(p *project.Project, o Orienter, a Acquirer, d Detector, c Classifier) *Controller {
	return &Controller{
		Project:    p,
		orienter:   o,
		acquirer:   a,
		detector:   d,
		classifier: c,
		state:      StateIdle,
		cursor:     -1,
		listeners:  make(map[EventType][]EventListener),
	}
}

// On registers an event listener.
func (c *Controller) On(event EventType, listener EventListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[event] = append(c.listeners[event], listener)
}

// Emit triggers all listeners for the event type.
func (c *Controller) Emit(event EventType, data interface{}) {
	c.mu.RLock()
	listeners := c.listeners[event]
	c.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// State returns the current machine state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Cursor returns the current building index, -1 before the first advance.
func (c *Controller) Cursor() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursor
}

// Confirm moves the idle session to awaiting-sample once the project
// preconditions hold.
func (c *Controller) Confirm() error {
	if !c.Project.Ready() {
		return ErrNotConfigured
	}
	c.mu.Lock()
	c.state = StateAwaitingSample
	c.mu.Unlock()
	return nil
}

// SetSample installs the derived building sample, creates the ledger, and
// merges any previously saved rows. The resume cursor adjustment happens at
// most once per session.
func (c *Controller) SetSample(buildings []geosample.Building) error {
	if !c.Project.Ready() {
		return ErrNotConfigured
	}
	if len(buildings) == 0 {
		return fmt.Errorf("empty building sample")
	}

	table := ledger.NewTable(len(buildings))
	if err := table.MergeFromDisk(c.Project.LedgerPath()); err != nil {
		return fmt.Errorf("merge saved ledger: %w", err)
	}

	c.mu.Lock()
	c.buildings = buildings
	c.table = table
	if !c.resumed {
		c.cursor = table.ResumeCursor()
		c.resumed = true
		if c.cursor >= 0 {
			log.Printf("Resuming at building %d of %d", c.cursor+1, len(buildings))
		}
	}
	c.state = StateAwaitingSample
	c.mu.Unlock()

	c.Emit(EventSampleReady, len(buildings))
	return nil
}

// SampleCount returns the sampled building count.
func (c *Controller) SampleCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buildings)
}

// Table exposes the ledger for read access.
func (c *Controller) Table() *ledger.Table {
	return c.table
}

// CurrentBuilding returns the displayed building.
func (c *Controller) CurrentBuilding() (geosample.Building, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateAtBuilding || c.cursor < 0 || c.cursor >= len(c.buildings) {
		return geosample.Building{}, false
	}
	return c.buildings[c.cursor], true
}

// Viewpoints returns the pipeline results for the displayed building.
func (c *Controller) Viewpoints() [ledger.ViewsPerBuilding]Viewpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.views
}

// Draft returns the in-progress record for one view of the displayed
// building.
func (c *Controller) Draft(viewIndex int) ledger.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.drafts[viewIndex]
}

// SetDraft replaces the in-progress record for one view. Edits are not
// durable until the next "next" or "save".
func (c *Controller) SetDraft(viewIndex int, rec ledger.Record) error {
	if viewIndex < 0 || viewIndex >= ledger.ViewsPerBuilding {
		return fmt.Errorf("view index %d out of range", viewIndex)
	}
	rec.RecomputeTaxonomy()
	c.mu.Lock()
	c.drafts[viewIndex] = rec
	c.mu.Unlock()
	return nil
}

// Next commits the displayed building and advances the cursor. On the last
// building it raises the exhausted notice and the cursor stays put.
func (c *Controller) Next(ctx context.Context) error {
	if !c.Project.Ready() {
		return ErrNotConfigured
	}
	if c.table == nil {
		return ErrNoSample
	}

	if c.cursor+1 >= len(c.buildings) {
		if c.state == StateAtBuilding && c.cursor >= 0 {
			c.commitCurrent()
		}
		c.mu.Lock()
		c.state = StateExhausted
		c.mu.Unlock()
		c.Emit(EventExhausted, c.cursor)
		return ErrNoFurther
	}

	if c.state == StateAtBuilding && c.cursor >= 0 {
		c.commitCurrent()
	}

	c.mu.Lock()
	c.cursor++
	c.mu.Unlock()

	c.runPipeline(ctx)
	return nil
}

// Previous steps back one building without committing. At the first
// building it is a no-op, not an error.
func (c *Controller) Previous(ctx context.Context) error {
	if !c.Project.Ready() {
		return ErrNotConfigured
	}
	if c.table == nil {
		return ErrNoSample
	}
	if c.cursor <= 0 {
		return nil
	}

	c.mu.Lock()
	c.cursor--
	c.mu.Unlock()

	c.runPipeline(ctx)
	return nil
}

// Search repositions the cursor on the building whose ledger rows carry the
// given ID. The jump is display-only: no acquisition or detection runs.
func (c *Controller) Search(id string) error {
	if c.table == nil {
		return ErrNoSample
	}

	idx, ok := c.table.SearchBuilding(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	c.mu.Lock()
	c.cursor = idx
	c.state = StateAtBuilding
	for v := 0; v < ledger.ViewsPerBuilding; v++ {
		c.drafts[v] = c.table.Row(idx*ledger.ViewsPerBuilding + v)
		c.views[v] = Viewpoint{Index: v}
	}
	c.mu.Unlock()

	c.Emit(EventBuildingShown, idx)
	return nil
}

// Save commits the displayed building's edits and flushes both CSV tables.
func (c *Controller) Save() error {
	if !c.Project.Ready() {
		return ErrNotConfigured
	}
	if c.table == nil {
		return ErrNoSample
	}

	if c.state == StateAtBuilding && c.cursor >= 0 {
		c.commitCurrent()
	}

	if err := c.table.Flush(c.Project.LedgerPath(), c.Project.ExposurePath()); err != nil {
		return err
	}
	c.Emit(EventSaved, nil)
	return nil
}

// commitCurrent writes the three draft rows of the displayed building into
// the ledger, and the per-building exposure row for list-based projects.
func (c *Controller) commitCurrent() {
	c.mu.Lock()
	cursor := c.cursor
	drafts := c.drafts
	c.mu.Unlock()

	for v := 0; v < ledger.ViewsPerBuilding; v++ {
		if err := c.table.SetViewpoint(cursor, v, drafts[v]); err != nil {
			log.Printf("Commit building %d view %d: %v", cursor, v, err)
		}
	}
	if c.Project.Variant == project.VariantSpecificList {
		if err := c.table.SetExposure(cursor, drafts[1]); err != nil {
			log.Printf("Commit exposure %d: %v", cursor, err)
		}
	}
}

// runPipeline executes the full per-building stage sequence for the cursor
// position. Any stage failure degrades that viewpoint to a placeholder state
// instead of aborting the step.
func (c *Controller) runPipeline(ctx context.Context) {
	c.mu.RLock()
	cursor := c.cursor
	b := c.buildings[cursor]
	c.mu.RUnlock()

	headings := c.resolveHeadings(ctx, b)

	avail := true
	if c.acquirer != nil {
		var err error
		avail, err = c.acquirer.Available(ctx, b)
		if err != nil {
			log.Printf("Availability check for building %d: %v", b.ID, err)
			avail = false
		}
	}

	var views [ledger.ViewsPerBuilding]Viewpoint
	var drafts [ledger.ViewsPerBuilding]ledger.Record
	for v := 0; v < ledger.ViewsPerBuilding; v++ {
		views[v], drafts[v] = c.runViewpoint(ctx, b, v, headings[v], avail)
	}

	c.mu.Lock()
	c.views = views
	c.drafts = drafts
	c.state = StateAtBuilding
	c.mu.Unlock()

	c.Emit(EventBuildingShown, cursor)
}

// resolveHeadings asks the road service for the bearing; when no road is
// found or the service fails the 180-degree fallback convention applies.
func (c *Controller) resolveHeadings(ctx context.Context, b geosample.Building) [3]float64 {
	if c.orienter == nil {
		return geometry.Headings(0)
	}
	_, headings, err := c.orienter.ResolveHeadings(ctx, b.Coordinate())
	if err != nil {
		log.Printf("Road bearing for building %d: %v (using fallback headings)", b.ID, err)
		return geometry.Headings(0)
	}
	return headings
}

func (c *Controller) runViewpoint(ctx context.Context, b geosample.Building, viewIndex int, heading float64, avail bool) (Viewpoint, ledger.Record) {
	view := Viewpoint{Index: viewIndex, Heading: heading, Available: avail}

	// A committed row is reloaded as the draft; predictions fill only
	// fresh rows so saved operator edits are never overwritten.
	rec := c.table.Row(c.cursor*ledger.ViewsPerBuilding + viewIndex)
	fresh := rec.IsNull()
	if fresh {
		rec = c.baseRecord(b)
	}
	if c.acquirer != nil {
		rec.ImageRef = c.acquirer.Reference(b, viewIndex, heading, avail)
	}

	if !avail || c.acquirer == nil {
		return view, rec
	}

	img, err := c.acquirer.Fetch(ctx, b, viewIndex, heading)
	if err != nil {
		log.Printf("Fetch building %d view %d: %v", b.ID, viewIndex, err)
		c.Emit(EventViewpointDegraded, degradedNotice{BuildingID: b.ID, ViewIndex: viewIndex, Err: err})
		view.Available = false
		return view, rec
	}
	view.Image = img

	if c.detector == nil {
		return view, rec
	}
	crop, confidence, found, err := c.detector.Detect(b.ID, viewIndex, img)
	if err != nil {
		log.Printf("Detect building %d view %d: %v", b.ID, viewIndex, err)
		c.Emit(EventViewpointDegraded, degradedNotice{BuildingID: b.ID, ViewIndex: viewIndex, Err: err})
		return view, rec
	}
	if !found {
		// A miss is a normal outcome; classification is skipped.
		return view, rec
	}
	view.Crop = crop
	view.Confidence = confidence
	view.Detected = true

	if c.Project.AIAssist && c.classifier != nil && fresh {
		c.predict(crop, &rec, b.ID, viewIndex)
	}
	return view, rec
}

// predict fills the draft's attribute fields from the six classifiers.
func (c *Controller) predict(crop []byte, rec *ledger.Record, buildingID, viewIndex int) {
	for _, kind := range classify.Kinds {
		idx, err := c.classifier.Classify(crop, kind)
		if err != nil {
			log.Printf("Classify %s for building %d view %d: %v", kind, buildingID, viewIndex, err)
			continue
		}
		value, err := classify.Value(kind, idx)
		if err != nil {
			log.Printf("Classify %s for building %d view %d: %v", kind, buildingID, viewIndex, err)
			continue
		}
		switch kind {
		case classify.KindMaterial:
			rec.Material = value
		case classify.KindLLRS:
			rec.LLRS = value
		case classify.KindCodeLevel:
			rec.CodeLevel = value
		case classify.KindStories:
			rec.Stories = value
		case classify.KindOccupancy:
			rec.Occupancy = value
		case classify.KindBlockPosition:
			rec.BlockPosition = value
		}
	}
	rec.RecomputeTaxonomy()
}

func (c *Controller) baseRecord(b geosample.Building) ledger.Record {
	return ledger.Record{
		ID:        strconv.Itoa(b.ID),
		Latitude:  strconv.FormatFloat(b.Latitude, 'f', -1, 64),
		Longitude: strconv.FormatFloat(b.Longitude, 'f', -1, 64),
		Country:   c.Project.Country,
		City:      c.Project.City,
	}
}
