// Package classify wraps the per-attribute classification models and maps
// their class indices to the fixed label vocabularies.
package classify

import (
	"fmt"
	"strconv"
)

// Kind selects one of the six independent attribute classifiers.
type Kind int

const (
	KindMaterial Kind = iota
	KindLLRS
	KindCodeLevel
	KindStories
	KindOccupancy
	KindBlockPosition
)

// Kinds lists every attribute in canonical order.
var Kinds = [6]Kind{
	KindMaterial, KindLLRS, KindCodeLevel, KindStories, KindOccupancy, KindBlockPosition,
}

// String returns the attribute's weight-file stem.
func (k Kind) String() string {
	switch k {
	case KindMaterial:
		return "material"
	case KindLLRS:
		return "llrs"
	case KindCodeLevel:
		return "code_level"
	case KindStories:
		return "n_stories"
	case KindOccupancy:
		return "occupancy"
	case KindBlockPosition:
		return "block_position"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Classes returns the output cardinality of the attribute's model.
func (k Kind) Classes() int {
	switch k {
	case KindMaterial:
		return 8
	case KindLLRS:
		return 6
	case KindCodeLevel:
		return 4
	case KindStories:
		return 9
	case KindOccupancy:
		return 7
	case KindBlockPosition:
		return 3
	default:
		return 0
	}
}

// StoryVocabulary maps story-count class indices to label buckets.
var StoryVocabulary = []string{"10-12", "13+", "1", "2", "3", "4", "5", "6-7", "8-9"}

// OccupancyVocabulary maps occupancy class indices to labels. The terminal
// entry repeats "Residential"; the source vocabulary carries the duplicate
// and it is kept verbatim.
var OccupancyVocabulary = []string{
	"Residential", "Educational", "Government", "Industrial", "Mixed", "Other", "Residential",
}

// Value maps a class index to the ledger value for the attribute. Story
// count and occupancy use their vocabularies; the remaining attributes map
// index i to option slot i+1, slot 0 being the unset placeholder.
func Value(kind Kind, index int) (string, error) {
	if index < 0 || index >= kind.Classes() {
		return "", fmt.Errorf("class index %d out of range for %s (%d classes)",
			index, kind, kind.Classes())
	}
	switch kind {
	case KindStories:
		return StoryVocabulary[index], nil
	case KindOccupancy:
		return OccupancyVocabulary[index], nil
	default:
		return strconv.Itoa(index + 1), nil
	}
}
