package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadLabeledFrames reads a labelled frame set from a JSON or YAML file.
// Relative image paths are resolved against the file's directory.
func LoadLabeledFrames(path string) ([]LabeledFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labelled frames file: %w", err)
	}

	var set FrameSet
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &set)
	default:
		err = json.Unmarshal(data, &set)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse labelled frames: %w", err)
	}

	dir := filepath.Dir(path)
	for i := range set.Frames {
		if img := set.Frames[i].Image; img != "" && !filepath.IsAbs(img) {
			set.Frames[i].Image = filepath.Join(dir, img)
		}
	}

	return set.Frames, nil
}

// ValidateLabeledFrames checks that every frame has an id, an expected product
// known to the catalog and a valid difficulty.
func ValidateLabeledFrames(frames []LabeledFrame, knownProducts map[string]bool) error {
	seen := make(map[string]struct{}, len(frames))

	for i, f := range frames {
		if f.ID == "" {
			return fmt.Errorf("frame at index %d: missing id", i)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("frame at index %d: duplicate id %q", i, f.ID)
		}
		seen[f.ID] = struct{}{}

		if f.ExpectedProduct == "" {
			return fmt.Errorf("frame %q: missing expected product", f.ID)
		}
		if knownProducts != nil && !knownProducts[f.ExpectedProduct] {
			return fmt.Errorf("frame %q: product %q is not in the catalog", f.ID, f.ExpectedProduct)
		}
		if !f.Difficulty.IsValid() {
			return fmt.Errorf("frame %q: invalid difficulty %q (must be easy/medium/hard)", f.ID, f.Difficulty)
		}
	}

	return nil
}
