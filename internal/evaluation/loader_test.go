package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadLabeledFrames_YAML(t *testing.T) {
	path := writeTempFile(t, "frames.yaml", `
frames:
  - id: f1
    image: boxes/spearmint.png
    expectedProduct: p1
    difficulty: easy
  - id: f2
    expectedProduct: p2
    difficulty: hard
    predictions:
      - label: Peppermint
        confidence: 0.81
`)

	frames, err := LoadLabeledFrames(path)
	require.NoError(t, err)

	require.Len(t, frames, 2)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "boxes/spearmint.png"), frames[0].Image)
	assert.Equal(t, DifficultyHard, frames[1].Difficulty)
	assert.Equal(t, []ScriptPrediction{{Label: "Peppermint", Confidence: 0.81}}, frames[1].Predictions)
}

func TestLoadLabeledFrames_JSON(t *testing.T) {
	path := writeTempFile(t, "frames.json", `{"frames":[{"id":"f1","image":"/abs/a.jpg","expectedProduct":"p1","difficulty":"medium"}]}`)

	frames, err := LoadLabeledFrames(path)
	require.NoError(t, err)

	require.Len(t, frames, 1)
	assert.Equal(t, "/abs/a.jpg", frames[0].Image)
	assert.Equal(t, DifficultyMedium, frames[0].Difficulty)
}

func TestLoadLabeledFrames_Errors(t *testing.T) {
	_, err := LoadLabeledFrames("/nonexistent/frames.yaml")
	assert.Error(t, err)

	_, err = LoadLabeledFrames(writeTempFile(t, "frames.json", "not json"))
	assert.ErrorContains(t, err, "failed to parse")
}

func TestValidateLabeledFrames(t *testing.T) {
	known := map[string]bool{"p1": true, "p2": true}
	valid := LabeledFrame{ID: "f1", ExpectedProduct: "p1", Difficulty: DifficultyEasy}

	tests := []struct {
		name    string
		frames  []LabeledFrame
		wantErr string
	}{
		{"valid", []LabeledFrame{valid}, ""},
		{"missing id", []LabeledFrame{{ExpectedProduct: "p1", Difficulty: DifficultyEasy}}, "missing id"},
		{"duplicate id", []LabeledFrame{valid, valid}, "duplicate id"},
		{"missing product", []LabeledFrame{{ID: "f1", Difficulty: DifficultyEasy}}, "missing expected product"},
		{"unknown product", []LabeledFrame{{ID: "f1", ExpectedProduct: "p9", Difficulty: DifficultyEasy}}, "not in the catalog"},
		{"bad difficulty", []LabeledFrame{{ID: "f1", ExpectedProduct: "p1", Difficulty: "extreme"}}, "invalid difficulty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabeledFrames(tt.frames, known)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
