package entities

// Product represents one trackable, recognizable product box
type Product struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Label is the classifier label for this product. Empty means Name.
	Label        string        `json:"label,omitempty" yaml:"label,omitempty"`
	TargetIndex  int           `json:"targetIndex" yaml:"targetIndex" validate:"min=0"`
	Target       Target        `json:"target" yaml:"target"`
	Model        Model         `json:"model" yaml:"model"`
	UI           *UI           `json:"ui,omitempty" yaml:"ui,omitempty"`
	Interactions *Interactions `json:"interactions,omitempty" yaml:"interactions,omitempty"`
}

// ClassifierLabel returns the label the classification model emits for this product
func (p *Product) ClassifierLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.Name
}

// Target references the physical tracking target asset
type Target struct {
	ImagePath   string `json:"imagePath" yaml:"imagePath"`
	PreviewPath string `json:"previewPath,omitempty" yaml:"previewPath,omitempty"`
}

// Vec3 is a three component vector used for position, rotation and scale
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// IsZero reports whether all components are zero
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Model describes the 3D content anchored to the target
type Model struct {
	Path      string    `json:"path" yaml:"path" validate:"required"`
	Position  Vec3      `json:"position" yaml:"position"`
	Rotation  Vec3      `json:"rotation" yaml:"rotation"`
	Scale     Vec3      `json:"scale" yaml:"scale"`
	Animation Animation `json:"animation" yaml:"animation"`
}

// Animation controls the model's animation clip
type Animation struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Clip    string `json:"clip,omitempty" yaml:"clip,omitempty"`
	Loop    bool   `json:"loop" yaml:"loop"`
}

// Colors is the UI palette
type Colors struct {
	Primary    string `json:"primary,omitempty" yaml:"primary,omitempty"`
	Secondary  string `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
	Text       string `json:"text,omitempty" yaml:"text,omitempty"`
}

// Content is the textual content of the product panel
type Content struct {
	Title       string   `json:"title" yaml:"title"`
	Subtitle    string   `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Features    []string `json:"features" yaml:"features"`
}

// Button is a call to action rendered in the product panel
type Button struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label" yaml:"label"`
	Action string `json:"action" yaml:"action"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
}

// UI holds the product panel configuration
type UI struct {
	Colors  Colors   `json:"colors" yaml:"colors"`
	Content Content  `json:"content" yaml:"content"`
	Buttons []Button `json:"buttons" yaml:"buttons"`
}

// OnFound lists side effects when the product is identified
type OnFound struct {
	ShowUI    bool   `json:"showUI" yaml:"showUI"`
	PlaySound bool   `json:"playSound" yaml:"playSound"`
	SoundPath string `json:"soundPath,omitempty" yaml:"soundPath,omitempty"`
}

// OnLost lists side effects when the target is lost
type OnLost struct {
	HideUI         bool `json:"hideUI" yaml:"hideUI"`
	PauseAnimation bool `json:"pauseAnimation" yaml:"pauseAnimation"`
}

// Interactions holds found/lost behaviour
type Interactions struct {
	OnFound OnFound `json:"onFound" yaml:"onFound"`
	OnLost  OnLost  `json:"onLost" yaml:"onLost"`
}
