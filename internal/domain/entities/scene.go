package entities

// Transform positions a model relative to its target
type Transform struct {
	Position Vec3 `json:"position" yaml:"position"`
	Rotation Vec3 `json:"rotation" yaml:"rotation"`
	Scale    Vec3 `json:"scale" yaml:"scale"`
}

// ModelDescriptor is one renderable model inside an entity
type ModelDescriptor struct {
	ProductID string     `json:"productId" yaml:"productId"`
	AssetRef  string     `json:"assetRef" yaml:"assetRef"`
	Transform Transform  `json:"transform" yaml:"transform"`
	Animation *Animation `json:"animation,omitempty" yaml:"animation,omitempty"`
	Visible   bool       `json:"visible" yaml:"visible"`
}

// EntityDescriptor is the renderer-agnostic description of one target's content
type EntityDescriptor struct {
	TargetIndex int               `json:"targetIndex" yaml:"targetIndex"`
	Shared      bool              `json:"shared" yaml:"shared"`
	Models      []ModelDescriptor `json:"models" yaml:"models"`
}
