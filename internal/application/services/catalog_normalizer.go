package services

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/zatekoja/productar/internal/domain/entities"
	apperrors "github.com/zatekoja/productar/pkg/errors"
)

// Documented defaults applied to sections a backend leaves empty
var (
	DefaultColors = entities.Colors{
		Primary:    "#4CAF50",
		Secondary:  "#2196F3",
		Background: "rgba(0, 0, 0, 0.8)",
		Text:       "#FFFFFF",
	}
	DefaultScale = entities.Vec3{X: 1, Y: 1, Z: 1}
)

const (
	DefaultLoadingText            = "Loading AR experience..."
	DefaultInstructionText        = "Point your camera at the product box"
	DefaultMaxSimultaneousTargets = 1
	DefaultAnimationClip          = "*"
)

// ConfigValidationWarning is a non-fatal inconsistency found in a loaded catalog
type ConfigValidationWarning struct {
	Message    string   `json:"message"`
	ProductIDs []string `json:"productIds,omitempty"`
	Paths      []string `json:"paths,omitempty"`
}

// Err returns the warning as an AppError for logging
func (w ConfigValidationWarning) Err() error {
	return apperrors.NewConfigValidationWarning(w.Message)
}

// CatalogNormalizer validates products and fills documented defaults
type CatalogNormalizer struct {
	validate *validator.Validate
}

func NewCatalogNormalizer() *CatalogNormalizer {
	return &CatalogNormalizer{validate: validator.New()}
}

// Normalize returns a normalized copy of catalog and the warnings raised while building it.
// Structurally invalid products and repeated ids are dropped.
func (n *CatalogNormalizer) Normalize(catalog *entities.Catalog) (*entities.Catalog, []ConfigValidationWarning) {
	var warnings []ConfigValidationWarning

	out := &entities.Catalog{
		GlobalSettings: normalizeGlobalSettings(catalog.GlobalSettings),
		Source:         catalog.Source,
		LoadedAt:       catalog.LoadedAt,
		Products:       make([]entities.Product, 0, len(catalog.Products)),
	}

	seen := make(map[string]struct{}, len(catalog.Products))
	for i := range catalog.Products {
		p := catalog.Products[i]

		if err := n.validate.Struct(p); err != nil {
			warnings = append(warnings, ConfigValidationWarning{
				Message:    fmt.Sprintf("product at position %d dropped: %s", i, describeValidation(err)),
				ProductIDs: nonEmpty(p.ID),
			})
			continue
		}
		if _, dup := seen[p.ID]; dup {
			warnings = append(warnings, ConfigValidationWarning{
				Message:    fmt.Sprintf("duplicate product id %q at position %d dropped", p.ID, i),
				ProductIDs: []string{p.ID},
			})
			continue
		}
		seen[p.ID] = struct{}{}

		out.Products = append(out.Products, normalizeProduct(p, out.GlobalSettings))
	}

	warnings = append(warnings, checkTargetPaths(out)...)
	return out, warnings
}

func normalizeGlobalSettings(gs entities.GlobalSettings) entities.GlobalSettings {
	gs.DefaultColors = fillColors(gs.DefaultColors, DefaultColors)
	if gs.LoadingText == "" {
		gs.LoadingText = DefaultLoadingText
	}
	if gs.InstructionText == "" {
		gs.InstructionText = DefaultInstructionText
	}
	if gs.MaxSimultaneousTargets <= 0 {
		gs.MaxSimultaneousTargets = DefaultMaxSimultaneousTargets
	}
	return gs
}

func normalizeProduct(p entities.Product, gs entities.GlobalSettings) entities.Product {
	if p.Model.Scale.IsZero() {
		p.Model.Scale = DefaultScale
	}
	if p.Model.Animation.Enabled && p.Model.Animation.Clip == "" {
		p.Model.Animation.Clip = DefaultAnimationClip
	}

	ui := entities.UI{}
	if p.UI != nil {
		ui = *p.UI
		ui.Buttons = append([]entities.Button(nil), p.UI.Buttons...)
		ui.Content.Features = append([]string(nil), p.UI.Content.Features...)
	}
	ui.Colors = fillColors(ui.Colors, gs.DefaultColors)
	if ui.Content.Title == "" {
		ui.Content.Title = p.Name
	}
	if ui.Content.Features == nil {
		ui.Content.Features = []string{}
	}
	if ui.Buttons == nil {
		ui.Buttons = []entities.Button{}
	}
	p.UI = &ui

	if p.Interactions == nil {
		p.Interactions = &entities.Interactions{
			OnFound: entities.OnFound{ShowUI: true},
			OnLost:  entities.OnLost{HideUI: true, PauseAnimation: true},
		}
	} else {
		interactions := *p.Interactions
		p.Interactions = &interactions
	}
	return p
}

func fillColors(c, defaults entities.Colors) entities.Colors {
	if c.Primary == "" {
		c.Primary = defaults.Primary
	}
	if c.Secondary == "" {
		c.Secondary = defaults.Secondary
	}
	if c.Background == "" {
		c.Background = defaults.Background
	}
	if c.Text == "" {
		c.Text = defaults.Text
	}
	return c
}

// checkTargetPaths reports groups whose products disagree on the target file,
// and catalogs whose groups reference more than one target file.
func checkTargetPaths(catalog *entities.Catalog) []ConfigValidationWarning {
	var warnings []ConfigValidationWarning

	type groupPath struct {
		path       string
		productIDs []string
	}
	var firstPaths []groupPath

	for _, group := range catalog.Groups() {
		var paths []string
		pathSeen := make(map[string]struct{})
		for _, p := range group.Products {
			if p.Target.ImagePath == "" {
				continue
			}
			if _, ok := pathSeen[p.Target.ImagePath]; !ok {
				pathSeen[p.Target.ImagePath] = struct{}{}
				paths = append(paths, p.Target.ImagePath)
			}
		}
		if len(paths) == 0 {
			continue
		}
		if len(paths) > 1 {
			warnings = append(warnings, ConfigValidationWarning{
				Message:    fmt.Sprintf("products at target index %d reference %d different target files", group.TargetIndex, len(paths)),
				ProductIDs: group.ProductIDs(),
				Paths:      paths,
			})
		}
		firstPaths = append(firstPaths, groupPath{path: paths[0], productIDs: group.ProductIDs()})
	}

	var distinct []string
	var offenders []string
	distinctSeen := make(map[string]struct{})
	for _, gp := range firstPaths {
		if _, ok := distinctSeen[gp.path]; !ok {
			distinctSeen[gp.path] = struct{}{}
			distinct = append(distinct, gp.path)
		}
		if gp.path != firstPaths[0].path {
			offenders = append(offenders, gp.productIDs...)
		}
	}
	if len(distinct) > 1 {
		warnings = append(warnings, ConfigValidationWarning{
			Message: fmt.Sprintf("target indices reference %d different target files but the tracking engine compiles one; %q is used",
				len(distinct), distinct[0]),
			ProductIDs: offenders,
			Paths:      distinct,
		})
	}
	return warnings
}

func describeValidation(err error) string {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, e.Namespace()+" is required")
		case "min":
			msgs = append(msgs, e.Namespace()+" must be at least "+e.Param())
		default:
			msgs = append(msgs, e.Namespace()+" is invalid")
		}
	}
	return strings.Join(msgs, ", ")
}

func nonEmpty(id string) []string {
	if id == "" {
		return nil
	}
	return []string{id}
}
