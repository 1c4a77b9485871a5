package database

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/lib/pq"
	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	"github.com/zatekoja/productar/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/productar/pkg/errors"
)

// BackendNamePostgres identifies the primary configuration backend
const BackendNamePostgres = "postgres"

const defaultButtonBatchSize = 100

// productColumns is the select list of the denormalized product query, in scan order
var productColumns = []string{
	"id", "name", "description", "label", "target_index",
	"image_path", "preview_path",
	"model_path", "pos_x", "pos_y", "pos_z", "rot_x", "rot_y", "rot_z",
	"scale_x", "scale_y", "scale_z", "animation_enabled", "animation_clip", "animation_loop",
	"ui_product_id", "color_primary", "color_secondary", "color_background", "color_text",
	"title", "subtitle", "ui_description", "features",
	"interactions_product_id", "show_ui", "play_sound", "sound_path", "hide_ui", "pause_animation",
}

// CatalogAdapter reads published products from Postgres and flattens the
// target, model, UI, button and interaction sub-tables into a catalog.
type CatalogAdapter struct {
	client          *postgres.Client
	db              *goqu.Database
	status          string
	buttonBatchSize int
}

// NewCatalogAdapter creates the primary configuration backend
func NewCatalogAdapter(client *postgres.Client, publishStatus string) *CatalogAdapter {
	if publishStatus == "" {
		publishStatus = "published"
	}
	return &CatalogAdapter{
		client:          client,
		db:              goqu.New("postgres", client.DB()),
		status:          publishStatus,
		buttonBatchSize: defaultButtonBatchSize,
	}
}

var _ providers.ConfigurationBackend = (*CatalogAdapter)(nil)

// Name implements ConfigurationBackend
func (a *CatalogAdapter) Name() string {
	return BackendNamePostgres
}

// Fetch implements ConfigurationBackend
func (a *CatalogAdapter) Fetch(ctx context.Context) (*entities.Catalog, error) {
	products, err := a.listProducts(ctx)
	if err != nil {
		return nil, err
	}

	if len(products) > 0 {
		if err := a.attachButtons(ctx, products); err != nil {
			return nil, err
		}
	}

	settings, err := a.globalSettings(ctx)
	if err != nil {
		return nil, err
	}

	return &entities.Catalog{
		Products:       products,
		GlobalSettings: settings,
		Source:         BackendNamePostgres,
	}, nil
}

func (a *CatalogAdapter) productQuery() (string, error) {
	query, _, err := a.db.From(goqu.T("products").As("p")).
		LeftJoin(goqu.T("product_targets").As("t"), goqu.On(goqu.I("t.product_id").Eq(goqu.I("p.id")))).
		LeftJoin(goqu.T("product_models").As("m"), goqu.On(goqu.I("m.product_id").Eq(goqu.I("p.id")))).
		LeftJoin(goqu.T("product_ui").As("u"), goqu.On(goqu.I("u.product_id").Eq(goqu.I("p.id")))).
		LeftJoin(goqu.T("product_interactions").As("i"), goqu.On(goqu.I("i.product_id").Eq(goqu.I("p.id")))).
		Select(
			goqu.I("p.id"), goqu.I("p.name"), goqu.I("p.description"), goqu.I("p.label"), goqu.I("p.target_index"),
			goqu.I("t.image_path"), goqu.I("t.preview_path"),
			goqu.I("m.path").As("model_path"),
			goqu.I("m.pos_x"), goqu.I("m.pos_y"), goqu.I("m.pos_z"),
			goqu.I("m.rot_x"), goqu.I("m.rot_y"), goqu.I("m.rot_z"),
			goqu.I("m.scale_x"), goqu.I("m.scale_y"), goqu.I("m.scale_z"),
			goqu.I("m.animation_enabled"), goqu.I("m.animation_clip"), goqu.I("m.animation_loop"),
			goqu.I("u.product_id").As("ui_product_id"),
			goqu.I("u.color_primary"), goqu.I("u.color_secondary"), goqu.I("u.color_background"), goqu.I("u.color_text"),
			goqu.I("u.title"), goqu.I("u.subtitle"), goqu.I("u.description").As("ui_description"), goqu.I("u.features"),
			goqu.I("i.product_id").As("interactions_product_id"),
			goqu.I("i.show_ui"), goqu.I("i.play_sound"), goqu.I("i.sound_path"),
			goqu.I("i.hide_ui"), goqu.I("i.pause_animation"),
		).
		Where(goqu.I("p.status").Eq(a.status)).
		Order(goqu.I("p.sort_order").Asc(), goqu.I("p.id").Asc()).
		ToSQL()
	return query, err
}

type productRow struct {
	id, name               string
	description, label     sql.NullString
	targetIndex            int
	imagePath, previewPath sql.NullString
	modelPath              sql.NullString
	pos, rot, scale        [3]sql.NullFloat64
	animEnabled, animLoop  sql.NullBool
	animClip               sql.NullString
	uiProductID            sql.NullString
	colors                 [4]sql.NullString
	title, subtitle        sql.NullString
	uiDesc                 sql.NullString
	features               pq.StringArray
	interactionsProductID  sql.NullString
	showUI, playSound      sql.NullBool
	soundPath              sql.NullString
	hideUI, pauseAnimation sql.NullBool
}

func (r *productRow) targets() []interface{} {
	return []interface{}{
		&r.id, &r.name, &r.description, &r.label, &r.targetIndex,
		&r.imagePath, &r.previewPath,
		&r.modelPath, &r.pos[0], &r.pos[1], &r.pos[2], &r.rot[0], &r.rot[1], &r.rot[2],
		&r.scale[0], &r.scale[1], &r.scale[2], &r.animEnabled, &r.animClip, &r.animLoop,
		&r.uiProductID, &r.colors[0], &r.colors[1], &r.colors[2], &r.colors[3],
		&r.title, &r.subtitle, &r.uiDesc, &r.features,
		&r.interactionsProductID, &r.showUI, &r.playSound, &r.soundPath, &r.hideUI, &r.pauseAnimation,
	}
}

func vec(v [3]sql.NullFloat64) entities.Vec3 {
	return entities.Vec3{X: v[0].Float64, Y: v[1].Float64, Z: v[2].Float64}
}

// product flattens a joined row. Missing sub-table rows leave the section
// nil so the normalizer can apply defaults.
func (r *productRow) product() entities.Product {
	p := entities.Product{
		ID:          r.id,
		Name:        r.name,
		Description: r.description.String,
		Label:       r.label.String,
		TargetIndex: r.targetIndex,
		Target: entities.Target{
			ImagePath:   r.imagePath.String,
			PreviewPath: r.previewPath.String,
		},
		Model: entities.Model{
			Path:     r.modelPath.String,
			Position: vec(r.pos),
			Rotation: vec(r.rot),
			Scale:    vec(r.scale),
			Animation: entities.Animation{
				Enabled: r.animEnabled.Bool,
				Clip:    r.animClip.String,
				Loop:    r.animLoop.Bool,
			},
		},
	}

	if r.uiProductID.Valid {
		p.UI = &entities.UI{
			Colors: entities.Colors{
				Primary:    r.colors[0].String,
				Secondary:  r.colors[1].String,
				Background: r.colors[2].String,
				Text:       r.colors[3].String,
			},
			Content: entities.Content{
				Title:       r.title.String,
				Subtitle:    r.subtitle.String,
				Description: r.uiDesc.String,
				Features:    []string(r.features),
			},
		}
	}

	if r.interactionsProductID.Valid {
		p.Interactions = &entities.Interactions{
			OnFound: entities.OnFound{
				ShowUI:    r.showUI.Bool,
				PlaySound: r.playSound.Bool,
				SoundPath: r.soundPath.String,
			},
			OnLost: entities.OnLost{
				HideUI:         r.hideUI.Bool,
				PauseAnimation: r.pauseAnimation.Bool,
			},
		}
	}
	return p
}

func (a *CatalogAdapter) listProducts(ctx context.Context) ([]entities.Product, error) {
	query, err := a.productQuery()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build product query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to query products", err)
	}
	defer rows.Close()

	products := make([]entities.Product, 0)
	for rows.Next() {
		var row productRow
		if err := rows.Scan(row.targets()...); err != nil {
			return nil, apperrors.NewInternalError("failed to scan product row", err)
		}
		products = append(products, row.product())
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewExternalError("failed to read product rows", err)
	}
	return products, nil
}

// attachButtons loads buttons for every product with a UI section, batching
// product ids into IN queries of at most buttonBatchSize keys.
func (a *CatalogAdapter) attachButtons(ctx context.Context, products []entities.Product) error {
	loader := dataloader.NewBatchedLoader(
		a.batchButtons,
		dataloader.WithBatchCapacity[string, []entities.Button](a.buttonBatchSize),
		dataloader.WithCache[string, []entities.Button](&dataloader.NoCache[string, []entities.Button]{}),
	)

	ids := make([]string, 0, len(products))
	for _, p := range products {
		if p.UI != nil {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	// LoadMany resolves keys concurrently; chunks pin each batch to a fixed id set
	sort.Strings(ids)
	byID := make(map[string][]entities.Button, len(ids))
	for start := 0; start < len(ids); start += a.buttonBatchSize {
		chunk := ids[start:min(start+a.buttonBatchSize, len(ids))]
		buttons, errs := loader.LoadMany(ctx, chunk)()
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
		for i, id := range chunk {
			byID[id] = buttons[i]
		}
	}
	for i := range products {
		if products[i].UI != nil {
			products[i].UI.Buttons = byID[products[i].ID]
		}
	}
	return nil
}

func (a *CatalogAdapter) batchButtons(ctx context.Context, keys []string) []*dataloader.Result[[]entities.Button] {
	results := make([]*dataloader.Result[[]entities.Button], len(keys))

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	grouped, err := a.queryButtons(ctx, sorted)
	for i, key := range keys {
		if err != nil {
			results[i] = &dataloader.Result[[]entities.Button]{Error: err}
			continue
		}
		buttons := grouped[key]
		if buttons == nil {
			buttons = []entities.Button{}
		}
		results[i] = &dataloader.Result[[]entities.Button]{Data: buttons}
	}
	return results
}

func (a *CatalogAdapter) queryButtons(ctx context.Context, productIDs []string) (map[string][]entities.Button, error) {
	query, _, err := a.db.Select("product_id", "id", "label", "action", "url").
		From("product_buttons").
		Where(goqu.Ex{"product_id": productIDs}).
		Order(goqu.I("product_id").Asc(), goqu.I("sort_order").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build button query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to query product buttons", err)
	}
	defer rows.Close()

	grouped := make(map[string][]entities.Button)
	for rows.Next() {
		var productID string
		var b entities.Button
		var url sql.NullString
		if err := rows.Scan(&productID, &b.ID, &b.Label, &b.Action, &url); err != nil {
			return nil, apperrors.NewInternalError("failed to scan product button", err)
		}
		b.URL = url.String
		grouped[productID] = append(grouped[productID], b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewExternalError("failed to read product buttons", err)
	}
	return grouped, nil
}

func (a *CatalogAdapter) globalSettings(ctx context.Context) (entities.GlobalSettings, error) {
	query, _, err := a.db.Select(
		"default_primary", "default_secondary", "default_background", "default_text",
		"loading_text", "instruction_text", "max_simultaneous_targets",
	).From("global_settings").
		Order(goqu.I("id").Asc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return entities.GlobalSettings{}, apperrors.NewInternalError("failed to build settings query", err)
	}

	var (
		colors       [4]sql.NullString
		loading      sql.NullString
		instructions sql.NullString
		maxTargets   sql.NullInt64
	)
	err = a.client.DB().QueryRowContext(ctx, query).Scan(
		&colors[0], &colors[1], &colors[2], &colors[3],
		&loading, &instructions, &maxTargets,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.GlobalSettings{}, nil
	}
	if err != nil {
		return entities.GlobalSettings{}, apperrors.NewExternalError("failed to query global settings", err)
	}

	return entities.GlobalSettings{
		DefaultColors: entities.Colors{
			Primary:    colors[0].String,
			Secondary:  colors[1].String,
			Background: colors[2].String,
			Text:       colors[3].String,
		},
		LoadingText:            loading.String,
		InstructionText:        instructions.String,
		MaxSimultaneousTargets: int(maxTargets.Int64),
	}, nil
}
