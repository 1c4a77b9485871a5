package providers

// AssetPreloader receives model asset paths the renderer should fetch before showing the scene
type AssetPreloader interface {
	Preload(paths []string)
}

// UIController is the presentation layer driven by product interactions
type UIController interface {
	ShowPanel(productID string)
	HidePanel(productID string)
	PlaySound(path string)
	PauseAnimation(productID string)
	ClearEffects(targetIndex int)
}
