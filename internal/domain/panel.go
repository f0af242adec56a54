package domain

// Panel named grouping of compounds/methods (collection "panels")
// AssociatedPanels may reference panels by id or by name; see service.PanelIndex.
type Panel struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	AssociatedPanels []string `json:"associatedPanels"`
}
