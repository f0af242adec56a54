package domain

// Compound a chemical substance tracked for testing (collection "compounds")
type Compound struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	CAS     string   `json:"cas,omitempty"`
	Methods []string `json:"methods"` // method ids, may dangle
	Panels  []string `json:"panel"`   // panel names
}

// HasPanel reports exact membership of name in the panel list.
func (c Compound) HasPanel(name string) bool {
	for _, p := range c.Panels {
		if p == name {
			return true
		}
	}
	return false
}
