package domain

// UnknownMethodName labels placeholder methods produced for dangling references.
const UnknownMethodName = "unknown"

// Method analytical testing procedure (collection "methods")
// All attributes are free text as entered by the lab.
type Method struct {
	ID                  string   `json:"id"`
	Name                string   `json:"method"`
	ReportingLimit      string   `json:"reportingLimit,omitempty"`
	AnalyticalTechnique string   `json:"analyticalTechnique,omitempty"`
	MediaOption         string   `json:"mediaOption,omitempty"`
	SingleAnalyte       string   `json:"singleAnalyte,omitempty"`
	AdditionalAnalyte   string   `json:"additionalAnalyte,omitempty"`
	PanelCost           string   `json:"panelCost,omitempty"`
	StandardTAT         string   `json:"standardTAT,omitempty"`
	FlowRate            string   `json:"flowRate,omitempty"`
	SamplingCriteria    string   `json:"samplingCriteria,omitempty"`
	AirVolume           string   `json:"airVolume,omitempty"`
	Shipping            string   `json:"shipping,omitempty"`
	Stability           string   `json:"stability,omitempty"`
	ALSStoragePolicy    string   `json:"alsStoragePolicy,omitempty"`
	ALSSOP              string   `json:"alsSOP,omitempty"`
	PricingNotes        string   `json:"pricingNotes,omitempty"`
	Notes               string   `json:"notes,omitempty"`
	AIHAAccredited      string   `json:"aihaAccredited,omitempty"`
	ThreeSampleMinimum  string   `json:"threeSampleMinimum,omitempty"`
	Combo               string   `json:"combo,omitempty"`
	Panels              []string `json:"panel"`
}

// PlaceholderMethod stands in for a method id that no longer resolves.
func PlaceholderMethod(id string) Method {
	return Method{ID: id, Name: UnknownMethodName, Panels: []string{}}
}

// Snapshot returns the attribute map stored on notes. Empty attributes are omitted.
func (m Method) Snapshot() map[string]any {
	out := map[string]any{}
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put("method", m.Name)
	put("reportingLimit", m.ReportingLimit)
	put("analyticalTechnique", m.AnalyticalTechnique)
	put("mediaOption", m.MediaOption)
	put("singleAnalyte", m.SingleAnalyte)
	put("additionalAnalyte", m.AdditionalAnalyte)
	put("panelCost", m.PanelCost)
	put("standardTAT", m.StandardTAT)
	put("flowRate", m.FlowRate)
	put("samplingCriteria", m.SamplingCriteria)
	put("airVolume", m.AirVolume)
	put("shipping", m.Shipping)
	put("stability", m.Stability)
	put("alsStoragePolicy", m.ALSStoragePolicy)
	put("alsSOP", m.ALSSOP)
	put("pricingNotes", m.PricingNotes)
	put("notes", m.Notes)
	put("aihaAccredited", m.AIHAAccredited)
	put("threeSampleMinimum", m.ThreeSampleMinimum)
	put("combo", m.Combo)
	return out
}
