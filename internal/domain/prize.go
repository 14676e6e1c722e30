package domain

// PrizeComponent is one structured line item of a prize presentation
// (e.g. "12 months registration" with an icon).
type PrizeComponent struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Prize describes what the winner of a draw receives. It is stored on the
// draw as its current configuration and deep-copied onto each Winner record
// at selection time, so later prize edits never corrupt past results.
type Prize struct {
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Value          float64           `json:"value"`
	Currency       string            `json:"currency,omitempty"`
	Category       string            `json:"category,omitempty"`
	Brand          string            `json:"brand,omitempty"`
	ImageURLs      []string          `json:"image_urls,omitempty"`
	Components     []PrizeComponent  `json:"components,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
}

// Snapshot returns a deep copy safe to persist on an immutable Winner record
func (p Prize) Snapshot() Prize {
	out := p
	if p.ImageURLs != nil {
		out.ImageURLs = make([]string, len(p.ImageURLs))
		copy(out.ImageURLs, p.ImageURLs)
	}
	if p.Components != nil {
		out.Components = make([]PrizeComponent, len(p.Components))
		copy(out.Components, p.Components)
	}
	if p.Specifications != nil {
		out.Specifications = make(map[string]string, len(p.Specifications))
		for k, v := range p.Specifications {
			out.Specifications[k] = v
		}
	}
	return out
}
