package engine

import (
	"github.com/draftpad/urlcontext/pkg/linkscan"
)

// DefaultActionIcon is the icon name attached to expand actions unless the
// host overrides it.
const DefaultActionIcon = "expand"

// Action is an expansion affordance the host can render on a link. Invoking
// it means calling Engine.Expand with the embedded URL and range.
type Action struct {
	URL   string
	Range linkscan.Range
	Title string
	Icon  string
}

// ActionProvider lists expand actions for link occurrences.
type ActionProvider struct {
	engine *Engine
	icon   string
}

// NewActionProvider registers an action provider against e.
func NewActionProvider(e *Engine) *ActionProvider {
	return &ActionProvider{engine: e, icon: DefaultActionIcon}
}

// SetIcon overrides the icon name attached to produced actions.
func (p *ActionProvider) SetIcon(name string) {
	p.icon = name
}

// Actions returns an expand action for every occurrence intersecting rng, in
// document order. Actions are offered regardless of cache state; expanding
// an uncached URL triggers the deduplicated fetch.
func (p *ActionProvider) Actions(rng linkscan.Range) []Action {
	view := p.engine.Snapshot()
	var actions []Action
	for _, occ := range view.Extraction().All() {
		if !occ.Range.Intersects(rng) {
			continue
		}
		actions = append(actions, Action{
			URL:   occ.URL,
			Range: occ.Range,
			Title: "Expand URL context inline",
			Icon:  p.icon,
		})
	}
	return actions
}
