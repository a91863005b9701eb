// Package resource holds the pure resource model: provider identifiers,
// document types, and URI classification shared by the sourcing pipeline
package resource

// Provider identifies an upstream data provider
type Provider string

// Known providers
const (
	ProviderESPN Provider = "espn"
)

// Sport identifies a sport/league scope for a document
type Sport string

// Known sports
const (
	SportFootballNCAA Sport = "football-ncaa"
	SportFootballNFL  Sport = "football-nfl"
)

// DocumentType identifies what kind of document a URI points at
type DocumentType string

// Known document types
const (
	DocSeason        DocumentType = "season"
	DocVenue         DocumentType = "venue"
	DocFranchise     DocumentType = "franchise"
	DocTeamSeason    DocumentType = "team-season"
	DocAthleteSeason DocumentType = "athlete-season"
)

// Shape is the classification of a resource URI
type Shape uint8

const (
	// ShapeIndex is a paginated collection envelope referencing leaf resources
	ShapeIndex Shape = iota

	// ShapeLeaf is a single external document
	ShapeLeaf
)

// String implements fmt.Stringer
func (s Shape) String() string {
	if s == ShapeLeaf {
		return "leaf"
	}
	return "index"
}
