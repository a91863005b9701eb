// Package domain holds the canonical entity model shared by the document
// processors and the storage repo
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Event kinds published by the processors
const (
	KindVenueCreated      = "venue.created"
	KindVenueUpdated      = "venue.updated"
	KindFranchiseCreated  = "franchise.created"
	KindFranchiseUpdated  = "franchise.updated"
	KindTeamSeasonCreated = "team-season.created"
	KindTeamSeasonUpdated = "team-season.updated"
)

// Causation ids stamped on messages each processor emits
const (
	CausationVenueProcessor      = "processor.venue"
	CausationFranchiseProcessor  = "processor.franchise"
	CausationTeamSeasonProcessor = "processor.team-season"
)

// ExternalID links a canonical entity to one provider's identifier.
// Storage enforces uniqueness on (provider, value) per entity kind.
type ExternalID struct {
	Provider string
	Value    string
}

// Image is a child media record hung off a canonical entity. URLHash is the
// identity used when diffing incoming media against stored media.
type Image struct {
	ID      string
	URL     string
	URLHash string
	Width   int
	Height  int
}

// HashURL computes an image identity hash
func HashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Audit carries the immutable creation stamp and the last modification.
// CreatedBy and CreatedUTC never change after insert.
type Audit struct {
	CreatedBy   string
	CreatedUTC  time.Time
	ModifiedBy  string
	ModifiedUTC time.Time
}

// Venue is a canonical playing site
type Venue struct {
	ID         string
	Name       string
	ShortName  string
	Capacity   int
	Grass      bool
	Indoor     bool
	City       string
	State      string
	PostalCode string

	ExternalIDs []ExternalID
	Images      []Image
	Audit
}

// Franchise is a canonical team franchise, stable across seasons
type Franchise struct {
	ID               string
	Sport            string
	Name             string
	Nickname         string
	Abbreviation     string
	DisplayName      string
	DisplayNameShort string
	Location         string
	Slug             string
	ColorCodeHex     string
	IsActive         bool
	VenueID          string

	ExternalIDs []ExternalID
	Images      []Image
	Audit
}

// TeamSeason is one franchise's appearance in a season
type TeamSeason struct {
	ID                string
	FranchiseID       string
	SeasonYear        int
	Location          string
	Name              string
	Nickname          string
	Abbreviation      string
	DisplayName       string
	DisplayNameShort  string
	Slug              string
	ColorCodeHex      string
	AlternateColorHex string
	IsActive          bool

	ExternalIDs []ExternalID
	Images      []Image
	Audit
}

// FieldChange records one scalar mutation applied during an update
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// VenueCanonical is the projection published on venue events
type VenueCanonical struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	ShortName  string        `json:"shortName,omitempty"`
	Capacity   int           `json:"capacity"`
	Grass      bool          `json:"grass"`
	Indoor     bool          `json:"indoor"`
	City       string        `json:"city,omitempty"`
	State      string        `json:"state,omitempty"`
	PostalCode string        `json:"postalCode,omitempty"`
	Ref        string        `json:"ref"`
	Changes    []FieldChange `json:"changes,omitempty"`
}

// FranchiseCanonical is the projection published on franchise events
type FranchiseCanonical struct {
	ID               string        `json:"id"`
	Sport            string        `json:"sport"`
	Name             string        `json:"name"`
	Nickname         string        `json:"nickname,omitempty"`
	Abbreviation     string        `json:"abbreviation,omitempty"`
	DisplayName      string        `json:"displayName,omitempty"`
	DisplayNameShort string        `json:"displayNameShort,omitempty"`
	Location         string        `json:"location,omitempty"`
	Slug             string        `json:"slug,omitempty"`
	ColorCodeHex     string        `json:"colorCodeHex,omitempty"`
	IsActive         bool          `json:"isActive"`
	VenueID          string        `json:"venueId,omitempty"`
	Ref              string        `json:"ref"`
	Changes          []FieldChange `json:"changes,omitempty"`
}

// TeamSeasonCanonical is the projection published on team-season events
type TeamSeasonCanonical struct {
	ID                string        `json:"id"`
	FranchiseID       string        `json:"franchiseId"`
	SeasonYear        int           `json:"seasonYear"`
	Location          string        `json:"location,omitempty"`
	Name              string        `json:"name,omitempty"`
	Nickname          string        `json:"nickname,omitempty"`
	Abbreviation      string        `json:"abbreviation,omitempty"`
	DisplayName       string        `json:"displayName,omitempty"`
	DisplayNameShort  string        `json:"displayNameShort,omitempty"`
	Slug              string        `json:"slug,omitempty"`
	ColorCodeHex      string        `json:"colorCodeHex,omitempty"`
	AlternateColorHex string        `json:"alternateColorHex,omitempty"`
	IsActive          bool          `json:"isActive"`
	Ref               string        `json:"ref"`
	Changes           []FieldChange `json:"changes,omitempty"`
}

// Canonical maps a venue to its event projection
func (v *Venue) Canonical(ref string, changes []FieldChange) VenueCanonical {
	return VenueCanonical{
		ID: v.ID, Name: v.Name, ShortName: v.ShortName,
		Capacity: v.Capacity, Grass: v.Grass, Indoor: v.Indoor,
		City: v.City, State: v.State, PostalCode: v.PostalCode,
		Ref: ref, Changes: changes,
	}
}

// Canonical maps a franchise to its event projection
func (f *Franchise) Canonical(ref string, changes []FieldChange) FranchiseCanonical {
	return FranchiseCanonical{
		ID: f.ID, Sport: f.Sport, Name: f.Name, Nickname: f.Nickname,
		Abbreviation: f.Abbreviation, DisplayName: f.DisplayName,
		DisplayNameShort: f.DisplayNameShort, Location: f.Location,
		Slug: f.Slug, ColorCodeHex: f.ColorCodeHex, IsActive: f.IsActive,
		VenueID: f.VenueID, Ref: ref, Changes: changes,
	}
}

// Canonical maps a team season to its event projection
func (t *TeamSeason) Canonical(ref string, changes []FieldChange) TeamSeasonCanonical {
	return TeamSeasonCanonical{
		ID: t.ID, FranchiseID: t.FranchiseID, SeasonYear: t.SeasonYear,
		Location: t.Location, Name: t.Name, Nickname: t.Nickname,
		Abbreviation: t.Abbreviation, DisplayName: t.DisplayName,
		DisplayNameShort: t.DisplayNameShort, Slug: t.Slug,
		ColorCodeHex: t.ColorCodeHex, AlternateColorHex: t.AlternateColorHex,
		IsActive: t.IsActive, Ref: ref, Changes: changes,
	}
}
