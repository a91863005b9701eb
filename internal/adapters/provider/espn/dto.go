package espn

import "encoding/json"

// Ref is a bare resource reference
type Ref struct {
	Ref string `json:"$ref"`
}

// ImageDTO is an embedded media reference
type ImageDTO struct {
	Href   string   `json:"href"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Alt    string   `json:"alt"`
	Rel    []string `json:"rel"`
}

// AddressDTO is a venue street address
type AddressDTO struct {
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// VenueDTO is the provider's venue document
type VenueDTO struct {
	Ref      string      `json:"$ref"`
	ID       json.Number `json:"id"`
	FullName string      `json:"fullName"`
	Name     string      `json:"shortName"`
	Capacity int         `json:"capacity"`
	Grass    bool        `json:"grass"`
	Indoor   bool        `json:"indoor"`
	Address  AddressDTO  `json:"address"`
	Images   []ImageDTO  `json:"images"`
}

// SeasonDTO is the provider's season metadata document
type SeasonDTO struct {
	Ref         string      `json:"$ref"`
	Year        json.Number `json:"year"`
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
	DisplayName string      `json:"displayName"`
}

// FranchiseDTO is the provider's franchise document
type FranchiseDTO struct {
	Ref              string      `json:"$ref"`
	ID               json.Number `json:"id"`
	UID              string      `json:"uid"`
	Slug             string      `json:"slug"`
	Location         string      `json:"location"`
	Name             string      `json:"name"`
	Nickname         string      `json:"nickname"`
	Abbreviation     string      `json:"abbreviation"`
	DisplayName      string      `json:"displayName"`
	ShortDisplayName string      `json:"shortDisplayName"`
	Color            string      `json:"color"`
	IsActive         bool        `json:"isActive"`
	Venue            *Ref        `json:"venue,omitempty"`
	Team             *Ref        `json:"team,omitempty"`
	Logos            []ImageDTO  `json:"logos"`
}

// TeamSeasonDTO is the provider's team-season document. The provider hangs
// most sub-resources off as bare refs; only the ones the pipeline follows
// are modeled.
type TeamSeasonDTO struct {
	Ref              string      `json:"$ref"`
	ID               json.Number `json:"id"`
	UID              string      `json:"uid"`
	Slug             string      `json:"slug"`
	Location         string      `json:"location"`
	Name             string      `json:"name"`
	Nickname         string      `json:"nickname"`
	Abbreviation     string      `json:"abbreviation"`
	DisplayName      string      `json:"displayName"`
	ShortDisplayName string      `json:"shortDisplayName"`
	Color            string      `json:"color"`
	AlternateColor   string      `json:"alternateColor"`
	IsActive         bool        `json:"isActive"`
	Venue            *Ref        `json:"venue,omitempty"`
	Franchise        *Ref        `json:"franchise,omitempty"`
	Athletes         *Ref        `json:"athletes,omitempty"`
	Logos            []ImageDTO  `json:"logos"`
}
