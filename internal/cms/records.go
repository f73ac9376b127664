package cms

import "encoding/json"

// Collection identifies a content type exposed by the CMS.
type Collection string

const (
	CollectionEvents      Collection = "events"
	CollectionExperiences Collection = "experiences"
	CollectionPlaces      Collection = "points-of-interest"
	CollectionVenues      Collection = "venues"
	CollectionOffers      Collection = "offers"
	CollectionCategories  Collection = "categories"
)

// envelope is the CMS response wrapper: data plus pagination metadata.
type envelope struct {
	Data []Record `json:"data"`
	Meta meta     `json:"meta"`
}

type meta struct {
	Pagination pagination `json:"pagination"`
}

type pagination struct {
	Total int `json:"total"`
}

// Record is one CMS entry. Attributes are collection-specific and stay
// raw until the shaper decodes them into the matching summary variant.
type Record struct {
	ID         int             `json:"id"`
	Attributes json.RawMessage `json:"attributes"`
}

// relation is a populated to-one relation (e.g. category).
type relation struct {
	Data *relationData `json:"data"`
}

type relationData struct {
	ID         int               `json:"id"`
	Attributes map[string]string `json:"attributes"`
}

// title returns the related entity's name or title attribute, whichever
// is set. Strapi content types use either depending on how the
// collection was modelled.
func (r relation) title() string {
	if r.Data == nil {
		return ""
	}
	if name := r.Data.Attributes["name"]; name != "" {
		return name
	}
	return r.Data.Attributes["title"]
}

// eventAttrs is the raw attribute set of an event record.
type eventAttrs struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Address     string   `json:"address"`
	Free        bool     `json:"free"`
	Price       float64  `json:"price"`
	Category    relation `json:"category"`
}

// experienceAttrs is the raw attribute set of an experience record.
type experienceAttrs struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    string   `json:"duration"`
	Price       float64  `json:"price"`
	Category    relation `json:"category"`
}

// placeAttrs is the raw attribute set of a point-of-interest record.
type placeAttrs struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Category    relation `json:"category"`
}

// venueAttrs is the raw attribute set of a venue record.
type venueAttrs struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Capacity    int    `json:"capacity"`
}

// offerAttrs is the raw attribute set of an offer record.
type offerAttrs struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ValidFrom   string   `json:"validFrom"`
	ValidUntil  string   `json:"validUntil"`
	Discount    string   `json:"discount"`
	Category    relation `json:"category"`
}

// categoryAttrs is the raw attribute set of a category record.
type categoryAttrs struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
