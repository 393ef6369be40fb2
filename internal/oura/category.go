package oura

// FetchMode says how a category is requested from the upstream API.
type FetchMode int

const (
	// ModePoint is a single GET with no date parameters; the decoded body
	// is returned as-is.
	ModePoint FetchMode = iota

	// ModeRanged adds start_date/end_date query parameters and unwraps the
	// response envelope's "data" field into a record sequence.
	ModeRanged
)

// Category is one of the fixed data types the relay can fetch. The set is
// closed: unknown slugs are rejected at the transport boundary by
// ParseCategory and can never reach the client.
type Category string

const (
	CategoryEmail        Category = "email"
	CategoryPersonalInfo Category = "personal_info"
	CategoryDaily        Category = "daily_data"
	CategoryHeartRate    Category = "heart_rate_data"
	CategoryWorkout      Category = "workout_data"
	CategoryTags         Category = "tags_data"
)

type categorySpec struct {
	path string
	mode FetchMode
}

// categoryTable maps each category to its upstream resource path, relative
// to the usercollection base URL. Order here is the order AllCategories
// and the aggregate fetch iterate in.
var categoryOrder = []Category{
	CategoryEmail,
	CategoryPersonalInfo,
	CategoryDaily,
	CategoryHeartRate,
	CategoryWorkout,
	CategoryTags,
}

var categoryTable = map[Category]categorySpec{
	CategoryEmail:        {path: "/email", mode: ModePoint},
	CategoryPersonalInfo: {path: "/personal_info", mode: ModePoint},
	CategoryDaily:        {path: "/daily", mode: ModeRanged},
	CategoryHeartRate:    {path: "/heartrate", mode: ModeRanged},
	CategoryWorkout:      {path: "/workout", mode: ModeRanged},
	CategoryTags:         {path: "/tags", mode: ModeRanged},
}

// AllCategories returns every category in declaration order.
func AllCategories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// ParseCategory validates a slug from the transport layer.
func ParseCategory(slug string) (Category, bool) {
	c := Category(slug)
	_, ok := categoryTable[c]
	return c, ok
}

// Mode returns the category's fetch mode.
func (c Category) Mode() FetchMode {
	return categoryTable[c].mode
}

// String returns the category slug.
func (c Category) String() string { return string(c) }
