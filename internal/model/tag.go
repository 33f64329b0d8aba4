package model

import (
	"strings"
	"time"
)

// TagCategory groups tags on the technique filter screens.
type TagCategory string

const (
	TagPosition  TagCategory = "position"
	TagAttribute TagCategory = "attribute"
	TagStyle     TagCategory = "style"
	TagCustom    TagCategory = "custom"
)

func (c TagCategory) Valid() bool {
	switch c {
	case TagPosition, TagAttribute, TagStyle, TagCustom:
		return true
	}
	return false
}

// Predefined tag vocabulary. These exist implicitly; a row is only
// persisted once a technique first adopts the tag.
var (
	PositionTags = []string{
		"Mount", "Guard", "Side Control", "Back Control", "Half Guard",
		"Closed Guard", "Open Guard", "Turtle", "North-South", "Knee on Belly",
	}
	AttributeTags = []string{
		"Beginner", "Intermediate", "Advanced", "Competition",
		"Self Defense", "Fundamental",
	}
	StyleTags = []string{"Gi", "No-Gi", "Both"}
)

// Tag is derived metadata about a tag string in use by techniques.
// Name uniqueness is case-insensitive; UsageCount tracks how many
// adoptions it has seen and a tag is never auto-deleted at zero.
type Tag struct {
	ID         string      `json:"id"`
	Name       string      `json:"name" validate:"required,min=2,max=25"`
	Category   TagCategory `json:"category" validate:"required,tagcategory"`
	UsageCount int         `json:"usageCount" validate:"min=0"`
	CreatedAt  time.Time   `json:"createdAt"`
	IsCustom   bool        `json:"isCustom"`
}

func (t *Tag) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
}

func (t *Tag) Validate() error {
	return validateStruct(t)
}

// TagKey is the case-insensitive identity of a tag name, used for
// uniqueness checks within the tag namespace.
func TagKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// PredefinedTagCategory resolves a tag name against the predefined
// vocabulary, case-insensitively. The second return is false for names
// outside it, which makes them custom tags.
func PredefinedTagCategory(name string) (TagCategory, bool) {
	key := TagKey(name)
	for _, t := range PositionTags {
		if TagKey(t) == key {
			return TagPosition, true
		}
	}
	for _, t := range AttributeTags {
		if TagKey(t) == key {
			return TagAttribute, true
		}
	}
	for _, t := range StyleTags {
		if TagKey(t) == key {
			return TagStyle, true
		}
	}
	return TagCustom, false
}
