package model

import "strings"

// BeltRank is the practitioner's current belt.
type BeltRank string

const (
	BeltWhite  BeltRank = "white"
	BeltBlue   BeltRank = "blue"
	BeltPurple BeltRank = "purple"
	BeltBrown  BeltRank = "brown"
	BeltBlack  BeltRank = "black"
)

// BeltRanks lists every valid belt, lowest first.
var BeltRanks = []BeltRank{BeltWhite, BeltBlue, BeltPurple, BeltBrown, BeltBlack}

func (b BeltRank) Valid() bool {
	switch b {
	case BeltWhite, BeltBlue, BeltPurple, BeltBrown, BeltBlack:
		return true
	}
	return false
}

const (
	MaxProfileNameLength = 60
	MaxStripes           = 4
)

// UserProfile is a singleton: exactly one live instance, created with
// defaults on first use, mutated by overwrite, never deleted.
type UserProfile struct {
	Name     string   `json:"name" validate:"max=60"`
	BeltRank BeltRank `json:"beltRank" validate:"required,beltrank"`
	Stripes  int      `json:"stripes" validate:"min=0,max=4"`
}

// DefaultProfile is the profile a fresh install starts with.
func DefaultProfile() *UserProfile {
	return &UserProfile{
		Name:     "",
		BeltRank: BeltWhite,
		Stripes:  0,
	}
}

func (p *UserProfile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
}

func (p *UserProfile) Validate() error {
	return validateStruct(p)
}
