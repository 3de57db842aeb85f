package models

import "time"

// Language is one of the gateway's supported locales.
type Language string

const (
	LanguageEN Language = "en"
	LanguageAR Language = "ar"
	LanguageHI Language = "hi"
	LanguageID Language = "id"
)

// Gender is a matching attribute, not a general profile field.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Region is one of seven continental buckets used for filtered matching.
type Region string

const (
	RegionAfrica       Region = "africa"
	RegionAsia         Region = "asia"
	RegionEurope       Region = "europe"
	RegionNorthAmerica Region = "north_america"
	RegionSouthAmerica Region = "south_america"
	RegionOceania      Region = "oceania"
	RegionAntarctica   Region = "antarctica"
)

// MatchFilters is a saved or transient set of matching constraints. An empty
// field means "any" — the zero value matches everything.
type MatchFilters struct {
	Gender   Gender   `json:"gender,omitempty" gorm:"column:filter_gender"`
	Region   Region   `json:"region,omitempty" gorm:"column:filter_region"`
	Language Language `json:"language,omitempty" gorm:"column:filter_language"`
}

// Empty reports whether no filter constraint is set.
func (f MatchFilters) Empty() bool {
	return f.Gender == "" && f.Region == "" && f.Language == ""
}

// Matches reports whether the candidate's attributes satisfy every
// non-empty filter key. Absent keys mean "any" (spec §4.5).
func (f MatchFilters) Matches(candidate UserAttributes) bool {
	if f.Gender != "" && f.Gender != candidate.Gender {
		return false
	}
	if f.Region != "" && f.Region != candidate.Region {
		return false
	}
	if f.Language != "" && f.Language != candidate.Language {
		return false
	}
	return true
}

// UserAttributes is the subset of User fields filter evaluation needs,
// kept narrow so the matchmaker and queue packages do not need the full
// persistence-mapped User struct in their hot path.
type UserAttributes struct {
	UserID   uint
	Gender   Gender
	Region   Region
	Language Language
}

// User is the durable profile record. Created on first gateway
// interaction, mutated by profile edits/admin commands/matchmaking/
// lifecycle sweeps, never destroyed (spec §3).
type User struct {
	UserID      uint     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Username    string   `gorm:"size:64;index" json:"username,omitempty"`
	Name        string   `gorm:"size:128" json:"name,omitempty"`
	FirstName   string   `gorm:"size:128" json:"first_name,omitempty"`
	PhoneNumber string   `gorm:"size:32" json:"phone_number,omitempty"`
	Language    Language `gorm:"size:8;default:en" json:"language"`
	Gender      Gender   `gorm:"size:8" json:"gender,omitempty"`
	Region      Region   `gorm:"size:24" json:"region,omitempty"`
	Country     string   `gorm:"size:64" json:"country,omitempty"`

	MatchFilters MatchFilters `gorm:"embedded" json:"matching_preferences"`

	IsPremium     bool       `gorm:"index" json:"is_premium"`
	Blocked       bool       `gorm:"index" json:"blocked"`
	PremiumExpiry *time.Time `json:"premium_expiry,omitempty"`

	ReferralCount int   `gorm:"default:0" json:"referral_count"`
	ReferredBy    *uint `json:"referred_by,omitempty"`

	ProfilePhotos StringSlice `gorm:"type:text" json:"profile_photos,omitempty"`

	IsOnline bool `gorm:"index" json:"is_online"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the GORM table name.
func (User) TableName() string { return "users" }

// Attributes projects the fields the matchmaker cares about.
func (u *User) Attributes() UserAttributes {
	return UserAttributes{UserID: u.UserID, Gender: u.Gender, Region: u.Region, Language: u.Language}
}

// IsEligibleForPool reports whether the user may sit in the opportunistic
// pool: online (per the live presence tracker, passed in by the caller)
// and not blocked (spec §3, PoolEntry invariant). The binding check is
// the caller's responsibility since it requires a store round trip this
// type does not have access to.
func (u *User) IsEligibleForPool(online bool) bool {
	return online && !u.Blocked
}
