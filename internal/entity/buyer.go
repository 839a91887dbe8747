package entity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBuyerNotFound = errors.New("buyer not found")
	// ErrStaleRecord is returned when a conditional update matched no row.
	ErrStaleRecord = errors.New("buyer was modified concurrently")
)

type City string

const (
	CityChandigarh City = "CHANDIGARH"
	CityMohali     City = "MOHALI"
	CityZirakpur   City = "ZIRAKPUR"
	CityPanchkula  City = "PANCHKULA"
	CityOther      City = "OTHER"
)

var ValidCities = []City{CityChandigarh, CityMohali, CityZirakpur, CityPanchkula, CityOther}

func (c City) IsValid() bool { return isOneOf(c, ValidCities) }

type PropertyType string

const (
	PropertyApartment PropertyType = "APARTMENT"
	PropertyVilla     PropertyType = "VILLA"
	PropertyPlot      PropertyType = "PLOT"
	PropertyOffice    PropertyType = "OFFICE"
	PropertyRetail    PropertyType = "RETAIL"
)

var ValidPropertyTypes = []PropertyType{PropertyApartment, PropertyVilla, PropertyPlot, PropertyOffice, PropertyRetail}

func (p PropertyType) IsValid() bool { return isOneOf(p, ValidPropertyTypes) }

// IsResidential reports whether the property type carries a bedroom count.
func (p PropertyType) IsResidential() bool {
	return p == PropertyApartment || p == PropertyVilla
}

type BHK string

const (
	BHKStudio BHK = "STUDIO"
	BHKOne    BHK = "ONE"
	BHKTwo    BHK = "TWO"
	BHKThree  BHK = "THREE"
	BHKFour   BHK = "FOUR"
)

var ValidBHKs = []BHK{BHKStudio, BHKOne, BHKTwo, BHKThree, BHKFour}

func (b BHK) IsValid() bool { return isOneOf(b, ValidBHKs) }

type Purpose string

const (
	PurposeBuy  Purpose = "BUY"
	PurposeRent Purpose = "RENT"
)

var ValidPurposes = []Purpose{PurposeBuy, PurposeRent}

func (p Purpose) IsValid() bool { return isOneOf(p, ValidPurposes) }

type Timeline string

const (
	TimelineZeroToThree Timeline = "ZERO_TO_THREE"
	TimelineThreeToSix  Timeline = "THREE_TO_SIX"
	TimelineMoreThanSix Timeline = "MORE_THAN_SIX"
	TimelineExploring   Timeline = "EXPLORING"
)

var ValidTimelines = []Timeline{TimelineZeroToThree, TimelineThreeToSix, TimelineMoreThanSix, TimelineExploring}

func (t Timeline) IsValid() bool { return isOneOf(t, ValidTimelines) }

type Source string

const (
	SourceWebsite  Source = "WEBSITE"
	SourceReferral Source = "REFERRAL"
	SourceWalkIn   Source = "WALK_IN"
	SourceCall     Source = "CALL"
	SourceOther    Source = "OTHER"
)

var ValidSources = []Source{SourceWebsite, SourceReferral, SourceWalkIn, SourceCall, SourceOther}

func (s Source) IsValid() bool { return isOneOf(s, ValidSources) }

type Status string

const (
	StatusNew         Status = "NEW"
	StatusQualified   Status = "QUALIFIED"
	StatusContacted   Status = "CONTACTED"
	StatusVisited     Status = "VISITED"
	StatusNegotiation Status = "NEGOTIATION"
	StatusConverted   Status = "CONVERTED"
	StatusDropped     Status = "DROPPED"
)

var ValidStatuses = []Status{StatusNew, StatusQualified, StatusContacted, StatusVisited, StatusNegotiation, StatusConverted, StatusDropped}

func (s Status) IsValid() bool { return isOneOf(s, ValidStatuses) }

func isOneOf[T comparable](v T, set []T) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Buyer is a lead: a prospective property buyer and their preferences.
type Buyer struct {
	ID           string       `json:"id"`
	FullName     string       `json:"fullName"`
	Email        *string      `json:"email"`
	Phone        string       `json:"phone"`
	City         City         `json:"city"`
	PropertyType PropertyType `json:"propertyType"`
	BHK          *BHK         `json:"bhk"`
	Purpose      Purpose      `json:"purpose"`
	BudgetMin    *int64       `json:"budgetMin"`
	BudgetMax    *int64       `json:"budgetMax"`
	Timeline     Timeline     `json:"timeline"`
	Source       Source       `json:"source"`
	Notes        *string      `json:"notes"`
	Tags         []string     `json:"tags"`
	Status       Status       `json:"status"`
	OwnerID      string       `json:"ownerId"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ApplyFields copies the user-editable fields of src onto b.
// Identity, ownership and timestamps are left untouched.
func (b *Buyer) ApplyFields(src Buyer) {
	b.FullName = src.FullName
	b.Email = src.Email
	b.Phone = src.Phone
	b.City = src.City
	b.PropertyType = src.PropertyType
	b.BHK = src.BHK
	b.Purpose = src.Purpose
	b.BudgetMin = src.BudgetMin
	b.BudgetMax = src.BudgetMax
	b.Timeline = src.Timeline
	b.Source = src.Source
	b.Notes = src.Notes
	b.Tags = src.Tags
	b.Status = src.Status
}

// BuyerFilter narrows list and export queries. Zero values mean "any".
type BuyerFilter struct {
	City         City
	PropertyType PropertyType
	Status       Status
	Timeline     Timeline
	Query        string
}

type Page struct {
	Limit  int
	Offset int
}

type CityCount struct {
	City  City `json:"city"`
	Count int  `json:"count"`
}

type BuyerRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Buyer, error)
	Find(ctx context.Context, filter BuyerFilter, page *Page) ([]*Buyer, error)
	Count(ctx context.Context, filter BuyerFilter) (int, error)
	CountByCity(ctx context.Context) ([]CityCount, error)
	Create(ctx context.Context, b *Buyer) error
	// Update persists b only if the stored updated_at still equals expectedUpdatedAt.
	Update(ctx context.Context, b *Buyer, expectedUpdatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}
