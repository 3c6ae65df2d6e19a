package models

import (
	"time"
)

// Retailer identifies a supported marketplace.
type Retailer string

const (
	RetailerShopee       Retailer = "shopee"
	RetailerMagalu       Retailer = "magalu"
	RetailerMercadoLivre Retailer = "mercadolivre"
	RetailerAmazon       Retailer = "amazon"
)

// Credentials is a tenant's affiliate key pair for retailers with signed APIs.
type Credentials struct {
	AppID  string `json:"app_id"`
	Secret string `json:"secret"`
}

func (c *Credentials) IsZero() bool {
	return c == nil || c.AppID == "" || c.Secret == ""
}

// ProductQuery is the immutable input of a single resolution.
type ProductQuery struct {
	RawURL      string
	Credentials *Credentials
}

type PriceRole string

const (
	RoleCurrent  PriceRole = "current"
	RoleOriginal PriceRole = "original"
	RoleDiscount PriceRole = "discount"
)

// PriceSource tells the normalizer which numeric convention the raw text follows.
type PriceSource int

const (
	// SourceDisplay is text as rendered for shoppers ("R$ 1.234,56").
	SourceDisplay PriceSource = iota
	// SourceMachine is a machine-formatted decimal (meta content, JSON-LD): dot is always the decimal point.
	SourceMachine
	// SourceMinorUnits is an API amount where a bare integer is already in cents.
	SourceMinorUnits
)

type PriceToken struct {
	Raw    string
	Role   PriceRole
	Source PriceSource
}

func NewPriceToken(raw string, role PriceRole, source PriceSource) *PriceToken {
	return &PriceToken{Raw: raw, Role: role, Source: source}
}

type CanonicalPrice struct {
	MinorUnits int64  `json:"minor_units"`
	Currency   string `json:"currency"`
	Display    string `json:"display"`
}

// Field names a RawExtraction slot a strategy can fill.
type Field string

const (
	FieldName          Field = "name"
	FieldImage         Field = "image_url"
	FieldCurrentPrice  Field = "current_price"
	FieldOriginalPrice Field = "original_price"
	FieldDiscount      Field = "discount"
	FieldInstallments  Field = "installments"
)

// RawExtraction is the partially-populated output of a Retailer Extractor.
// Empty strings and nil tokens mean "not found".
type RawExtraction struct {
	Retailer      Retailer
	Name          string
	ImageURL      string
	CurrentPrice  *PriceToken
	OriginalPrice *PriceToken
	DiscountText  string
	Installments  string
	ResolvedURL   string
	AffiliateURL  string
	Blocked       bool
	Attempts      []ExtractionAttempt
}

func (r *RawExtraction) Has(f Field) bool {
	switch f {
	case FieldName:
		return r.Name != ""
	case FieldImage:
		return r.ImageURL != ""
	case FieldCurrentPrice:
		return r.CurrentPrice != nil && r.CurrentPrice.Raw != ""
	case FieldOriginalPrice:
		return r.OriginalPrice != nil && r.OriginalPrice.Raw != ""
	case FieldDiscount:
		return r.DiscountText != ""
	case FieldInstallments:
		return r.Installments != ""
	}
	return false
}

// Missing returns the fields from want that are not populated yet.
func (r *RawExtraction) Missing(want []Field) []Field {
	var missing []Field
	for _, f := range want {
		if !r.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Fill copies every field of other into r that r does not have yet. It never overwrites.
// It returns the fields it filled.
func (r *RawExtraction) Fill(other *RawExtraction) []Field {
	if other == nil {
		return nil
	}

	var filled []Field
	if !r.Has(FieldName) && other.Has(FieldName) {
		r.Name = other.Name
		filled = append(filled, FieldName)
	}
	if !r.Has(FieldImage) && other.Has(FieldImage) {
		r.ImageURL = other.ImageURL
		filled = append(filled, FieldImage)
	}
	if !r.Has(FieldCurrentPrice) && other.Has(FieldCurrentPrice) {
		r.CurrentPrice = other.CurrentPrice
		filled = append(filled, FieldCurrentPrice)
	}
	if !r.Has(FieldOriginalPrice) && other.Has(FieldOriginalPrice) {
		r.OriginalPrice = other.OriginalPrice
		filled = append(filled, FieldOriginalPrice)
	}
	if !r.Has(FieldDiscount) && other.Has(FieldDiscount) {
		r.DiscountText = other.DiscountText
		filled = append(filled, FieldDiscount)
	}
	if !r.Has(FieldInstallments) && other.Has(FieldInstallments) {
		r.Installments = other.Installments
		filled = append(filled, FieldInstallments)
	}
	if r.ResolvedURL == "" {
		r.ResolvedURL = other.ResolvedURL
	}
	if r.AffiliateURL == "" {
		r.AffiliateURL = other.AffiliateURL
	}
	return filled
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeEmpty   Outcome = "empty"
	OutcomeFailed  Outcome = "failed"
	OutcomeBlocked Outcome = "blocked"
	OutcomeSkipped Outcome = "skipped"
)

// ExtractionAttempt records one strategy run for diagnostics.
type ExtractionAttempt struct {
	Retailer Retailer      `json:"retailer"`
	Strategy string        `json:"strategy"`
	Outcome  Outcome       `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
	Error    string        `json:"error,omitempty"`
	Filled   []Field       `json:"filled,omitempty"`
	Duration time.Duration `json:"duration"`
}

type Status string

const (
	StatusOK                 Status = "ok"
	StatusPartial            Status = "partial"
	StatusBlocked            Status = "blocked"
	StatusFailed             Status = "failed"
	StatusUnsupported        Status = "unsupported"
	StatusMissingCredentials Status = "missing_credentials"
)

// PlaceholderTitle stands in for a title no strategy could find.
const PlaceholderTitle = "product title unavailable"

// ProductRecord is the canonical output of a resolution.
type ProductRecord struct {
	ID            string          `json:"id"`
	Retailer      Retailer        `json:"retailer,omitempty"`
	Status        Status          `json:"status"`
	Title         string          `json:"title"`
	Price         *CanonicalPrice `json:"price"`
	OriginalPrice *CanonicalPrice `json:"original_price"`
	Discount      string          `json:"discount,omitempty"`
	Installments  string          `json:"installments,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	URL           string          `json:"url"`
	Caption       string          `json:"caption"`
	ResolvedAt    time.Time       `json:"resolved_at"`

	Attempts []ExtractionAttempt `json:"-"`
}
