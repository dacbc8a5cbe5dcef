package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Categories is the closed set of product categories.
var Categories = []string{
	"grocery",
	"electronics",
	"electrical",
	"clothing",
	"shoes",
	"kitchen",
	"kids",
	"laptop",
	"furniture",
	"sports",
	"liquor",
	"cosmetics",
	"bakery",
	"auto parts",
	"pharmaceuticals",
}

func IsCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}

// SummaryDescriptionLimit bounds the description returned by paginated listings.
const SummaryDescriptionLimit = 150

// Product is a catalog entry owned by the seller that created it.
type Product struct {
	ID           ID
	Name         string
	Brand        string
	Price        float64
	Quantity     int
	Category     string
	FreeShipping bool
	Description  string
	Image        *string
	SellerID     ID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProductInput is the writable shape of a product, shared by add and edit.
type ProductInput struct {
	Name         string   `json:"name" validate:"required,max=55"`
	Brand        string   `json:"brand" validate:"required,max=55"`
	Price        *float64 `json:"price" validate:"required,gte=0"`
	Quantity     int      `json:"quantity" validate:"required,gte=1"`
	Category     string   `json:"category" validate:"required,category"`
	FreeShipping *bool    `json:"freeShipping"`
	Description  string   `json:"description" validate:"required,min=10,max=1000"`
	Image        *string  `json:"image" validate:"omitempty,max=512"`
}

// Normalize trims text fields before validation.
func (in *ProductInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Brand = strings.TrimSpace(in.Brand)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Description = strings.TrimSpace(in.Description)
	if in.Image != nil {
		img := strings.TrimSpace(*in.Image)
		if img == "" {
			in.Image = nil
		} else {
			in.Image = &img
		}
	}
}

// Apply overwrites every writable field of p with the input. The image is
// only replaced when the input carries one.
func (in ProductInput) Apply(p *Product) {
	p.Name = in.Name
	p.Brand = in.Brand
	if in.Price != nil {
		p.Price = *in.Price
	}
	p.Quantity = in.Quantity
	p.Category = in.Category
	p.FreeShipping = in.FreeShipping != nil && *in.FreeShipping
	p.Description = in.Description
	if in.Image != nil {
		img := *in.Image
		p.Image = &img
	}
}

// MaxPage bounds page so that (page-1)*limit cannot overflow.
const MaxPage = 1000000

// PageQuery drives the paginated seller and buyer listings.
type PageQuery struct {
	Page       int    `json:"page" validate:"required,gte=1,lte=1000000"`
	Limit      int    `json:"limit" validate:"required,gte=1,lte=100"`
	SearchText string `json:"searchText" validate:"max=55"`
}

func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ProductFilter is the store-level form of a listing request. A zero SellerID
// matches every seller.
type ProductFilter struct {
	SellerID ID
	Search   string
	Offset   int
	Limit    int
}

// ProductSummary is the projected listing row.
type ProductSummary struct {
	ID          ID
	Name        string
	Brand       string
	Price       float64
	Image       *string
	Description string
}

func Summarize(p Product) ProductSummary {
	return ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Brand:       p.Brand,
		Price:       p.Price,
		Image:       p.Image,
		Description: TruncateRunes(p.Description, SummaryDescriptionLimit),
	}
}

// TruncateRunes keeps at most n characters of s.
func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
