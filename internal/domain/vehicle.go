// Package domain provides the inventory models shared by the scraper,
// the reconciler and the persistence layer.
package domain

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/lib/pq"
)

// UnknownValue is stored for make and model when the listing carried neither.
const UnknownValue = "Unknown"

// ListingRef is one card found on the inventory index page. It only lives
// for the duration of a scrape.
type ListingRef struct {
	DetailURL   string
	StockNumber string
	Year        int
	Make        string
	Model       string
	BodyStyle   string
	Engine      string
	Trim        string
}

// ScrapedVehicle is the normalized record produced for one detail page.
// Pointer fields are nil when the source page did not provide a value.
type ScrapedVehicle struct {
	VIN              string   `json:"vin"`
	StockNumber      *string  `json:"stock_number,omitempty"`
	Year             int      `json:"year"`
	Make             string   `json:"make"`
	Model            string   `json:"model"`
	Trim             *string  `json:"trim,omitempty"`
	Price            *int     `json:"price,omitempty"`
	Mileage          *int     `json:"mileage,omitempty"`
	ExteriorColor    *string  `json:"exterior_color,omitempty"`
	InteriorColor    *string  `json:"interior_color,omitempty"`
	Transmission     *string  `json:"transmission,omitempty"`
	FuelType         *string  `json:"fuel_type,omitempty"`
	BodyStyle        *string  `json:"body_style,omitempty"`
	Drivetrain       *string  `json:"drivetrain,omitempty"`
	Engine           *string  `json:"engine,omitempty"`
	ShortDescription *string  `json:"short_description,omitempty"`
	LongDescription  *string  `json:"long_description,omitempty"`
	Features         []string `json:"features"`
	Images           []string `json:"images"`
	SourceURL        string   `json:"source_url"`
}

// NormalizeVIN trims and upper-cases a VIN so it can be used as identity.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

// Vehicle is the persisted inventory record.
type Vehicle struct {
	ID               int64       `db:"id"                json:"id"`
	VIN              string      `db:"vin"               json:"vin"`
	StockNumber      *string     `db:"stock_number"      json:"stock_number,omitempty"`
	Year             int         `db:"year"              json:"year"`
	Make             string      `db:"make"              json:"make"`
	Model            string      `db:"model"             json:"model"`
	Trim             *string     `db:"trim"              json:"trim,omitempty"`
	Price            *int        `db:"price"             json:"price,omitempty"`
	Mileage          *int        `db:"mileage"           json:"mileage,omitempty"`
	ExteriorColor    *string     `db:"exterior_color"    json:"exterior_color,omitempty"`
	InteriorColor    *string     `db:"interior_color"    json:"interior_color,omitempty"`
	Transmission     *string     `db:"transmission"      json:"transmission,omitempty"`
	FuelType         *string     `db:"fuel_type"         json:"fuel_type,omitempty"`
	BodyStyle        *string     `db:"body_style"        json:"body_style,omitempty"`
	Drivetrain       *string     `db:"drivetrain"        json:"drivetrain,omitempty"`
	Engine           *string     `db:"engine"            json:"engine,omitempty"`
	ShortDescription *string     `db:"short_description" json:"short_description,omitempty"`
	LongDescription  *string     `db:"long_description"  json:"long_description,omitempty"`
	Features         StringArray `db:"features"          json:"features"`
	SourceURL        *string     `db:"source_url"        json:"source_url,omitempty"`
	IsFeatured       bool        `db:"is_featured"       json:"is_featured"`
	IsSold           bool        `db:"is_sold"           json:"is_sold"`
	CreatedAt        time.Time   `db:"created_at"        json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"        json:"updated_at"`

	Images []VehicleImage `db:"-" json:"images"`
}

// InventoryState is the slice of a Vehicle the reconciler needs to decide
// between insert, update and mark-sold.
type InventoryState struct {
	ID     int64  `db:"id"`
	VIN    string `db:"vin"`
	IsSold bool   `db:"is_sold"`
}

// InventoryStats summarizes the catalog for the admin dashboard.
type InventoryStats struct {
	Total     int `db:"total"     json:"total"`
	Available int `db:"available" json:"available"`
	Featured  int `db:"featured"  json:"featured"`
	Sold      int `db:"sold"      json:"sold"`
}

// StringArray maps a Postgres TEXT[] column.
type StringArray []string

// Scan implements sql.Scanner.
func (a *StringArray) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*a = StringArray(arr)
	return nil
}

// Value implements driver.Valuer. A nil array is stored as an empty one.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(a).Value()
}
