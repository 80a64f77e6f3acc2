package extract

import (
	"strings"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/PuerkitoBio/goquery"
)

const (
	fieldIconPrefix     = ".dws-icons-feature-"
	fieldWrapSelector   = ".dws-vehicle-fields-wrap"
	fieldValueSelector  = ".dws-vehicle-fields-value"
	priceSelector       = ".dws-vdp-single-field-value-vehicleprice"
	imageSelector       = ".dws-media-slide-image.lslide[data-thumb]"
	sellerNotesSelector = ".dws-vdp-seller-notes-container p"
)

// DetailExtractor builds a ScrapedVehicle from a vehicle detail page.
type DetailExtractor struct {
	log logger.Logger
}

// NewDetailExtractor creates a detail extractor.
func NewDetailExtractor(log logger.Logger) *DetailExtractor {
	if log == nil {
		log = logger.NewNop()
	}
	return &DetailExtractor{log: log}
}

// Extract parses one detail page. Exactly one of the results is non-nil:
// the vehicle, or the reason the listing was skipped.
func (e *DetailExtractor) Extract(ref domain.ListingRef, html string) (*domain.ScrapedVehicle, *domain.Skip) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, newSkip(ref, domain.SkipParseFailed, err.Error())
	}

	vin := domain.NormalizeVIN(labelledField(doc, "vin"))
	if vin == "" {
		vin = domain.NormalizeVIN(ref.StockNumber)
		e.log.Debug("Detail page has no VIN field, using stock number",
			logger.String("url", ref.DetailURL),
			logger.String("stock_number", ref.StockNumber),
		)
	}
	if vin == "" {
		return nil, newSkip(ref, domain.SkipMissingVIN, "no vin field and no stock number")
	}

	short, long := splitDescription(sellerNotes(doc))

	v := &domain.ScrapedVehicle{
		VIN:              vin,
		StockNumber:      optional(ref.StockNumber),
		Year:             ref.Year,
		Make:             orUnknown(ref.Make),
		Model:            orUnknown(ref.Model),
		Trim:             optional(ref.Trim),
		Price:            ParsePrice(doc.Find(priceSelector).First().Text()),
		Mileage:          ParseMileage(labelledField(doc, "mileage")),
		ExteriorColor:    optional(labelledField(doc, "exterior-color")),
		InteriorColor:    optional(labelledField(doc, "interior-color")),
		Transmission:     optional(labelledField(doc, "transmission")),
		FuelType:         optional(labelledField(doc, "fuel-type")),
		BodyStyle:        optional(ref.BodyStyle),
		Drivetrain:       optional(labelledField(doc, "drivetrain")),
		Engine:           optional(ref.Engine),
		ShortDescription: optional(short),
		LongDescription:  optional(long),
		Features:         []string{},
		Images:           imageURLs(doc),
		SourceURL:        ref.DetailURL,
	}

	return v, nil
}

// labelledField reads the value next to a field icon, e.g. the VIN row.
func labelledField(doc *goquery.Document, icon string) string {
	return strings.TrimSpace(doc.Find(fieldIconPrefix + icon).
		Closest(fieldWrapSelector).
		Find(fieldValueSelector).
		Text())
}

func imageURLs(doc *goquery.Document) []string {
	var thumbs []string
	doc.Find(imageSelector).Each(func(_ int, s *goquery.Selection) {
		thumbs = append(thumbs, s.AttrOr("data-thumb", ""))
	})
	return dedupeImages(thumbs)
}

func sellerNotes(doc *goquery.Document) []string {
	var paragraphs []string
	doc.Find(sellerNotesSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len([]rune(text)) > 1 {
			paragraphs = append(paragraphs, text)
		}
	})
	return paragraphs
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return domain.UnknownValue
	}
	return s
}

func newSkip(ref domain.ListingRef, reason domain.SkipReason, detail string) *domain.Skip {
	return &domain.Skip{
		ListingURL:  ref.DetailURL,
		StockNumber: ref.StockNumber,
		Reason:      reason,
		Detail:      detail,
	}
}
