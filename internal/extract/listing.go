// Package extract turns rendered dealer-site HTML into listing references
// and vehicle records.
package extract

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/PuerkitoBio/goquery"
)

const (
	listingCardSelector    = ".vlp-image-slider[data-vehicle-stock-number]"
	listingWrapperSelector = ".dws-listing-vehicle-info-wrapper, .item-vehicle"
	detailLinkSelector     = "a.view-details-link, a.view-details-button"
	inventoryLinkSelector  = "a[href*='/inventory/']"
	inventoryPathMarker    = "/inventory/"
)

// ListingExtractor reads vehicle cards from the inventory index page.
type ListingExtractor struct {
	base *url.URL
}

// NewListingExtractor creates an extractor resolving relative links against baseURL.
func NewListingExtractor(baseURL string) (*ListingExtractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q is not absolute", baseURL)
	}
	return &ListingExtractor{base: base}, nil
}

// Extract returns one ListingRef per card that has both a stock number and a
// detail link. Results keep page order and are unique by detail URL.
func (e *ListingExtractor) Extract(html string) ([]domain.ListingRef, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var refs []domain.ListingRef
	seen := make(map[string]struct{})

	doc.Find(listingCardSelector).Each(func(_ int, card *goquery.Selection) {
		stock := strings.TrimSpace(card.AttrOr("data-vehicle-stock-number", ""))
		if stock == "" {
			return
		}

		wrapper := card.Closest(listingWrapperSelector)
		detailURL := e.detailURL(wrapper, stock)
		if detailURL == "" {
			return
		}
		if _, dup := seen[detailURL]; dup {
			return
		}
		seen[detailURL] = struct{}{}

		year, _ := strconv.Atoi(strings.TrimSpace(card.AttrOr("data-vehicle-year", "")))

		refs = append(refs, domain.ListingRef{
			DetailURL:   detailURL,
			StockNumber: stock,
			Year:        year,
			Make:        strings.TrimSpace(card.AttrOr("data-vehicle-make", "")),
			Model:       strings.TrimSpace(card.AttrOr("data-vehicle-model", "")),
			BodyStyle:   strings.TrimSpace(card.AttrOr("data-vehicle-body-type", "")),
			Engine:      strings.TrimSpace(card.AttrOr("data-vehicle-engine", "")),
			Trim:        strings.TrimSpace(card.AttrOr("data-vehicle-trim", "")),
		})
	})

	return refs, nil
}

// detailURL prefers the explicit "view details" links inside the card wrapper
// and falls back to any inventory link whose path mentions the stock number.
// When several links match, the last one wins.
func (e *ListingExtractor) detailURL(wrapper *goquery.Selection, stock string) string {
	var found string

	wrapper.Find(detailLinkSelector).Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		if strings.Contains(href, inventoryPathMarker) {
			if resolved := e.resolve(href); resolved != "" {
				found = resolved
			}
		}
	})
	if found != "" {
		return found
	}

	stockSegment := "/" + strings.ToLower(stock)
	wrapper.Find(inventoryLinkSelector).Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		if strings.Contains(strings.ToLower(href), stockSegment) {
			if resolved := e.resolve(href); resolved != "" {
				found = resolved
			}
		}
	})

	return found
}

func (e *ListingExtractor) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return e.base.ResolveReference(ref).String()
}
