package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	priceNoise   = regexp.MustCompile(`[,\s]`)
	mileageNoise = regexp.MustCompile(`[,\s]`)
	digitRun     = regexp.MustCompile(`\d+`)
)

// Image URLs on the source site embed the rendition size as a path segment.
const (
	thumbnailSize = "/1024/768/"
	fullSize      = "/1920/1080/"
)

// disclaimerPhrases mark legal boilerplate paragraphs in seller notes.
var disclaimerPhrases = []string{
	"informational purposes",
	"cannot guarantee",
	"subject to prior sale",
}

// ParsePrice returns the first digit run of a price text such as "$142,000".
// Each "$" starts a new amount, so "$145,000 $139,995" yields 145000. It
// returns nil when the text holds no digits.
func ParsePrice(text string) *int {
	for _, amount := range strings.Split(text, "$") {
		if n := firstNumber(priceNoise.ReplaceAllString(amount, "")); n != nil {
			return n
		}
	}
	return nil
}

// ParseMileage returns the first digit run of an odometer text such as "45,231 mi".
func ParseMileage(text string) *int {
	return firstNumber(mileageNoise.ReplaceAllString(text, ""))
}

func firstNumber(s string) *int {
	match := digitRun.FindString(s)
	if match == "" {
		return nil
	}
	// Values must fit the INTEGER columns they are stored in.
	n, err := strconv.ParseInt(match, 10, 64)
	if err != nil || n > math.MaxInt32 {
		return nil
	}
	v := int(n)
	return &v
}

// UpgradeImageURL swaps the thumbnail rendition for the full-size one.
func UpgradeImageURL(thumb string) string {
	return strings.Replace(thumb, thumbnailSize, fullSize, 1)
}

// dedupeImages upgrades every URL and drops repeats, keeping source order.
func dedupeImages(thumbs []string) []string {
	seen := make(map[string]struct{}, len(thumbs))
	images := make([]string, 0, len(thumbs))
	for _, thumb := range thumbs {
		u := UpgradeImageURL(strings.TrimSpace(thumb))
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		images = append(images, u)
	}
	return images
}

// splitDescription turns seller-note paragraphs into a short and a long
// description. The first paragraph is the short one; the rest, minus
// disclaimers, are joined by blank lines.
func splitDescription(paragraphs []string) (short, long string) {
	if len(paragraphs) == 0 {
		return "", ""
	}

	body := make([]string, 0, len(paragraphs)-1)
	for _, p := range paragraphs[1:] {
		if isDisclaimer(p) {
			continue
		}
		body = append(body, p)
	}

	return paragraphs[0], strings.Join(body, "\n\n")
}

func isDisclaimer(paragraph string) bool {
	lower := strings.ToLower(paragraph)
	for _, phrase := range disclaimerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
