package extract_test

import (
	"testing"

	"github.com/JonahHouse/ElPaseoAuto/internal/domain"
	"github.com/JonahHouse/ElPaseoAuto/internal/extract"
	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailHTML = `<!DOCTYPE html>
<html><body>
<div class="dws-vehicle-fields-wrap">
  <i class="dws-icons-feature-vin"></i>
  <span class="dws-vehicle-fields-value"> wp0ab2a99ms123456 </span>
</div>
<div class="dws-vehicle-fields-wrap">
  <i class="dws-icons-feature-mileage"></i>
  <span class="dws-vehicle-fields-value">45,231 mi</span>
</div>
<div class="dws-vehicle-fields-wrap">
  <i class="dws-icons-feature-transmission"></i>
  <span class="dws-vehicle-fields-value">PDK</span>
</div>
<div class="dws-vehicle-fields-wrap">
  <i class="dws-icons-feature-drivetrain"></i>
  <span class="dws-vehicle-fields-value">RWD</span>
</div>
<span class="dws-vdp-single-field-value-vehicleprice">$142,000</span>
<span class="dws-vdp-single-field-value-vehicleprice">$150,000</span>
<div class="slider">
  <img class="dws-media-slide-image lslide" data-thumb="https://cdn.example.com/img/1024/768/a.jpg">
  <img class="dws-media-slide-image clone" data-thumb="https://cdn.example.com/img/1024/768/z.jpg">
  <img class="dws-media-slide-image lslide" data-thumb="https://cdn.example.com/img/1024/768/b.jpg">
  <img class="dws-media-slide-image lslide" data-thumb="https://cdn.example.com/img/1024/768/a.jpg">
</div>
<div class="dws-vdp-seller-notes-container">
  <p>One owner Carrera S in GT Silver.</p>
  <p> </p>
  <p>Full service history with the selling dealer.</p>
  <p>Sport Chrono package and PASM.</p>
  <p>Pricing is for informational purposes only and the vehicle is Subject To Prior Sale.</p>
</div>
</body></html>`

func testListing() domain.ListingRef {
	return domain.ListingRef{
		DetailURL:   "https://dealer.example.com/inventory/porsche/911/p1234",
		StockNumber: "p1234",
		Year:        2021,
		Make:        "Porsche",
		Model:       "911",
		BodyStyle:   "Coupe",
		Engine:      "3.0L H6",
		Trim:        "Carrera S",
	}
}

func TestDetailExtractor_Extract(t *testing.T) {
	extractor := extract.NewDetailExtractor(logger.NewNop())

	vehicle, skip := extractor.Extract(testListing(), detailHTML)
	require.Nil(t, skip)
	require.NotNil(t, vehicle)

	assert.Equal(t, "WP0AB2A99MS123456", vehicle.VIN)
	require.NotNil(t, vehicle.Price)
	assert.Equal(t, 142000, *vehicle.Price)
	require.NotNil(t, vehicle.Mileage)
	assert.Equal(t, 45231, *vehicle.Mileage)
	require.NotNil(t, vehicle.Transmission)
	assert.Equal(t, "PDK", *vehicle.Transmission)
	require.NotNil(t, vehicle.Drivetrain)
	assert.Equal(t, "RWD", *vehicle.Drivetrain)
	assert.Nil(t, vehicle.ExteriorColor)
	assert.Nil(t, vehicle.FuelType)

	assert.Equal(t, []string{
		"https://cdn.example.com/img/1920/1080/a.jpg",
		"https://cdn.example.com/img/1920/1080/b.jpg",
	}, vehicle.Images)

	require.NotNil(t, vehicle.ShortDescription)
	assert.Equal(t, "One owner Carrera S in GT Silver.", *vehicle.ShortDescription)
	require.NotNil(t, vehicle.LongDescription)
	assert.Equal(t,
		"Full service history with the selling dealer.\n\nSport Chrono package and PASM.",
		*vehicle.LongDescription)

	assert.Equal(t, 2021, vehicle.Year)
	assert.Equal(t, "Porsche", vehicle.Make)
	require.NotNil(t, vehicle.Trim)
	assert.Equal(t, "Carrera S", *vehicle.Trim)
	assert.Equal(t, testListing().DetailURL, vehicle.SourceURL)
	assert.NotNil(t, vehicle.Features)
	assert.Empty(t, vehicle.Features)
}

func TestDetailExtractor_VINFallsBackToStockNumber(t *testing.T) {
	extractor := extract.NewDetailExtractor(nil)

	vehicle, skip := extractor.Extract(testListing(), `<html><body><span class="dws-vdp-single-field-value-vehicleprice">Call</span></body></html>`)
	require.Nil(t, skip)
	require.NotNil(t, vehicle)

	assert.Equal(t, "P1234", vehicle.VIN)
	assert.Nil(t, vehicle.Price)
	assert.Nil(t, vehicle.Mileage)
	assert.Nil(t, vehicle.ShortDescription)
	assert.Nil(t, vehicle.LongDescription)
	assert.Empty(t, vehicle.Images)
}

func TestDetailExtractor_MissingVINIsSkipped(t *testing.T) {
	ref := testListing()
	ref.StockNumber = ""

	vehicle, skip := extract.NewDetailExtractor(nil).Extract(ref, "<html><body></body></html>")
	assert.Nil(t, vehicle)
	require.NotNil(t, skip)
	assert.Equal(t, domain.SkipMissingVIN, skip.Reason)
	assert.Equal(t, ref.DetailURL, skip.ListingURL)
}

func TestDetailExtractor_UnknownMakeAndModel(t *testing.T) {
	ref := testListing()
	ref.Make = ""
	ref.Model = "  "

	vehicle, skip := extract.NewDetailExtractor(nil).Extract(ref, detailHTML)
	require.Nil(t, skip)
	assert.Equal(t, domain.UnknownValue, vehicle.Make)
	assert.Equal(t, domain.UnknownValue, vehicle.Model)
}
