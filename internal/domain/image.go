package domain

// VehicleImage is one ordered photo of a vehicle. Positions are dense from 0
// and exactly the image at position 0 is primary.
type VehicleImage struct {
	ID        int64  `db:"id"         json:"id"`
	VehicleID int64  `db:"vehicle_id" json:"vehicle_id"`
	URL       string `db:"url"        json:"url"`
	Position  int    `db:"position"   json:"position"`
	IsPrimary bool   `db:"is_primary" json:"is_primary"`
}

// BuildImages turns an ordered URL list into image rows for vehicleID.
func BuildImages(vehicleID int64, urls []string) []VehicleImage {
	images := make([]VehicleImage, 0, len(urls))
	for i, u := range urls {
		images = append(images, VehicleImage{
			VehicleID: vehicleID,
			URL:       u,
			Position:  i,
			IsPrimary: i == 0,
		})
	}
	return images
}
