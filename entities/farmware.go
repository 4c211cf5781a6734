package entities

// FarmwareInstallation points at a third party farmware manifest.
type FarmwareInstallation struct {
	DeviceOwned
	URL          string `json:"url"`
	PackageError string `json:"package_error"`
}

// WebcamFeed is a camera stream shown next to the garden map.
type WebcamFeed struct {
	DeviceOwned
	Name string `json:"name"`
	URL  string `json:"url"`
}
