// ABOUTME: Version and product identification constants
// ABOUTME: Shared by the CLI, TUI header and remote hello message
package version

const (
	// Version is the release version of wavdeck
	Version = "0.3.0"

	// Product is the display name
	Product = "wavdeck"

	// Manufacturer is the publisher name
	Manufacturer = "harperreed"

	// ServiceType is the mDNS service advertised by the remote server
	ServiceType = "_wavdeck._tcp"
)
