package club

// Club is a venue with courts, located in one zone.
type Club struct {
	ID     string
	ZoneID string
	Name   string
}
