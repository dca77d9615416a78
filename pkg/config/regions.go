package config

// Region represents a regional API deployment
type Region struct {
	ID          string
	Name        string
	Endpoint    string
	Description string
}

// Regions lists the fixed regional GraphQL endpoints
var Regions = []Region{
	{
		ID:          "us",
		Name:        "US",
		Endpoint:    "https://us.api.mondoo.com/query",
		Description: "United States",
	},
	{
		ID:          "eu",
		Name:        "EU",
		Endpoint:    "https://eu.api.mondoo.com/query",
		Description: "European Union",
	},
}

// DefaultRegion is used when no region is configured
var DefaultRegion = Regions[0]

// RegionByID returns the region with the given ID
func RegionByID(id string) (Region, bool) {
	for _, r := range Regions {
		if r.ID == id {
			return r, true
		}
	}
	return Region{}, false
}

// RegionEndpoint returns the endpoint for a region ID, falling back to the
// default region for unknown IDs.
func RegionEndpoint(id string) string {
	if r, ok := RegionByID(id); ok {
		return r.Endpoint
	}
	return DefaultRegion.Endpoint
}
