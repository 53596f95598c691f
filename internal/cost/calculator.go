package cost

// Rates holds per-provider pricing configuration.
type Rates struct {
	Registry RegistryRate `yaml:"registry" mapstructure:"registry"`
	Geocode  GeocodeRate  `yaml:"geocode" mapstructure:"geocode"`
}

// RegistryRate holds cadastral registry pricing. Certified extractions
// carry a surcharge over the plain visura.
type RegistryRate struct {
	PerParcel          float64 `yaml:"per_parcel" mapstructure:"per_parcel"`
	CertifiedSurcharge float64 `yaml:"certified_surcharge" mapstructure:"certified_surcharge"`
}

// GeocodeRate holds geocoding provider pricing.
type GeocodeRate struct {
	PerRequest float64 `yaml:"per_request" mapstructure:"per_request"`
}

// Calculator computes costs for registry and geocoding usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// ParcelLookup computes the cost of one registry extraction.
func (c *Calculator) ParcelLookup(certified bool) float64 {
	cost := c.rates.Registry.PerParcel
	if certified {
		cost += c.rates.Registry.CertifiedSurcharge
	}
	return cost
}

// GeocodeRequest returns the flat cost per geocoding call. Cache hits
// cost nothing and must not be charged through here.
func (c *Calculator) GeocodeRequest() float64 {
	return c.rates.Geocode.PerRequest
}

// DefaultRates returns the default pricing rates in EUR.
func DefaultRates() Rates {
	return Rates{
		Registry: RegistryRate{PerParcel: 1.06, CertifiedSurcharge: 0.29},
		Geocode:  GeocodeRate{PerRequest: 0.005},
	}
}
