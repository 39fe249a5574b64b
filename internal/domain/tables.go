package domain

// City is a sampled city and its population in millions.
type City struct {
	Name       string
	Population float64
}

// BloodType is an ABO/Rh code with its population frequency and the
// donation multiplier applied for rarer types.
type BloodType struct {
	Code      string
	Frequency float64
	Rarity    float64
}

// Cities are sampled with probability proportional to population.
var Cities = []City{
	{Name: "Mumbai", Population: 12.5},
	{Name: "Delhi", Population: 11.0},
	{Name: "Bangalore", Population: 8.4},
	{Name: "Hyderabad", Population: 6.8},
	{Name: "Ahmedabad", Population: 5.6},
	{Name: "Chennai", Population: 4.6},
	{Name: "Kolkata", Population: 4.5},
	{Name: "Pune", Population: 3.1},
}

// BloodTypes lists the eight codes with literal sampling frequencies.
var BloodTypes = []BloodType{
	{Code: "O+", Frequency: 0.374, Rarity: 1.0},
	{Code: "A+", Frequency: 0.357, Rarity: 1.0},
	{Code: "B+", Frequency: 0.085, Rarity: 1.1},
	{Code: "AB+", Frequency: 0.034, Rarity: 1.2},
	{Code: "O-", Frequency: 0.066, Rarity: 1.5},
	{Code: "A-", Frequency: 0.063, Rarity: 1.3},
	{Code: "B-", Frequency: 0.015, Rarity: 1.4},
	{Code: "AB-", Frequency: 0.006, Rarity: 1.6},
}

// DonationCenters are sampled uniformly.
var DonationCenters = []string{
	"City Hospital",
	"Red Cross Center",
	"Community Blood Bank",
	"University Medical Center",
	"Mobile Donation Unit",
}

// CityWeights returns the normalized population weights in Cities order.
func CityWeights() []float64 {
	var total float64
	for _, c := range Cities {
		total += c.Population
	}
	w := make([]float64, len(Cities))
	for i, c := range Cities {
		w[i] = c.Population / total
	}
	return w
}

// BloodTypeWeights returns the literal frequencies in BloodTypes order.
func BloodTypeWeights() []float64 {
	w := make([]float64, len(BloodTypes))
	for i, b := range BloodTypes {
		w[i] = b.Frequency
	}
	return w
}

// LookupCity reports the population of a known city.
func LookupCity(name string) (float64, bool) {
	for _, c := range Cities {
		if c.Name == name {
			return c.Population, true
		}
	}
	return 0, false
}

// LookupBloodType returns the table entry for code.
func LookupBloodType(code string) (BloodType, bool) {
	for _, b := range BloodTypes {
		if b.Code == code {
			return b, true
		}
	}
	return BloodType{}, false
}

// IsDonationCenter reports whether name is one of DonationCenters.
func IsDonationCenter(name string) bool {
	for _, c := range DonationCenters {
		if c == name {
			return true
		}
	}
	return false
}
