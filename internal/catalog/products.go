package catalog

// Product is a storefront listing.
type Product struct {
	ID       string
	Name     string
	Category string
	Price    float64
	Rating   float64
	Reviews  int
	Dosage   string
}

// FeaturedProducts is the storefront's featured catalog.
var FeaturedProducts = []Product{
	{ID: "p1", Name: "VitaD3 Complex", Category: "Vitamins", Price: 24.99, Rating: 4.8, Reviews: 1240, Dosage: "1 capsule daily"},
	{ID: "p2", Name: "NeuroCalm Magnesium", Category: "Minerals", Price: 32.50, Rating: 4.9, Reviews: 856, Dosage: "2 scoops before bed"},
	{ID: "p3", Name: "Organic Ashwagandha", Category: "Herbal", Price: 29.99, Rating: 4.7, Reviews: 128, Dosage: "1 capsule morning or night"},
	{ID: "p4", Name: "ImmunoShield Pro", Category: "Immunity", Price: 19.99, Rating: 4.6, Reviews: 430, Dosage: "1 tablet daily"},
	{ID: "p5", Name: "GutBiome Daily", Category: "Probiotics", Price: 45.00, Rating: 4.9, Reviews: 2100, Dosage: "1 capsule on empty stomach"},
	{ID: "p6", Name: "AllergyDefend", Category: "Herbal", Price: 22.50, Rating: 4.5, Reviews: 320, Dosage: "2 capsules as needed"},
	{ID: "p7", Name: "SolarGuard SPF 50", Category: "Skincare", Price: 18.00, Rating: 4.8, Reviews: 890, Dosage: "Apply every 2 hours"},
	{ID: "p8", Name: "SmartTemp Patch", Category: "Devices", Price: 49.99, Rating: 4.6, Reviews: 150, Dosage: "Wear 24h"},
	{ID: "p9", Name: "DeepSleep Melatonin", Category: "Vitamins", Price: 15.99, Rating: 4.4, Reviews: 600, Dosage: "1 tablet 30m before bed"},
}
