package seed

import (
	"fmt"
	"math/rand"
)

// Category is a category row written directly to the catalog database.
type Category struct {
	Slug  string
	Title string
}

// Product is a product created through the catalog API.
type Product struct {
	Slug        string
	Title       string
	Description string
	Category    string
	Price       int64
	Stock       int
	OnShelf     bool

	// Datasheet uploads a generated text attachment after creation.
	Datasheet bool
}

// Plan is the data a seeding run writes for one tenant.
type Plan struct {
	TenantSlug string
	TenantName string
	Categories []Category
	Products   []Product
}

// DefaultCategories are the categories of the demo shop.
var DefaultCategories = []Category{
	{Slug: "tableware", Title: "Tableware"},
	{Slug: "textiles", Title: "Textiles"},
	{Slug: "stationery", Title: "Stationery"},
	{Slug: "lighting", Title: "Lighting"},
}

// DefaultProducts are the hand-written products of the demo shop. Products
// without a category show up under filter=uncategorized.
var DefaultProducts = []Product{
	{Slug: "stoneware-mug", Title: "Stoneware Mug", Description: "Hand-thrown mug with a speckled glaze.", Category: "tableware", Price: 2400, Stock: 40, OnShelf: true, Datasheet: true},
	{Slug: "linen-napkins", Title: "Linen Napkins", Description: "Set of four stonewashed linen napkins.", Category: "textiles", Price: 3200, Stock: 25, OnShelf: true},
	{Slug: "serving-bowl", Title: "Serving Bowl", Description: "Wide bowl for salads and sharing plates.", Category: "tableware", Price: 5800, Stock: 12, OnShelf: true, Datasheet: true},
	{Slug: "wool-throw", Title: "Wool Throw", Description: "Herringbone throw woven from undyed wool.", Category: "textiles", Price: 12900, Stock: 6, OnShelf: true},
	{Slug: "dot-grid-notebook", Title: "Dot Grid Notebook", Description: "A5 notebook with lay-flat binding.", Category: "stationery", Price: 1800, Stock: 100, OnShelf: true},
	{Slug: "brass-pen", Title: "Brass Pen", Description: "Machined brass ballpoint that patinates with use.", Category: "stationery", Price: 4500, Stock: 30, OnShelf: true, Datasheet: true},
	{Slug: "paper-lantern", Title: "Paper Lantern", Description: "Pleated paper shade for pendant lights.", Category: "lighting", Price: 6700, Stock: 8, OnShelf: true},
	{Slug: "table-lamp", Title: "Table Lamp", Description: "Ceramic base lamp with a linen shade.", Category: "lighting", Price: 14900, Stock: 4, OnShelf: false, Datasheet: true},
	{Slug: "gift-card", Title: "Gift Card", Description: "Sent by email, valid for a year.", OnShelf: true},
}

var (
	adjectives = []string{"Speckled", "Oiled", "Woven", "Glazed", "Raw", "Folded", "Turned", "Dyed"}
	materials  = []string{"Oak", "Linen", "Stoneware", "Brass", "Paper", "Wool", "Cotton", "Walnut"}
	nouns      = []string{"Tray", "Cup", "Coaster", "Basket", "Vase", "Runner", "Candle", "Board"}
)

// GenerateProducts returns n synthetic products spread over categories.
// The result is deterministic for a given rnd seed.
func GenerateProducts(n int, categories []Category, rnd *rand.Rand) []Product {
	products := make([]Product, 0, n)
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("%s %s %s %d",
			adjectives[rnd.Intn(len(adjectives))],
			materials[rnd.Intn(len(materials))],
			nouns[rnd.Intn(len(nouns))],
			i+1,
		)
		p := Product{
			Title:       title,
			Description: fmt.Sprintf("Generated catalog item number %d.", i+1),
			Price:       int64(500 + rnd.Intn(200)*100),
			Stock:       rnd.Intn(50),
			OnShelf:     rnd.Intn(10) > 0,
		}
		if len(categories) > 0 {
			p.Category = categories[i%len(categories)].Slug
		}
		products = append(products, p)
	}
	return products
}

// datasheet is the text body uploaded for products with Datasheet set.
func datasheet(p Product) []byte {
	return []byte(fmt.Sprintf("%s\n\n%s\n\nPrice: %d.%02d\n", p.Title, p.Description, p.Price/100, p.Price%100))
}
