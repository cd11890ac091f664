package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/quotex-api/internal/app"
	"github.com/noah-isme/quotex-api/internal/catalog"
	"github.com/noah-isme/quotex-api/internal/config"
	"github.com/noah-isme/quotex-api/internal/customer"
	"github.com/noah-isme/quotex-api/internal/inventory"
	"github.com/noah-isme/quotex-api/internal/invoice"
	"github.com/noah-isme/quotex-api/internal/pricing"
	"github.com/noah-isme/quotex-api/internal/quote"
)

func main() {
	force := flag.Bool("force", false, "seed even when organizations already exist")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.StoreDriver == config.DriverMemory {
		log.Println("STORE_DRIVER=memory: seeded data is lost when the seeder exits")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	deps, err := app.New(ctx, cfg, zerolog.Nop(), app.Options{})
	if err != nil {
		log.Fatalf("initialise dependencies: %v", err)
	}
	defer deps.Close()

	_, existing, err := deps.Customers.ListOrganizations(ctx, customer.OrganizationFilter{})
	if err != nil {
		log.Fatalf("count organizations: %v", err)
	}
	if existing > 0 && !*force {
		log.Printf("found %d organizations, skipping (use -force to seed anyway)", existing)
		return
	}

	customers := seedCustomers(ctx, deps)
	quotes := seedQuotes(ctx, deps, customers)
	seedInvoices(ctx, deps, quotes)
	seedInventory(ctx, deps)

	log.Println("Seeding completed successfully!")
}

type orgSeed struct {
	Name    string
	Type    customer.OrganizationType
	Tier    string
	City    string
	State   string
	Company string
	Contact string
	Email   string
}

func seedCustomers(ctx context.Context, deps *app.Dependencies) []customer.Customer {
	seeds := []orgSeed{
		{"Lakeside State University", customer.OrgUniversity, "premier", "Madison", "WI", "LSU Facilities", "Dana Whitfield", "dana.whitfield@lakeside.edu"},
		{"Harbor County Schools", customer.OrgK12, "preferred", "Norfolk", "VA", "Harbor County Purchasing", "Miguel Ortega", "mortega@harborschools.org"},
		{"Northwind Health", customer.OrgHealthcare, "standard", "Tacoma", "WA", "Northwind Health Interiors", "Priya Raman", "praman@northwindhealth.com"},
		{"Summit Office Interiors", customer.OrgDealer, "preferred", "Denver", "CO", "Summit Office Interiors", "Chris Baylor", "chris@summitoffice.com"},
		{"Department of Public Works", customer.OrgGovernment, "standard", "Columbus", "OH", "DPW Procurement", "Alex Kim", "akim@columbus.gov"},
	}

	fmt.Println("Seeding organizations and customers...")
	out := make([]customer.Customer, 0, len(seeds))
	for _, s := range seeds {
		addr := &customer.Address{City: s.City, State: s.State, Country: "US"}
		org, err := deps.Customers.CreateOrganization(ctx, customer.OrganizationInput{
			Name:        s.Name,
			Type:        s.Type,
			PricingTier: s.Tier,
			Address:     addr,
		})
		if err != nil {
			log.Fatalf("create organization %s: %v", s.Name, err)
		}
		c, err := deps.Customers.CreateCustomer(ctx, customer.CustomerInput{
			OrganizationID: org.ID,
			CompanyName:    s.Company,
			Contacts:       []customer.ContactInput{{Name: s.Contact, Email: s.Email, Role: "Purchasing"}},
			Address:        addr,
			Tags:           []string{string(s.Type)},
		})
		if err != nil {
			log.Fatalf("create customer %s: %v", s.Company, err)
		}
		out = append(out, c)
	}
	return out
}

// sampleConfiguration builds a complete configuration from the n-th entries
// of the loaded catalog so the seeder follows whatever catalog is deployed.
func sampleConfiguration(cat *catalog.Catalog, n int) pricing.Configuration {
	cfg := pricing.DefaultConfiguration()
	bases := cat.Bases()
	base := bases[n%len(bases)]
	cfg.BaseSeries = base.ID
	if heights := cat.HeightsFor(base); len(heights) > 0 {
		cfg.Height = heights[n%len(heights)].ID
	}
	finishes := cat.Finishes()
	cfg.Finish = finishes[(n*3)%len(finishes)].ID
	shapes := cat.Shapes()
	cfg.TopShape = shapes[n%len(shapes)].ID
	cfg.TopWidth = decimal.NewFromInt(int64(48 + 12*(n%4)))
	cfg.TopDepth = decimal.NewFromInt(int64(24 + 6*(n%3)))
	materials := cat.Materials()
	cfg.TopMaterial = materials[n%len(materials)].ID
	if laminates := cat.Laminates(); len(laminates) > 0 {
		cfg.LaminateID = laminates[n%len(laminates)].ID
	}
	edges := cat.Edges()
	cfg.EdgeType = edges[n%len(edges)].ID
	if accessories := cat.Accessories(); len(accessories) > 0 && n%2 == 0 {
		cfg.Accessories = []string{accessories[n%len(accessories)].ID}
	}
	return cfg
}

func seedQuotes(ctx context.Context, deps *app.Dependencies, customers []customer.Customer) []quote.Quote {
	fmt.Println("Seeding quotes...")
	// Progression applied to each quote after creation, in order.
	flows := [][]quote.Status{
		{},
		{quote.StatusSent},
		{quote.StatusSent, quote.StatusViewed},
		{quote.StatusSent, quote.StatusAccepted},
		{quote.StatusSent, quote.StatusViewed, quote.StatusRejected},
		{quote.StatusSent, quote.StatusViewed, quote.StatusAccepted},
	}
	var out []quote.Quote
	n := 0
	for i, c := range customers {
		for j := 0; j < 2; j++ {
			items := []quote.ItemInput{
				{Configuration: sampleConfiguration(deps.Catalog, n), Quantity: 4 + 2*j},
				{Configuration: sampleConfiguration(deps.Catalog, n+1), Quantity: 1 + i},
			}
			q, err := deps.Quotes.Create(ctx, quote.CreateInput{
				CustomerID:    c.ID,
				ProjectName:   fmt.Sprintf("%s refresh phase %d", c.CompanyName, j+1),
				LineItems:     items,
				DiscountType:  pricing.DiscountPercentage,
				DiscountValue: decimal.NewFromInt(int64(5 * (n % 3))),
			})
			if err != nil {
				log.Fatalf("create quote for %s: %v", c.CompanyName, err)
			}
			for _, to := range flows[n%len(flows)] {
				if q, err = deps.Quotes.Transition(ctx, q.ID, to); err != nil {
					log.Fatalf("move quote %s to %s: %v", q.QuoteNumber, to, err)
				}
			}
			out = append(out, q)
			n += 2
		}
	}
	return out
}

func seedInvoices(ctx context.Context, deps *app.Dependencies, quotes []quote.Quote) {
	fmt.Println("Seeding invoices...")
	paid := false
	for _, q := range quotes {
		if q.Status != quote.StatusAccepted {
			continue
		}
		inv, err := deps.Invoices.ConvertFromQuote(ctx, q.ID)
		if err != nil {
			log.Fatalf("invoice quote %s: %v", q.QuoteNumber, err)
		}
		if inv, err = deps.Invoices.Send(ctx, inv.ID); err != nil {
			log.Fatalf("send invoice %s: %v", inv.InvoiceNumber, err)
		}
		amount := inv.AmountDue
		if paid {
			amount = pricing.RoundCents(amount.Div(decimal.NewFromInt(2)))
		}
		if _, err := deps.Invoices.RecordPayment(ctx, inv.ID, invoice.PaymentInput{
			Amount:    amount,
			Method:    invoice.MethodCheck,
			Reference: "CHK-" + inv.InvoiceNumber,
		}); err != nil {
			log.Fatalf("record payment on %s: %v", inv.InvoiceNumber, err)
		}
		paid = true
	}
}

func seedInventory(ctx context.Context, deps *app.Dependencies) {
	fmt.Println("Seeding inventory...")
	items := []inventory.Input{
		{SKU: "BASE-FND-BLK", Name: "Foundation base, black", Category: inventory.CategoryBase, Quantity: 40, ReorderPoint: 10, ReorderQuantity: 50, UnitCost: decimal.RequireFromString("118.00"), Supplier: "Midwest Steelworks"},
		{SKU: "BASE-FLD-SLV", Name: "Folding base, silver", Category: inventory.CategoryBase, Quantity: 6, ReorderPoint: 8, ReorderQuantity: 24, UnitCost: decimal.RequireFromString("142.50"), Supplier: "Midwest Steelworks"},
		{SKU: "TOP-HPL-6030", Name: "HPL top blank 60x30", Category: inventory.CategoryTop, Quantity: 25, ReorderPoint: 10, ReorderQuantity: 40, UnitCost: decimal.RequireFromString("96.00"), Supplier: "Great Lakes Laminates"},
		{SKU: "FIN-PWD-BLK", Name: "Powder coat, black (lb)", Category: inventory.CategoryFinish, Quantity: 0, ReorderPoint: 20, ReorderQuantity: 100, UnitCost: decimal.RequireFromString("6.25"), Supplier: "Coatings Direct"},
		{SKU: "ACC-GROM-2", Name: "2in cable grommet", Category: inventory.CategoryAccessory, Quantity: 300, ReorderPoint: 50, ReorderQuantity: 200, UnitCost: decimal.RequireFromString("3.10"), Supplier: "Cable Co"},
		{SKU: "HW-CAST-LOCK", Name: "Locking caster", Category: inventory.CategoryHardware, Quantity: 12, ReorderPoint: 16, ReorderQuantity: 64, UnitCost: decimal.RequireFromString("8.75"), Supplier: "Rollwell"},
	}
	for _, in := range items {
		if _, err := deps.Inventory.Create(ctx, in); err != nil {
			log.Fatalf("create inventory item %s: %v", in.SKU, err)
		}
	}
}
