package negotiation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/BerylCAtieno/synapse/internal/models"
)

const (
	DemoModel = "demo"

	demoHighSensitivity = 0.7
	demoHighTrust       = 0.8
	demoLowSensitivity  = 0.5
)

var demoNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://synapse.app/demo"))

// DemoID is the stable identifier of a built-in demo record.
func DemoID(slug string) uuid.UUID { return uuid.NewSHA1(demoNamespace, []byte(slug)) }

type demoCampaign struct {
	slug     string
	campaign models.Campaign
}

type demoPersona struct {
	slug    string
	persona models.Persona
}

var demoCampaigns = []demoCampaign{
	{"smartwatch-x", models.Campaign{
		Name:        "SmartWatch X Launch",
		Description: "Advanced fitness tracking with a 7-day battery.",
		ProductName: "SmartWatch X",
		Price:       decimal.NewFromInt(12999),
		Currency:    "INR",
		Status:      models.CampaignStatusActive,
	}},
	{"eco-bundle", models.Campaign{
		Name:        "Eco-Friendly Bundle",
		Description: "Reusable bottle, bamboo cutlery and an organic cotton tote.",
		ProductName: "Eco Bundle",
		Price:       decimal.NewFromInt(2499),
		Currency:    "INR",
		Status:      models.CampaignStatusActive,
	}},
	{"premium-membership", models.Campaign{
		Name:        "Premium Membership",
		Description: "Free delivery, early access and members-only prices.",
		ProductName: "Premium Membership",
		Price:       decimal.NewFromInt(999),
		Currency:    "INR",
		Status:      models.CampaignStatusDraft,
	}},
}

var demoPersonas = []demoPersona{
	{"urban-saver", models.Persona{
		Name: "Urban Saver", Location: "Bengaluru", Age: 28, Income: decimal.NewFromInt(600000),
		TrustScore: 0.72, PriceSensitivity: 0.85, PrivacyThreshold: 0.8,
		OceanScores: datatypes.NewJSONType(models.OceanScores{
			Openness: 0.6, Conscientiousness: 0.8, Extraversion: 0.4, Agreeableness: 0.5, Neuroticism: 0.5,
		}),
	}},
	{"green-advocate", models.Persona{
		Name: "Green Advocate", Location: "Mumbai", Age: 34, Income: decimal.NewFromInt(1200000),
		TrustScore: 0.85, PriceSensitivity: 0.55, PrivacyThreshold: 0.6,
		OceanScores: datatypes.NewJSONType(models.OceanScores{
			Openness: 0.8, Conscientiousness: 0.7, Extraversion: 0.6, Agreeableness: 0.7, Neuroticism: 0.4,
		}),
	}},
	{"luxury-seeker", models.Persona{
		Name: "Luxury Seeker", Location: "Delhi", Age: 42, Income: decimal.NewFromInt(2500000),
		TrustScore: 0.91, PriceSensitivity: 0.2, PrivacyThreshold: 0.4,
		OceanScores: datatypes.NewJSONType(models.OceanScores{
			Openness: 0.7, Conscientiousness: 0.6, Extraversion: 0.9, Agreeableness: 0.6, Neuroticism: 0.3,
		}),
	}},
}

func (d demoCampaign) record() *models.Campaign {
	c := d.campaign
	c.ID = DemoID("campaign/" + d.slug)
	c.UserID = models.AnonymousOwnerID
	return &c
}

func (d demoPersona) record() *models.Persona {
	p := d.persona
	p.ID = DemoID("persona/" + d.slug)
	p.UserID = models.AnonymousOwnerID
	return &p
}

// DemoCampaigns returns fresh copies of the built-in demo campaigns.
func DemoCampaigns() []*models.Campaign {
	out := make([]*models.Campaign, 0, len(demoCampaigns))
	for _, d := range demoCampaigns {
		out = append(out, d.record())
	}
	return out
}

func DemoPersonas() []*models.Persona {
	out := make([]*models.Persona, 0, len(demoPersonas))
	for _, d := range demoPersonas {
		out = append(out, d.record())
	}
	return out
}

// LookupDemoCampaign matches id against demo slugs and ids.
func LookupDemoCampaign(id string) (*models.Campaign, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, d := range demoCampaigns {
		c := d.record()
		if id == "demo-"+d.slug || id == c.ID.String() {
			return c, true
		}
	}
	return nil, false
}

func LookupDemoPersona(id string) (*models.Persona, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, d := range demoPersonas {
		p := d.record()
		if id == "demo-"+d.slug || id == p.ID.String() {
			return p, true
		}
	}
	return nil, false
}

// DemoScript is the fixed four-turn exchange for a campaign and persona. The
// branch depends only on the persona's price sensitivity and trust score.
func DemoScript(campaign *models.Campaign, persona *models.Persona) (models.Transcript, models.Outcome) {
	sym := models.CurrencySymbol(campaign.Currency)
	description := strings.TrimSpace(campaign.Description)
	if description == "" {
		description = defaultDescription
	}
	opening := fmt.Sprintf("Hi %s! %s is available for %s%s. %s", persona.Name, campaign.ProductName, sym, campaign.Price.String(), description)

	switch {
	case persona.PriceSensitivity > demoHighSensitivity:
		ask := discounted(campaign.Price, 30)
		meet := discounted(campaign.Price, 25)
		return models.Transcript{
			{Actor: models.ActorBrand, Text: opening, Sentiment: sentiment(0.3)},
			{Actor: models.ActorConsumer, Text: fmt.Sprintf("That's more than I usually spend. I'm looking for around 30%% off, something like %s%s.", sym, ask), Sentiment: sentiment(-0.4)},
			{Actor: models.ActorBrand, Text: fmt.Sprintf("We can't go that low, but we can do %s%s, which is 25%% off the list price.", sym, meet), Sentiment: sentiment(0.2)},
			{Actor: models.ActorConsumer, Text: fmt.Sprintf("Closer. My counter-offer is %s%s with free shipping included.", sym, meet), Sentiment: sentiment(0.1)},
		}, models.OutcomeCounter

	case persona.TrustScore > demoHighTrust && persona.PriceSensitivity < demoLowSensitivity:
		offer := discounted(campaign.Price, 15)
		return models.Transcript{
			{Actor: models.ActorBrand, Text: opening, Sentiment: sentiment(0.4)},
			{Actor: models.ActorConsumer, Text: "This looks like something I'd use. Is there an introductory offer?", Sentiment: sentiment(0.5)},
			{Actor: models.ActorBrand, Text: fmt.Sprintf("For you we can take 15%% off: %s%s.", sym, offer), Sentiment: sentiment(0.6)},
			{Actor: models.ActorConsumer, Text: fmt.Sprintf("Great, I accept the offer at %s%s.", sym, offer), Sentiment: sentiment(0.9)},
		}, models.OutcomeAccepted

	default:
		return models.Transcript{
			{Actor: models.ActorBrand, Text: opening, Sentiment: sentiment(0.3)},
			{Actor: models.ActorConsumer, Text: "I'd need to know more before deciding. What data does this collect, and what is the return policy?", Sentiment: sentiment(-0.1)},
			{Actor: models.ActorBrand, Text: "Full details are on the product page, and there is a 30-day return window.", Sentiment: sentiment(0.2)},
			{Actor: models.ActorConsumer, Text: "I'll think about it and maybe come back later.", Sentiment: sentiment(-0.3)},
		}, models.OutcomeRejected
	}
}

// discounted applies pct percent off and rounds to the nearest whole unit.
func discounted(price decimal.Decimal, pct int64) string {
	return price.Mul(decimal.NewFromInt(100 - pct)).Div(decimal.NewFromInt(100)).Round(0).String()
}
