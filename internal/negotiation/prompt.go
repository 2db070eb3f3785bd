package negotiation

import (
	"fmt"
	"strings"

	"github.com/BerylCAtieno/synapse/internal/models"
)

const defaultDescription = "Premium product"

// BuildPrompt renders the negotiation instruction for one campaign and persona.
// Fields are not validated; zero values are rendered as they are.
func BuildPrompt(campaign *models.Campaign, persona *models.Persona) string {
	symbol := models.CurrencySymbol(campaign.Currency)
	description := strings.TrimSpace(campaign.Description)
	if description == "" {
		description = defaultDescription
	}
	ocean := persona.Ocean()

	return fmt.Sprintf(`You are simulating a negotiation between a brand and a consumer persona.

Consumer Persona:
- Name: %s
- Age: %d, Location: %s
- Income: %s%s
- Trust Score: %s
- Price Sensitivity: %s
- Privacy Threshold: %s
- Personality (OCEAN): Openness %s, Conscientiousness %s, Extraversion %s, Agreeableness %s, Neuroticism %s

Campaign Offer:
- Product: %s
- Price: %s%s
- Description: %s

Simulate a realistic negotiation. The consumer should respond based on their personality traits and sensitivities. Generate at least 10-15 message exchanges, ending with either acceptance, rejection, or a counter-offer. Format as JSON array of messages with: {"actor": "brand"|"consumer", "text": "message", "sentiment": number between -1 and 1}.`,
		persona.Name,
		persona.Age, persona.Location,
		symbol, persona.Income.String(),
		percent(persona.TrustScore),
		percent(persona.PriceSensitivity),
		percent(persona.PrivacyThreshold),
		percent(ocean.Openness), percent(ocean.Conscientiousness), percent(ocean.Extraversion),
		percent(ocean.Agreeableness), percent(ocean.Neuroticism),
		campaign.ProductName,
		symbol, campaign.Price.String(),
		description,
	)
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}
