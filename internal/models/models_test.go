package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func validCampaign() Campaign {
	return Campaign{
		Name:        "SmartWatch X Launch",
		ProductName: "SmartWatch X",
		Price:       decimal.NewFromInt(12999),
		Currency:    "INR",
		Status:      CampaignStatusDraft,
	}
}

func validPersona() Persona {
	return Persona{
		Name:             "Urban Saver",
		Age:              28,
		Income:           decimal.NewFromInt(600000),
		TrustScore:       0.72,
		PriceSensitivity: 0.85,
		PrivacyThreshold: 0.6,
		OceanScores:      datatypes.NewJSONType(DefaultOceanScores()),
	}
}

func TestCampaignValidate(t *testing.T) {
	c := validCampaign()
	require.NoError(t, c.Validate())

	c.Price = decimal.Zero
	c.Status = "paused"
	c.Name = " "
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price must be positive")
	assert.Contains(t, err.Error(), "status must be")
	assert.Contains(t, err.Error(), "name is required")
}

func TestPersonaValidate(t *testing.T) {
	p := validPersona()
	require.NoError(t, p.Validate())

	ocean := DefaultOceanScores()
	ocean.Neuroticism = 1.2
	p.OceanScores = datatypes.NewJSONType(ocean)
	p.TrustScore = -0.1
	p.Age = 0
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocean_scores.neuroticism")
	assert.Contains(t, err.Error(), "trust_score")
	assert.Contains(t, err.Error(), "age must be positive")
}

func TestCampaignPriceIsJSONNumber(t *testing.T) {
	c := validCampaign()
	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":12999`)
}

func TestTranscriptLast(t *testing.T) {
	_, ok := Transcript(nil).Last()
	assert.False(t, ok)

	last, ok := Transcript{{Actor: ActorBrand, Text: "a"}, {Actor: ActorConsumer, Text: "b"}}.Last()
	assert.True(t, ok)
	assert.Equal(t, "b", last.Text)
}

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, "₹", CurrencySymbol("INR"))
	assert.Equal(t, "$", CurrencySymbol("usd"))
	assert.Equal(t, "JPY ", CurrencySymbol("JPY"))
}
