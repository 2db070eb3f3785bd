package negotiation

import "github.com/BerylCAtieno/synapse/internal/models"

// AcceptanceScore maps an outcome to 1, 0.5 or 0.
func AcceptanceScore(o models.Outcome) float64 {
	switch o {
	case models.OutcomeAccepted:
		return 1
	case models.OutcomeCounter:
		return 0.5
	default:
		return 0
	}
}

// SentimentAverage is the mean turn sentiment, missing values counting as 0.
// An empty transcript averages to 0.
func SentimentAverage(t models.Transcript) float64 {
	if len(t) == 0 {
		return 0
	}
	var sum float64
	for _, turn := range t {
		if turn.Sentiment != nil {
			sum += *turn.Sentiment
		}
	}
	return sum / float64(len(t))
}

func ComputeMetrics(t models.Transcript, o models.Outcome) models.SimulationMetrics {
	return models.SimulationMetrics{
		AcceptanceRate: AcceptanceScore(o),
		SentimentAvg:   SentimentAverage(t),
	}
}
