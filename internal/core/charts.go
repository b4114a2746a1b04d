package core

import "strconv"

// ChartKind tells a renderer how to draw a series.
type ChartKind string

const (
	ChartBar ChartKind = "bar"
	ChartPie ChartKind = "pie"
)

// ChartPoint pairs a category label with its count.
type ChartPoint struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// ChartSeries is a labeled series for an external chart renderer.
type ChartSeries struct {
	Kind   ChartKind    `json:"kind" yaml:"kind"`
	Title  string       `json:"title" yaml:"title"`
	Points []ChartPoint `json:"points" yaml:"points"`
}

// Charts holds the three summary charts of the dashboard.
type Charts struct {
	SentimentDistribution ChartSeries `json:"sentimentDistribution" yaml:"sentimentDistribution"`
	SentimentProportions  ChartSeries `json:"sentimentProportions" yaml:"sentimentProportions"`
	RatingDistribution    ChartSeries `json:"ratingDistribution" yaml:"ratingDistribution"`
}

// BuildCharts converts aggregates into chart series.
func BuildCharts(a Aggregates) Charts {
	sentiments := []ChartPoint{
		{Label: string(SentimentPositive), Count: a.Sentiments.Positive},
		{Label: string(SentimentNegative), Count: a.Sentiments.Negative},
	}

	ratings := make([]ChartPoint, 0, 5)
	for r := 1; r <= 5; r++ {
		ratings = append(ratings, ChartPoint{Label: strconv.Itoa(r), Count: a.Ratings[r]})
	}

	return Charts{
		SentimentDistribution: ChartSeries{Kind: ChartBar, Title: "Sentiment Distribution", Points: sentiments},
		SentimentProportions:  ChartSeries{Kind: ChartPie, Title: "Sentiment Proportions", Points: append([]ChartPoint(nil), sentiments...)},
		RatingDistribution:    ChartSeries{Kind: ChartBar, Title: "Rating Distribution", Points: ratings},
	}
}
