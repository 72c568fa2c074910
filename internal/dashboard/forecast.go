package dashboard

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed forecast.yaml
var forecastYAML []byte

// TrendPoint is one month of the sample incident trend.
type TrendPoint struct {
	Label string `yaml:"label" json:"label"`
	Value int    `yaml:"value" json:"value"`
}

// Prediction is one sample forecast card.
type Prediction struct {
	Title  string `yaml:"title" json:"title"`
	Area   string `yaml:"area" json:"area"`
	Metric string `yaml:"metric" json:"metric"`
	Detail string `yaml:"detail" json:"detail"`
}

// ForecastView is the static content of the forecast tab.
type ForecastView struct {
	MonthlyTrend []TrendPoint `yaml:"monthlyTrend" json:"monthlyTrend"`
	Predictions  []Prediction `yaml:"predictions" json:"predictions"`
}

// MaxTrendValue returns the largest monthly value, used to scale the chart.
func (f ForecastView) MaxTrendValue() int {
	maxValue := 0
	for _, p := range f.MonthlyTrend {
		maxValue = max(maxValue, p.Value)
	}
	return maxValue
}

var loadForecast = sync.OnceValues(func() (ForecastView, error) {
	return parseForecast(forecastYAML)
})

// Forecast returns the placeholder forecast content.
func Forecast() (ForecastView, error) {
	return loadForecast()
}

func parseForecast(data []byte) (ForecastView, error) {
	var f ForecastView
	if err := yaml.Unmarshal(data, &f); err != nil {
		return ForecastView{}, fmt.Errorf("parse forecast: %w", err)
	}
	return f, nil
}
