package config

import (
	"sort"

	"github.com/san-kum/neurodash/internal/neuro"
)

// Montages are named region tables for the five-sensor headset layout.
var Montages = map[string]map[string][]RegionConfig{
	"standard": {
		"sensor_a": {
			{Half: "left", Anchor: [3]float64{0.3, 0.2, 0.7}, Metric: neuro.MetricAttention, Radius: 0.25},
		},
		"sensor_b": {
			{Half: "left", Anchor: [3]float64{0.3, 0.8, 0.6}, Metric: neuro.MetricAttention, Radius: 0.25},
		},
		"sensor_c": {
			{Half: "right", Anchor: [3]float64{0.1, 0.95, 0.6}, Metric: neuro.MetricAttention, Radius: 0.2},
			{Half: "left", Anchor: [3]float64{0.9, 0.95, 0.6}, Metric: neuro.MetricMeditation, Radius: 0.2},
		},
		"sensor_d": {
			{Half: "right", Anchor: [3]float64{0.7, 0.8, 0.6}, Metric: neuro.MetricMeditation, Radius: 0.25},
		},
		"sensor_e": {
			{Half: "right", Anchor: [3]float64{0.7, 0.2, 0.7}, Metric: neuro.MetricMeditation, Radius: 0.25},
		},
	},
	"frontal": {
		"sensor_a": {
			{Half: "left", Anchor: [3]float64{0.5, 0.9, 0.5}, Metric: neuro.MetricAttention, Radius: 0.2},
		},
		"sensor_b": {
			{Half: "left", Anchor: [3]float64{0.3, 0.75, 0.75}, Metric: neuro.MetricAttention, Radius: 0.2},
		},
		"sensor_c": {
			{Half: "left", Anchor: [3]float64{0.9, 0.95, 0.6}, Metric: neuro.MetricAttention, Radius: 0.15},
			{Half: "right", Anchor: [3]float64{0.1, 0.95, 0.6}, Metric: neuro.MetricAttention, Radius: 0.15},
		},
		"sensor_d": {
			{Half: "right", Anchor: [3]float64{0.7, 0.75, 0.75}, Metric: neuro.MetricMeditation, Radius: 0.2},
		},
		"sensor_e": {
			{Half: "right", Anchor: [3]float64{0.5, 0.9, 0.5}, Metric: neuro.MetricMeditation, Radius: 0.2},
		},
	},
	"bilateral": {
		"sensor_a": {
			{Half: "left", Anchor: [3]float64{0.3, 0.2, 0.7}, Metric: neuro.MetricAttention, Radius: 0.2},
			{Half: "right", Anchor: [3]float64{0.7, 0.2, 0.7}, Metric: neuro.MetricAttention, Radius: 0.2},
		},
		"sensor_b": {
			{Half: "left", Anchor: [3]float64{0.3, 0.8, 0.6}, Metric: neuro.MetricAttention, Radius: 0.2},
			{Half: "right", Anchor: [3]float64{0.7, 0.8, 0.6}, Metric: neuro.MetricAttention, Radius: 0.2},
		},
		"sensor_c": {
			{Half: "left", Anchor: [3]float64{0.5, 0.5, 0.95}, Metric: neuro.MetricMeditation, Radius: 0.2},
			{Half: "right", Anchor: [3]float64{0.5, 0.5, 0.95}, Metric: neuro.MetricMeditation, Radius: 0.2},
		},
		"sensor_d": {
			{Half: "left", Anchor: [3]float64{0.2, 0.5, 0.4}, Metric: neuro.MetricMeditation, Radius: 0.2},
		},
		"sensor_e": {
			{Half: "right", Anchor: [3]float64{0.8, 0.5, 0.4}, Metric: neuro.MetricMeditation, Radius: 0.2},
		},
	},
}

func GetMontage(name string) map[string][]RegionConfig {
	m, ok := Montages[name]
	if !ok {
		return nil
	}
	return m
}

func ListMontages() []string {
	names := make([]string, 0, len(Montages))
	for name := range Montages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
