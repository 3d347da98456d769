package services

import (
	"strings"

	"github.com/spf13/cast"
)

// cm³ per m³; linear dimensions are stored in centimeters, volumes in m³.
const cubicCmPerM3 = 1_000_000

// ItemMetrics holds the derived logistics figures for one line item.
// Each metric carries a presence flag: a false flag renders as an empty cell,
// never as zero.
type ItemMetrics struct {
	Length float64 // cm
	Width  float64
	Height float64
	HasDim bool // all three linear dimensions present and positive

	UnitVolume    float64 // m³ per piece
	HasUnitVolume bool

	CartonCount    float64 // quantity / pcs-per-carton
	HasCartonCount bool

	TotalVolume    float64 // unit volume × carton count (CBM)
	HasTotalVolume bool

	NetWeight    float64 // kg, quantity × unit weight
	HasNetWeight bool
}

// NormalizeItem derives the logistics metrics for a line item without
// mutating it. Present-but-unparsable fields degrade to absent.
func NormalizeItem(item LineItem) ItemMetrics {
	var m ItemMetrics

	l, lok := parsePositive(item.Length)
	w, wok := parsePositive(item.Width)
	h, hok := parsePositive(item.Height)
	if lok && wok && hok {
		m.Length, m.Width, m.Height = l, w, h
		m.HasDim = true
		m.UnitVolume = l * w * h / cubicCmPerM3
		m.HasUnitVolume = true
	} else if v, ok := parsePositive(item.UnitVolume); ok {
		// Stored per-unit volume is only a fallback; computed dimensions win.
		m.UnitVolume = v
		m.HasUnitVolume = true
	}

	if pcs, ok := parsePositive(item.PcsPerCarton); ok {
		m.CartonCount = float64(item.Quantity) / pcs
		m.HasCartonCount = true
	}

	if m.HasUnitVolume && m.HasCartonCount {
		m.TotalVolume = m.UnitVolume * m.CartonCount
		m.HasTotalVolume = true
	}

	if wt, ok := parsePositive(item.UnitWeight); ok {
		m.NetWeight = float64(item.Quantity) * wt
		m.HasNetWeight = true
	}

	return m
}

// DimensionDisplay returns the compact dimension string for an item:
// "L×W×H" when all three dimensions are present, the note as a fallback,
// or "-" when neither is available.
func DimensionDisplay(item LineItem) string {
	if strings.TrimSpace(item.Length) != "" &&
		strings.TrimSpace(item.Width) != "" &&
		strings.TrimSpace(item.Height) != "" {
		return strings.TrimSpace(item.Length) + "×" +
			strings.TrimSpace(item.Width) + "×" +
			strings.TrimSpace(item.Height)
	}
	if item.Note != "" {
		return item.Note
	}
	return "-"
}

// parsePositive parses a numeric string, accepting it only when it is a
// positive finite number. Empty or malformed input reports false.
func parsePositive(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := cast.ToFloat64E(s)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
