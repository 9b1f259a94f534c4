package abtest

import "github.com/foxzi/splitmail/internal/models"

// Rates derives the funnel rates from raw counts. Every rate is defined
// as 0 when its denominator is 0. ClickThroughRate is click-to-open,
// distinct from ClickRate which is click-to-sent.
func Rates(c models.FunnelCounts) models.FunnelMetrics {
	m := models.FunnelMetrics{FunnelCounts: c}
	if c.TotalSent > 0 {
		m.OpenRate = float64(c.Opened) / float64(c.TotalSent) * 100
		m.ClickRate = float64(c.Clicked) / float64(c.TotalSent) * 100
		m.ConversionRate = float64(c.Converted) / float64(c.TotalSent) * 100
	}
	if c.Opened > 0 {
		m.ClickThroughRate = float64(c.Clicked) / float64(c.Opened) * 100
	}
	return m
}
