package models

// Metrics is the performance block reported by an ad platform for one allocation.
type Metrics struct {
	Impressions       int64   `json:"impressions"`
	Clicks            int64   `json:"clicks"`
	Conversions       int64   `json:"conversions"`
	Spend             float64 `json:"spend"`
	CTR               float64 `json:"ctr"`
	CPC               float64 `json:"cpc"`
	CPM               float64 `json:"cpm"`
	CostPerConversion float64 `json:"costPerConversion"`
}

// Add accumulates the raw counters of m into t. Ratios are left untouched;
// call Derive once all counters are summed.
func (t *Metrics) Add(m Metrics) {
	t.Impressions += m.Impressions
	t.Clicks += m.Clicks
	t.Conversions += m.Conversions
	t.Spend += m.Spend
}

// Derive recomputes ctr, cpc, cpm and cost per conversion from the counters.
func (t *Metrics) Derive() {
	t.CTR = Percent(float64(t.Clicks), float64(t.Impressions))
	t.CPC = Ratio(t.Spend, float64(t.Clicks))
	t.CPM = Ratio(t.Spend, float64(t.Impressions)) * 1000
	t.CostPerConversion = Ratio(t.Spend, float64(t.Conversions))
}

// SumMetrics folds a list of metric blocks into a total with derived ratios.
func SumMetrics(items []Metrics) Metrics {
	var total Metrics
	for _, m := range items {
		total.Add(m)
	}
	total.Derive()
	return total
}

// Ratio returns num/den, or 0 when den is zero.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Percent returns num/den*100, or 0 when den is zero.
func Percent(num, den float64) float64 {
	return Ratio(num, den) * 100
}
