package metric

import (
	"github.com/adlens/ads-audit/internal/domain"
)

// CTR returns clicks/impressions as a percentage, or Null when there are no
// impressions.
func CTR(clicks, impressions int64) (Value, error) {
	if clicks < 0 {
		return Null(), &domain.ValidationError{Field: "clicks", Reason: "negative value"}
	}
	if impressions < 0 {
		return Null(), &domain.ValidationError{Field: "impressions", Reason: "negative value"}
	}
	if impressions == 0 {
		return Null(), nil
	}
	return From(float64(clicks) / float64(impressions) * 100), nil
}

// CPA returns cost/conversions, or Null when there are no conversions. Zero
// conversions is "no data", never Infinity and never zero cost-per-action.
func CPA(cost, conversions float64) (Value, error) {
	if cost < 0 {
		return Null(), &domain.ValidationError{Field: "cost", Reason: "negative value"}
	}
	if conversions < 0 {
		return Null(), &domain.ValidationError{Field: "conversions", Reason: "negative value"}
	}
	if conversions == 0 {
		return Null(), nil
	}
	return From(cost / conversions), nil
}

// ConvRate returns conversions/clicks as a percentage, or Null when there
// are no clicks.
func ConvRate(conversions float64, clicks int64) (Value, error) {
	if conversions < 0 {
		return Null(), &domain.ValidationError{Field: "conversions", Reason: "negative value"}
	}
	if clicks < 0 {
		return Null(), &domain.ValidationError{Field: "clicks", Reason: "negative value"}
	}
	if clicks == 0 {
		return Null(), nil
	}
	return From(conversions / float64(clicks) * 100), nil
}

// Efficiency returns the conversion-share percentage divided by the
// cost-share percentage within a segment set. A segment carrying no cost
// share has no defined efficiency.
func Efficiency(convSharePct, costSharePct float64) (Value, error) {
	if convSharePct < 0 {
		return Null(), &domain.ValidationError{Field: "conv_share_pct", Reason: "negative value"}
	}
	if costSharePct < 0 {
		return Null(), &domain.ValidationError{Field: "cost_share_pct", Reason: "negative value"}
	}
	if costSharePct == 0 {
		return Null(), nil
	}
	return From(convSharePct / costSharePct), nil
}

// WeightedAvg returns the weight-averaged value over a group, skipping
// entries whose value is Null. Null when the summed weight of the remaining
// entries is zero.
func WeightedAvg(values []Value, weights []float64) (Value, error) {
	if len(values) != len(weights) {
		return Null(), &domain.ValidationError{Field: "weights", Reason: "length mismatch with values"}
	}

	var sum, weightSum float64
	for i, v := range values {
		if weights[i] < 0 {
			return Null(), &domain.ValidationError{Field: "weights", Reason: "negative value"}
		}
		f, ok := v.Float()
		if !ok {
			continue
		}
		sum += f * weights[i]
		weightSum += weights[i]
	}

	if weightSum == 0 {
		return Null(), nil
	}
	return From(sum / weightSum), nil
}
