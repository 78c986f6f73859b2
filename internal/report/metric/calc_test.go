package metric

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCTR(t *testing.T) {
	v, err := CTR(40, 1000)
	require.NoError(t, err)
	f, ok := v.Float()
	require.True(t, ok)
	assert.InDelta(t, 4.0, f, 0.0001)
}

func TestCTRZeroImpressionsIsNull(t *testing.T) {
	v, err := CTR(0, 0)
	require.NoError(t, err)
	assert.False(t, v.Valid(), "CTR with zero impressions must be null, not an error")
}

func TestCTRNegativeInputRejected(t *testing.T) {
	_, err := CTR(-1, 100)
	assert.Error(t, err)
	_, err = CTR(1, -100)
	assert.Error(t, err)
}

func TestCPAZeroConversionsIsNull(t *testing.T) {
	v, err := CPA(50.0, 0)
	require.NoError(t, err)
	assert.False(t, v.Valid(), "CPA with zero conversions must be null, never Infinity")
}

func TestCPA(t *testing.T) {
	v, err := CPA(200, 20)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, v.Or(-1), 0.0001)
}

func TestConvRate(t *testing.T) {
	v, err := ConvRate(5, 100)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v.Or(-1), 0.0001)

	v, err = ConvRate(5, 0)
	require.NoError(t, err)
	assert.False(t, v.Valid())
}

func TestEfficiencyZeroCostShareIsNull(t *testing.T) {
	v, err := Efficiency(25.0, 0)
	require.NoError(t, err)
	assert.False(t, v.Valid())
}

func TestEfficiency(t *testing.T) {
	v, err := Efficiency(60.0, 30.0)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v.Or(-1), 0.0001)
}

func TestWeightedAvg(t *testing.T) {
	values := []Value{From(2), From(8), From(5)}
	weights := []float64{1, 1, 2}

	v, err := WeightedAvg(values, weights)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v.Or(-1), 0.0001)
}

func TestWeightedAvgSkipsNulls(t *testing.T) {
	values := []Value{From(4), Null(), From(8)}
	weights := []float64{1, 100, 1}

	v, err := WeightedAvg(values, weights)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, v.Or(-1), 0.0001, "null entries and their weights are excluded")
}

func TestWeightedAvgZeroWeightIsNull(t *testing.T) {
	v, err := WeightedAvg([]Value{From(1), From(2)}, []float64{0, 0})
	require.NoError(t, err)
	assert.False(t, v.Valid())
}

func TestWeightedAvgLengthMismatch(t *testing.T) {
	_, err := WeightedAvg([]Value{From(1)}, []float64{1, 2})
	assert.Error(t, err)
}

func TestValueJSONRoundTrip(t *testing.T) {
	type row struct {
		CPA Value `json:"cpa"`
		CTR Value `json:"ctr"`
	}

	data, err := json.Marshal(row{CPA: From(12.5), CTR: Null()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cpa":12.5,"ctr":null}`, string(data))

	var back row
	require.NoError(t, json.Unmarshal(data, &back))
	assert.InDelta(t, 12.5, back.CPA.Or(-1), 0.0001)
	assert.False(t, back.CTR.Valid())
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "12.50", From(12.5).String())
	assert.Equal(t, "-", Null().String())
}
