package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpressionRequiredBands(t *testing.T) {
	expr, err := ParseExpression("(B08-B04)/(B08+B04)")
	require.NoError(t, err)
	assert.Equal(t, []string{"B08", "B04"}, expr.RequiredBands())
	assert.Equal(t, []string{"(B08-B04)/(B08+B04)"}, expr.Labels())

	expr, err = ParseExpression("B02,B03,B04")
	require.NoError(t, err)
	assert.Equal(t, []string{"B02", "B03", "B04"}, expr.RequiredBands())
	assert.Equal(t, []string{"B02", "B03", "B04"}, expr.Labels())

	expr, err = ParseExpression("SR_B5*2 - 0.5")
	require.NoError(t, err)
	assert.Equal(t, []string{"SR_B5"}, expr.RequiredBands())
}

func TestParseExpressionErrors(t *testing.T) {
	for _, source := range []string{
		"",
		"B08-",
		"(B08-B04",
		"B08 B04",
		"B08$B04",
		"B08/0",
		"B08,,B04",
		"1.2.3",
	} {
		_, err := ParseExpression(source)
		assert.Error(t, err, "expression %q should not parse", source)
		assert.ErrorAs(t, err, &ErrExpression{}, "expression %q", source)
	}
}

func TestEvaluate(t *testing.T) {
	expr, err := ParseExpression("(B08-B04)/(B08+B04)")
	require.NoError(t, err)

	out, err := expr.Evaluate(map[string][]float64{
		"B08": {0.8, 0.6, 0.1},
		"B04": {0.2, 0.2, 0.1},
	}, nil, 3)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDeltaSlice(t, []float64{0.6, 0.5, 0}, out[0], 1e-9)
}

func TestEvaluateMultipleTerms(t *testing.T) {
	expr, err := ParseExpression("vv+vh, vv-vh")
	require.NoError(t, err)
	assert.Equal(t, []string{"vv", "vh"}, expr.RequiredBands())

	out, err := expr.Evaluate(map[string][]float64{
		"vv": {3, 5},
		"vh": {1, 2},
	}, nil, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float64{4, 7}, out[0])
	assert.Equal(t, []float64{2, 3}, out[1])
}

func TestEvaluateUnaryAndPrecedence(t *testing.T) {
	expr, err := ParseExpression("-B01 + 2*3")
	require.NoError(t, err)
	out, err := expr.Evaluate(map[string][]float64{"B01": {1}}, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, out[0])

	expr, err = ParseExpression("(1+B01)*2")
	require.NoError(t, err)
	out, err = expr.Evaluate(map[string][]float64{"B01": {2}}, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{6}, out[0])
}

func TestEvaluateDivisionByZero(t *testing.T) {
	expr, err := ParseExpression("B08/B04")
	require.NoError(t, err)
	_, err = expr.Evaluate(map[string][]float64{
		"B08": {1},
		"B04": {0},
	}, nil, 1)
	assert.ErrorAs(t, err, &ErrExpression{})
}

func TestEvaluateSkipsMaskedPixels(t *testing.T) {
	// the nodata collar of a scene carries zeros in every band, so a ratio
	// denominator is zero exactly where the mask is invalid
	expr, err := ParseExpression("(B08-B04)/(B08+B04)")
	require.NoError(t, err)

	out, err := expr.Evaluate(map[string][]float64{
		"B08": {0.8, 0},
		"B04": {0.2, 0},
	}, []bool{true, false}, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.6, 0}, out[0], 1e-9)

	// a zero denominator under a valid pixel still fails
	_, err = expr.Evaluate(map[string][]float64{
		"B08": {0.8, 0},
		"B04": {0.2, 0},
	}, []bool{true, true}, 2)
	assert.ErrorAs(t, err, &ErrExpression{})

	_, err = expr.Evaluate(map[string][]float64{
		"B08": {0.8, 0},
		"B04": {0.2, 0},
	}, []bool{true}, 2)
	assert.Error(t, err)
}

func TestEvaluateShapeMismatch(t *testing.T) {
	expr, err := ParseExpression("B08")
	require.NoError(t, err)
	_, err = expr.Evaluate(map[string][]float64{"B08": {1, 2}}, nil, 3)
	assert.Error(t, err)
}
