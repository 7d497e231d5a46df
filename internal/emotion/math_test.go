package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateClamps(t *testing.T) {
	v, a := Update(0.9, -0.9, 0.5, -0.5)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, -1.0, a)
}

func TestUpdateWithinRange(t *testing.T) {
	v, a := Update(0, 0, 0.2, 0.1)
	assert.InDelta(t, 0.2, v, 1e-9)
	assert.InDelta(t, 0.1, a, 1e-9)
}

func TestClassifyLabel(t *testing.T) {
	cases := []struct {
		v, a float64
		want Label
	}{
		{0.2, 0.1, LabelJoy},
		{0.5, 0.6, LabelExcited},
		{-0.5, 0.6, LabelAnxious},
		{-0.5, -0.6, LabelBored},
		{0.5, -0.6, LabelCalm},
		{0.4, 0.4, LabelJoy},
		{-0.4, 0.4, LabelAnger},
		{-0.4, -0.4, LabelSadness},
		{0.4, -0.4, LabelRelaxed},
		{0.02, 0.03, LabelNeutral},
		{0, 0, LabelNeutral},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyLabel(c.v, c.a), "v=%v a=%v", c.v, c.a)
	}
}

func TestClassifyLabel_JoyAfterPraise(t *testing.T) {
	// S6: initial (0,0), delta (+0.2, +0.1) -> (0.2, 0.1) labeled joy.
	v, a := Update(0, 0, 0.2, 0.1)
	assert.Equal(t, LabelJoy, ClassifyLabel(v, a))
}
