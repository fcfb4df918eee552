package mining

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bagouryy/choco-mining/pkg/cp"
)

func TestParseMeasure(t *testing.T) {
	tests := []struct {
		in   string
		want Measure
	}{
		{"freq", MeasureFreq},
		{" Freq1 ", MeasureFreq1},
		{"length", MeasureLength},
		{"a", MeasureArea},
		{"maxfreq", MeasureMaxFreq},
		{"max(x.freq)", MeasureMaxFreq},
		{"min2", MinOf(2)},
		{"max(0)", MaxOf(0)},
		{"mean1", MeanOf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMeasure(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "support", "min", "max(-1)", "meanx"} {
		_, err := ParseMeasure(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseMeasures(t *testing.T) {
	ms, err := ParseMeasures("freq,max0, area")
	require.NoError(t, err)
	assert.Equal(t, []Measure{MeasureFreq, MaxOf(0), MeasureArea}, ms)

	ms, err = ParseMeasures("fm0M1n2F1al")
	require.NoError(t, err)
	assert.Equal(t, []Measure{MeasureFreq, MinOf(0), MaxOf(1), MeanOf(2), MeasureMaxFreq, MeasureFreq1, MeasureArea, MeasureLength}, ms)

	ms, err = ParseMeasures("mean3")
	require.NoError(t, err)
	assert.Equal(t, []Measure{MeanOf(3)}, ms)

	ms, err = ParseMeasures("")
	require.NoError(t, err)
	assert.Empty(t, ms)

	_, err = ParseMeasures("fm")
	assert.Error(t, err)
	_, err = ParseMeasures("fz")
	assert.Error(t, err)
}

func TestMeasureIDs(t *testing.T) {
	ms := []Measure{MeasureFreq, MeasureFreq1, MeasureLength, MeasureArea, MeasureMaxFreq, MinOf(1), MaxOf(2), MeanOf(3)}
	assert.Equal(t, []string{"freq", "freq1", "length", "area", "maxfreq", "min1", "max2", "mean3"}, MeasureIDs(ms))
	for _, m := range ms {
		back, err := ParseMeasure(m.ID())
		require.NoError(t, err)
		assert.Equal(t, m, back)
	}
}

func TestClosureMeasures(t *testing.T) {
	sky := []Measure{MeasureFreq, MeasureArea, MeasureLength, MaxOf(0), MeanOf(1), MeasureMaxFreq, MeasureFreq1, MinOf(1)}
	assert.Equal(t, []Measure{MeasureFreq, MinOf(1), MeasureFreq1}, ClosureMeasures(sky))
	assert.Empty(t, ClosureMeasures([]Measure{MeasureLength, MaxOf(0)}))
}

func TestDedup(t *testing.T) {
	assert.Equal(t, []Measure{MeasureFreq, MaxOf(1)}, Dedup([]Measure{MeasureFreq, MaxOf(1), MeasureFreq, MaxOf(1)}))
}

func TestNewMeasureComputerErrors(t *testing.T) {
	env := cp.NewEnv()
	toy, classes := toyDB(t), classesDB(t)

	_, err := NewMeasureComputer(MeasureFreq1, toy, env, SparseCover)
	assert.Error(t, err, "freq1 needs classes")
	_, err = NewMeasureComputer(MinOf(1), classes, env, SparseCover)
	assert.Error(t, err, "one attribute only")
	for _, m := range []Measure{MeasureLength, MeasureArea} {
		_, err = NewMeasureComputer(m, classes, env, SparseCover)
		assert.Error(t, err, m.ID())
	}
	_, err = NewMeasureComputer(MeanOf(0), classes, env, DenseCover)
	assert.NoError(t, err)
}

func TestMeasureComputers(t *testing.T) {
	db := classesDB(t)
	env := cp.NewEnv()
	// values: 3 -> 150, 4 -> 225, 5 -> 50, 6 -> 300, 7 -> 100
	mx, err := NewMeasureComputer(MaxOf(0), db, env, SparseCover)
	require.NoError(t, err)
	mn, err := NewMeasureComputer(MinOf(0), db, env, SparseCover)
	require.NoError(t, err)
	fq, err := NewMeasureComputer(MeasureFreq, db, env, SparseCover)
	require.NoError(t, err)

	milk := 3 // label 4
	env.PushWorld()
	for _, c := range []MeasureComputer{mx, mn, fq} {
		c.Compute(milk)
	}
	assert.True(t, mx.IsConstant(2), "150 <= 225")
	assert.False(t, mx.IsConstant(5), "300 > 225")
	assert.True(t, mx.IsConstantWith(2, 5))
	assert.True(t, mn.IsConstant(5), "300 >= 225")
	assert.False(t, mn.IsConstant(2), "150 < 225")
	assert.True(t, mn.IsConstantWith(5, 2))

	// label 4 is in t0 t2 t3 t5, label 6 in t0 t4 t5
	assert.False(t, fq.IsConstant(5))
	assert.True(t, fq.IsConstant(milk))
	env.PopWorld()

	assert.True(t, mn.IsConstant(5), "the empty pattern takes the largest value")
	assert.False(t, mn.IsConstant(2))
	assert.True(t, mx.IsConstant(0), "the empty pattern has max 0")
	assert.False(t, mx.IsConstant(4))
}
