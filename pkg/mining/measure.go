package mining

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MeasureKind identifies a pattern measure.
type MeasureKind int

const (
	// Freq is the number of transactions containing the pattern.
	Freq MeasureKind = iota
	// Freq1 is the frequency restricted to the transactions of class item 0.
	Freq1
	// Length is the number of items of the pattern.
	Length
	// Area is freq * length.
	Area
	// MaxFreq is the largest frequency of an item of the pattern.
	MaxFreq
	// MinValue is the smallest attribute value of an item of the pattern.
	MinValue
	// MaxValue is the largest attribute value of an item of the pattern.
	MaxValue
	// MeanValue is (MinValue + MaxValue) / 2.
	MeanValue
)

// Measure is a measure kind with its attribute number for attribute measures.
type Measure struct {
	Kind MeasureKind
	Num  int
}

// Measure constructors.
var (
	MeasureFreq    = Measure{Kind: Freq}
	MeasureFreq1   = Measure{Kind: Freq1}
	MeasureLength  = Measure{Kind: Length}
	MeasureArea    = Measure{Kind: Area}
	MeasureMaxFreq = Measure{Kind: MaxFreq}
)

// MinOf returns the min measure of attribute num.
func MinOf(num int) Measure { return Measure{Kind: MinValue, Num: num} }

// MaxOf returns the max measure of attribute num.
func MaxOf(num int) Measure { return Measure{Kind: MaxValue, Num: num} }

// MeanOf returns the mean measure of attribute num.
func MeanOf(num int) Measure { return Measure{Kind: MeanValue, Num: num} }

// IsAttribute reports whether the measure reads attribute values.
func (m Measure) IsAttribute() bool {
	return m.Kind == MinValue || m.Kind == MaxValue || m.Kind == MeanValue
}

// ID returns the measure identifier used in outputs.
func (m Measure) ID() string {
	switch m.Kind {
	case Freq:
		return "freq"
	case Freq1:
		return "freq1"
	case Length:
		return "length"
	case Area:
		return "area"
	case MaxFreq:
		return "maxfreq"
	case MinValue:
		return fmt.Sprintf("min%d", m.Num)
	case MaxValue:
		return fmt.Sprintf("max%d", m.Num)
	case MeanValue:
		return fmt.Sprintf("mean%d", m.Num)
	}
	return fmt.Sprintf("measure(%d)", int(m.Kind))
}

func (m Measure) String() string { return m.ID() }

// ParseMeasure parses a measure identifier: freq, freq1, length, area,
// maxfreq, minN, maxN, meanN (min(N) style is accepted too).
func ParseMeasure(s string) (Measure, error) {
	id := strings.ToLower(strings.TrimSpace(s))
	switch id {
	case "freq", "f":
		return MeasureFreq, nil
	case "freq1", "1":
		return MeasureFreq1, nil
	case "length", "l":
		return MeasureLength, nil
	case "area", "a":
		return MeasureArea, nil
	case "maxfreq", "max(x.freq)":
		return MeasureMaxFreq, nil
	}
	for _, attr := range []struct {
		prefix string
		kind   MeasureKind
	}{{"mean", MeanValue}, {"min", MinValue}, {"max", MaxValue}} {
		if !strings.HasPrefix(id, attr.prefix) {
			continue
		}
		arg := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(id, attr.prefix), "("), ")")
		num, err := strconv.Atoi(arg)
		if err != nil || num < 0 {
			return Measure{}, errors.Errorf("invalid attribute number in measure %q", s)
		}
		return Measure{Kind: attr.kind, Num: num}, nil
	}
	return Measure{}, errors.Errorf("unknown measure %q", s)
}

// ParseMeasures parses a comma separated list of measure identifiers, or a
// compact code where each letter is a measure: f freq, 1 freq1, l length,
// a area, F maxfreq, and mN, MN, nN the min, max and mean of attribute N.
func ParseMeasures(s string) ([]Measure, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ",") || isMeasureID(s) {
		var out []Measure
		for _, part := range strings.Split(s, ",") {
			m, err := ParseMeasure(part)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	}
	return parseMeasureCode(s)
}

func isMeasureID(s string) bool {
	_, err := ParseMeasure(s)
	return err == nil && len(s) > 1
}

func parseMeasureCode(code string) ([]Measure, error) {
	var out []Measure
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch c {
		case 'f':
			out = append(out, MeasureFreq)
		case '1':
			out = append(out, MeasureFreq1)
		case 'l':
			out = append(out, MeasureLength)
		case 'a':
			out = append(out, MeasureArea)
		case 'F':
			out = append(out, MeasureMaxFreq)
		case 'm', 'M', 'n':
			if i+1 >= len(code) || code[i+1] < '0' || code[i+1] > '9' {
				return nil, errors.Errorf("measure code %q: %c needs an attribute number", code, c)
			}
			num := int(code[i+1] - '0')
			i++
			switch c {
			case 'm':
				out = append(out, MinOf(num))
			case 'M':
				out = append(out, MaxOf(num))
			default:
				out = append(out, MeanOf(num))
			}
		default:
			return nil, errors.Errorf("measure code %q: unknown measure %c", code, c)
		}
	}
	return out, nil
}

// ClosureMeasures returns the measures a pattern must be closed for so that
// every skypattern of sky is found among the closed patterns. Measures that
// grow with the pattern (length, max, maxfreq) need no closure; area is
// closed through freq and mean through min.
func ClosureMeasures(sky []Measure) []Measure {
	var out []Measure
	add := func(m Measure) {
		for _, o := range out {
			if o == m {
				return
			}
		}
		out = append(out, m)
	}
	for _, m := range sky {
		switch m.Kind {
		case Freq, Area:
			add(MeasureFreq)
		case Freq1:
			add(MeasureFreq1)
		case MinValue, MeanValue:
			add(MinOf(m.Num))
		}
	}
	return out
}

// Dedup returns measures without duplicates, keeping the first occurrence.
func Dedup(measures []Measure) []Measure {
	seen := make(map[Measure]bool, len(measures))
	out := make([]Measure, 0, len(measures))
	for _, m := range measures {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// MeasureIDs returns the identifiers of measures.
func MeasureIDs(measures []Measure) []string {
	ids := make([]string, len(measures))
	for i, m := range measures {
		ids[i] = m.ID()
	}
	return ids
}
