package metric

import (
	"math"
	"slices"
	"strconv"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/classify"
)

// Growth is a derived percent change between two specific years.
type Growth struct {
	Field string
	From  int
	To    int
}

// Dataset describes how one metric source is written onto features.
type Dataset struct {
	Name   string
	Prefix string // value properties are Prefix + year, e.g. population2020
	Years  []int  // ascending; first and last drive the computed change

	ChangeField   string
	ChangeAliases []string

	// ChangeFallback computes the change when a record carries none. Nil
	// means the percent change between the first and last year.
	ChangeFallback func(r *Record, years []int) *float64
	// ChangeYears is the window ChangeFallback runs over; empty means Years.
	ChangeYears []int

	Growth []Growth

	// Ranges buckets the latest year's absolute value into RangeField.
	Ranges     []classify.Range
	RangeField string
}

// ValueField returns the property name for year.
func (d Dataset) ValueField(year int) string {
	return d.Prefix + strconv.Itoa(year)
}

// Earliest returns the first configured year.
func (d Dataset) Earliest() int {
	if len(d.Years) == 0 {
		return 0
	}
	return d.Years[0]
}

// Latest returns the last configured year.
func (d Dataset) Latest() int {
	if len(d.Years) == 0 {
		return 0
	}
	return d.Years[len(d.Years)-1]
}

// Change returns the record's precomputed change or derives one.
func (d Dataset) Change(r *Record) *float64 {
	if r == nil {
		return nil
	}
	if r.Change != nil {
		c := *r.Change
		return &c
	}
	if d.ChangeFallback != nil {
		years := d.ChangeYears
		if len(years) == 0 {
			years = d.Years
		}
		return d.ChangeFallback(r, years)
	}
	return PercentChange(r.Value(d.Latest()), r.Value(d.Earliest()))
}

// SeriesYears returns every year the dataset reads: Years plus ChangeYears,
// ascending.
func (d Dataset) SeriesYears() []int {
	seen := make(map[int]bool, len(d.Years)+len(d.ChangeYears))
	var out []int
	for _, y := range append(slices.Clone(d.Years), d.ChangeYears...) {
		if !seen[y] {
			seen[y] = true
			out = append(out, y)
		}
	}
	slices.Sort(out)
	return out
}

// Population is the decennial census total population, 2010 and 2020.
var Population = Dataset{
	Name:          "population",
	Prefix:        "population",
	Years:         []int{2010, 2020},
	ChangeField:   "populationChange",
	ChangeAliases: []string{"change"},
	Ranges:        classify.PopulationRanges,
	RangeField:    "populationBucket",
}

// GDP is BEA county GDP for the arts, entertainment, recreation,
// accommodation, and food services sector, which the map reads as tourism.
var GDP = Dataset{
	Name:           "gdp",
	Prefix:         "gdp",
	Years:          []int{2019, 2020, 2021, 2022, 2023},
	ChangeField:    "movingAnnualAverage",
	ChangeAliases:  []string{"tourismChange"},
	ChangeFallback: MovingAnnualAverage,
	ChangeYears:    yearRange(2013, 2023),
	Growth: []Growth{
		{Field: "recentGrowth", From: 2022, To: 2023},
		{Field: "recovery", From: 2019, To: 2023},
	},
}

// Datasets indexes the known datasets by name.
var Datasets = map[string]Dataset{
	Population.Name: Population,
	GDP.Name:        GDP,
}

func yearRange(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for y := from; y <= to; y++ {
		out = append(out, y)
	}
	return out
}

// PercentChange returns (latest-earliest)/earliest*100 rounded to two
// decimals. It is nil when either value is missing or earliest <= 0.
func PercentChange(latest, earliest *float64) *float64 {
	if latest == nil || earliest == nil || *earliest <= 0 {
		return nil
	}
	c := Round2((*latest - *earliest) / *earliest * 100)
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return nil
	}
	return &c
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MovingAnnualAverage averages the year-over-year percent changes across
// consecutive years. Pairs with a missing or non-positive base are skipped;
// it is nil when no pair qualifies.
func MovingAnnualAverage(r *Record, years []int) *float64 {
	var sum float64
	var n int
	for i := 1; i < len(years); i++ {
		prev := r.Value(years[i-1])
		cur := r.Value(years[i])
		if prev == nil || cur == nil || *prev <= 0 {
			continue
		}
		sum += (*cur - *prev) / *prev * 100
		n++
	}
	if n == 0 {
		return nil
	}
	avg := Round2(sum / float64(n))
	return &avg
}
