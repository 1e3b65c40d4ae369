package narration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDollarsToWords(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{1.25, "one dollar and twenty-five cents"},
		{4.25, "four dollars and twenty-five cents"},
		{0.07, "seven cents"},
		{0.01, "one cent"},
		{0, "zero cents"},
		{2, "two dollars"},
		{1.13, "one dollar and thirteen cents"},
		{0.29, "twenty-nine cents"},
		{12.5, "twelve dollars and fifty cents"},
		{-0.45, "minus forty-five cents"},
		{1.999, "two dollars"},
		{1234.56, "one thousand two hundred thirty-four dollars and fifty-six cents"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, DollarsToWords(tt.amount))
		})
	}
}

func TestNumberToWords(t *testing.T) {
	tests := []struct {
		n        int64
		expected string
	}{
		{0, "zero"},
		{13, "thirteen"},
		{40, "forty"},
		{99, "ninety-nine"},
		{100, "one hundred"},
		{142, "one hundred forty-two"},
		{1000, "one thousand"},
		{2_000_017, "two million seventeen"},
		{3_000_000_000, "three billion"},
		{-8, "minus eight"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, NumberToWords(tt.n))
		})
	}
}

func TestDayWithSuffix(t *testing.T) {
	tests := []struct {
		day      int
		expected string
	}{
		{1, "May 1st"},
		{2, "May 2nd"},
		{3, "May 3rd"},
		{4, "May 4th"},
		{11, "May 11th"},
		{12, "May 12th"},
		{13, "May 13th"},
		{21, "May 21st"},
		{22, "May 22nd"},
		{23, "May 23rd"},
		{31, "May 31st"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, DayWithSuffix(time.Date(2024, 5, tt.day, 0, 0, 0, 0, time.UTC)))
		})
	}
}

func TestShortDate(t *testing.T) {
	assert.Equal(t, "05/03/24", ShortDate(time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)))
}
