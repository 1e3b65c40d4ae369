package narration

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tens = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}

	scales = []struct {
		value int64
		name  string
	}{
		{1_000_000_000_000, "trillion"},
		{1_000_000_000, "billion"},
		{1_000_000, "million"},
		{1_000, "thousand"},
	}
)

// DollarsToWords spells an amount as dollars and cents, rounding to the
// nearest cent: 1.25 is "one dollar and twenty-five cents".
func DollarsToWords(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	negative := d.IsNegative()
	d = d.Abs()

	dollars := d.IntPart()
	cents := d.Sub(decimal.NewFromInt(dollars)).Shift(2).IntPart()

	var parts []string
	if dollars > 0 {
		parts = append(parts, NumberToWords(dollars)+" "+plural(dollars, "dollar", "dollars"))
	}
	if cents > 0 || dollars == 0 {
		parts = append(parts, NumberToWords(cents)+" "+plural(cents, "cent", "cents"))
	}

	phrase := strings.Join(parts, " and ")
	if negative {
		phrase = "minus " + phrase
	}
	return phrase
}

// NumberToWords spells a whole number in English, e.g. 142 is
// "one hundred forty-two".
func NumberToWords(n int64) string {
	if n < 0 {
		return "minus " + NumberToWords(-n)
	}
	if n < 1000 {
		return underThousand(n)
	}
	var parts []string
	for _, s := range scales {
		if n >= s.value {
			parts = append(parts, underThousand(n/s.value)+" "+s.name)
			n %= s.value
		}
	}
	if n > 0 {
		parts = append(parts, underThousand(n))
	}
	return strings.Join(parts, " ")
}

func underThousand(n int64) string {
	switch {
	case n < 20:
		return ones[n]
	case n < 100:
		if n%10 == 0 {
			return tens[n/10]
		}
		return tens[n/10] + "-" + ones[n%10]
	default:
		rest := n % 100
		if rest == 0 {
			return ones[n/100] + " hundred"
		}
		return ones[n/100] + " hundred " + underThousand(rest)
	}
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
