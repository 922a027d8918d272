package convert

import (
	"math"
	"strconv"
	"strings"
)

func TwoDecimals(number float64) float64 {
	return RoundFloat64(number, 2)
}

func RoundFloat64(number float64, decimals int) float64 {
	return math.Round(number*math.Pow10(decimals)) / math.Pow10(decimals)
}

func WhToKWh(wh float64) float64 {
	return wh / 1000
}

// ParseDecimalComma parses a decimal string that may use "," as the decimal
// separator, the Finnish locale convention in the price feed.
func ParseDecimalComma(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(s), ",", ".", 1), 64)
}

// FormatDecimalComma renders a float with "," as the decimal separator.
func FormatDecimalComma(f float64, decimals int) string {
	return strings.Replace(strconv.FormatFloat(f, 'f', decimals, 64), ".", ",", 1)
}

// FormatDecimal renders a float the way the combined CSV expects it: plain
// notation, fixed number of decimals.
func FormatDecimal(f float64, decimals int) string {
	return strconv.FormatFloat(f, 'f', decimals, 64)
}
