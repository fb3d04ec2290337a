package roi

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders whole US dollars with thousands separators, e.g.
// "$1,700". Cents are dropped, so the output cannot be parsed back exactly.
func FormatCurrency(amount float64) string {
	whole := int64(math.Round(amount))
	if whole < 0 {
		return usd.Sprintf("-$%d", -whole)
	}
	return usd.Sprintf("$%d", whole)
}

// FormatHours renders sub-hour values in minutes and everything else in
// hours with at most one decimal.
func FormatHours(hours float64) string {
	if hours < 1 {
		return fmt.Sprintf("%d mins", int64(math.Round(hours*60)))
	}
	return strconv.FormatFloat(math.Round(hours*10)/10, 'f', -1, 64) + " hrs"
}

// FormatDate renders the UTC calendar date as "Jan 2, 2006", or "Jan 2"
// when withYear is false.
func FormatDate(t time.Time, withYear bool) string {
	t = t.UTC()
	if withYear {
		return t.Format("Jan 2, 2006")
	}
	return t.Format("Jan 2")
}
