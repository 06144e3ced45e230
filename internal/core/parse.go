// Package core holds the pure transformations that turn a flat expense
// record set into the views the dashboard renders: category totals, a
// cumulative cash-flow series, a cost-driver ranking and a vendor
// volatility table. Every function here is stateless and recomputes its
// view in full from its input.
package core

import (
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseRecords turns raw CSV text into expense records. The first line
// is treated as a header and discarded without inspection. Lines that
// are blank, have fewer than 8 comma-separated fields, or carry an
// unparseable date are dropped silently. Malformed numeric fields
// default to zero and keep the record. Fields containing a literal
// comma are not supported; there is no quoting.
func ParseRecords(text string) []ExpenseRecord {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) < 2 {
		return nil
	}

	var records []ExpenseRecord
	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 8 {
			continue
		}

		date, err := time.Parse(dateLayout, strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}

		records = append(records, ExpenseRecord{
			ID:          "txn-" + strconv.Itoa(i),
			Date:        date,
			Store:       fields[1],
			Item:        fields[2],
			TotalCost:   Money{Cents: parseCents(fields[3])},
			Units:       parseUnits(fields[4]),
			UnitType:    fields[5],
			CostPerUnit: Money{Cents: parseCents(fields[6])},
			Category:    strings.TrimSuffix(fields[7], "\r"),
		})
	}
	return records
}

// maxSafeCents caps parsed amounts well below int64 overflow when
// multiplied during rounding.
const maxSafeCents = int64(1) << 50

// parseCents parses a decimal money string into cents, rounding
// half-up on a third decimal digit. Malformed or negative input yields
// zero.
func parseCents(s string) int64 {
	s = strings.TrimSpace(strings.TrimSuffix(s, "\r"))
	if s == "" || s[0] == '-' {
		return 0
	}

	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0
	}
	if intPart == "" && fracPart == "" {
		return 0
	}

	cents := int64(0)
	for i := 0; i < len(intPart); i++ {
		cents = cents*10 + int64(intPart[i]-'0')
		if cents > maxSafeCents {
			return 0
		}
	}
	cents *= 100

	switch {
	case len(fracPart) == 0:
	case len(fracPart) == 1:
		cents += int64(fracPart[0]-'0') * 10
	default:
		cents += int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			cents++
		}
	}
	return cents
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func parseUnits(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "\r")), 64)
	if err != nil {
		return 0
	}
	return v
}
