package assets

import _ "embed"

// SampleCSV is the embedded fallback dataset served when the live CSV
// source cannot be reached.
//
//go:embed sample_expenses.csv
var SampleCSV string
