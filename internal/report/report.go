// Package report renders the final account state of a replay.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/sheikh-saqib/ledger-replay/internal/models"
)

// Format selects how accounts are rendered.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
)

// Places is the number of fractional digits printed for every balance.
const Places = 4

var header = []string{"client", "available", "held", "total", "locked"}

// ParseFormat maps a user supplied name onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatTable:
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

// Write renders accounts to w in the order given.
func Write(w io.Writer, format Format, accounts []models.ClientAccount) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, accounts)
	case FormatTable:
		return writeTable(w, accounts)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func row(acct models.ClientAccount) []string {
	return []string{
		strconv.FormatUint(uint64(acct.Client), 10),
		acct.Available.StringFixed(Places),
		acct.Held.StringFixed(Places),
		acct.Total.StringFixed(Places),
		strconv.FormatBool(acct.Locked),
	}
}

func writeCSV(w io.Writer, accounts []models.ClientAccount) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, acct := range accounts {
		if err := cw.Write(row(acct)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeTable(w io.Writer, accounts []models.ClientAccount) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, acct := range accounts {
		table.Append(row(acct))
	}
	table.Render()
	return nil
}
