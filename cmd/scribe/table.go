package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type column struct {
	header string
	align  text.Align
}

func leftCol(header string) column  { return column{header: header, align: text.AlignLeft} }
func rightCol(header string) column { return column{header: header, align: text.AlignRight} }

var (
	jobListColumns = []column{
		leftCol("ID"), leftCol("Created"), leftCol("File"), leftCol("Status"),
		leftCol("Language"), rightCol("Audio"), rightCol("Chunks"),
	}
	jobDetailColumns = []column{leftCol("Field"), leftCol("Value")}
	serviceColumns   = []column{leftCol("Service"), leftCol("Value")}
	checkColumns     = []column{leftCol("Check"), leftCol("Result"), leftCol("Detail")}
	jobCountColumns  = []column{leftCol("Jobs"), rightCol("Count")}
)

// renderTable draws rows under columns. Short rows are padded and extra cells
// dropped.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.header
		configs[i] = table.ColumnConfig{Number: i + 1, Align: col.align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render() + "\n"
}
