package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strings"
)

func createTextReport(tables []Table) (out []byte, err error) {
	var sb strings.Builder
	for _, table := range tables {
		sb.WriteString(fmt.Sprintf("%s\n", table.Name))
		sb.WriteString(strings.Repeat("=", len(table.Name)))
		sb.WriteString("\n")
		if len(table.Fields) == 0 || len(table.Fields[0].Values) == 0 {
			sb.WriteString(NoDataFound + "\n\n")
			continue
		}
		if table.HasRows {
			sb.WriteString(renderRows(table))
		} else {
			sb.WriteString(renderFields(table))
		}
		sb.WriteString("\n")
	}
	out = []byte(sb.String())
	return
}

// renderRows prints the field names as column headings across the top
func renderRows(table Table) string {
	var sb strings.Builder
	const columnSpacing = 3
	width := make([]int, len(table.Fields))
	for i, field := range table.Fields {
		// the last column shouldn't occupy more space than the value
		if i == len(table.Fields)-1 {
			continue
		}
		width[i] = len(field.Name)
		for _, val := range field.Values {
			width[i] = max(width[i], len(val))
		}
	}
	for i, field := range table.Fields {
		sb.WriteString(fmt.Sprintf("%-*s", width[i]+columnSpacing, field.Name))
	}
	sb.WriteString("\n")
	for i, field := range table.Fields {
		sb.WriteString(fmt.Sprintf("%-*s", width[i]+columnSpacing, strings.Repeat("-", len(field.Name))))
	}
	sb.WriteString("\n")
	for row := range len(table.Fields[0].Values) {
		for i, field := range table.Fields {
			sb.WriteString(fmt.Sprintf("%-*s", width[i]+columnSpacing, field.Values[row]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderFields prints each field name followed by its value
func renderFields(table Table) string {
	var sb strings.Builder
	maxFieldNameLen := 0
	for _, field := range table.Fields {
		maxFieldNameLen = max(maxFieldNameLen, len(field.Name))
	}
	for _, field := range table.Fields {
		sb.WriteString(fmt.Sprintf("%s%-*s %s\n", field.Name, maxFieldNameLen-len(field.Name)+1, ":", field.Values[0]))
	}
	return sb.String()
}
