// Package report renders resolution and time reports as txt, json or yaml.
package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strings"
)

const (
	FormatTxt  = "txt"
	FormatJson = "json"
	FormatYaml = "yaml"
)

const NoDataFound = "No data found."

var FormatOptions = []string{FormatTxt, FormatJson, FormatYaml}

// Field holds the values of one named field
type Field struct {
	Name   string
	Values []string
}

// Table is a named list of fields. A table with HasRows set is printed as
// columns with one row per value, otherwise each field has a single value.
type Table struct {
	Name    string
	Fields  []Field
	HasRows bool
}

// Create renders tables in the given format. All fields of a table must have
// the same number of values.
func Create(format string, tables []Table) (out []byte, err error) {
	for _, table := range tables {
		numRows := -1
		for _, field := range table.Fields {
			if numRows == -1 {
				numRows = len(field.Values)
				continue
			}
			if len(field.Values) != numRows {
				return nil, fmt.Errorf("expected %d value(s) for field %s, found %d", numRows, field.Name, len(field.Values))
			}
		}
	}
	switch format {
	case FormatTxt:
		return createTextReport(tables)
	case FormatJson:
		return createJsonReport(tables)
	case FormatYaml:
		return createYamlReport(tables)
	}
	return nil, fmt.Errorf("expected one of %s, got %s", strings.Join(FormatOptions, ", "), format)
}

// records turns a table into one map per row, keyed by field name
func records(table Table) []map[string]string {
	var out []map[string]string
	if len(table.Fields) == 0 {
		return out
	}
	for row := range len(table.Fields[0].Values) {
		record := make(map[string]string)
		for _, field := range table.Fields {
			record[field.Name] = field.Values[row]
		}
		out = append(out, record)
	}
	return out
}
