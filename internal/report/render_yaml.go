package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import "gopkg.in/yaml.v2"

// tables keep their order in yaml output
func createYamlReport(tables []Table) (out []byte, err error) {
	var oReport yaml.MapSlice
	for _, table := range tables {
		oReport = append(oReport, yaml.MapItem{Key: table.Name, Value: records(table)})
	}
	return yaml.Marshal(oReport)
}
