package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import "encoding/json"

func createJsonReport(tables []Table) (out []byte, err error) {
	oReport := make(map[string][]map[string]string)
	for _, table := range tables {
		oReport[table.Name] = records(table)
	}
	return json.MarshalIndent(oReport, "", " ")
}
