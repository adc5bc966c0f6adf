// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

package table

import "powertrace/internal/model"

// TableNameModel is the name of the model table.
const TableNameModel = "Model"

// ModelTable converts a model to a row table with the model's column names.
func ModelTable(m model.Table) (TableValues, error) {
	return FromRecords(TableDefinition{
		Name:        TableNameModel,
		HasRows:     true,
		NoDataFound: "No runs found.",
	}, m.Header(), m.Records())
}
