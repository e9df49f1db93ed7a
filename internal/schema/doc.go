// Package schema maps the heterogeneous field names found in audit inputs onto
// one canonical shape.
//
// Detail records and summary rows were exported by several generations of the
// audit spreadsheets, so the same semantic field shows up as folio or FOLIO,
// Error or RESULTADO_AUDITORIA, and so on. Everything downstream of this
// package works only with AuditRecord and SummaryRow.
package schema
