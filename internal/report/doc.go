// Package report projects loaded detail records and summary rollups into the
// tabular structures handed to the export layer.
//
// Outputs are plain data; column headers are carried alongside the rows but no
// formatting or styling is applied here.
package report
