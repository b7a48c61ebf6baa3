// Package exporter writes brewsignal reports to disk.
//
// Both writers share the Table model built by RankingTable, GridTable and
// MilestoneTable:
//
// CSVWriter: plain CSV with an optional UTF-8 BOM so Excel opens it cleanly.
//
// XLSXWriter: a workbook with one sheet for the ranking and one sheet per
// launch plan, numeric columns stored as numbers.
//
// Example usage:
//
//	csvWriter := exporter.NewCSVWriter("reports", logger)
//	err := csvWriter.WriteTable("ranking.csv", exporter.RankingTable(entries, time.DateOnly))
//
//	xlsxWriter := exporter.NewXLSXWriter("reports", "Ranking", time.DateOnly, logger)
//	err = xlsxWriter.WriteReport("ranking.xlsx", exporter.Report{Ranking: entries})
package exporter
