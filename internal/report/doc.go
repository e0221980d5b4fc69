// Package report serializes crawl results.
//
// The CSVWriter is the primary result sink: a tabular file with a header
// row and one row per matched page, keywords comma-joined. JSONWriter and
// MarkdownWriter provide alternative formats for tooling and documentation.
// All writers implement the Writer interface so output destinations can be
// combined with MultiWriter.
package report
