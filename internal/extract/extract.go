package extract

import "strings"

// Extract runs the per-file pass over content: every candidate span is
// resolved against the style's function grammar, cleaned and validated.
// Records are returned in the order their spans appear in the file.
func Extract(content string, style Style) []QueryRecord {
	decls := style.Resolver().Index(content)

	var records []QueryRecord
	line, lineAt := 1, 0
	for span := range Spans(content) {
		line += strings.Count(content[lineAt:span.Start], "\n")
		lineAt = span.Start

		ctx := decls.At(span.Start)
		rec := QueryRecord{
			RawQuery:     span.Text,
			CleanedQuery: Clean(span.Text),
			FunctionName: ctx.Name,
			Description:  ctx.Description,
			Offset:       span.Start,
			Line:         line,
		}
		if !IsQuery(rec.CleanedQuery) {
			continue
		}
		records = append(records, rec)
	}
	return records
}
