// Package layout turns analyzed document layout into page-windowed text
// chunks, the unit of embedding.
package layout

import (
	"strings"

	"github.com/inletai/inlet/internal/domain"
)

// DefaultPagesPerChunk is the page-window size used when none is configured.
const DefaultPagesPerChunk = 2

// excludedRoles are section roles whose paragraph text never contributes to
// a chunk.
var excludedRoles = map[domain.SectionRole]struct{}{
	domain.SectionRoleFootnote:   {},
	domain.SectionRolePageHeader: {},
	domain.SectionRolePageFooter: {},
	domain.SectionRolePageNumber: {},
}

// Extractor windows analyzed layout into chunks of pagesPerChunk pages.
type Extractor struct {
	pagesPerChunk int
}

// NewExtractor creates an Extractor. Non-positive pagesPerChunk falls back
// to the default window of 2 pages.
func NewExtractor(pagesPerChunk int) *Extractor {
	if pagesPerChunk <= 0 {
		pagesPerChunk = DefaultPagesPerChunk
	}
	return &Extractor{pagesPerChunk: pagesPerChunk}
}

// Extract produces the ordered chunk sequence for the layout. Chunk index i
// covers pages [i*pagesPerChunk+1, (i+1)*pagesPerChunk]. All paragraphs are
// processed before any table, so a table on an earlier page appends after
// later paragraph text within the same chunk; converted artifacts depend on
// this exact ordering.
func (e *Extractor) Extract(l domain.Layout) []string {
	var chunks []string

	for _, p := range l.Paragraphs {
		idx := e.chunkIndex(p.PageNumber)
		chunks = grow(chunks, idx+1)
		if _, excluded := excludedRoles[p.Role]; excluded {
			continue
		}
		chunks[idx] += p.Text + "\n"
	}

	for _, t := range l.Tables {
		idx := e.chunkIndex(t.PageNumber)
		chunks = grow(chunks, idx+1)
		chunks[idx] += renderTable(t)
	}

	return chunks
}

// chunkIndex maps a 1-based page number to its chunk index.
func (e *Extractor) chunkIndex(pageNumber int) int {
	if pageNumber < 1 {
		pageNumber = 1
	}
	return (pageNumber - 1) / e.pagesPerChunk
}

// grow pads chunks with empty entries until it has n of them, so chunk
// index stays aligned with page window even across pages with no content.
func grow(chunks []string, n int) []string {
	for len(chunks) < n {
		chunks = append(chunks, "")
	}
	return chunks
}

// renderTable renders a table as a pipe-delimited grid. Cells are grouped
// by row index in encounter order; each row gets leading and trailing pipe
// delimiters, rows are joined by newlines, and the grid carries a trailing
// pipe terminator.
func renderTable(t domain.Table) string {
	var order []int
	rows := make(map[int][]string)
	for _, c := range t.Cells {
		if _, seen := rows[c.RowIndex]; !seen {
			order = append(order, c.RowIndex)
		}
		rows[c.RowIndex] = append(rows[c.RowIndex], c.Text)
	}

	var sb strings.Builder
	for _, rowIndex := range order {
		sb.WriteString("| ")
		sb.WriteString(strings.Join(rows[rowIndex], " | "))
		sb.WriteString(" |\n")
	}
	sb.WriteString("|")
	return sb.String()
}
