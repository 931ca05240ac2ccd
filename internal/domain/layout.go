package domain

// SectionRole classifies a layout paragraph (title, page header, footnote,
// and so on), as reported by the layout-analysis collaborator.
type SectionRole string

const (
	SectionRoleNone       SectionRole = ""
	SectionRoleTitle      SectionRole = "title"
	SectionRoleFootnote   SectionRole = "footnote"
	SectionRolePageHeader SectionRole = "pageHeader"
	SectionRolePageFooter SectionRole = "pageFooter"
	SectionRolePageNumber SectionRole = "pageNumber"
)

// Paragraph is one paragraph of analyzed layout, tagged with the page it
// appears on.
type Paragraph struct {
	Text       string      `json:"text"`
	PageNumber int         `json:"page_number"`
	Role       SectionRole `json:"role,omitempty"`
}

// TableCell is one cell of an analyzed table.
type TableCell struct {
	RowIndex int    `json:"row_index"`
	ColIndex int    `json:"col_index"`
	Text     string `json:"text"`
}

// Table is one table of analyzed layout, tagged with the page it appears on.
// Cells are in source order.
type Table struct {
	PageNumber int         `json:"page_number"`
	Cells      []TableCell `json:"cells"`
}

// Layout is the structured extraction of a document produced by the
// layout-analysis collaborator: flat paragraph and table lists in source
// order.
type Layout struct {
	Paragraphs []Paragraph `json:"paragraphs"`
	Tables     []Table     `json:"tables"`
}
