package models

import "strings"

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Section is a parallel ("paralelo") within a grade.
type Section string

const (
	SectionA Section = "A"
	SectionB Section = "B"
	SectionC Section = "C"
)

// AllSections lists the sections in display order.
var AllSections = []Section{SectionA, SectionB, SectionC}

// Valid reports whether s is one of A, B or C.
func (s Section) Valid() bool {
	switch s {
	case SectionA, SectionB, SectionC:
		return true
	}
	return false
}

// ParseSection normalises user input such as " b ".
func ParseSection(raw string) (Section, bool) {
	s := Section(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// SectionSet is an order-independent set of sections.
type SectionSet map[Section]struct{}

// NewSectionSet builds a set, dropping duplicates.
func NewSectionSet(sections ...Section) SectionSet {
	set := make(SectionSet, len(sections))
	for _, s := range sections {
		set[s] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s SectionSet) Has(section Section) bool {
	_, ok := s[section]
	return ok
}

// Sorted returns the members in A, B, C order.
func (s SectionSet) Sorted() []Section {
	out := make([]Section, 0, len(s))
	for _, section := range AllSections {
		if s.Has(section) {
			out = append(out, section)
		}
	}
	return out
}

// Grades is the ordered grade catalogue offered by the portals.
var Grades = []string{
	"1 inicial", "2 inicial", "3 inicial",
	"1ro básica", "2do básica", "3ro básica", "4to básica", "5to básica",
	"6to básica", "7mo básica", "8vo básica", "9no básica", "10mo básica",
	"1ro bachillerato", "2do bachillerato", "3ro bachillerato",
}

// GradeIndex returns the catalogue position of grade, or -1 when it is not listed.
func GradeIndex(grade string) int {
	for i, g := range Grades {
		if g == grade {
			return i
		}
	}
	return -1
}
