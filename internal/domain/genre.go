package domain

// Genre is a book category such as "Science Fiction".
// Names are unique and compared case-sensitively.
type Genre struct {
	Record
	Name string `json:"name"`
}

// String returns the genre name.
func (g *Genre) String() string {
	return g.Name
}

// Language is the natural language a book is written in.
type Language struct {
	Record
	Name string `json:"name"`
}

// String returns the language name.
func (l *Language) String() string {
	return l.Name
}
