package parts

import "fmt"

// Part identifies one of the four parts of the Summa Theologiae.
type Part string

const (
	PartI   Part = "I"     // Prima Pars
	PartIIa Part = "II-I"  // Prima Secundae
	PartIIb Part = "II-II" // Secunda Secundae
	PartIII Part = "III"   // Tertia Pars
)

// Spec holds the fixed per-part configuration: question count, display
// titles, the URL path segment used by the source site and the known
// article-count exceptions for specific questions.
type Spec struct {
	ID        Part
	Questions int
	URLPart   string
	Title     string
	Subtitle  string

	// articleExceptions maps question number -> article count for
	// questions whose markup does not allow reliable detection.
	articleExceptions map[int]int
}

// The site addresses the Prima Secundae as "I-II", not "II-I", so the URL
// segment differs from the part identifier for that part only.
var specs = map[Part]Spec{
	PartI: {
		ID:                PartI,
		Questions:         119,
		URLPart:           "I",
		Title:             "FIRST PART",
		Subtitle:          "SACRED DOCTRINE",
		articleExceptions: map[int]int{119: 2},
	},
	PartIIa: {
		ID:                PartIIa,
		Questions:         114,
		URLPart:           "I-II",
		Title:             "FIRST PART OF THE SECOND PART",
		Subtitle:          "MAN'S LAST END",
		articleExceptions: map[int]int{114: 10},
	},
	PartIIb: {
		ID:                PartIIb,
		Questions:         189,
		URLPart:           "II-II",
		Title:             "SECOND PART OF THE SECOND PART",
		Subtitle:          "FAITH, HOPE, AND CHARITY",
		articleExceptions: map[int]int{189: 10},
	},
	PartIII: {
		ID:                PartIII,
		Questions:         90,
		URLPart:           "III",
		Title:             "THIRD PART",
		Subtitle:          "THE INCARNATION",
		articleExceptions: map[int]int{90: 4},
	},
}

// choices maps the numeric menu choice of the invocation surface to a part.
var choices = map[string]Part{
	"1": PartI,
	"2": PartIIa,
	"3": PartIIb,
	"4": PartIII,
}

// Resolve returns the Spec for the given part identifier. Unrecognized
// identifiers resolve to Part I rather than failing; part selection is
// lenient by policy.
func Resolve(id string) Spec {
	if s, ok := specs[Part(id)]; ok {
		return s
	}
	return specs[PartI]
}

// ForChoice resolves the 1-4 menu choice used on the command line. It also
// accepts the part identifiers themselves ("I", "II-I", ...), and falls
// back to Part I for anything else.
func ForChoice(choice string) Spec {
	if p, ok := choices[choice]; ok {
		return specs[p]
	}
	return Resolve(choice)
}

// ArticleException reports the known article count for a question, if one
// is tabled.
func (s Spec) ArticleException(question int) (int, bool) {
	n, ok := s.articleExceptions[question]
	return n, ok
}

// PartURL returns the URL of the part's front page, which carries the
// prologue.
func (s Spec) PartURL(base string) string {
	return fmt.Sprintf("%s/la/en/~ST.%s", base, s.URLPart)
}

// QuestionURL returns the URL of a question page.
func (s Spec) QuestionURL(base string, question int) string {
	return fmt.Sprintf("%s/la/en/~ST.%s.Q%d", base, s.URLPart, question)
}

// ArticleURL returns the URL of an article page.
func (s Spec) ArticleURL(base string, question, article int) string {
	return fmt.Sprintf("%s/la/en/~ST.%s.Q%d.A%d", base, s.URLPart, question, article)
}
