// Package extract pulls the usable text out of aquinas.cc pages.
//
// The site renders text into custom <vl-c> elements whose class names start
// with a content-area marker ("c2-2"); everything else on the page is
// navigation or chrome. Extraction is best-effort replication of the site's
// observed markup: every stage degrades to a weaker heuristic instead of
// failing, and an empty result is acceptable.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Unit is the extracted text of a question or article page: a title, body
// paragraphs and, for question pages, the points-of-inquiry list.
type Unit struct {
	Title         string
	Paragraphs    []string
	InquiryHeader string
	InquiryItems  []string
}

// Content-area marker convention of the source site. The t-* suffixes mark
// structural roles: t-r question titles, t-s/t-h/t-o article titles,
// t-i article headers.
const (
	contentMarker       = `vl-c[class^="c2-2"]`
	questionTitleMarker = `vl-c[class^="c2-2"][class*="t-r"]`
	articleHeaderMarker = `vl-c[class^="c2-2"][class*="t-i"]`
)

var articleTitleMarkers = []string{
	`vl-c[class^="c2-2"][class*="t-s"]`,
	`vl-c[class^="c2-2"][class*="t-h"]`,
	`vl-c[class^="c2-2"][class*="t-o"]`,
}

var (
	parenItem     = regexp.MustCompile(`^\(\d+\)`)
	numberedItem  = regexp.MustCompile(`^\d+\.`)
	articleNumber = regexp.MustCompile(`Article (\d+)`)
)

func parse(html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// net/html accepts arbitrary bytes; a reader error still must not
		// abort extraction.
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	return doc
}

// Prologue extracts the part prologue paragraphs from the part front page:
// every substantial content fragment before the first mention of Question 1.
func Prologue(html string) []string {
	doc := parse(html)

	var paras []string
	doc.Find(contentMarker).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		lower := strings.ToLower(text)
		if strings.Contains(lower, "question 1") || strings.Contains(lower, "q1") {
			return false
		}
		if len(text) > 20 && !strings.Contains(strings.ToUpper(text), "PART") && !strings.HasPrefix(text, "ST.") {
			paras = append(paras, text)
		}
		return true
	})
	return paras
}

// Question extracts a question page: title, description paragraphs and the
// points-of-inquiry header with its enumerated items. Fragments are
// classified by textual cues; short "Article N" labels are navigation and
// get dropped.
func Question(html string) Unit {
	doc := parse(html)

	var u Unit
	u.Title = strings.TrimSpace(doc.Find(questionTitleMarker).First().Text())

	doc.Find(contentMarker).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" || text == u.Title {
			return
		}
		lower := strings.ToLower(text)

		if strings.Contains(lower, "article") && len(text) < 30 {
			return
		}
		if u.InquiryHeader == "" && strings.Contains(lower, "inquir") {
			u.InquiryHeader = text
			return
		}
		if u.InquiryHeader != "" && (parenItem.MatchString(text) || numberedItem.MatchString(text)) {
			u.InquiryItems = append(u.InquiryItems, text)
			return
		}
		if u.InquiryHeader == "" && len(text) > 30 && !strings.HasPrefix(text, "Article") {
			u.Paragraphs = append(u.Paragraphs, text)
		}
	})
	return u
}

// Article extracts an article page. The body comes from the first strategy
// in the chain that yields anything: content-marker fragments, then the
// secondary CSS path, then long lines of the whole page text.
func Article(html string, article int) Unit {
	doc := parse(html)

	var u Unit
	for _, marker := range articleTitleMarkers {
		if t := strings.TrimSpace(doc.Find(marker).First().Text()); t != "" {
			u.Title = t
			break
		}
	}

	header := "Article " + strconv.Itoa(article)
	seen := map[string]bool{}
	u.Paragraphs = firstNonEmpty(doc,
		markerFragments(u.Title, header, seen),
		secondaryFragments(seen),
		rawLineFragments(html, seen),
	)
	return u
}

// strategy produces body paragraphs from a parsed page, or nothing when its
// heuristic does not apply.
type strategy func(doc *goquery.Document) []string

func firstNonEmpty(doc *goquery.Document, strategies ...strategy) []string {
	for _, s := range strategies {
		if paras := s(doc); len(paras) > 0 {
			return paras
		}
	}
	return nil
}

// markerFragments is the primary strategy: content-marker fragments minus
// short labels, duplicates and the article's own title and header.
func markerFragments(title, header string, seen map[string]bool) strategy {
	return func(doc *goquery.Document) []string {
		var paras []string
		doc.Find(contentMarker).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) < 15 || seen[text] {
				return
			}
			if text == title || strings.HasPrefix(text, header) {
				return
			}
			paras = append(paras, text)
			seen[text] = true
		})
		return paras
	}
}

// secondaryFragments reads the alternate content path some pages use
// instead of the marker convention.
func secondaryFragments(seen map[string]bool) strategy {
	return func(doc *goquery.Document) []string {
		var paras []string
		doc.Find("div.body div.content p").Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > 20 && !seen[text] {
				paras = append(paras, text)
				seen[text] = true
			}
		})
		return paras
	}
}

// rawLineFragments is the last resort: convert the whole page to text and
// keep only lines long enough to be prose rather than navigation.
func rawLineFragments(html string, seen map[string]bool) strategy {
	return func(doc *goquery.Document) []string {
		text, err := md.NewConverter("", true, nil).ConvertString(html)
		if err != nil {
			text = doc.Text()
		}

		var paras []string
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if len(line) > 50 && !seen[line] {
				paras = append(paras, line)
				seen[line] = true
			}
		}
		return paras
	}
}

// ArticleCount detects how many articles a question page links to, taking
// the maximum article number seen in hrefs, article headers and plain text.
// ok is false when the page gives no usable signal.
func ArticleCount(html, urlPart string, question int) (count int, ok bool) {
	doc := parse(html)
	href := regexp.MustCompile(`ST\.` + regexp.QuoteMeta(urlPart) + `\.Q` + strconv.Itoa(question) + `\.A(\d+)`)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		link, _ := sel.Attr("href")
		if m := href.FindStringSubmatch(link); m != nil {
			count = maxArticle(count, m[1])
		}
	})
	doc.Find(articleHeaderMarker).Each(func(_ int, sel *goquery.Selection) {
		if m := articleNumber.FindStringSubmatch(sel.Text()); m != nil {
			count = maxArticle(count, m[1])
		}
	})
	for _, m := range articleNumber.FindAllStringSubmatch(doc.Text(), -1) {
		count = maxArticle(count, m[1])
	}

	return count, count > 0
}

func maxArticle(current int, digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil || n <= current {
		return current
	}
	return n
}
