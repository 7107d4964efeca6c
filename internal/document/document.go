// Package document writes the output text file. The file is an append-only
// stream: sections go out in traversal order and are never revisited.
package document

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"summa/internal/extract"
)

// Writer appends document sections to a single output file. It is created
// once per run; the file is truncated at creation so repeated runs produce
// identical output.
type Writer struct {
	f *os.File
	w *bufio.Writer
}

// Create opens the output file for writing, creating parent directories as
// needed.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// Close flushes and closes the output file.
func (d *Writer) Close() error {
	if err := d.w.Flush(); err != nil {
		d.f.Close()
		return fmt.Errorf("failed to flush output file: %w", err)
	}
	if err := d.f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// WriteTitle writes the document header: part title and subtitle.
func (d *Writer) WriteTitle(title, subtitle string) error {
	_, err := fmt.Fprintf(d.w, "SUMMA THEOLOGIAE %s\n\n%s\n\n", title, subtitle)
	return err
}

// WritePrologue writes the part prologue. Nothing is written when no
// prologue paragraphs were extracted.
func (d *Writer) WritePrologue(paras []string) error {
	if len(paras) == 0 {
		return nil
	}
	if _, err := fmt.Fprint(d.w, "PROLOGUE\n\n"); err != nil {
		return err
	}
	return d.writeParagraphs(paras)
}

// WriteQuestion writes a question header, its title, description paragraphs
// and the points-of-inquiry list.
func (d *Writer) WriteQuestion(question int, u extract.Unit) error {
	if _, err := fmt.Fprintf(d.w, "Question %d\n", question); err != nil {
		return err
	}
	if u.Title != "" {
		if _, err := fmt.Fprintf(d.w, "%s\n\n", u.Title); err != nil {
			return err
		}
	}
	if err := d.writeParagraphs(u.Paragraphs); err != nil {
		return err
	}
	if u.InquiryHeader != "" {
		if _, err := fmt.Fprintf(d.w, "%s\n\n", u.InquiryHeader); err != nil {
			return err
		}
		for _, item := range u.InquiryItems {
			if _, err := fmt.Fprintf(d.w, "%s\n", item); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(d.w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteArticle writes an article header, its title and body paragraphs.
func (d *Writer) WriteArticle(article int, u extract.Unit) error {
	if _, err := fmt.Fprintf(d.w, "Article %d\n", article); err != nil {
		return err
	}
	if u.Title != "" {
		if _, err := fmt.Fprintf(d.w, "%s\n\n", u.Title); err != nil {
			return err
		}
	}
	return d.writeParagraphs(u.Paragraphs)
}

// WriteArticlePlaceholder records an article whose content could not be
// retrieved after all retries.
func (d *Writer) WriteArticlePlaceholder(article int) error {
	_, err := fmt.Fprintf(d.w, "*Content could not be retrieved for Article %d*\n\n", article)
	return err
}

// WriteQuestionPlaceholder records a question page the server refused.
func (d *Writer) WriteQuestionPlaceholder(question int) error {
	_, err := fmt.Fprintf(d.w, "*Content could not be retrieved for Question %d*\n\n", question)
	return err
}

// WriteQuestionError records a question page lost to a transport error.
func (d *Writer) WriteQuestionError(question int) error {
	_, err := fmt.Fprintf(d.w, "*Content could not be retrieved for Question %d due to an error*\n\n", question)
	return err
}

func (d *Writer) writeParagraphs(paras []string) error {
	for _, p := range paras {
		if _, err := fmt.Fprintf(d.w, "%s\n\n", p); err != nil {
			return err
		}
	}
	return nil
}
