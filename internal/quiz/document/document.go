// Package document reads and writes quiz XML documents.
//
//	<quiz font_size="32">
//	  <solution>CAT</solution>
//	  <question>
//	    <answer>..</answer>
//	    <category>..</category>
//	    <question>..</question>
//	    <image bg="#000" flip_h="false" flip_v="false" rotate="90">cat.png</image>
//	  </question>
//	</quiz>
//
// Questions are matched to the solution's letters by position, not by letter.
// Documents may declare any encoding the charset package knows; they are
// always written as UTF-8. Text holding characters XML 1.0 cannot carry,
// such as control characters, is refused on write.
package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

var (
	ErrNoLetters   = errors.New("solution has no letters")
	ErrInvalidText = errors.New("text cannot be stored in XML")
)

// Resolver maps an image reference from a document to a readable path.
// ok=false drops the image.
type Resolver func(ref string) (path string, ok bool)

// FileResolver tries ref as given, then relative to the directory holding
// the document at docPath.
func FileResolver(docPath string) Resolver {
	return func(ref string) (string, bool) {
		if ref == "" {
			return "", false
		}
		if fileExists(ref) {
			return ref, true
		}
		dir := filepath.Dir(docPath)
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		p := filepath.Join(dir, ref)
		if fileExists(p) {
			return p, true
		}
		return "", false
	}
}

// DirResolver only resolves relative references that stay inside dir.
func DirResolver(dir string) Resolver {
	return func(ref string) (string, bool) {
		if ref == "" {
			return "", false
		}
		rel := filepath.Clean(filepath.FromSlash(ref))
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", false
		}
		p := filepath.Join(dir, rel)
		if fileExists(p) {
			return p, true
		}
		return "", false
	}
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

// --- read side ---

type quizDoc struct {
	XMLName   xml.Name      `xml:"quiz"`
	FontSize  string        `xml:"font_size,attr"`
	Solution  firstText     `xml:"solution"`
	Questions []questionDoc `xml:"question"`
}

type questionDoc struct {
	Answer   firstText  `xml:"answer"`
	Category firstText  `xml:"category"`
	Question firstText  `xml:"question"`
	Images   []imageDoc `xml:"image"`
}

type imageDoc struct {
	Path   string `xml:",chardata"`
	Bg     string `xml:"bg,attr"`
	FlipH  string `xml:"flip_h,attr"`
	FlipV  string `xml:"flip_v,attr"`
	Rotate string `xml:"rotate,attr"`
}

// firstText keeps the text of the first matching element, including text
// nested in inline markup. Later siblings with the same name are skipped.
type firstText struct {
	s  string
	ok bool
}

func (t *firstText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if t.ok {
		return d.Skip()
	}
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.CharData:
			b.Write(v)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	t.s, t.ok = b.String(), true
	return nil
}

// Read loads the document at path. Any failure yields an empty quiz; use
// Load when the reason matters.
func Read(path string) quiz.Quiz {
	q, _ := Load(path)
	return q
}

func Load(path string) (quiz.Quiz, error) {
	return LoadWith(path, FileResolver(path))
}

func LoadWith(path string, resolve Resolver) (quiz.Quiz, error) {
	f, err := os.Open(path)
	if err != nil {
		return quiz.Quiz{}, err
	}
	defer f.Close()
	return DecodeWith(f, resolve)
}

// Decode parses a document whose images are resolved relative to basePath.
func Decode(r io.Reader, basePath string) (quiz.Quiz, error) {
	return DecodeWith(r, FileResolver(basePath))
}

func DecodeWith(r io.Reader, resolve Resolver) (quiz.Quiz, error) {
	doc, err := parse(r)
	if err != nil {
		return quiz.Quiz{}, fmt.Errorf("parse quiz document: %w", err)
	}

	q := quiz.New(doc.Solution.s)
	if q.IsEmpty() {
		return quiz.Quiz{}, ErrNoLetters
	}
	q.FontSize = intAttr(doc.FontSize, quiz.DefaultFontSize)

	for i := 0; i < len(doc.Questions) && i < len(q.Questions); i++ {
		src, dst := doc.Questions[i], &q.Questions[i]
		assign(&dst.Answer, src.Answer)
		assign(&dst.Category, src.Category)
		assign(&dst.Question, src.Question)

		dst.Images = nil
		for _, im := range src.Images {
			p, ok := resolve(strings.TrimSpace(im.Path))
			if !ok {
				continue
			}
			dst.Images = append(dst.Images, quiz.Image{
				Path:    p,
				BgColor: im.Bg,
				FlipH:   boolAttr(im.FlipH, false),
				FlipV:   boolAttr(im.FlipV, false),
				Rotate:  intAttr(im.Rotate, 0),
			})
		}
	}
	return q, nil
}

// parse decodes the single root element and insists that nothing but
// whitespace, comments and processing instructions surround it.
func parse(r io.Reader) (quizDoc, error) {
	var doc quizDoc
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel

	rooted := false
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return quizDoc{}, err
		}
		switch v := tok.(type) {
		case xml.StartElement:
			if rooted {
				return quizDoc{}, fmt.Errorf("unexpected element <%s> after root", v.Name.Local)
			}
			if err := d.DecodeElement(&doc, &v); err != nil {
				return quizDoc{}, err
			}
			rooted = true
		case xml.CharData:
			if !blank(v) {
				return quizDoc{}, errors.New("text outside the root element")
			}
		case xml.Directive:
			if rooted {
				return quizDoc{}, errors.New("directive after root")
			}
		}
	}
	if !rooted {
		return quizDoc{}, errors.New("no root element")
	}
	return doc, nil
}

func blank(b []byte) bool {
	return len(bytes.TrimSpace(bytes.TrimPrefix(b, []byte("\ufeff")))) == 0
}

// assign keeps the placeholder when the document text is missing or empty.
func assign(dst *string, t firstText) {
	if t.ok && t.s != "" {
		*dst = t.s
	}
}

func boolAttr(v string, def bool) bool {
	if v == "" {
		return def
	}
	return v == "true"
}

func intAttr(v string, def int) int {
	n, err := strconv.ParseInt(v, 10, 0)
	if err != nil {
		return def
	}
	return int(n)
}

// --- write side ---

type quizOut struct {
	XMLName   xml.Name      `xml:"quiz"`
	FontSize  int           `xml:"font_size,attr"`
	Solution  string        `xml:"solution"`
	Questions []questionOut `xml:"question"`
}

type questionOut struct {
	Answer   string     `xml:"answer"`
	Category string     `xml:"category"`
	Question string     `xml:"question"`
	Images   []imageOut `xml:"image"`
}

type imageOut struct {
	Path   string `xml:",chardata"`
	Bg     string `xml:"bg,attr,omitempty"`
	FlipH  bool   `xml:"flip_h,attr"`
	FlipV  bool   `xml:"flip_v,attr"`
	Rotate int    `xml:"rotate,attr"`
}

// Encode writes q as an indented UTF-8 document. It fails with
// ErrInvalidText rather than altering text XML cannot hold.
func Encode(w io.Writer, q quiz.Quiz) error {
	if err := checkText(q); err != nil {
		return err
	}
	fs := q.FontSize
	if fs == 0 {
		fs = quiz.DefaultFontSize
	}
	out := quizOut{FontSize: fs, Solution: q.Solution}
	for _, qq := range q.Questions {
		qo := questionOut{Answer: qq.Answer, Category: qq.Category, Question: qq.Question}
		for _, im := range qq.Images {
			qo.Images = append(qo.Images, imageOut{
				Path:   im.Path,
				Bg:     im.BgColor,
				FlipH:  im.FlipH,
				FlipV:  im.FlipV,
				Rotate: im.Rotate,
			})
		}
		out.Questions = append(out.Questions, qo)
	}

	b, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(b)
	buf.WriteByte('\n')
	_, err = w.Write(buf.Bytes())
	return err
}

func checkText(q quiz.Quiz) error {
	fields := []string{q.Solution}
	for _, qq := range q.Questions {
		fields = append(fields, qq.Answer, qq.Category, qq.Question)
		for _, im := range qq.Images {
			fields = append(fields, im.Path, im.BgColor)
		}
	}
	for _, f := range fields {
		if !utf8.ValidString(f) {
			return fmt.Errorf("%w: invalid UTF-8 in %q", ErrInvalidText, f)
		}
		for _, r := range f {
			if !isXMLChar(r) {
				return fmt.Errorf("%w: character %U in %q", ErrInvalidText, r, f)
			}
		}
	}
	return nil
}

// isXMLChar follows the Char production of XML 1.0.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// Write stores q at path. The file is written to a temporary sibling and
// renamed into place, so path is either fully replaced or left untouched.
func Write(path string, q quiz.Quiz) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".quiz-*.xml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, q); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
