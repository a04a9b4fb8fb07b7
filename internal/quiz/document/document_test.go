package document

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

func TestRoundTrip(t *testing.T) {
	for _, phrase := range []string{"cat", "Hello, World!", "Ärger & Ü-Bahn"} {
		m := quiz.New(phrase)
		m.Questions[0].Question = "Who said <b>meow</b>?"
		m.Questions[0].Answer = `A "cat" & friends`

		var buf bytes.Buffer
		if err := Encode(&buf, m); err != nil {
			t.Fatalf("encode %q: %v", phrase, err)
		}
		got, err := Decode(&buf, filepath.Join(t.TempDir(), "quiz.xml"))
		if err != nil {
			t.Fatalf("decode %q: %v\n%s", phrase, err, buf.String())
		}
		if got.Solution != m.Solution {
			t.Errorf("solution = %q, want %q", got.Solution, m.Solution)
		}
		if len(got.Questions) != len(m.Questions) {
			t.Fatalf("questions = %d, want %d", len(got.Questions), len(m.Questions))
		}
		for i := range m.Questions {
			w, g := m.Questions[i], got.Questions[i]
			if g.Answer != w.Answer || g.Category != w.Category || g.Question != w.Question {
				t.Errorf("question %d = %+v, want %+v", i, g, w)
			}
		}
		if got.DisplayText == got.Solution {
			t.Error("decoded quiz should start masked")
		}
	}
}

func TestWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xml")
	m := quiz.New("go gopher")
	m.FontSize = 48

	if err := Write(path, m); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := Read(path)
	if got.IsEmpty() {
		t.Fatal("read returned empty quiz")
	}
	if got.FontSize != 48 {
		t.Errorf("font size = %d, want 48", got.FontSize)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the output file, got %d entries", len(entries))
	}
}

func TestWriteFailureLeavesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.xml")
	if err := Write(path, quiz.New("abc")); err == nil {
		t.Fatal("expected error for missing directory")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should not exist: %v", err)
	}
}

func TestReadFailuresYieldEmptyQuiz(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	cases := map[string]string{
		"missing":   filepath.Join(dir, "nope.xml"),
		"malformed": write("bad.xml", "<quiz><solution>CAT</solution>"),
		"trailing":  write("trailing.xml", "<quiz><solution>CAT</solution></quiz><junk"),
		"tworoots":  write("two.xml", "<quiz><solution>CAT</solution></quiz><quiz/>"),
		"leadtext":  write("lead.xml", "junk<quiz><solution>CAT</solution></quiz>"),
		"wrongroot": write("root.xml", "<exam><solution>CAT</solution></exam>"),
		"noletters": write("digits.xml", "<quiz><solution>123</solution></quiz>"),
		"nosol":     write("nosol.xml", "<quiz></quiz>"),
	}
	for name, p := range cases {
		if q := Read(p); !q.IsEmpty() {
			t.Errorf("%s: expected empty quiz, got %+v", name, q)
		}
	}
}

func TestPrologAndEpilogAllowed(t *testing.T) {
	doc := "\ufeff<?xml version=\"1.0\"?>\n<!-- generated -->\n<quiz><solution>CAT</solution></quiz>\n<!-- end -->\n"
	q, err := Decode(strings.NewReader(doc), "")
	if err != nil {
		t.Fatal(err)
	}
	if q.Solution != "CAT" {
		t.Errorf("solution = %q", q.Solution)
	}
}

func TestDeclaredEncodingIsHonoured(t *testing.T) {
	p := filepath.Join(t.TempDir(), "latin1.xml")
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<quiz><solution>K\xe4se</solution><question><answer>M\xfcnster</answer></question></quiz>"
	if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	q, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if q.Solution != "KÄSE" {
		t.Errorf("solution = %q", q.Solution)
	}
	// letters sorted: E, K, S, Ä
	if q.Questions[0].Answer != "Münster" {
		t.Errorf("answer = %q", q.Questions[0].Answer)
	}
}

func TestEncodeRefusesNonXMLText(t *testing.T) {
	q := quiz.New("cat")
	q.Questions[0].Answer = "x\x01y"
	var buf bytes.Buffer
	if err := Encode(&buf, q); !errors.Is(err, ErrInvalidText) {
		t.Errorf("control character err = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written, got %q", buf.String())
	}

	q = quiz.New("cat")
	q.Questions[1].Category = "tab\tand\nnewline"
	if err := Encode(&buf, q); err != nil {
		t.Errorf("whitespace controls are valid XML: %v", err)
	}

	p := filepath.Join(t.TempDir(), "out.xml")
	if err := Write(p, quiz.New("a\x02b")); !errors.Is(err, ErrInvalidText) {
		t.Errorf("write err = %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("refused write should leave no file: %v", err)
	}
}

func TestPositionalMatching(t *testing.T) {
	doc := `<quiz>
  <solution>dog</solution>
  <question><answer>first</answer><category>c1</category><question>q1</question></question>
  <question><answer></answer><category>c2</category></question>
</quiz>`
	q, err := Decode(strings.NewReader(doc), "")
	if err != nil {
		t.Fatal(err)
	}
	// letters are D, G, O
	if q.Questions[0].Letter != 'D' || q.Questions[0].Answer != "first" || q.Questions[0].Question != "q1" {
		t.Errorf("question 0 = %+v", q.Questions[0])
	}
	if q.Questions[1].Answer != "Answer 2" || q.Questions[1].Category != "c2" || q.Questions[1].Question != "Question 2" {
		t.Errorf("question 1 = %+v", q.Questions[1])
	}
	if q.Questions[2].Answer != "Answer 3" || q.Questions[2].Category != "Category 3" {
		t.Errorf("trailing question should keep placeholders: %+v", q.Questions[2])
	}
	if q.FontSize != quiz.DefaultFontSize {
		t.Errorf("font size = %d", q.FontSize)
	}
}

func TestExtraQuestionsIgnored(t *testing.T) {
	doc := `<quiz><solution>a</solution>
<question><answer>one</answer></question>
<question><answer>two</answer></question>
</quiz>`
	q, err := Decode(strings.NewReader(doc), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(q.Questions) != 1 || q.Questions[0].Answer != "one" {
		t.Errorf("questions = %+v", q.Questions)
	}
}

func TestInlineMarkupIsFlattened(t *testing.T) {
	doc := `<quiz><solution>a</solution>
<question><question>Name the <b>big</b> one</question></question></quiz>`
	q, err := Decode(strings.NewReader(doc), "")
	if err != nil {
		t.Fatal(err)
	}
	if got := q.Questions[0].Question; got != "Name the big one" {
		t.Errorf("question = %q", got)
	}
}

func TestImageAttributesAndResolution(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "img"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, n := range []string{"a.png", "b.png", "c.png"} {
		if err := os.WriteFile(filepath.Join(dir, "img", n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	doc := `<quiz font_size="abc"><solution>ab</solution>
<question>
  <image bg="#101010" flip_h="true" flip_v="yes" rotate="90">img/a.png</image>
  <image rotate="45">img/b.png</image>
  <image rotate="x">img/c.png</image>
  <image>img/missing.png</image>
</question></quiz>`
	docPath := filepath.Join(dir, "quiz.xml")
	if err := os.WriteFile(docPath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	q, err := Load(docPath)
	if err != nil {
		t.Fatal(err)
	}
	if q.FontSize != quiz.DefaultFontSize {
		t.Errorf("malformed font_size should fall back, got %d", q.FontSize)
	}
	imgs := q.Questions[0].Images
	if len(imgs) != 3 {
		t.Fatalf("images = %+v", imgs)
	}
	want := []quiz.Image{
		{Path: filepath.Join(dir, "img", "a.png"), BgColor: "#101010", FlipH: true},
		{Path: filepath.Join(dir, "img", "b.png"), Rotate: 45},
		{Path: filepath.Join(dir, "img", "c.png")},
	}
	for i := range want {
		if imgs[i] != want[i] {
			t.Errorf("image %d = %+v, want %+v", i, imgs[i], want[i])
		}
	}
	if len(q.Questions[1].Images) != 0 {
		t.Errorf("placeholder question should have no images")
	}
}

func TestDecodeWithResolver(t *testing.T) {
	doc := `<quiz><solution>a</solution><question><image>one.png</image><image>two.png</image></question></quiz>`
	q, err := DecodeWith(strings.NewReader(doc), func(ref string) (string, bool) {
		return "blob/" + ref, ref == "two.png"
	})
	if err != nil {
		t.Fatal(err)
	}
	if imgs := q.Questions[0].Images; len(imgs) != 1 || imgs[0].Path != "blob/two.png" {
		t.Errorf("images = %+v", imgs)
	}
}

func TestEncodeWritesImages(t *testing.T) {
	m := quiz.New("a")
	m.Questions[0].Images = []quiz.Image{{Path: "x.png", BgColor: "red", FlipV: true, Rotate: 270}}
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`<?xml`, `<quiz font_size="32">`, `<solution>A</solution>`,
		`<image bg="red" flip_h="false" flip_v="true" rotate="270">x.png</image>`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDirResolverStaysInside(t *testing.T) {
	dir := t.TempDir()
	inner := filepath.Join(dir, "quiz")
	if err := os.MkdirAll(filepath.Join(inner, "img"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{filepath.Join(inner, "img", "a.png"), filepath.Join(dir, "secret.txt")} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	resolve := DirResolver(inner)
	if p, ok := resolve("img/a.png"); !ok || p != filepath.Join(inner, "img", "a.png") {
		t.Errorf("img/a.png = %q, %v", p, ok)
	}
	for _, ref := range []string{"../secret.txt", filepath.Join(dir, "secret.txt"), "img/missing.png", ""} {
		if p, ok := resolve(ref); ok {
			t.Errorf("%q should not resolve, got %q", ref, p)
		}
	}
}
