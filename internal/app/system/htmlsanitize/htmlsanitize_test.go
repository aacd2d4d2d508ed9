package htmlsanitize

import "testing"

func TestSanitizeStripsScripts(t *testing.T) {
	in := `<p>hello</p><script>alert("x")</script>`
	out := Sanitize(in)
	if out != "<p>hello</p>" {
		t.Errorf("Sanitize: got %q", out)
	}
}

func TestSanitizeKeepsBasicFormatting(t *testing.T) {
	in := `<strong>bold</strong> and <em>italic</em>`
	if out := Sanitize(in); out != in {
		t.Errorf("Sanitize should keep formatting, got %q", out)
	}
}

func TestPlainTextStripsEverything(t *testing.T) {
	in := `<b>Task</b> <img src=x onerror=alert(1)> title`
	out := PlainText(in)
	if out != "Task  title" {
		t.Errorf("PlainText: got %q", out)
	}
}
