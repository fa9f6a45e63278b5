package tools

import (
	"strings"
	"testing"
)

func TestFormat_ReindentsNestedBlocks(t *testing.T) {
	source := `module Demo
class Greeter {
method Main() -> void {
ldstr "hi"
if eq {
call System.Console.WriteLine(string)
}
}
}`

	out, err := Format(source)
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	var bodyLine, callLine string
	for i, l := range lines {
		if strings.Contains(l, `ldstr "hi"`) {
			bodyLine = l
		}
		if strings.Contains(l, "call System.Console.WriteLine") {
			callLine = l
			_ = i
		}
	}

	if !strings.HasPrefix(bodyLine, "        ldstr") {
		t.Errorf("expected method body indented two levels, got %q", bodyLine)
	}
	if !strings.HasPrefix(callLine, "            call") {
		t.Errorf("expected if-block body indented three levels, got %q", callLine)
	}
}

func TestFormat_StripsLineComments(t *testing.T) {
	source := `method Main() -> void {
ldc.i4 1 // push one
}`

	out, err := Format(source)
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if strings.Contains(out, "//") {
		t.Errorf("expected comment stripped, got %q", out)
	}
	if !strings.Contains(out, "ldc.i4 1") {
		t.Errorf("expected instruction preserved, got %q", out)
	}
}

func TestFormat_PreservesQuotedDoubleSlash(t *testing.T) {
	source := `method Main() -> void {
ldstr "http://example.com"
}`

	out, err := Format(source)
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if !strings.Contains(out, `"http://example.com"`) {
		t.Errorf("expected string literal preserved intact, got %q", out)
	}
}

func TestFormat_CollapsesBlankLineRuns(t *testing.T) {
	source := "method Main() -> void {\n\n\n\nret\n}"

	out, err := Format(source)
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if strings.Contains(out, "\n\n\n") {
		t.Errorf("expected blank run collapsed to a single blank line, got %q", out)
	}
}

func TestFormat_DedentsClosingBraceBeforePrinting(t *testing.T) {
	source := `class Greeter {
method Main() -> void {
ret
}
}`
	out, err := Format(source)
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "}" && strings.HasPrefix(line, "    ") && !strings.HasPrefix(line, "        ") {
			return
		}
	}
	t.Errorf("expected method-closing brace dedented one level, got %q", out)
}
