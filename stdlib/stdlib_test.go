package stdlib

import (
	"strings"
	"testing"

	"github.com/objectir/objectir/diag"
)

func TestNew_LoadsKnownModule(t *testing.T) {
	b := New([]string{"Generics"}, nil)
	if _, ok := b.Resolve("System.Console.WriteLine"); !ok {
		t.Fatal("expected System.Console.WriteLine to resolve after loading Generics")
	}
	if _, ok := b.Resolve("System.Console.ReadLine"); !ok {
		t.Fatal("expected System.Console.ReadLine to resolve after loading Generics")
	}
}

func TestNew_UnknownModuleWarnsAndSkips(t *testing.T) {
	var list diag.List
	b := New([]string{"NoSuchModule"}, &list)

	if !list.HasWarnings() {
		t.Fatal("expected a warning for an unresolvable module name")
	}
	if !strings.Contains(list.String(), "NoSuchModule") {
		t.Errorf("expected warning to name the module, got %q", list.String())
	}
	if _, ok := b.Resolve("System.Console.WriteLine"); ok {
		t.Fatal("WriteLine should not resolve without Generics preloaded")
	}
}

func TestNew_EmptyModuleListResolvesNothing(t *testing.T) {
	b := New(nil, nil)
	if _, ok := b.Resolve("System.Console.WriteLine"); ok {
		t.Fatal("expected no callables with an empty preload list")
	}
}

func TestResolve_UnknownNameReturnsFalse(t *testing.T) {
	b := New([]string{"Generics"}, nil)
	if _, ok := b.Resolve("System.Math.Sqrt"); ok {
		t.Fatal("expected System.Math.Sqrt to be unresolved")
	}
}

func TestWriteLine_AppendsArgumentAndNewlineToInternalBuffer(t *testing.T) {
	b := New([]string{"Generics"}, nil)
	fn, ok := b.Resolve("System.Console.WriteLine")
	if !ok {
		t.Fatal("expected WriteLine to resolve")
	}
	if _, err := fn([]any{"hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mod := knownModules["Generics"].(*genericsModule)
	if got := mod.out.String(); !strings.HasSuffix(got, "hi\n") {
		t.Errorf("expected internal buffer to end with %q, got %q", "hi\n", got)
	}
}

func TestReadLine_WithoutInputReturnsEmptyString(t *testing.T) {
	b := New([]string{"Generics"}, nil)
	fn, ok := b.Resolve("System.Console.ReadLine")
	if !ok {
		t.Fatal("expected ReadLine to resolve")
	}
	out, err := fn(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty string with no input wired, got %q", out)
	}
}

func TestReadLine_ReadsFromWiredInput(t *testing.T) {
	mod := newGenericsModule()
	mod.SetInput(strings.NewReader("hello\nworld\n"))

	fn := mod.Callables()["System.Console.ReadLine"]
	out, err := fn(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Errorf("ReadLine() = %q, want %q", out, "hello")
	}
}
