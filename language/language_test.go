package language

import "testing"

func TestForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want Language
	}{
		{".go", Go},
		{".py", Python},
		{".PY", Python},
		{".rs", Rust},
		{".tsx", TypeScript},
		{".rb", Ruby},
		{".exe", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		if got := ForExtension(tt.ext); got != tt.want {
			t.Errorf("ForExtension(%q) = %s, want %s", tt.ext, got, tt.want)
		}
	}
}

func TestForFile(t *testing.T) {
	if got := ForFile("src/main.go"); got != Go {
		t.Errorf("ForFile(main.go) = %s, want go", got)
	}
	if got := ForFile("README.md"); got != Unknown {
		t.Errorf("ForFile(README.md) = %s, want unknown", got)
	}
}

func TestExtensions(t *testing.T) {
	exts := Extensions(Go)
	if len(exts) != 1 || exts[0] != ".go" {
		t.Errorf("Extensions(go) = %v", exts)
	}

	mixed := Extensions(Mixed)
	if len(mixed) < len(All()) {
		t.Errorf("Extensions(mixed) should cover every language, got %d entries", len(mixed))
	}

	if Extensions(Unknown) != nil {
		t.Error("Extensions(unknown) should be nil")
	}
}

func TestIsSourceFile(t *testing.T) {
	tests := []struct {
		lang Language
		path string
		want bool
	}{
		{Go, "main.go", true},
		{Go, "script.py", false},
		{Mixed, "script.py", true},
		{Mixed, "notes.txt", false},
		{Python, "app.pyi", true},
	}

	for _, tt := range tests {
		if got := IsSourceFile(tt.lang, tt.path); got != tt.want {
			t.Errorf("IsSourceFile(%s, %q) = %v, want %v", tt.lang, tt.path, got, tt.want)
		}
	}
}

func TestIsDocFile(t *testing.T) {
	if !IsDocFile("README.md") {
		t.Error("README.md should be a doc file")
	}
	if !IsDocFile("guide.RST") {
		t.Error("extension match should be case-insensitive")
	}
	if IsDocFile("main.go") {
		t.Error("main.go should not be a doc file")
	}
}

func TestUnderNoiseDir(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"node_modules/lodash/index.js", true},
		{"src/vendor/lib.go", true},
		{"src/app/main.go", false},
		{".git/HEAD", true},
		{"internal/util.go", false},
	}

	for _, tt := range tests {
		if got := UnderNoiseDir(tt.path); got != tt.want {
			t.Errorf("UnderNoiseDir(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestValid(t *testing.T) {
	for _, lang := range All() {
		if !Valid(string(lang)) {
			t.Errorf("Valid(%s) should be true", lang)
		}
	}
	if !Valid("mixed") || !Valid("unknown") {
		t.Error("mixed and unknown should be valid")
	}
	if Valid("cobol") {
		t.Error("cobol should not be valid")
	}
}

func TestLookup(t *testing.T) {
	cfg, ok := Lookup(Go)
	if !ok {
		t.Fatal("Lookup(go) should succeed")
	}
	if len(cfg.Manifests) == 0 {
		t.Error("go should have manifests")
	}

	if _, ok := Lookup(Mixed); ok {
		t.Error("Lookup(mixed) should fail; mixed has no evidence config")
	}
}
