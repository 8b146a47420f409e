package ui

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFormatterWithColor(t *testing.T) {
	os.Unsetenv("NO_COLOR")
	color.NoColor = false

	result := Code.Sprint("reclaim recovery create")
	if strings.Contains(result, "`") {
		t.Errorf("Code.Sprint should not contain backticks when color is enabled, got: %s", result)
	}

	if !strings.Contains(result, "\x1b[") {
		t.Errorf("Code.Sprint should contain ANSI escape codes when color is enabled, got: %s", result)
	}
}

func TestFormatterWithNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name      string
		formatter Formatter
		input     string
		want      string
	}{
		{"Code adds backticks", Code, "reclaim recovery status", "`reclaim recovery status`"},
		{"Path has no decoration", Path, "config.toml", "config.toml"},
		{"Flag has no decoration", Flag, "--passphrase", "--passphrase"},
		{"Success has no decoration", Success, "✓", "✓"},
		{"Warning has no decoration", Warning, "⚠", "⚠"},
		{"Highlight adds quotes", Highlight, "m.cross_signing.master", "'m.cross_signing.master'"},
		{"Muted adds parentheses", Muted, "none", "(none)"},
		{"Secret is copyable", Secret, "EsTc 1234", "EsTc 1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.formatter.Sprint(tt.input)
			if got != tt.want {
				t.Errorf("Sprint(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatterSprintf(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	result := Code.Sprintf("reclaim recovery %s", "restore")
	want := "`reclaim recovery restore`"
	if result != want {
		t.Errorf("Code.Sprintf() = %q, want %q", result, want)
	}
}

func TestHelpers(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	if got := Check("done"); got != "✓ done" {
		t.Errorf("Check = %q", got)
	}
	if got := Cross("failed"); got != "✗ failed" {
		t.Errorf("Cross = %q", got)
	}
	if got := YesNo(false); got != "(no)" {
		t.Errorf("YesNo(false) = %q", got)
	}
	if got := EnsureNewline("x"); got != "x\n" {
		t.Errorf("EnsureNewline = %q", got)
	}
}

func TestRecoveryKeyLines(t *testing.T) {
	key := "EsTc aaaa bbbb cccc dddd eeee ffff gggg hhhh iiii jjjj kkkk"

	got := RecoveryKeyLines(key, 4)
	want := []string{"EsTc aaaa bbbb cccc", "dddd eeee ffff gggg", "hhhh iiii jjjj kkkk"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RecoveryKeyLines = %q, want %q", got, want)
	}

	if got := RecoveryKeyLines("EsTc aaaa bbbb", 2); len(got) != 2 || got[1] != "bbbb" {
		t.Errorf("uneven split = %q", got)
	}
	if got := RecoveryKeyLines(key, 0); len(got) != 1 {
		t.Errorf("expected a single line, got %q", got)
	}
}

func TestNoColorFunction(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if !noColor() {
		t.Error("noColor() should return true when NO_COLOR is set")
	}
	os.Unsetenv("NO_COLOR")

	originalNoColor := color.NoColor
	color.NoColor = true
	if !noColor() {
		t.Error("noColor() should return true when color.NoColor is true")
	}
	color.NoColor = originalNoColor
}
