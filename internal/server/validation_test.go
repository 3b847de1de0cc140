package server

import (
	"strings"
	"testing"

	"vboard/internal/models"
)

func TestNormalizeTitle(t *testing.T) {
	got, err := normalizeTitle("  Sunset  ")
	if err != nil || got != "Sunset" {
		t.Fatalf("expected trimmed title, got %q (%v)", got, err)
	}
	if _, err := normalizeTitle("   "); errorNumericCode(400, err) != ErrCodeMissingRequired {
		t.Fatalf("expected missing required, got %v", err)
	}
	if _, err := normalizeTitle(strings.Repeat("é", models.MaxTitleLength)); err != nil {
		t.Fatalf("title length is counted in runes: %v", err)
	}
	if _, err := normalizeTitle(strings.Repeat("a", models.MaxTitleLength+1)); err == nil {
		t.Fatal("expected error for overlong title")
	}
}

func TestNormalizeImageURL(t *testing.T) {
	valid := []string{
		"https://img.example/a.jpg",
		"http://localhost:8000/api/upload/images/abc.png",
	}
	for _, value := range valid {
		if _, err := normalizeImageURL(value); err != nil {
			t.Fatalf("expected %q to be valid: %v", value, err)
		}
	}

	invalid := []string{
		"img.example/a.jpg",
		"/api/upload/images/abc.png",
		"javascript:alert(1)",
		"https://",
		"https://img.example/" + strings.Repeat("a", models.MaxImageURLLength),
	}
	for _, value := range invalid {
		_, err := normalizeImageURL(value)
		if errorNumericCode(400, err) != ErrCodeInvalidImageURL {
			t.Fatalf("expected %q to be rejected as invalid image url, got %v", value, err)
		}
	}
}

func TestNormalizeTagsMapsErrors(t *testing.T) {
	tags, err := normalizeTags([]string{"a", "a", " b "})
	if err != nil || len(tags) != 2 {
		t.Fatalf("unexpected tags %v (%v)", tags, err)
	}
	if _, err := normalizeTags(make([]string, 0)); err != nil {
		t.Fatalf("empty tags are fine: %v", err)
	}
	many := make([]string, models.MaxTags+1)
	for i := range many {
		many[i] = strings.Repeat("t", i+1)
	}
	if _, err := normalizeTags(many); errorNumericCode(400, err) != ErrCodeInvalidTags {
		t.Fatalf("expected invalid tags code, got %v", err)
	}
}
