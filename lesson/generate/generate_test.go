package generate

import (
	"testing"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		wantErr bool
	}{
		{"normal topic", "photosynthesis", false},
		{"empty topic", "", true},
		{"whitespace only", "   \t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Request{Topic: tt.topic}.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestNormalizedDefaults(t *testing.T) {
	got := Request{Topic: "  photosynthesis  "}.normalized()

	if got.Topic != "photosynthesis" {
		t.Errorf("Topic = %q, want trimmed", got.Topic)
	}
	if got.Level != LevelIntermediate {
		t.Errorf("Level = %q, want %q", got.Level, LevelIntermediate)
	}
	if got.Kind != lesson.KindSlides {
		t.Errorf("Kind = %q, want %q", got.Kind, lesson.KindSlides)
	}
	if got.SlideCount != defaultSlideCount {
		t.Errorf("SlideCount = %d, want %d", got.SlideCount, defaultSlideCount)
	}
	if got.Language != "en" {
		t.Errorf("Language = %q, want en", got.Language)
	}
}

func TestRequestNormalizedClampsSlideCount(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero takes default", 0, defaultSlideCount},
		{"below minimum", 1, minSlideCount},
		{"negative", -4, minSlideCount},
		{"above maximum", 100, maxSlideCount},
		{"in range", 12, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Request{Topic: "t", SlideCount: tt.in}.normalized()
			if got.SlideCount != tt.want {
				t.Errorf("SlideCount = %d, want %d", got.SlideCount, tt.want)
			}
		})
	}
}

func TestRequestNormalizedKeepsExplicitValues(t *testing.T) {
	in := Request{
		Topic:      "ray tracing",
		Level:      LevelAdvanced,
		Kind:       lesson.KindVideo,
		SlideCount: 6,
		Language:   "de",
	}

	got := in.normalized()
	if got != in {
		t.Errorf("normalized() = %+v, want unchanged %+v", got, in)
	}
}
