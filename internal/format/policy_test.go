package format

import (
	"reflect"
	"strings"
	"testing"

	"github.com/iconidentify/mediagrab/internal/domain"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		kind      domain.MediaKind
		tier      domain.QualityTier
		available bool
		want      Selector
	}{
		{
			name: "video best with tool", kind: domain.KindVideo, tier: domain.TierBest, available: true,
			want: Selector{"bestvideo+bestaudio", "best"},
		},
		{
			name: "video 1080p with tool", kind: domain.KindVideo, tier: domain.Tier1080p, available: true,
			want: Selector{"bestvideo[height<=1080]+bestaudio", "best[height<=1080]", "best"},
		},
		{
			name: "video 720p with tool", kind: domain.KindVideo, tier: domain.Tier720p, available: true,
			want: Selector{"bestvideo[height<=720]+bestaudio", "best[height<=720]", "best"},
		},
		{
			name: "video 480p with tool", kind: domain.KindVideo, tier: domain.Tier480p, available: true,
			want: Selector{"bestvideo[height<=480]+bestaudio", "best[height<=480]", "best"},
		},
		{
			name: "video best without tool", kind: domain.KindVideo, tier: domain.TierBest, available: false,
			want: Selector{"best[ext=mp4]", "best"},
		},
		{
			name: "video 720p without tool", kind: domain.KindVideo, tier: domain.Tier720p, available: false,
			want: Selector{"best[height<=720][ext=mp4]", "best[height<=720]", "best"},
		},
		{
			name: "audio with tool", kind: domain.KindAudio, tier: domain.TierBest, available: true,
			want: Selector{"bestaudio", "best"},
		},
		{
			name: "audio without tool", kind: domain.KindAudio, tier: domain.TierBest, available: false,
			want: Selector{"bestaudio[ext=m4a]", "bestaudio", "best"},
		},
		{
			name: "audio ignores tier", kind: domain.KindAudio, tier: domain.Tier480p, available: true,
			want: Selector{"bestaudio", "best"},
		},
		{
			name: "unknown tier is best", kind: domain.KindVideo, tier: "4k", available: true,
			want: Selector{"bestvideo+bestaudio", "best"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.kind, tt.tier, tt.available)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelect_String(t *testing.T) {
	got := Select(domain.KindVideo, domain.Tier1080p, true).String()
	want := "bestvideo[height<=1080]+bestaudio/best[height<=1080]/best"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSelect_WithoutToolNeverMerges(t *testing.T) {
	for _, kind := range []domain.MediaKind{domain.KindVideo, domain.KindAudio} {
		for _, tier := range domain.Tiers {
			for _, expr := range Select(kind, tier, false) {
				if strings.Contains(expr, "+") {
					t.Errorf("%s/%s: %q requires merging", kind, tier, expr)
				}
			}
		}
	}
}

func TestSelect_VideoWithoutToolIsPreMergedOnly(t *testing.T) {
	for _, tier := range domain.Tiers {
		for _, expr := range Select(domain.KindVideo, tier, false) {
			if strings.HasPrefix(expr, "bestvideo") || strings.HasPrefix(expr, "bestaudio") {
				t.Errorf("%s: %q selects a split stream", tier, expr)
			}
			if !strings.HasPrefix(expr, "best") {
				t.Errorf("%s: %q is not a pre-merged selector", tier, expr)
			}
		}
	}
}

func TestSelect_HeightCeilingRespected(t *testing.T) {
	for _, available := range []bool{true, false} {
		for _, tier := range domain.Tiers {
			chain := Select(domain.KindVideo, tier, available)
			last := chain[len(chain)-1]
			if last != "best" {
				t.Errorf("tier %s available=%v: last fallback = %q, want unconstrained best", tier, available, last)
			}
			ceiling := tier.MaxHeight()
			for _, expr := range chain[:len(chain)-1] {
				hasCeiling := strings.Contains(expr, "[height<=")
				if (ceiling > 0) != hasCeiling {
					t.Errorf("tier %s available=%v: %q ceiling mismatch", tier, available, expr)
				}
			}
		}
	}
}

func TestSelect_NoAdjacentDuplicates(t *testing.T) {
	for _, kind := range []domain.MediaKind{domain.KindVideo, domain.KindAudio} {
		for _, tier := range domain.Tiers {
			for _, available := range []bool{true, false} {
				chain := Select(kind, tier, available)
				for i := 1; i < len(chain); i++ {
					if chain[i] == chain[i-1] {
						t.Errorf("%s/%s/%v: duplicate %q", kind, tier, available, chain[i])
					}
				}
			}
		}
	}
}

func TestPostProcessFor(t *testing.T) {
	tests := []struct {
		name      string
		kind      domain.MediaKind
		available bool
		want      PostProcess
	}{
		{
			name: "video with tool", kind: domain.KindVideo, available: true,
			want: PostProcess{MergeFormat: "mp4", RemuxFormat: "mp4", Extension: ".mp4"},
		},
		{
			name: "audio with tool", kind: domain.KindAudio, available: true,
			want: PostProcess{AudioCodec: "mp3", AudioQuality: "192", Extension: ".mp3"},
		},
		{name: "video without tool", kind: domain.KindVideo, available: false, want: PostProcess{}},
		{name: "audio without tool", kind: domain.KindAudio, available: false, want: PostProcess{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PostProcessFor(tt.kind, tt.available)
			if got != tt.want {
				t.Errorf("PostProcessFor() = %+v, want %+v", got, tt.want)
			}
			if got.Applied() != tt.available {
				t.Errorf("Applied() = %v, want %v", got.Applied(), tt.available)
			}
		})
	}
}
