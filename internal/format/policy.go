// Package format decides which source streams the extractor may pick and
// what post-processing the media tool must apply to them.
package format

import (
	"fmt"
	"strings"

	"github.com/iconidentify/mediagrab/internal/domain"
)

// Selector is an ordered fallback chain of selector expressions, most
// preferred first. The extractor tries each until one matches.
type Selector []string

// String joins the chain with the extractor's fallback operator.
func (s Selector) String() string {
	return strings.Join(s, "/")
}

// heightSlot is replaced with the tier's height filter, or removed for TierBest.
const heightSlot = "{h}"

type policyKey struct {
	kind      domain.MediaKind
	available bool
}

// policies maps (kind, tool availability) to selector templates.
// Without the tool nothing may require merging or transcoding.
var policies = map[policyKey][]string{
	{domain.KindVideo, true}: {
		"bestvideo{h}+bestaudio",
		"best{h}",
		"best",
	},
	{domain.KindVideo, false}: {
		"best{h}[ext=mp4]",
		"best{h}",
		"best",
	},
	{domain.KindAudio, true}: {
		"bestaudio",
		"best",
	},
	{domain.KindAudio, false}: {
		"bestaudio[ext=m4a]",
		"bestaudio",
		"best",
	},
}

// Select returns the fallback chain for a kind and tier given whether the
// media tool is available. Unknown kinds are treated as video and unknown
// tiers as best.
func Select(kind domain.MediaKind, tier domain.QualityTier, toolAvailable bool) Selector {
	if kind != domain.KindAudio {
		kind = domain.KindVideo
	}

	templates := policies[policyKey{kind: kind, available: toolAvailable}]

	height := ""
	if h := tier.MaxHeight(); h > 0 {
		height = fmt.Sprintf("[height<=%d]", h)
	}

	chain := make(Selector, 0, len(templates))
	for _, tmpl := range templates {
		expr := strings.ReplaceAll(tmpl, heightSlot, height)
		// An empty ceiling can make adjacent entries identical.
		if len(chain) > 0 && chain[len(chain)-1] == expr {
			continue
		}
		chain = append(chain, expr)
	}
	return chain
}

// PostProcess describes the output the media tool is asked to force.
type PostProcess struct {
	// MergeFormat is the container separate streams are merged into.
	MergeFormat string
	// RemuxFormat repackages a pre-merged download into the same container.
	RemuxFormat string
	// AudioCodec and AudioQuality request audio extraction and transcoding.
	AudioCodec   string
	AudioQuality string
	// Extension is the file extension the final file carries.
	Extension string
}

// Applied reports whether any post-processing was requested.
func (p PostProcess) Applied() bool {
	return p.Extension != ""
}

// Output container and codec forced when the media tool is present.
const (
	VideoContainer = "mp4"
	AudioCodec     = "mp3"
	AudioBitrate   = "192"
)

// PostProcessFor returns the forced output for a kind. Without the tool no
// post-processing is requested and the native container is kept.
func PostProcessFor(kind domain.MediaKind, toolAvailable bool) PostProcess {
	if !toolAvailable {
		return PostProcess{}
	}
	if kind == domain.KindAudio {
		return PostProcess{
			AudioCodec:   AudioCodec,
			AudioQuality: AudioBitrate,
			Extension:    "." + AudioCodec,
		}
	}
	return PostProcess{
		MergeFormat: VideoContainer,
		RemuxFormat: VideoContainer,
		Extension:   "." + VideoContainer,
	}
}
