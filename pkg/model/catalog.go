package model

// RecommendedFirstModel is the model suggested to users who have nothing installed yet.
const RecommendedFirstModel = "parakeet-tdt-0.6b-v3"

// DefaultCatalog returns the built-in model catalog.
func DefaultCatalog() []Descriptor {
	return []Descriptor{
		{
			ID:          "small",
			Name:        "Whisper Small",
			Description: "Fast and fairly accurate.",
			Filename:    "ggml-small.bin",
			URL:         "https://blob.handy.computer/ggml-small.bin",
			SizeMB:      244,
			Engine:      EngineWhisper,
		},
		{
			ID:          "medium",
			Name:        "Whisper Medium",
			Description: "Good accuracy, medium speed.",
			Filename:    "whisper-medium-q4_1.bin",
			URL:         "https://blob.handy.computer/whisper-medium-q4_1.bin",
			SizeMB:      491,
			Engine:      EngineWhisper,
		},
		{
			ID:          "turbo",
			Name:        "Whisper Turbo",
			Description: "Balanced accuracy and speed.",
			Filename:    "ggml-large-v3-turbo.bin",
			URL:         "https://blob.handy.computer/ggml-large-v3-turbo.bin",
			SizeMB:      1600,
			Engine:      EngineWhisper,
		},
		{
			ID:          "large",
			Name:        "Whisper Large",
			Description: "Good accuracy, but slow.",
			Filename:    "ggml-large-v3-q5_0.bin",
			URL:         "https://blob.handy.computer/ggml-large-v3-q5_0.bin",
			SizeMB:      1080,
			Engine:      EngineWhisper,
		},
		{
			ID:          RecommendedFirstModel,
			Name:        "Parakeet V3",
			Description: "Fast and accurate.",
			Filename:    "parakeet-tdt-0.6b-v3-int8",
			URL:         "https://blob.handy.computer/parakeet-v3-int8.tar.gz",
			SizeMB:      850,
			Directory:   true,
			Engine:      EngineParakeet,
		},
	}
}

// MergeCatalog returns base with every entry of overrides applied by id.
// Overrides with an unknown id are appended in order.
func MergeCatalog(base, overrides []Descriptor) []Descriptor {
	out := make([]Descriptor, len(base))
	copy(out, base)
	index := make(map[string]int, len(out))
	for i, d := range out {
		index[d.ID] = i
	}
	for _, o := range overrides {
		if i, ok := index[o.ID]; ok {
			out[i] = o
			continue
		}
		index[o.ID] = len(out)
		out = append(out, o)
	}
	return out
}
