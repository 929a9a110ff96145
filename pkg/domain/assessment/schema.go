package assessment

const SchemaName = "movie_assessment"

// RatingScale is the set of age ratings the generator is asked to pick from.
var RatingScale = []int{7, 10, 12, 13, 16, 18}

// Schema returns the JSON schema every generator must answer with. Optional
// fields are nullable and still listed as required so strict structured
// output modes accept the schema; Parse treats null as absent.
func Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			FieldNormalizedTitle: map[string]any{
				"type":        "string",
				"description": "The canonical title of the work.",
			},
			FieldIsMovie: map[string]any{
				"type":        "boolean",
				"description": "True only for movies, not series, games, books or songs.",
			},
			FieldAgeRating: map[string]any{
				"type":        []any{"integer", "null"},
				"description": "Age rating in years, one of 7, 10, 12, 13, 16, 18. Null when unknown.",
			},
			FieldNotMovieExplanation: map[string]any{
				"type":        []any{"string", "null"},
				"description": "Short note on what the title likely is when it is not a movie.",
			},
			FieldSafeFactAndCuriosities: map[string]any{
				"type":        "string",
				"description": "One compact, spoiler-free paragraph with a factual detail and a couple of light curiosities.",
			},
		},
		"required": []any{
			FieldNormalizedTitle,
			FieldIsMovie,
			FieldAgeRating,
			FieldNotMovieExplanation,
			FieldSafeFactAndCuriosities,
		},
		"additionalProperties": false,
	}
}
