package assessment

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/valyala/fastjson"
)

const (
	FieldNormalizedTitle        = "normalizedTitle"
	FieldIsMovie                = "isMovie"
	FieldAgeRating              = "ageRating"
	FieldNotMovieExplanation    = "notMovieExplanation"
	FieldSafeFactAndCuriosities = "safeFactAndCuriosities"
)

var ErrMalformed = errors.New("malformed assessment")

// Assessment is the structured answer of the generator for one title.
// AgeRating and NotMovieExplanation are nil when the generator left them out.
type Assessment struct {
	NormalizedTitle        string  `json:"normalizedTitle"`
	IsMovie                bool    `json:"isMovie"`
	AgeRating              *int    `json:"ageRating"`
	NotMovieExplanation    *string `json:"notMovieExplanation"`
	SafeFactAndCuriosities string  `json:"safeFactAndCuriosities"`
}

var parserPool fastjson.ParserPool

// Parse validates raw generator output against the assessment schema. A
// markdown code fence around the JSON is tolerated.
func Parse(raw string) (*Assessment, error) {
	body := stripFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}

	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("%w: expected object, got %s", ErrMalformed, v.Type())
	}

	var a Assessment
	if a.NormalizedTitle, err = requiredString(v, FieldNormalizedTitle); err != nil {
		return nil, err
	}
	if a.SafeFactAndCuriosities, err = requiredString(v, FieldSafeFactAndCuriosities); err != nil {
		return nil, err
	}

	isMovie := v.Get(FieldIsMovie)
	if isMovie == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformed, FieldIsMovie)
	}
	if a.IsMovie, err = isMovie.Bool(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, FieldIsMovie, err)
	}

	if a.AgeRating, err = optionalRating(v); err != nil {
		return nil, err
	}
	if a.NotMovieExplanation, err = optionalString(v, FieldNotMovieExplanation); err != nil {
		return nil, err
	}

	return &a, nil
}

func requiredString(v *fastjson.Value, field string) (string, error) {
	f := v.Get(field)
	if f == nil || f.Type() == fastjson.TypeNull {
		return "", fmt.Errorf("%w: missing %s", ErrMalformed, field)
	}
	b, err := f.StringBytes()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformed, field, err)
	}
	return string(b), nil
}

func optionalString(v *fastjson.Value, field string) (*string, error) {
	f := v.Get(field)
	if f == nil || f.Type() == fastjson.TypeNull {
		return nil, nil
	}
	b, err := f.StringBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, field, err)
	}
	s := string(b)
	return &s, nil
}

func optionalRating(v *fastjson.Value) (*int, error) {
	f := v.Get(FieldAgeRating)
	if f == nil || f.Type() == fastjson.TypeNull {
		return nil, nil
	}
	if f.Type() != fastjson.TypeNumber {
		return nil, fmt.Errorf("%w: %s must be a number", ErrMalformed, FieldAgeRating)
	}
	rating, err := f.Int()
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer: %v", ErrMalformed, FieldAgeRating, err)
	}
	if rating < 0 {
		return nil, fmt.Errorf("%w: %s must be non-negative", ErrMalformed, FieldAgeRating)
	}
	return &rating, nil
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	// Drop the info string (json, JSON, jsonc...) unless the body starts on
	// the fence line.
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	} else {
		s = strings.TrimLeftFunc(s, unicode.IsLetter)
	}
	return strings.TrimSpace(s)
}
