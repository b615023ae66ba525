package app

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"imagematch/domain"
)

var (
	ErrInvalidImageID  = errors.New("invalid image id")
	ErrInvalidCategory = errors.New("invalid category")
)

// LabelSubmission is one raw row as submitted by a reviewer, before any
// parsing. Both fields may be blank or garbage.
type LabelSubmission struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

type SubmissionResult struct {
	Saved    int `json:"saved"`
	Rejected int `json:"rejected"`
}

type boundLabel struct {
	imageID  int64
	category domain.Category
}

// labelField ties a submitted field name to where its raw value is kept and
// how it is parsed, validated and set on the bound label.
type labelField struct {
	name string
	raw  func(s *LabelSubmission) *string
	bind func(raw string, label *boundLabel) error
}

var labelFields = []labelField{
	{
		name: "id",
		raw:  func(s *LabelSubmission) *string { return &s.ID },
		bind: func(raw string, label *boundLabel) error {
			id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil || id <= 0 {
				return ErrInvalidImageID
			}
			label.imageID = id
			return nil
		},
	},
	{
		name: "category",
		raw:  func(s *LabelSubmission) *string { return &s.Category },
		bind: func(raw string, label *boundLabel) error {
			category, ok := domain.ParseCategory(raw)
			if !ok {
				return ErrInvalidCategory
			}
			label.category = category
			return nil
		},
	},
}

func lookupField(name string) (labelField, bool) {
	for _, f := range labelFields {
		if f.name == name {
			return f, true
		}
	}
	return labelField{}, false
}

func bindLabel(s LabelSubmission) (boundLabel, error) {
	var label boundLabel
	for _, f := range labelFields {
		if err := f.bind(*f.raw(&s), &label); err != nil {
			return boundLabel{}, fmt.Errorf("%s %q: %w", f.name, *f.raw(&s), err)
		}
	}
	return label, nil
}

// DecodeReviewForm groups posted "images-<i>-<field>" values into one
// submission per index, ordered by index. Keys outside that shape are ignored.
func DecodeReviewForm(values map[string]string) []LabelSubmission {
	byIndex := make(map[int]*LabelSubmission)

	for key, value := range values {
		index, field, ok := splitFieldName(key)
		if !ok {
			continue
		}
		f, ok := lookupField(field)
		if !ok {
			continue
		}

		s, exists := byIndex[index]
		if !exists {
			s = &LabelSubmission{}
			byIndex[index] = s
		}
		*f.raw(s) = value
	}

	indexes := make([]int, 0, len(byIndex))
	for index := range byIndex {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	submissions := make([]LabelSubmission, 0, len(indexes))
	for _, index := range indexes {
		submissions = append(submissions, *byIndex[index])
	}
	return submissions
}

func splitFieldName(key string) (int, string, bool) {
	rest, ok := strings.CutPrefix(key, formPrefix+"-")
	if !ok {
		return 0, "", false
	}
	rawIndex, field, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, "", false
	}
	// Only canonical indexes, so "01" and "+1" cannot alias "1".
	index, err := strconv.Atoi(rawIndex)
	if err != nil || index < 0 || strconv.Itoa(index) != rawIndex {
		return 0, "", false
	}
	return index, field, true
}
