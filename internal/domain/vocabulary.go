package domain

import (
	"fmt"
	"slices"

	"github.com/goccy/go-json"
)

// Vocabulary maps categorical values to stable integer codes. Codes follow the
// sorted order of the distinct values seen at fit time and never change after.
type Vocabulary struct {
	classes []string
	index   map[string]int
}

// FitVocabulary builds a vocabulary from the distinct values in values.
func FitVocabulary(values []string) Vocabulary {
	classes := slices.Clone(values)
	slices.Sort(classes)
	classes = slices.Compact(classes)
	return newVocabulary(classes)
}

func newVocabulary(classes []string) Vocabulary {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return Vocabulary{classes: classes, index: index}
}

// Encode returns the code for value, or ErrUnknownCategory.
func (v Vocabulary) Encode(value string) (int, error) {
	code, ok := v.index[value]
	if !ok {
		return 0, fmt.Errorf("%q: %w", value, ErrUnknownCategory)
	}
	return code, nil
}

// Classes returns the known values in code order.
func (v Vocabulary) Classes() []string {
	return slices.Clone(v.classes)
}

// Len returns the number of known values.
func (v Vocabulary) Len() int { return len(v.classes) }

// MarshalJSON encodes the vocabulary as its class list in code order.
func (v Vocabulary) MarshalJSON() ([]byte, error) {
	if v.classes == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.classes)
}

// UnmarshalJSON restores a vocabulary from its class list. The list must be
// sorted and free of duplicates, as produced by FitVocabulary.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var classes []string
	if err := json.Unmarshal(data, &classes); err != nil {
		return fmt.Errorf("decode vocabulary: %w", err)
	}
	for i := 1; i < len(classes); i++ {
		if classes[i-1] >= classes[i] {
			return fmt.Errorf("decode vocabulary: classes not strictly sorted at %q", classes[i])
		}
	}
	*v = newVocabulary(classes)
	return nil
}

// Vocabularies holds the fitted encoders for every categorical column.
type Vocabularies struct {
	City           Vocabulary `json:"city"`
	DonationCenter Vocabulary `json:"donation_center"`
	BloodType      Vocabulary `json:"blood_type"`
}

// FitVocabularies fits one vocabulary per categorical column of records.
func FitVocabularies(records []DonationRecord) Vocabularies {
	cities := make([]string, len(records))
	centers := make([]string, len(records))
	types := make([]string, len(records))
	for i, r := range records {
		cities[i] = r.City
		centers[i] = r.DonationCenter
		types[i] = r.BloodType
	}
	return Vocabularies{
		City:           FitVocabulary(cities),
		DonationCenter: FitVocabulary(centers),
		BloodType:      FitVocabulary(types),
	}
}
