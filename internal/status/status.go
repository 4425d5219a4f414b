package status

import (
	"errors"
	"fmt"
	"time"
)

// ErrSentenceNotFound is returned when the page text holds no backlog sentence.
var ErrSentenceNotFound = errors.New("status sentence not found in HTML content")

// ErrDateParse is wrapped by every date parsing failure.
var ErrDateParse = errors.New("date parse failed")

var (
	ErrStandDateNotFound   = fmt.Errorf("%w: stand date not found in sentence", ErrDateParse)
	ErrTargetDateNotFound  = fmt.Errorf("%w: target date not found in sentence", ErrDateParse)
	ErrInvalidMonth        = fmt.Errorf("%w: unknown month name", ErrDateParse)
	ErrUnsupportedPosition = fmt.Errorf("%w: unsupported position descriptor", ErrDateParse)
	ErrInvalidDate         = fmt.Errorf("%w: invalid calendar date", ErrDateParse)
)

// Status is the parsed backlog announcement of one page
type Status struct {
	Sentence string    `json:"sentence"`
	Stand    time.Time `json:"stand_date"`
	Target   Target    `json:"target"`
}

// Parse locates the backlog sentence in text and parses both of its dates.
func Parse(text string) (*Status, error) {
	sentence, err := LocateSentence(text)
	if err != nil {
		return nil, err
	}

	stand, err := ParseStandDate(sentence)
	if err != nil {
		return nil, err
	}

	target, err := ParseTargetDate(sentence)
	if err != nil {
		return nil, err
	}

	return &Status{
		Sentence: sentence,
		Stand:    stand,
		Target:   target,
	}, nil
}
