// Package transcript reads the result documents written by transcription jobs.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Segment is one unit of recognized text
type Segment struct {
	Transcription string  `json:"transcription"`
	Confidence    Value   `json:"confidence,omitempty"`
	Tokens        []Token `json:"tokens,omitempty"`
}

// Value holds an optional scalar that engines emit either as a JSON string
// or as a number. Numbers keep their literal text.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == "null":
		*v = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", b)
		}
		*v = Value(n)
	}
	return nil
}

// Token is a recognized word with timing, when the engine reports it
type Token struct {
	Token      string `json:"token"`
	StartTime  Value  `json:"startTime,omitempty"`
	EndTime    Value  `json:"endTime,omitempty"`
	Confidence Value  `json:"confidence,omitempty"`
}

// AudioFormat describes the input audio as reported by the engine
type AudioFormat struct {
	Format          string `json:"format,omitempty"`
	NumberOfChannel int    `json:"numberOfChannels,omitempty"`
	Encoding        string `json:"encoding,omitempty"`
	SampleRateInHz  int    `json:"sampleRateInHz,omitempty"`
}

// Document is the JSON result object of a transcription job
type Document struct {
	Status             string       `json:"status,omitempty"`
	TimeCreated        string       `json:"timeCreated,omitempty"`
	ModelDetails       any          `json:"modelDetails,omitempty"`
	AudioFormatDetails *AudioFormat `json:"audioFormatDetails,omitempty"`
	Transcriptions     []Segment    `json:"transcriptions"`
}

// Text concatenates all segments in order with no separator
func (d *Document) Text() string {
	var b strings.Builder
	for _, seg := range d.Transcriptions {
		b.WriteString(seg.Transcription)
	}
	return b.String()
}

// Parse decodes raw and returns the concatenated transcript. Only
// transcriptions[].transcription is read; other fields may take any shape.
// {"transcriptions":[]} yields "".
func Parse(raw []byte) (string, error) {
	texts, err := segmentTexts(raw)
	if err != nil {
		return "", err
	}
	return strings.Join(texts, ""), nil
}

// ParseDocument decodes raw into a Document. It applies the same checks as
// Parse before decoding the optional fields.
func ParseDocument(raw []byte) (*Document, error) {
	if _, err := segmentTexts(raw); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid transcription document: %w", err)
	}
	if doc.Transcriptions == nil {
		doc.Transcriptions = []Segment{}
	}
	return &doc, nil
}

// segmentTexts requires a transcriptions array whose entries all carry a
// transcription field and returns those fields in order
func segmentTexts(raw []byte) ([]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("empty transcription document")
	}

	var envelope struct {
		Transcriptions json.RawMessage `json:"transcriptions"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("invalid transcription document: %w", err)
	}
	if len(envelope.Transcriptions) == 0 || string(envelope.Transcriptions) == "null" {
		return nil, fmt.Errorf("transcription document has no transcriptions field")
	}

	var entries []struct {
		Transcription *string `json:"transcription"`
	}
	if err := json.Unmarshal(envelope.Transcriptions, &entries); err != nil {
		return nil, fmt.Errorf("invalid transcriptions field: %w", err)
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		if e.Transcription == nil {
			return nil, fmt.Errorf("transcriptions[%d] has no transcription field", i)
		}
		texts[i] = *e.Transcription
	}
	return texts, nil
}

// Marshal encodes segments as a result document
func Marshal(status string, segments []Segment) ([]byte, error) {
	if segments == nil {
		segments = []Segment{}
	}
	return json.Marshal(Document{Status: status, Transcriptions: segments})
}
