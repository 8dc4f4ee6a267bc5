package speech

import "time"

// Transcription is the recognized text for one uploaded utterance.
type Transcription struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Synthesis is the audio payload produced by the TTS provider.
type Synthesis struct {
	Audio     []byte    `json:"-"`
	Format    string    `json:"format"`
	Voice     string    `json:"voice,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
