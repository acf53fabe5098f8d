package tour

// Utterance is one narration request.
type Utterance struct {
	Text string
	// Voice is nil for the backend default.
	Voice *Voice
	Rate  float64
	Pitch float64
}

// Speech is an in-flight utterance. Cancel must be idempotent and safe to
// call after the utterance has completed.
type Speech interface {
	Cancel()
}

// Synthesizer is a speech backend.
//
// Speak must call done exactly once, with nil when the utterance finished
// and an error when it failed or was canceled. done may be called before
// Speak returns. CancelAll stops everything queued or playing and is
// best-effort.
type Synthesizer interface {
	Voices() []Voice
	Speak(u Utterance, done func(error)) Speech
	CancelAll()
}
