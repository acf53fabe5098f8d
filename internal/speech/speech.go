// Package speech provides narration backends for the tour engine.
package speech

import "errors"

// ErrCanceled completes an utterance that was canceled before it finished.
var ErrCanceled = errors.New("speech canceled")

// DefaultWordsPerMinute is a comfortable narration pace at rate 1.
const DefaultWordsPerMinute = 160
