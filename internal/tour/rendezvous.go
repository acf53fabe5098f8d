package tour

type signal int

const (
	signalTimer signal = iota
	signalSpeech
)

func (s signal) String() string {
	if s == signalTimer {
		return "timer"
	}
	return "speech"
}

// rendezvous joins a step's dwell timer and its narration. A new value is
// made for every step entry.
type rendezvous struct {
	token      uint64
	timerFired bool
	speechDone bool
	fired      bool
}

func newRendezvous(token uint64) *rendezvous {
	return &rendezvous{token: token}
}

// mark records sig and reports whether both signals are now in. It returns
// true at most once.
func (r *rendezvous) mark(sig signal) bool {
	switch sig {
	case signalTimer:
		r.timerFired = true
	case signalSpeech:
		r.speechDone = true
	}
	if r.fired || !r.timerFired || !r.speechDone {
		return false
	}
	r.fired = true
	return true
}
