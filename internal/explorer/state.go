package explorer

import (
	"github.com/v7h-lab/Nomen-origins/internal/geo"
	"github.com/v7h-lab/Nomen-origins/internal/model"
)

// View is the panel a client should show.
type View string

const (
	ViewHome    View = "home"
	ViewLoading View = "loading"
	ViewDetail  View = "detail"
	ViewChat    View = "chat"
)

// State is a snapshot of a session. View and Viewport are derived.
type State struct {
	Query       string                 `json:"query"`
	Result      *model.EtymologyResult `json:"result"`
	Error       string                 `json:"error,omitempty"`
	Loading     bool                   `json:"loading"`
	ChatLoading bool                   `json:"chatLoading"`
	ShowChat    bool                   `json:"showChat"`
	Transcript  []model.ChatMessage    `json:"transcript"`
	Selected    int                    `json:"selected"`
	Touring     bool                   `json:"touring"`
	TourStep    int                    `json:"tourStep"`
	Viewport    geo.Viewport           `json:"viewport"`
	View        View                   `json:"view"`
}

func (st State) view() View {
	switch {
	case st.Loading:
		return ViewLoading
	case st.Result != nil || st.Error != "":
		return ViewDetail
	case st.ShowChat:
		return ViewChat
	default:
		return ViewHome
	}
}

// Busy reports whether input should be held back until a request returns.
func (st State) Busy() bool {
	return st.Loading || st.ChatLoading
}

// CanTour reports whether the current result has waypoints to tour.
func (st State) CanTour() bool {
	return st.Result != nil && len(st.Result.Locations) > 0
}
