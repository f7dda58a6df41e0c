package form

import (
	"github.com/LavaJover/shvark-exchange-form/internal/domain"
)

const rightPlaceholder = "0.000000"

type Phase string

const (
	// raw text differs from the committed value
	PhaseEditing Phase = "editing"
	PhaseIdle    Phase = "idle"
)

type FieldView struct {
	Raw         string `json:"raw"`
	Value       string `json:"value"`
	Placeholder string `json:"placeholder"`
	Phase       Phase  `json:"phase"`
}

// View is a read-only snapshot of the form as a UI would render it.
type View struct {
	SessionID string       `json:"session_id"`
	Left      FieldView    `json:"left"`
	Right     FieldView    `json:"right"`
	Active    domain.Side  `json:"active"`
	Rate      *domain.Rate `json:"rate,omitempty"`
	// Positive and negative segments of the progress bar.
	Progress  float64 `json:"progress"`
	Remaining float64 `json:"remaining"`
}

func fieldView(f domain.FieldState, placeholder string) FieldView {
	phase := PhaseIdle
	if !f.Settled() {
		phase = PhaseEditing
	}
	return FieldView{
		Raw:         f.Raw,
		Value:       f.Value.String(),
		Placeholder: placeholder,
		Phase:       phase,
	}
}

func NewView(sessionID string, s Settings, st State) View {
	v := View{
		SessionID: sessionID,
		Left:      fieldView(st.Left, s.Left.Min.String()),
		Right:     fieldView(st.Right, rightPlaceholder),
		Active:    st.Active,
	}
	if st.HasRate {
		r := st.Rate
		v.Rate = &r
	}
	v.Progress = Progress(st.Left.Value, s.Left)
	v.Remaining = 100 - v.Progress
	return v
}
