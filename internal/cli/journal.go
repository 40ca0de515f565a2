package cli

import (
	"github.com/ayusman/drishti/internal/app"
	"github.com/ayusman/drishti/internal/store"
	"gocv.io/x/gocv"
)

// journal is a pipeline sink that records every labelled face of a
// session in the sightings table.
type journal struct {
	sightings *store.SightingRepository
	sessionID string
}

func newJournal(st *store.Store, sessionID string) *journal {
	return &journal{sightings: st.Sightings(), sessionID: sessionID}
}

func (j *journal) HandleFrame(res *app.FrameResult, _ *gocv.Mat) error {
	return j.sightings.Record(j.sessionID, res.Seq, res.Time, res.Annotations)
}
