package session

import "github.com/ironsheep/bodymap-mcp/internal/marks"

// Observer receives session events. Any callback may be nil.
//
// OnSnapshotReady and OnSnapshotFailed are called from the upload goroutine
// when an export runs through StartSnapshot.
type Observer struct {
	OnMarksChanged   func(all []marks.Mark)
	OnMarkCommitted  func(m marks.Mark)
	OnSnapshotReady  func(url string)
	OnSnapshotFailed func(err error)
}

type observers []Observer

func (obs observers) marksChanged(all []marks.Mark) {
	for _, o := range obs {
		if o.OnMarksChanged != nil {
			o.OnMarksChanged(all)
		}
	}
}

func (obs observers) markCommitted(m marks.Mark) {
	for _, o := range obs {
		if o.OnMarkCommitted != nil {
			o.OnMarkCommitted(m)
		}
	}
}

func (obs observers) snapshotReady(url string) {
	for _, o := range obs {
		if o.OnSnapshotReady != nil {
			o.OnSnapshotReady(url)
		}
	}
}

func (obs observers) snapshotFailed(err error) {
	for _, o := range obs {
		if o.OnSnapshotFailed != nil {
			o.OnSnapshotFailed(err)
		}
	}
}
