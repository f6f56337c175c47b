package renderer

import "errors"

// Playback is the two-state controller behind a viewer's transport
// buttons. Stop is terminal for the underlying session: it destroys the
// GPU context, and a later play goes through full recreation (compile
// and texture binds again) via the rebuild hook. That keeps idle GPU
// usage bounded in documents with many dormant viewers, and is why pause
// and play are separate affordances from stop.
type Playback struct {
	session *Session
	playing bool
	rebuild func() (*Session, error)
}

// NewPlayback wraps an existing session. rebuild may be nil, in which
// case a toggle after Stop fails instead of recreating.
func NewPlayback(s *Session, rebuild func() (*Session, error)) *Playback {
	return &Playback{session: s, rebuild: rebuild}
}

func (p *Playback) Playing() bool { return p.playing }

// Session returns the live session, or nil after Stop.
func (p *Playback) Session() *Session { return p.session }

// TogglePlayPause flips between playing and paused. If the session was
// stopped, the rebuild hook recreates it first.
func (p *Playback) TogglePlayPause() error {
	if p.session == nil || p.session.State() == StateDestroyed {
		if p.rebuild == nil {
			return errors.New("session stopped and no rebuild hook configured")
		}
		s, err := p.rebuild()
		if err != nil {
			return err
		}
		p.session = s
		p.playing = false
	}
	if p.playing {
		p.session.Pause()
		p.playing = false
	} else {
		p.session.Play()
		p.playing = true
	}
	return nil
}

// Stop pauses if needed and destroys the session, freeing its GPU
// context. The controller returns to the dormant state.
func (p *Playback) Stop() {
	if p.session != nil {
		p.session.Pause()
		p.session.Destroy()
		p.session = nil
	}
	p.playing = false
}
