package console

import (
	"bytes"
	"time"
)

// outcome combines the two failure signals of one engine call: the status
// flag it returned and whatever it wrote to the error stream. Either one is
// enough to fail; captured error text wins over a success flag.
type outcome struct {
	ok   bool
	diag string
}

func (o outcome) failed() bool { return !o.ok || o.diag != "" }

func (o outcome) err(op string, kind Kind) error {
	if !o.failed() {
		return nil
	}
	return &EngineError{Op: op, Kind: kind, Msg: o.diag}
}

// streams are the two diagnostic buffers owned by a session.
type streams struct {
	out bytes.Buffer
	err bytes.Buffer
}

func (s *streams) reset() {
	s.out.Reset()
	s.err.Reset()
}

// invoke runs f with the process-wide gate held.
func (s *Session) invoke(op string, kind Kind, f func() bool) error {
	return s.run(op, kind, true, f)
}

// invokeReleased runs f without the gate so other sessions can make progress.
func (s *Session) invokeReleased(op string, kind Kind, f func() bool) error {
	return s.run(op, kind, false, f)
}

func (s *Session) run(op string, kind Kind, gated bool, f func() bool) error {
	if s.c == nil {
		return ErrClosed
	}
	s.bufs.reset()
	start := time.Now()
	call := f
	if gated {
		call = func() bool {
			s.gate.Lock()
			defer s.gate.Unlock()
			return f()
		}
	}
	ok := call()
	o := outcome{ok: ok, diag: s.bufs.err.String()}
	if err := o.err(op, kind); err != nil {
		s.log.Debug().Str("op", op).Dur("dur", time.Since(start)).Bool("status", ok).Msg("engine call failed")
		return err
	}
	s.log.Debug().Str("op", op).Dur("dur", time.Since(start)).Int("output_bytes", s.bufs.out.Len()).Msg("engine call")
	s.bufs.out.Reset()
	return nil
}
