package machine

import "github.com/corda/gojvm/internal/sysabi"

// State is one of the six points in the thread coordinator's state
// machine.
type State int

const (
	NoState State = iota
	Active
	Idle
	Zombie
	Exclusive
	Exit
)

func (s State) String() string {
	switch s {
	case NoState:
		return "NoState"
	case Active:
		return "Active"
	case Idle:
		return "Idle"
	case Zombie:
		return "Zombie"
	case Exclusive:
		return "Exclusive"
	case Exit:
		return "Exit"
	default:
		return "UnknownState"
	}
}

// Enter transitions t to s under m.StateLock, applying the transition's
// count and latch side effects. Go's sync.Mutex isn't reentrant, so the
// lock is acquired once here and the recursive dance (the
// elected-collector retry loop) runs against enterLocked, which assumes
// the lock is already held.
func Enter(t *Thread, s State) {
	if s == t.State {
		return
	}
	m := t.VM
	m.StateLock.Acquire()
	defer m.StateLock.Release()
	enterLocked(m, t, s)
}

func enterLocked(m *Machine, t *Thread, s State) {
	if s == t.State {
		return
	}

	switch s {
	case Exclusive:
		sysabi.Assert(m.Sys, t.State == Active, "enter(Exclusive) requires Active")

		for m.exclusive != nil {
			// Another thread got here first: park in Idle and retry once
			// it releases, per the elected-collector protocol.
			enterLocked(m, t, Idle)
			enterLocked(m, t, Active)
		}

		t.State = Exclusive
		m.exclusive = t

		for m.activeCount > 1 {
			m.StateLock.Wait()
		}

	case Idle, Zombie:
		switch t.State {
		case Exclusive:
			sysabi.Assert(m.Sys, m.exclusive == t, "exclusive holder mismatch on release")
			m.exclusive = nil
		case Active:
			// no extra side effect
		default:
			m.Sys.Abort("machine: illegal transition " + t.State.String() + " -> " + s.String())
			return
		}

		m.activeCount--
		if s == Zombie {
			m.liveCount--
		}
		t.State = s
		m.StateLock.NotifyAll()

	case Active:
		switch t.State {
		case Exclusive:
			sysabi.Assert(m.Sys, m.exclusive == t, "exclusive holder mismatch on release")
			t.State = s
			m.exclusive = nil
			m.StateLock.NotifyAll()

		case NoState, Idle:
			for m.exclusive != nil {
				m.StateLock.Wait()
			}
			m.activeCount++
			if t.State == NoState {
				m.liveCount++
			}
			t.State = s

		default:
			m.Sys.Abort("machine: illegal transition " + t.State.String() + " -> " + s.String())
			return
		}

	case Exit:
		switch t.State {
		case Exclusive:
			sysabi.Assert(m.Sys, m.exclusive == t, "exclusive holder mismatch on release")
			m.exclusive = nil
		case Active:
			// no extra side effect
		default:
			m.Sys.Abort("machine: illegal transition " + t.State.String() + " -> " + s.String())
			return
		}

		m.activeCount--
		t.State = s

		for m.liveCount > 1 {
			m.StateLock.Wait()
		}

	default:
		m.Sys.Abort("machine: unknown target state " + s.String())
	}
}

// ActiveCount and LiveCount are read by tests that exercise the
// "after Enter(Active) returns, no thread is Exclusive" property; callers
// outside this package should otherwise treat the state machine as opaque.
func (m *Machine) ActiveCount() int {
	m.StateLock.Acquire()
	defer m.StateLock.Release()
	return m.activeCount
}

func (m *Machine) LiveCount() int {
	m.StateLock.Acquire()
	defer m.StateLock.Release()
	return m.liveCount
}

func (m *Machine) ExclusiveHolder() *Thread {
	m.StateLock.Acquire()
	defer m.StateLock.Release()
	return m.exclusive
}
