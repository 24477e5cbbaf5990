package game

// System is the full lifecycle contract for an engine subsystem. Every
// phase is part of the interface; systems with no work for a phase embed
// BaseSystem and inherit its no-ops.
type System interface {
	Name() string
	Init() error
	Start()
	Pause()
	Resume()
	Stop()
	Cleanup()
}

// BaseSystem is the embeddable no-op lifecycle.
type BaseSystem struct{}

func (BaseSystem) Init() error { return nil }
func (BaseSystem) Start()      {}
func (BaseSystem) Pause()      {}
func (BaseSystem) Resume()     {}
func (BaseSystem) Stop()       {}
func (BaseSystem) Cleanup()    {}
