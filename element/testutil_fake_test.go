package element

import "github.com/abhishen/click/config"

// fakeElement is a minimal Hooks implementation used by this package's own
// tests; testutil.MockElement (built on the same embedding pattern) is
// the reusable version for consumers outside this package.
type fakeElement struct {
	Base

	portCount  string
	processing string
	flowCode   string

	configureErr   error
	initializeErr  error
	configureCalls int
	initializeCalls int
	cleanupCalls   []CleanupStage
	liveReconfig   bool
	lastArgs       config.Args
}

func (f *fakeElement) ClassName() string  { return "fakeElement" }
func (f *fakeElement) PortCount() string  { return f.portCount }
func (f *fakeElement) Processing() string { return f.processing }
func (f *fakeElement) FlowCode() string   { return f.flowCode }

func (f *fakeElement) Configure(args config.Args, errh ErrorHandler) error {
	f.configureCalls++
	f.lastArgs = args
	return f.configureErr
}

func (f *fakeElement) Initialize(errh ErrorHandler) error {
	f.initializeCalls++
	return f.initializeErr
}

func (f *fakeElement) Cleanup(stage CleanupStage) {
	f.cleanupCalls = append(f.cleanupCalls, stage)
}

func (f *fakeElement) CanLiveReconfigure() bool { return f.liveReconfig }
