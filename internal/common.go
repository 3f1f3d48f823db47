package internal

// FnModeOptions controls how remotes behave at runtime.
// Debug raises logging to debug level, Test replaces the network with a simulated TV.
type FnModeOptions struct {
	Debug bool
	Test  bool
}

type FnModeOption func(*FnModeOptions)

func WithDebug(debug bool) FnModeOption {
	return func(opts *FnModeOptions) {
		opts.Debug = debug
	}
}

func WithTest(test bool) FnModeOption {
	return func(opts *FnModeOptions) {
		opts.Test = test
	}
}

func NewModeOptions(options ...FnModeOption) FnModeOptions {
	opts := FnModeOptions{}
	for _, option := range options {
		option(&opts)
	}
	return opts
}
