package service

import "go.uber.org/goleak"

// The firestore client links opencensus, whose view worker starts at init and never exits.
var leakOptions = []goleak.Option{
	goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
}
