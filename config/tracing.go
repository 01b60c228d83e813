package config

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/logrusadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
)

// SetupTracing installs a global trace selector configured from c.
// Adapter types "go" and "logrus" are available. Trace levels are taken
// from keys below "tracelevel", e.g. "tracelevel.livedoc.document".
func SetupTracing(c *Config) error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	tracing.RegisterTraceAdapter("logrus", logrusadapter.GetAdapter(), false)
	if err := trace2go.ConfigureRoot(c, "tracelevel", trace2go.ReplaceTracers(true)); err != nil {
		return err
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}
