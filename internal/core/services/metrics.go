package services

import "time"

// nopMetrics is used when no recorder is wired
type nopMetrics struct{}

func (nopMetrics) ObserveStep(string, string, time.Duration)     {}
func (nopMetrics) ServiceStarted(string)                         {}
func (nopMetrics) ServiceExited(string, int)                     {}
func (nopMetrics) ServiceReady(string)                           {}
func (nopMetrics) ServiceRestarted(string)                       {}
func (nopMetrics) ObserveDependency(string, bool, time.Duration) {}
