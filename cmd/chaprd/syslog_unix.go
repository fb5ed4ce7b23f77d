//go:build unix

package main

import (
	"log"
	"log/syslog"
)

// setupLogging routes the standard logger to syslog as "ChapR", falling back
// to stderr when no syslog daemon is listening.
func setupLogging() {
	w, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, "ChapR")
	if err != nil {
		log.Printf("syslog unavailable, logging to stderr: %v", err)
		return
	}
	log.SetOutput(w)
	log.SetFlags(0)
}
