/*
 * Copyright (c) 2026 Stemmix Project.
 * This software is part of the Stemmix multi-track audio suite.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"os"
	"strconv"
	"time"

	"stemmix/internal/beepout"
	"stemmix/internal/mixer"
)

const (
	socket_default = "/tmp/stemmix-server.sock"
	version_major  = 1
	version_minor  = 0
	server_name    = "Stemmix-Server"
)

func socketPath() string {
	if p := os.Getenv("STEMMIX_SOCKET"); p != "" {
		return p
	}
	return socket_default
}

func pollInterval() time.Duration {
	if v := os.Getenv("STEMMIX_POLL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return 15 * time.Millisecond
}

func main() {
	mix := mixer.New(beepout.New(), mixer.WithPollInterval(pollInterval()))
	defer mix.Close()
	startIPC(mix)
}
