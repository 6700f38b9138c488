/*
 * Copyright (c) 2026 Stemmix Project.
 * This software is part of the Stemmix multi-track audio suite.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
)

const (
	socket_default = "/tmp/stemmix-server.sock"
	version_major  = 1
	version_minor  = 0
	app_name       = "Stemmix-Client"
)

func socketPath() string {
	if p := os.Getenv("STEMMIX_SOCKET"); p != "" {
		return p
	}
	return socket_default
}

func main() {
	fmt.Printf("\n%s V.%d.%d\n", app_name, version_major, version_minor)
	conn, err := net.Dial("unix", socketPath())
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	fmt.Println("CONNECTED (like socat)")
	fmt.Println("Type IPC command, press Enter")
	fmt.Println(`Type "QUIT" to exit`)
	fmt.Println()

	// ============================
	// STDIN → IPC (interactive)
	// ============================
	go func() {
		in := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("stemmix> ")
			if !in.Scan() {
				// EOF / stdin closed
				os.Exit(0)
			}

			line := strings.TrimSpace(in.Text())
			if line == "" {
				// prompt tetap muncul
				continue
			}

			if line == "QUIT" {
				fmt.Println("Bye.")
				os.Exit(0)
			}

			_, err := conn.Write([]byte(line + "\n"))
			if err != nil {
				fmt.Println("WRITE ERROR:", err)
				os.Exit(1)
			}
		}
	}()

	// ============================
	// IPC → STDOUT (blocking)
	// ============================
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		fmt.Println("RECV:", sc.Text())
	}

	fmt.Println("SOCKET CLOSED")
	os.Exit(0)
}
