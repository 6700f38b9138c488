/*
 * Copyright (c) 2026 Stemmix Project.
 * This software is part of the Stemmix multi-track audio suite.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"stemmix/internal/container"
	"stemmix/internal/mixer"
)

// ===============================
// Globals
// ===============================

var (
	controlOwner net.Conn
	controlMu    sync.Mutex
)

func isOwner(c net.Conn) bool {
	controlMu.Lock()
	defer controlMu.Unlock()
	return controlOwner == c
}

func claimOwner(c net.Conn) bool {
	controlMu.Lock()
	defer controlMu.Unlock()
	if controlOwner == nil {
		controlOwner = c
		return true
	}
	return controlOwner == c
}

func releaseOwner(c net.Conn, mix *mixer.Mixer) {
	controlMu.Lock()
	defer controlMu.Unlock()
	if controlOwner == c {
		controlOwner = nil
		mix.Stop()
	}
}

// ===============================
// IPC Server
// ===============================

func startIPC(mix *mixer.Mixer) {
	sock := socketPath()

	_ = os.Remove(sock)
	ln, err := net.Listen("unix", sock)
	if err != nil {
		panic(err)
	}

	// Event push: setiap perubahan status dikirim ke owner aktif.
	go func() {
		for st := range mix.Subscribe() {
			j, err := json.Marshal(st)
			if err != nil {
				continue
			}
			controlMu.Lock()
			c := controlOwner
			controlMu.Unlock()
			if c != nil {
				c.Write(append([]byte("EVENT "), append(j, '\n')...))
			}
		}
	}()

	for {
		c, err := ln.Accept()
		if err != nil {
			continue
		}
		go handleConn(c, mix)
	}
}

func argFloat(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func argBool(raw string) (bool, bool) {
	switch strings.TrimSpace(raw) {
	case "1", "ON":
		return true, true
	case "0", "OFF":
		return false, true
	}
	return false, false
}

// loadBundle membuka file .stmx, decode semua stem, lalu serahkan ke mixer.
func loadBundle(mix *mixer.Mixer, path, password string) error {
	b, err := container.Open(path, password)
	if err != nil {
		return err
	}

	stems := make([]mixer.DecodedStem, 0, len(b.Info.Stems))
	for _, entry := range b.Info.Stems {
		buf, err := b.DecodeStem(entry)
		if err != nil {
			return err
		}
		stems = append(stems, mixer.DecodedStem{Name: entry.Name, Buffer: buf})
	}

	return mix.LoadDecoded(stems, b.Info.Tempo)
}

func handleConn(c net.Conn, mix *mixer.Mixer) {
	defer func() {
		releaseOwner(c, mix)
		c.Close()
	}()

	sc := bufio.NewScanner(c)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		// ==================================================
		// PARSE COMMAND: VERB + RAW ARG (AMAN SPASI)
		// ==================================================
		parts := strings.SplitN(line, " ", 2)
		cmd := strings.ToUpper(parts[0])

		// ==================================================
		// READ-ONLY COMMANDS (TIDAK BUTUH OWNER)
		// ==================================================
		switch cmd {

		case "ABOUT":
			aboutStr := fmt.Sprintf(
				"%s V.%d.%d\n",
				server_name,
				version_major,
				version_minor,
			)
			c.Write([]byte(aboutStr))
			continue

		case "PING":
			c.Write([]byte("Pong\n"))
			continue

		case "WHOAMI":
			if isOwner(c) {
				c.Write([]byte("OWNER\n"))
			} else {
				c.Write([]byte("OBSERVER\n"))
			}
			continue

		case "STATUS":
			j, _ := json.Marshal(mix.Status())
			c.Write(append(j, '\n'))
			continue
		}

		// ==================================================
		// CONTROL COMMANDS (BUTUH OWNER)
		// ==================================================
		if !claimOwner(c) {
			c.Write([]byte("ERR CONTROL_LOCKED\n"))
			continue
		}

		switch cmd {

		case "LOAD":
			if len(parts) != 2 {
				c.Write([]byte("ERR ARG\n"))
				continue
			}

			// LOAD <path> atau LOAD <path>\t<password>
			path := strings.TrimSpace(parts[1])
			password := ""
			if i := strings.IndexByte(path, '\t'); i >= 0 {
				password = path[i+1:]
				path = path[:i]
			}

			if err := loadBundle(mix, path, password); err != nil {
				c.Write([]byte("ERR LOAD " + err.Error() + "\n"))
				continue
			}
			c.Write([]byte("Bundle Loaded\n"))

		case "PLAY":
			if err := mix.Play(); err != nil {
				c.Write([]byte("ERR PLAY " + err.Error() + "\n"))
				continue
			}
			c.Write([]byte("Playing\n"))

		case "PAUSE":
			mix.Pause()
			c.Write([]byte("Paused\n"))

		case "STOP":
			mix.Stop()
			c.Write([]byte("Stopped\n"))

		case "SEEK":
			if len(parts) != 2 {
				c.Write([]byte("ERR ARG\n"))
				continue
			}
			sec, ok := argFloat(parts[1])
			if !ok {
				c.Write([]byte("ERR ARG\n"))
				continue
			}
			mix.Seek(sec)
			c.Write([]byte("OK\n"))

		case "TEMPO":
			if len(parts) != 2 {
				c.Write([]byte("ERR ARG\n"))
				continue
			}
			ratio, ok := argFloat(parts[1])
			if !ok {
				c.Write([]byte("ERR ARG\n"))
				continue
			}
			mix.SetTempo(ratio)
			c.Write([]byte("OK\n"))

		case "GAIN", "PAN", "MUTE", "SOLO":
			if len(parts) != 2 {
				c.Write([]byte("ERR ARG\n"))
				continue
			}
			args := strings.Fields(parts[1])
			if len(args) != 2 {
				c.Write([]byte("ERR ARG\n"))
				continue
			}

			name := args[0]
			var err error
			switch cmd {
			case "GAIN":
				v, ok := argFloat(args[1])
				if !ok {
					c.Write([]byte("ERR ARG\n"))
					continue
				}
				err = mix.SetTrackGain(name, v)
			case "PAN":
				v, ok := argFloat(args[1])
				if !ok {
					c.Write([]byte("ERR ARG\n"))
					continue
				}
				err = mix.SetTrackPan(name, v)
			case "MUTE":
				v, ok := argBool(args[1])
				if !ok {
					c.Write([]byte("ERR ARG\n"))
					continue
				}
				err = mix.SetTrackMute(name, v)
			case "SOLO":
				v, ok := argBool(args[1])
				if !ok {
					c.Write([]byte("ERR ARG\n"))
					continue
				}
				err = mix.SetTrackSolo(name, v)
			}
			if err != nil {
				c.Write([]byte("ERR TRACK " + err.Error() + "\n"))
				continue
			}
			c.Write([]byte("OK\n"))

		case "CLEAR-SOLO":
			mix.ClearSolo()
			c.Write([]byte("OK\n"))

		case "MASTER":
			if len(parts) != 2 {
				c.Write([]byte("ERR ARG\n"))
				continue
			}
			v, ok := argFloat(parts[1])
			if !ok {
				c.Write([]byte("ERR ARG\n"))
				continue
			}
			mix.SetMasterGain(v)
			c.Write([]byte("OK\n"))

		case "LOOP-A":
			// Tanpa argumen: tandai di posisi sekarang.
			sec := mix.Position()
			if len(parts) == 2 {
				v, ok := argFloat(parts[1])
				if !ok {
					c.Write([]byte("ERR ARG\n"))
					continue
				}
				sec = v
			}
			mix.SetLoopA(sec)
			c.Write([]byte("OK\n"))

		case "LOOP-B":
			sec := mix.Position()
			if len(parts) == 2 {
				v, ok := argFloat(parts[1])
				if !ok {
					c.Write([]byte("ERR ARG\n"))
					continue
				}
				sec = v
			}
			mix.SetLoopB(sec)
			c.Write([]byte("OK\n"))

		case "LOOP":
			if mix.ToggleLoop() {
				c.Write([]byte("LOOP ON\n"))
			} else {
				c.Write([]byte("LOOP OFF\n"))
			}

		default:
			c.Write([]byte("ERR UNKNOWN\n"))
		}
	}
}
