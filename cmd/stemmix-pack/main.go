/*
 * Copyright (c) 2026 Stemmix Project.
 * This software is part of the Stemmix multi-track audio suite.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stemmix/internal/container"
	"stemmix/internal/security"

	"github.com/chzyer/readline"
)

// SessionStructure adalah file JSON input dari pengguna: judul sesi,
// tempo asli, dan daftar stem WAV yang akan dikemas.
type SessionStructure struct {
	Title string      `json:"title"`
	Tempo float64     `json:"tempo"`
	Stems []StemEntry `json:"stems"`
}

type StemEntry struct {
	Name       string  `json:"name"`
	OriginFile string  `json:"origin_file"`
	Normalize  bool    `json:"normalize,omitempty"`
	Gain       float64 `json:"gain,omitempty"`
}

const (
	version_minor = 0
	version_major = 1
	app_name      = "Stemmix-Pack"
)

func main() {
	jsonPath, destFolder, password := runPackInterview()

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		fmt.Printf("[FAIL] Gagal baca JSON: %v\n", err)
		return
	}
	var session SessionStructure
	if err := json.Unmarshal(jsonData, &session); err != nil {
		fmt.Printf("[FAIL] JSON rusak: %v\n", err)
		return
	}
	if session.Title == "" || len(session.Stems) == 0 {
		fmt.Println("[FAIL] Struct butuh title dan minimal satu stem")
		return
	}
	if session.Tempo <= 0 {
		session.Tempo = 1.0
	}

	names := map[string]bool{}
	inputs := make([]container.StemInput, 0, len(session.Stems))
	for _, s := range session.Stems {
		if s.Name == "" || names[s.Name] {
			fmt.Printf("[FAIL] Nama stem kosong atau duplikat: %q\n", s.Name)
			return
		}
		names[s.Name] = true

		path := s.OriginFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(jsonPath), path)
		}
		inputs = append(inputs, container.StemInput{
			Name:      s.Name,
			Path:      path,
			Normalize: s.Normalize,
			Gain:      s.Gain,
		})
	}

	safeTitle := strings.ReplaceAll(session.Title, " ", "_")
	finalPath := filepath.Join(destFolder, safeTitle+".stmx")

	fmt.Printf("\n[START] PACKING: %s\n", session.Title)

	bar := NewProgress(len(inputs))
	info, err := container.Write(
		finalPath,
		session.Title,
		password,
		session.Tempo,
		inputs,
		func(done, total int) { bar.Set(done) },
	)
	if err != nil {
		fmt.Printf("[FAIL] Packing gagal: %v\n", err)
		return
	}

	for _, st := range info.Stems {
		fmt.Printf(" >> %-12s %8.2fs  %s\n", st.Name, st.Duration, st.Fingerprint)
	}
	fmt.Printf(" >> Key locker: %s\n", filepath.Base(security.LockerPath(finalPath)))
	fmt.Printf("\n[SUCCESS] Bundle Packed: %s\n", finalPath)
}

func runPackInterview() (string, string, string) {
	rl, _ := readline.NewEx(&readline.Config{Prompt: ">> "})
	defer rl.Close()

	fmt.Printf("\n%s version %d.%d\n", app_name, version_major, version_minor)
	j := ask(rl, "1. JSON Struct Path", "your-session.json")
	d := ask(rl, "2. Destination Folder (must exist)", ".")
	p := ask(rl, "3. Password Master", "")

	if p == "" {
		p = security.RandomPassword()
		fmt.Println("   (password acak, disimpan di key locker)")
	}

	return j, d, p
}

func ask(rl *readline.Instance, prompt, def string) string {
	rl.SetPrompt(fmt.Sprintf("%s [%s]: ", prompt, def))
	line, _ := rl.Readline()
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}
