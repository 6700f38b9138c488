/*
 * Copyright (c) 2026 Stemmix Project.
 * This software is part of the Stemmix multi-track audio suite.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"stemmix/internal/container"
)

const (
	version_minor   = 0
	version_major   = 1
	app_name        = "Stemmix-Meta"
	general_usage   = "Usage: ./stemmix-meta -stmx <path file name .stmx>"
	json_dump_usage = "Usage: ./stemmix-meta -stmx <path file name .stmx> -jsondump"
)

func main() {
	pathFlag := flag.String("stmx", "", "full path file name of .stmx file")
	jsonDump := flag.Bool("jsondump", false, "dump JSON STOC content")
	flag.Parse()

	if *pathFlag == "" {
		fmt.Printf("\n%s %d.%d\n", app_name, version_major, version_minor)
		fmt.Printf("%s\n", general_usage)
		fmt.Printf("%s\n", json_dump_usage)
		return
	}

	// Password kosong: kunci diambil dari _keys.dat pendamping.
	b, err := container.Open(*pathFlag, "")
	if err != nil {
		fmt.Printf("Gagal buka bundle: %v\n", err)
		return
	}

	// TAMPILAN OUTPUT
	fmt.Println(strings.Repeat("=", 75))
	fmt.Printf(" TITLE         : %s\n", b.Info.Title)
	fmt.Printf(" FORMAT VER    : %s\n", b.Info.Version)
	fmt.Printf(" CREATED DATE  : %s\n", b.Info.CreatedDate)
	fmt.Printf(" STORED TEMPO  : %.2f\n", b.Info.Tempo)
	fmt.Println(strings.Repeat("-", 75))
	fmt.Printf(" %-12s | %-10s | %-10s | %s\n", "STEM", "DURATION", "SIZE", "FINGERPRINT")
	fmt.Println(strings.Repeat("-", 75))

	for _, st := range b.Info.Stems {
		min := int(st.Duration) / 60
		sec := int(st.Duration) % 60
		fmt.Printf(" %-12s | %02d:%02d      | %-10s | %s\n",
			st.Name, min, sec, formatSize(int64(st.Size)), st.Fingerprint)
	}
	fmt.Println(strings.Repeat("=", 75))

	if *jsonDump {
		j, _ := json.MarshalIndent(b.Info, "", "  ")
		fmt.Println(string(j))
		fmt.Println("=== [END DUMP] ===")
	}
}

// Helper untuk format size yang human friendly
func formatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	if exp == 0 {
		return fmt.Sprintf("%.2f Kb", float64(b)/float64(unit))
	}
	return fmt.Sprintf("%.2f Mb", float64(b)/float64(div))
}
