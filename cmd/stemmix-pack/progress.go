/*
 * Copyright (c) 2026 Stemmix Project.
 * This software is part of the Stemmix multi-track audio suite.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"fmt"
	"strings"
	"sync"
)

type Progress struct {
	total   int
	current int
	mu      sync.Mutex
}

func NewProgress(total int) *Progress {
	return &Progress{total: total}
}

func (p *Progress) Set(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = done
	p.draw()
}

func (p *Progress) draw() {
	width := 30
	percent := float64(p.current) / float64(p.total)
	filled := int(float64(width) * percent)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	// Menggunakan \r untuk mengembalikan kursor ke awal baris
	fmt.Printf("\r [PACKING] [%s] %d%% (%d/%d stems)", bar, int(percent*100), p.current, p.total)

	if p.current == p.total {
		fmt.Println() // New line saat selesai
	}
}
