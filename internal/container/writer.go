package container

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"stemmix/internal/security"
	"stemmix/pkg/audioengine"
	"stemmix/pkg/spec"
)

// StemInput memasangkan nama stem dengan file WAV sumbernya
type StemInput struct {
	Name      string
	Path      string
	Normalize bool
	Gain      float64
}

// Write mem-forge bundle .stmx: header TLV, blok AUDI berisi frame opus
// terenkripsi per stem, lalu TOC JSON di trailer. Progress dipanggil tiap
// stem selesai (boleh nil).
func Write(destPath, title, password string, tempo float64, stems []StemInput, progress func(done, total int)) (*BundleInfo, error) {
	if len(stems) == 0 {
		return nil, fmt.Errorf("tidak ada stem untuk dipack")
	}

	audioKey := security.DeriveKey(password, []byte(spec.Salt))

	f, err := os.Create(destPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// 1. HEADER & METADATA
	f.Write([]byte(spec.BundleMagicV1))
	writeTagB(f, spec.Title, []byte(title))

	created := time.Now().UTC().Format(time.RFC3339)
	writeTagB(f, spec.CreatedDate, []byte(created))
	for _, stem := range stems {
		writeTagB(f, spec.SourceFile, []byte(stem.Path))
	}

	// 2. AUDIO BLOCK
	f.Write([]byte(spec.AudioData))
	adatSizePos, _ := f.Seek(0, io.SeekCurrent)
	binary.Write(f, binary.BigEndian, uint32(0))
	startAudioArea, _ := f.Seek(0, io.SeekCurrent)

	info := BundleInfo{
		Version:     spec.VersionV1,
		Title:       title,
		CreatedDate: created,
		Tempo:       tempo,
	}

	for i, stem := range stems {
		resChan := make(chan audioengine.EncoderResult, 100)
		var stemSize uint64
		var writeErr error

		currentPos, _ := f.Seek(0, io.SeekCurrent)
		entry := StemEntry{
			Name:       stem.Name,
			OriginFile: stem.Path,
			Offset:     uint64(currentPos),
		}

		var writeWg sync.WaitGroup
		writeWg.Add(1)
		go func() {
			defer writeWg.Done()
			for res := range resChan {
				if res.Error != nil || writeErr != nil {
					continue
				}
				enc, err := security.Encrypt(res.Frame, audioKey)
				if err != nil {
					writeErr = err
					continue
				}
				binary.Write(f, binary.BigEndian, uint16(len(enc)))
				f.Write(enc)
				stemSize += uint64(2 + len(enc))
			}
		}()

		opts := audioengine.EncodeOptions{Normalize: stem.Normalize, Gain: stem.Gain}
		dur, fp, err := audioengine.StreamEncodeWavToOpus(stem.Path, opts, resChan)
		close(resChan)
		writeWg.Wait()
		if err != nil {
			return nil, fmt.Errorf("stem %s: %w", stem.Name, err)
		}
		if writeErr != nil {
			return nil, fmt.Errorf("stem %s: %w", stem.Name, writeErr)
		}

		entry.Duration = dur
		entry.Size = stemSize
		entry.Fingerprint = fp
		info.Stems = append(info.Stems, entry)

		if progress != nil {
			progress(i+1, len(stems))
		}
	}

	// 3. UPDATE AUDI SIZE
	endAudioArea, _ := f.Seek(0, io.SeekCurrent)
	totalAdatSize := uint32(endAudioArea - startAudioArea)
	f.Seek(adatSizePos, io.SeekStart)
	binary.Write(f, binary.BigEndian, totalAdatSize)
	f.Seek(endAudioArea, io.SeekStart)

	// 4. STOC SEALING
	tocBytes, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	writeTagB(f, spec.JsonFileData, tocBytes)

	if err := f.Sync(); err != nil {
		return nil, err
	}

	if err := security.CreateKeyLocker(destPath, password); err != nil {
		return nil, err
	}
	return &info, nil
}

func writeTagB(w io.Writer, tag string, data []byte) {
	w.Write([]byte(tag))
	binary.Write(w, binary.BigEndian, uint32(len(data)))
	w.Write(data)
}
