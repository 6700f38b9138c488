package container

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"stemmix/internal/security"
	"stemmix/pkg/audioengine"
	"stemmix/pkg/spec"
)

// StemEntry adalah satu baris table of contents bundle
type StemEntry struct {
	Name        string  `json:"name"`
	OriginFile  string  `json:"origin_file"`
	Offset      uint64  `json:"offset"`
	Size        uint64  `json:"size"`
	Duration    float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

type BundleInfo struct {
	Version     string      `json:"version"`
	Title       string      `json:"title"`
	CreatedDate string      `json:"created_date"`
	Tempo       float64     `json:"tempo"`
	Stems       []StemEntry `json:"stems"`
}

// Bundle adalah file .stmx yang sudah terbuka dan siap dibaca streamnya
type Bundle struct {
	Path string
	Info BundleInfo
	key  []byte
}

// Open memvalidasi magic, membaca TOC, dan menyiapkan kunci audio.
// password kosong berarti ambil dari file locker pendamping.
func Open(path, password string) (*Bundle, error) {
	if password == "" {
		pass, err := security.UnlockKeyLocker(security.LockerPath(path))
		if err != nil {
			return nil, fmt.Errorf("unlock key locker: %w", err)
		}
		password = pass
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	magic := make([]byte, len(spec.BundleMagicV1))
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %v", err)
	}
	if string(magic) != spec.BundleMagicV1 {
		return nil, fmt.Errorf("invalid bundle magic: %s", string(magic))
	}

	b := &Bundle{
		Path: path,
		key:  security.DeriveKey(password, []byte(spec.Salt)),
	}

	// Loop pembacaan Tag sampai ketemu STOC
	for {
		tagBuf := make([]byte, 4)
		if _, err := io.ReadFull(f, tagBuf); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		tag := string(tagBuf)

		var size uint32
		if err := binary.Read(f, binary.BigEndian, &size); err != nil {
			return nil, err
		}

		switch tag {
		case spec.Title:
			buf := make([]byte, size)
			io.ReadFull(f, buf)
			b.Info.Title = string(buf)

		case spec.JsonFileData:
			buf := make([]byte, size)
			if _, err := io.ReadFull(f, buf); err != nil {
				return nil, err
			}
			if err := json.Unmarshal(buf, &b.Info); err != nil {
				return nil, fmt.Errorf("failed to parse STOC: %v", err)
			}

		default:
			// Loncat ke tag berikutnya (termasuk blok AUDI)
			if _, err := f.Seek(int64(size), io.SeekCurrent); err != nil {
				return nil, err
			}
		}
	}

	if len(b.Info.Stems) == 0 {
		return nil, fmt.Errorf("no stems found in bundle (STOC missing or empty)")
	}
	return b, nil
}

// ReadStem membaca dan mendekripsi seluruh frame opus milik satu stem
func (b *Bundle) ReadStem(entry StemEntry) ([][]byte, error) {
	f, err := os.Open(b.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(int64(entry.Offset), io.SeekStart); err != nil {
		return nil, err
	}

	var frames [][]byte
	var read uint64
	for read < entry.Size {
		var sz uint16
		if err := binary.Read(f, binary.BigEndian, &sz); err != nil {
			return nil, err
		}
		enc := make([]byte, sz)
		if _, err := io.ReadFull(f, enc); err != nil {
			return nil, err
		}
		read += uint64(2 + len(enc))

		frame, err := security.Decrypt(enc, b.key)
		if err != nil {
			return nil, fmt.Errorf("stem %s: %w", entry.Name, err)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// DecodeStem membaca satu stem langsung menjadi Buffer PCM
func (b *Bundle) DecodeStem(entry StemEntry) (*audioengine.Buffer, error) {
	frames, err := b.ReadStem(entry)
	if err != nil {
		return nil, err
	}
	return audioengine.DecodeOpusFrames(frames)
}
