package spec

var (
	// Masing-masing 64 karakter random
	r1 = "p3K7mV1xT9qZ5cR8wB2nH6jF0dL4gS7aY1uE5iO9tP3rM8kC2vX6zQ0bW4hN7sD1"
	r2 = "G8fJ2lA6oU0yI4eT9rW3qS7dK1hZ5xV8cN2bM6mP0pL4kJ8jF3gD7sA1aQ5wE9uO"
	r3 = "Z4xC8vB2nM6mL0kJ4hG8fD2sA6qW0eR4tY8uI2oP6lK0jH4gF8dS2aZ6xC0vB4nQ"

	// MasterBfKey gabungan rand1+rand2+rand3
	MasterBfKey = r1 + r2 + r3
)

const (
	// === IDENTITY & VERSIONING ===
	VersionV1 = "1.0.0"

	// === MAGIC NUMBERS ===
	BundleMagicV1 = "STMXV1"
	LockerMagicV1 = "STMXBF01"

	// === SECURITY & ENGINE SPECS ===
	RandomPasswordLen = 32
	NonceSize         = 12
	SampleRate        = 48000
	Channels          = 2
	FrameSize         = 20

	// === TRANSPORT SPECS ===
	// Tempo ratio is a slow-down only speed multiplier.
	TempoMin = 0.2
	TempoMax = 1.0

	// === TLV TAGS (bundle layout) ===
	Salt         = "SALT"
	Title        = "TITL"
	CreatedDate  = "CRDT"
	SourceFile   = "SRCF"
	JsonFileData = "STOC" // isi table of contents JSON utuh

	// Tag untuk stream audio
	AudioData = "AUDI"
)
